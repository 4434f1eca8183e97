package storage

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTransaction(owner string, cents int64) core.Transaction {
	return core.Transaction{
		OwnerID:     owner,
		Type:        core.Expense,
		Amount:      core.Money{Cents: cents},
		Category:    "Grocery",
		Date:        core.NewDate(2023, 1, 15),
		Description: "Fresh Grocery Store",
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	stored, err := repo.Create(ctx, sampleTransaction("user-1", 4567), "doc-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if stored.ID == 0 {
		t.Error("Create() returned zero ID")
	}
	if stored.SyncStatus != "pending" {
		t.Errorf("SyncStatus = %q, want pending", stored.SyncStatus)
	}
	if stored.DocumentID != "doc-1" {
		t.Errorf("DocumentID = %q, want doc-1", stored.DocumentID)
	}

	got, err := repo.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	tx := got.Transaction
	if tx.OwnerID != "user-1" || tx.Amount.Cents != 4567 || tx.Category != "Grocery" {
		t.Errorf("Get() transaction = %+v", tx)
	}
	if want := core.NewDate(2023, 1, 15); !tx.Date.Equal(want.Time) {
		t.Errorf("Get() date = %v, want %v", tx.Date, want)
	}
}

func TestSQLiteRepository_CreateRejectsNonPositiveAmount(t *testing.T) {
	repo := testRepo(t)

	tx := sampleTransaction("user-1", 0)
	if _, err := repo.Create(context.Background(), tx, ""); err == nil {
		t.Error("Create() with zero amount succeeded, want CHECK constraint failure")
	}
}

func TestSQLiteRepository_CreateBatchAtomicity(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	good := sampleTransaction("user-1", 100)
	bad := sampleTransaction("user-1", -5)

	if _, err := repo.CreateBatch(ctx, []core.Transaction{good, bad}, "doc-2"); err == nil {
		t.Fatal("CreateBatch() with an invalid row succeeded, want rollback")
	}

	rows, err := repo.ListByOwner(ctx, "user-1", ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows after failed batch, want 0", len(rows))
	}
}

func TestSQLiteRepository_ListByOwnerOrderAndPaging(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2023, 1, 5),
		core.NewDate(2023, 3, 12),
		core.NewDate(2023, 2, 20),
	}
	for i, d := range dates {
		tx := sampleTransaction("user-1", int64(100*(i+1)))
		tx.Date = d
		if _, err := repo.Create(ctx, tx, ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	// Another owner's row must never leak into the listing.
	if _, err := repo.Create(ctx, sampleTransaction("user-2", 999), ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rows, err := repo.ListByOwner(ctx, "user-1", ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	wantOrder := []core.Date{
		core.NewDate(2023, 3, 12),
		core.NewDate(2023, 2, 20),
		core.NewDate(2023, 1, 5),
	}
	for i, want := range wantOrder {
		if !rows[i].Transaction.Date.Equal(want.Time) {
			t.Errorf("rows[%d].Date = %v, want %v", i, rows[i].Transaction.Date, want)
		}
	}

	page, err := repo.ListByOwner(ctx, "user-1", ListFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListByOwner() paged error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("paged query returned %d rows, want 1", len(page))
	}

	feb, err := repo.ListByOwner(ctx, "user-1", ListFilter{From: "2023-02-01", To: "2023-02-28", Limit: 10})
	if err != nil {
		t.Fatalf("ListByOwner() ranged error = %v", err)
	}
	if len(feb) != 1 || !feb[0].Transaction.Date.Equal(core.NewDate(2023, 2, 20).Time) {
		t.Errorf("date-ranged query = %+v, want only the February row", feb)
	}

	since, err := repo.ListByOwner(ctx, "user-1", ListFilter{From: "2023-02-01", Limit: 10})
	if err != nil {
		t.Fatalf("ListByOwner() open-ended error = %v", err)
	}
	if len(since) != 2 {
		t.Errorf("open-ended range returned %d rows, want 2", len(since))
	}

	count, err := repo.CountByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountByOwner() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountByOwner() = %d, want 3", count)
	}
}

func TestSQLiteRepository_Summary(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	groceries := sampleTransaction("user-1", 1000)
	moreGroceries := sampleTransaction("user-1", 500)
	income := core.Transaction{
		OwnerID:     "user-1",
		Type:        core.Income,
		Amount:      core.Money{Cents: 250000},
		Category:    core.CategoryIncome,
		Date:        core.NewDate(2023, 1, 31),
		Description: "Salary deposit",
	}
	for _, tx := range []core.Transaction{groceries, moreGroceries, income} {
		if _, err := repo.Create(ctx, tx, ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	summary, err := repo.Summary(ctx, "user-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want user-1", summary.OwnerID)
	}
	totals := map[string]int64{}
	for _, ct := range summary.ByCategory {
		totals[ct.Category] = ct.Total.Cents
	}
	if totals["Grocery"] != 1500 {
		t.Errorf("Grocery total = %d, want 1500", totals["Grocery"])
	}
	if totals[core.CategoryIncome] != 250000 {
		t.Errorf("Income total = %d, want 250000", totals[core.CategoryIncome])
	}
}

func TestSQLiteRepository_SyncLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, sampleTransaction("user-1", 100), "doc-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := repo.Create(ctx, sampleTransaction("user-1", 200), "doc-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}

	if err := repo.MarkSynced(ctx, first.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := repo.MarkSyncError(ctx, second.ID); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	pending, err = repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending after marking, want 0", len(pending))
	}

	synced, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if synced.SyncStatus != "synced" || synced.Version != 2 {
		t.Errorf("first = %s v%d, want synced v2", synced.SyncStatus, synced.Version)
	}

	failed, err := repo.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if failed.SyncStatus != "error" {
		t.Errorf("second status = %s, want error", failed.SyncStatus)
	}
}
