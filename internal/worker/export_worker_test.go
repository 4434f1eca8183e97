package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

type failingAppender struct{}

func (failingAppender) Append(context.Context, storage.StoredTransaction) (string, error) {
	return "", errors.New("sheet unavailable")
}

func testRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTransaction(t *testing.T, repo *storage.SQLiteRepository, description string) storage.StoredTransaction {
	t.Helper()
	st, err := repo.Create(context.Background(), core.Transaction{
		OwnerID:     "user-1",
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1500},
		Category:    "Grocery",
		Date:        core.NewDate(2025, 4, 1),
		Description: description,
	}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return st
}

func TestHandleSyncMessageExports(t *testing.T) {
	repo := testRepo(t)
	store := memory.New()
	w := NewExportWorker(repo, store, 10)

	st := createTransaction(t, repo, "weekly shop")

	msg := amqp.NewTransactionSyncMessage(st.ID, st.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	items := store.Items()
	if len(items) != 1 || items[0].ID != st.ID {
		t.Fatalf("unexpected exported items: %+v", items)
	}

	got, err := repo.Get(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SyncStatus != "synced" {
		t.Errorf("SyncStatus = %q, want synced", got.SyncStatus)
	}
	if got.Version != st.Version+1 {
		t.Errorf("Version = %d, want %d", got.Version, st.Version+1)
	}
}

func TestHandleSyncMessageSkipsAlreadySynced(t *testing.T) {
	repo := testRepo(t)
	store := memory.New()
	w := NewExportWorker(repo, store, 10)

	st := createTransaction(t, repo, "weekly shop")
	if err := repo.MarkSynced(context.Background(), st.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	msg := amqp.NewTransactionSyncMessage(st.ID, st.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if len(store.Items()) != 0 {
		t.Error("already synced transaction must not be exported again")
	}
}

func TestHandleSyncMessageUnknownID(t *testing.T) {
	repo := testRepo(t)
	w := NewExportWorker(repo, memory.New(), 10)

	msg := amqp.NewTransactionSyncMessage(999, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleSyncMessage() error = nil, want storage error")
	}
}

func TestExportFailureMarksSyncError(t *testing.T) {
	repo := testRepo(t)
	w := NewExportWorker(repo, failingAppender{}, 10)

	st := createTransaction(t, repo, "weekly shop")

	msg := amqp.NewTransactionSyncMessage(st.ID, st.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleSyncMessage() error = nil, want append failure")
	}

	got, err := repo.Get(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SyncStatus != "error" {
		t.Errorf("SyncStatus = %q, want error", got.SyncStatus)
	}
}

func TestProcessPendingDrainsBacklog(t *testing.T) {
	repo := testRepo(t)
	store := memory.New()
	w := NewExportWorker(repo, store, 10)

	for _, desc := range []string{"first", "second", "third"} {
		createTransaction(t, repo, desc)
	}

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(store.Items()) != 3 {
		t.Fatalf("exported %d transactions, want 3", len(store.Items()))
	}

	pending, err := repo.GetPendingSync(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still %d pending after drain", len(pending))
	}
}

func TestProcessPendingContinuesAfterFailure(t *testing.T) {
	repo := testRepo(t)
	w := NewExportWorker(repo, failingAppender{}, 10)

	createTransaction(t, repo, "first")
	createTransaction(t, repo, "second")

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}

	pending, err := repo.GetPendingSync(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetPendingSync() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed rows should be marked error, not pending, got %d pending", len(pending))
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := testRepo(t)
	store := memory.New()
	w := NewExportWorker(repo, store, 2)

	for _, desc := range []string{"a", "b", "c", "d", "e"} {
		createTransaction(t, repo, desc)
	}

	// Startup drains batchSize*5, so all five fit in one pass.
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck() error = %v", err)
	}
	if len(store.Items()) != 5 {
		t.Fatalf("exported %d transactions, want 5", len(store.Items()))
	}
}
