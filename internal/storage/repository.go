package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StoredTransaction is a persisted transaction together with its database
// identity and sync state.
type StoredTransaction struct {
	ID          int64
	DocumentID  string
	SyncStatus  string
	Version     int64
	CreatedAt   time.Time
	Transaction core.Transaction
}

// Create persists one transaction. documentID ties it back to the uploaded
// document it was extracted from, empty for manual entries.
func (r *SQLiteRepository) Create(ctx context.Context, tx core.Transaction, documentID string) (StoredTransaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		OwnerID:     tx.OwnerID,
		DocumentID:  documentID,
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		TxDate:      tx.Date.Format(dateLayout),
		Description: tx.Description,
	})
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"owner_id", row.OwnerID,
		"description", row.Description,
		"amount_cents", row.AmountCents,
		"category", row.Category)

	return fromRow(row)
}

// CreateBatch persists all transactions atomically: either the whole
// extracted document lands or none of it does.
func (r *SQLiteRepository) CreateBatch(ctx context.Context, txs []core.Transaction, documentID string) ([]StoredTransaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer dbTx.Rollback()

	q := r.queries.WithTx(dbTx)
	stored := make([]StoredTransaction, 0, len(txs))
	for _, tx := range txs {
		row, err := q.CreateTransaction(ctx, CreateTransactionParams{
			OwnerID:     tx.OwnerID,
			DocumentID:  documentID,
			Type:        string(tx.Type),
			AmountCents: tx.Amount.Cents,
			Category:    tx.Category,
			TxDate:      tx.Date.Format(dateLayout),
			Description: tx.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("create transaction in batch: %w", err)
		}
		st, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		stored = append(stored, st)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved to SQLite",
		"document_id", documentID,
		"count", len(stored))
	return stored, nil
}

// Get retrieves a single transaction by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (StoredTransaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return fromRow(row)
}

// ListFilter narrows ListByOwner. From and To are inclusive date bounds
// in YYYY-MM-DD form; empty means unbounded.
type ListFilter struct {
	From   string
	To     string
	Limit  int
	Offset int
}

// ListByOwner returns the owner's transactions, most recent date first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string, f ListFilter) ([]StoredTransaction, error) {
	var rows []Transaction
	var err error
	if f.From == "" && f.To == "" {
		rows, err = r.queries.ListTransactionsByOwner(ctx, ListTransactionsByOwnerParams{
			OwnerID: ownerID,
			Limit:   int64(f.Limit),
			Offset:  int64(f.Offset),
		})
	} else {
		from, to := f.From, f.To
		if from == "" {
			from = "0001-01-01"
		}
		if to == "" {
			to = "9999-12-31"
		}
		rows, err = r.queries.ListTransactionsByOwnerInRange(ctx, ListTransactionsByOwnerInRangeParams{
			OwnerID:  ownerID,
			FromDate: from,
			ToDate:   to,
			Limit:    int64(f.Limit),
			Offset:   int64(f.Offset),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	stored := make([]StoredTransaction, 0, len(rows))
	for _, row := range rows {
		st, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		stored = append(stored, st)
	}
	return stored, nil
}

// CountByOwner returns how many transactions the owner has in total.
func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	count, err := r.queries.CountTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// Summary aggregates the owner's totals per category and type.
func (r *SQLiteRepository) Summary(ctx context.Context, ownerID string) (core.Summary, error) {
	sums, err := r.queries.GetCategorySums(ctx, ownerID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("get category sums: %w", err)
	}

	summary := core.Summary{OwnerID: ownerID}
	for _, s := range sums {
		txType, err := core.ParseTransactionType(s.Type)
		if err != nil {
			return core.Summary{}, fmt.Errorf("summary row for category %s: %w", s.Category, err)
		}
		summary.ByCategory = append(summary.ByCategory, core.CategoryTotal{
			Category: s.Category,
			Type:     txType,
			Total:    core.Money{Cents: s.TotalCents},
		})
	}
	return summary, nil
}

// GetPendingSync returns transactions waiting for export.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]StoredTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}

	stored := make([]StoredTransaction, 0, len(rows))
	for _, row := range rows {
		st, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		stored = append(stored, st)
	}
	return stored, nil
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction whose export failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func fromRow(row Transaction) (StoredTransaction, error) {
	txType, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	date, err := time.Parse(dateLayout, row.TxDate)
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("transaction %d date %q: %w", row.ID, row.TxDate, err)
	}
	return StoredTransaction{
		ID:         row.ID,
		DocumentID: row.DocumentID,
		SyncStatus: row.SyncStatus,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt,
		Transaction: core.Transaction{
			OwnerID:     row.OwnerID,
			Type:        txType,
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    row.Category,
			Date:        core.DateOf(date),
			Description: row.Description,
		},
	}, nil
}
