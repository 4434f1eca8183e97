package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql used by Queries, satisfied by both
// *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Transaction is the database row shape for the transactions table.
type Transaction struct {
	ID          int64
	OwnerID     string
	DocumentID  string
	Type        string
	AmountCents int64
	Category    string
	TxDate      string
	Description string
	SyncStatus  string
	Version     int64
	CreatedAt   time.Time
}

const createTransaction = `
INSERT INTO transactions (owner_id, document_id, type, amount_cents, category, tx_date, description)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, owner_id, document_id, type, amount_cents, category, tx_date, description, sync_status, version, created_at
`

type CreateTransactionParams struct {
	OwnerID     string
	DocumentID  string
	Type        string
	AmountCents int64
	Category    string
	TxDate      string
	Description string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.OwnerID,
		arg.DocumentID,
		arg.Type,
		arg.AmountCents,
		arg.Category,
		arg.TxDate,
		arg.Description,
	)
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.DocumentID,
		&t.Type,
		&t.AmountCents,
		&t.Category,
		&t.TxDate,
		&t.Description,
		&t.SyncStatus,
		&t.Version,
		&t.CreatedAt,
	)
	return t, err
}

const getTransaction = `
SELECT id, owner_id, document_id, type, amount_cents, category, tx_date, description, sync_status, version, created_at
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.DocumentID,
		&t.Type,
		&t.AmountCents,
		&t.Category,
		&t.TxDate,
		&t.Description,
		&t.SyncStatus,
		&t.Version,
		&t.CreatedAt,
	)
	return t, err
}

const listTransactionsByOwner = `
SELECT id, owner_id, document_id, type, amount_cents, category, tx_date, description, sync_status, version, created_at
FROM transactions
WHERE owner_id = ?
ORDER BY tx_date DESC, id DESC
LIMIT ? OFFSET ?
`

type ListTransactionsByOwnerParams struct {
	OwnerID string
	Limit   int64
	Offset  int64
}

func (q *Queries) ListTransactionsByOwner(ctx context.Context, arg ListTransactionsByOwnerParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByOwner, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.DocumentID,
			&t.Type,
			&t.AmountCents,
			&t.Category,
			&t.TxDate,
			&t.Description,
			&t.SyncStatus,
			&t.Version,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const listTransactionsByOwnerInRange = `
SELECT id, owner_id, document_id, type, amount_cents, category, tx_date, description, sync_status, version, created_at
FROM transactions
WHERE owner_id = ? AND tx_date >= ? AND tx_date <= ?
ORDER BY tx_date DESC, id DESC
LIMIT ? OFFSET ?
`

type ListTransactionsByOwnerInRangeParams struct {
	OwnerID  string
	FromDate string
	ToDate   string
	Limit    int64
	Offset   int64
}

func (q *Queries) ListTransactionsByOwnerInRange(ctx context.Context, arg ListTransactionsByOwnerInRangeParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByOwnerInRange, arg.OwnerID, arg.FromDate, arg.ToDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.DocumentID,
			&t.Type,
			&t.AmountCents,
			&t.Category,
			&t.TxDate,
			&t.Description,
			&t.SyncStatus,
			&t.Version,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const countTransactionsByOwner = `
SELECT COUNT(*)
FROM transactions
WHERE owner_id = ?
`

func (q *Queries) CountTransactionsByOwner(ctx context.Context, ownerID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactionsByOwner, ownerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getCategorySums = `
SELECT category, type, SUM(amount_cents) AS total_cents
FROM transactions
WHERE owner_id = ?
GROUP BY category, type
ORDER BY category, type
`

type GetCategorySumsRow struct {
	Category   string
	Type       string
	TotalCents int64
}

func (q *Queries) GetCategorySums(ctx context.Context, ownerID string) ([]GetCategorySumsRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCategorySumsRow
	for rows.Next() {
		var r GetCategorySumsRow
		if err := rows.Scan(&r.Category, &r.Type, &r.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const getPendingSyncTransactions = `
SELECT id, owner_id, document_id, type, amount_cents, category, tx_date, description, sync_status, version, created_at
FROM transactions
WHERE sync_status = 'pending'
ORDER BY id
LIMIT ?
`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.DocumentID,
			&t.Type,
			&t.AmountCents,
			&t.Category,
			&t.TxDate,
			&t.Description,
			&t.SyncStatus,
			&t.Version,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions
SET sync_status = 'synced', version = version + 1
WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions
SET sync_status = 'error', version = version + 1
WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}
