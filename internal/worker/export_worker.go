// Package worker moves saved transactions from SQLite to the configured
// sheet. Queue messages drive the export, with a periodic pending scan as
// backup for anything the queue missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.TransactionAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender sheets.TransactionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	st, err := w.storage.Get(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	// A pending scan may have exported the row before its message arrived.
	if st.SyncStatus == "synced" {
		slog.InfoContext(ctx, "Transaction already synced, skipping",
			"id", st.ID,
			"version", st.Version)
		return nil
	}

	if err := w.exportOne(ctx, st); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}

// ProcessPending exports transactions that are still marked pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, st := range pending {
		if err := w.exportOne(ctx, st); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", st.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending batch at worker startup to
// recover from missed messages or worker downtime.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, st := range pending {
		if err := w.exportOne(ctx, st); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", st.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) exportOne(ctx context.Context, st storage.StoredTransaction) error {
	ref, err := w.appender.Append(ctx, st)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, st.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", st.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, st.ID); err != nil {
		// The append itself worked, so the export is not reported as failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", st.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", st.ID,
		"sheets_ref", ref,
		"description", st.Transaction.Description,
		"amount_cents", st.Transaction.Amount.Cents)
	return nil
}
