package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/extract"
	"fintrack/internal/storage"
	"fintrack/internal/textproducer"
)

// ErrNoTransactions is returned when a document produced text but the
// extraction engine found nothing usable in it.
var ErrNoTransactions = errors.New("no transactions found in document")

// SyncPublisher publishes sync requests for persisted transactions.
// *amqp.Client satisfies it.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
}

// IngestResult is the outcome of running one uploaded document through the
// full pipeline.
type IngestResult struct {
	DocumentID string
	Structure  extract.Structure
	Stored     []storage.StoredTransaction
}

// TransactionService orchestrates document ingestion and transaction
// persistence across the text producers, the extraction engine, SQLite and
// AMQP.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	producers *textproducer.Registry
	engine    *extract.Engine
	publisher SyncPublisher
}

func NewTransactionService(
	storage *storage.SQLiteRepository,
	producers *textproducer.Registry,
	engine *extract.Engine,
	publisher SyncPublisher,
) *TransactionService {
	return &TransactionService{
		storage:   storage,
		producers: producers,
		engine:    engine,
		publisher: publisher,
	}
}

// IngestReceipt runs an uploaded receipt (image or PDF) through OCR and
// extraction and persists whatever the engine produced.
func (s *TransactionService) IngestReceipt(ctx context.Context, ownerID, path, mimeType string) (IngestResult, error) {
	return s.ingest(ctx, ownerID, path, mimeType)
}

// IngestStatement runs an uploaded transaction history document through
// text extraction and persists the rows found in it.
func (s *TransactionService) IngestStatement(ctx context.Context, ownerID, path, mimeType string) (IngestResult, error) {
	return s.ingest(ctx, ownerID, path, mimeType)
}

func (s *TransactionService) ingest(ctx context.Context, ownerID, path, mimeType string) (IngestResult, error) {
	documentID := uuid.NewString()

	producer, err := s.producers.ForMIME(mimeType)
	if err != nil {
		return IngestResult{}, err
	}

	text, err := producer.Produce(ctx, path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("produce text for document %s: %w", documentID, err)
	}

	res := s.engine.Extract(text, ownerID)
	slog.InfoContext(ctx, "Document extracted",
		"document_id", documentID,
		"owner_id", ownerID,
		"structure", string(res.Structure),
		"transaction_count", len(res.Transactions))

	if len(res.Transactions) == 0 {
		return IngestResult{DocumentID: documentID, Structure: res.Structure}, ErrNoTransactions
	}

	stored, err := s.storage.CreateBatch(ctx, res.Transactions, documentID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("persist extracted transactions: %w", err)
	}

	for _, st := range stored {
		s.publishSync(ctx, st.ID, st.Version)
	}

	return IngestResult{
		DocumentID: documentID,
		Structure:  res.Structure,
		Stored:     stored,
	}, nil
}

// Create validates and persists one manually entered transaction.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (storage.StoredTransaction, error) {
	if err := tx.Validate(); err != nil {
		return storage.StoredTransaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	stored, err := s.storage.Create(ctx, tx, "")
	if err != nil {
		return storage.StoredTransaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, stored.ID, stored.Version)
	return stored, nil
}

// List returns the owner's transactions, newest date first, narrowed by
// the filter's date bounds and paging.
func (s *TransactionService) List(ctx context.Context, ownerID string, f storage.ListFilter) ([]storage.StoredTransaction, error) {
	return s.storage.ListByOwner(ctx, ownerID, f)
}

// Count returns how many transactions the owner has in total.
func (s *TransactionService) Count(ctx context.Context, ownerID string) (int64, error) {
	return s.storage.CountByOwner(ctx, ownerID)
}

// Summary aggregates the owner's totals per category and type.
func (s *TransactionService) Summary(ctx context.Context, ownerID string) (core.Summary, error) {
	return s.storage.Summary(ctx, ownerID)
}

// publishSync never fails the caller: the row is already safe in SQLite
// and the worker's pending scan picks up anything the queue missed.
func (s *TransactionService) publishSync(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// Close closes storage and, when the publisher owns a connection, the AMQP
// client.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(*amqp.Client); ok && closer != nil {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
