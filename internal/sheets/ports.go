package sheets

import (
	"context"

	"fintrack/internal/storage"
)

// Ports for outbound adapters.
type (
	// TransactionAppender writes one stored transaction to the export
	// destination and returns a reference to the written row.
	TransactionAppender interface {
		Append(ctx context.Context, tx storage.StoredTransaction) (rowRef string, err error)
	}
)
