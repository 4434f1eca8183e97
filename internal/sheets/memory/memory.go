package memory

import (
	"context"
	"fmt"
	"sync"

	ports "fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Store is an in-process appender used when no spreadsheet is configured
// and in tests.
type Store struct {
	mu    sync.Mutex
	items []storage.StoredTransaction
}

var _ ports.TransactionAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, st storage.StoredTransaction) (string, error) {
	if err := st.Transaction.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, st)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []storage.StoredTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.StoredTransaction(nil), s.items...)
}
