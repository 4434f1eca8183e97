package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestStoreAppendAndItems(t *testing.T) {
	s := New()

	st := storage.StoredTransaction{
		ID: 7,
		Transaction: core.Transaction{
			OwnerID:     "user-1",
			Type:        core.Expense,
			Amount:      core.Money{Cents: 123},
			Category:    "Grocery",
			Date:        core.NewDate(2025, 1, 2),
			Description: "coffee",
		},
	}

	ref, err := s.Append(context.Background(), st)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	items := s.Items()
	if len(items) != 1 || items[0].ID != 7 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestStoreAppendRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), storage.StoredTransaction{}); err == nil {
		t.Fatal("expected validation error for empty transaction")
	}
	if len(s.Items()) != 0 {
		t.Fatal("invalid transaction must not be stored")
	}
}
