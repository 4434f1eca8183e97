package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestLoadCredential(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cred.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o644); err != nil {
		t.Fatalf("write credential file: %v", err)
	}

	t.Run("inline wins over file", func(t *testing.T) {
		data, err := loadCredential(`{"from":"inline"}`, file)
		if err != nil {
			t.Fatalf("loadCredential() error = %v", err)
		}
		if string(data) != `{"from":"inline"}` {
			t.Errorf("loadCredential() = %s, want inline JSON", data)
		}
	})

	t.Run("file when no inline", func(t *testing.T) {
		data, err := loadCredential("", file)
		if err != nil {
			t.Fatalf("loadCredential() error = %v", err)
		}
		if string(data) != `{"from":"file"}` {
			t.Errorf("loadCredential() = %s, want file contents", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadCredential("", filepath.Join(dir, "absent.json")); err == nil {
			t.Error("loadCredential() error = nil, want read error")
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := loadCredential("", "")
		if err == nil || !strings.Contains(err.Error(), "no credential configured") {
			t.Errorf("loadCredential() error = %v, want no credential configured", err)
		}
	})
}

func TestRowValues(t *testing.T) {
	st := storage.StoredTransaction{
		ID: 42,
		Transaction: core.Transaction{
			OwnerID:     "user-1",
			Type:        core.Expense,
			Amount:      core.Money{Cents: 1999},
			Category:    "Grocery",
			Date:        core.NewDate(2025, 3, 14),
			Description: "Walmart",
		},
	}

	row := rowValues(st)
	want := []any{"2025-03-14", "expense", 19.99, "Grocery", "Walmart", "user-1", int64(42)}
	if len(row) != len(want) {
		t.Fatalf("rowValues() returned %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("rowValues()[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestAppendRejectsInvalidTransaction(t *testing.T) {
	c := &Client{}
	_, err := c.Append(context.Background(), storage.StoredTransaction{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Append() error = %v, want validation failure", err)
	}
}
