package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	ownerHeader = "X-Owner-ID"

	defaultPageSize = 50
	maxPageSize     = 200
)

// createTransactionRequest is the JSON body of POST /api/transactions.
// Amount is a decimal string; comma decimal separators are accepted.
type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// ownerFromRequest extracts the calling owner's identity.
func ownerFromRequest(r *http.Request) (string, error) {
	owner := sanitizeInput(r.Header.Get(ownerHeader))
	if owner == "" {
		return "", fmt.Errorf("missing %s header", ownerHeader)
	}
	return owner, nil
}

// parseCreateTransaction decodes and validates a manual transaction entry.
func parseCreateTransaction(r *http.Request, ownerID string) (core.Transaction, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read request body: %w", err)
	}

	var req createTransactionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid JSON: %w", err)
	}

	txType, err := core.ParseTransactionType(strings.ToLower(sanitizeInput(req.Type)))
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseDecimalToCents(sanitizeInput(req.Amount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}

	day, err := time.Parse("2006-01-02", sanitizeInput(req.Date))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", req.Date)
	}

	category := sanitizeInput(req.Category)
	if category == "" {
		if txType == core.Income {
			category = core.CategoryIncome
		} else {
			category = core.CategoryUncategorized
		}
	}

	return core.Transaction{
		OwnerID:     ownerID,
		Type:        txType,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Date:        core.DateOf(day),
		Description: sanitizeInput(req.Description),
	}, nil
}

// parseListQuery reads paging and optional inclusive date bounds from the
// query string. Out-of-range paging values fall back to defaults; a
// malformed date is an error so callers do not silently get the unfiltered
// list.
func parseListQuery(r *http.Request) (storage.ListFilter, error) {
	f := storage.ListFilter{Limit: defaultPageSize}

	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	for _, bound := range []struct {
		param string
		dst   *string
	}{
		{"start_date", &f.From},
		{"end_date", &f.To},
	} {
		v := strings.TrimSpace(r.URL.Query().Get(bound.param))
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return storage.ListFilter{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", bound.param, v)
		}
		*bound.dst = v
	}

	return f, nil
}
