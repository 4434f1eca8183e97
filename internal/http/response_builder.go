package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/extract"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// TransactionResponse is the JSON shape of one stored transaction.
type TransactionResponse struct {
	ID          int64  `json:"id"`
	OwnerID     string `json:"owner_id"`
	DocumentID  string `json:"document_id,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	SyncStatus  string `json:"sync_status"`
}

// ListTransactionsResponse is one page of an owner's transactions
// together with the owner's overall total.
type ListTransactionsResponse struct {
	Total        int64                 `json:"total"`
	Transactions []TransactionResponse `json:"transactions"`
}

// SummaryResponse aggregates an owner's totals per category.
type SummaryResponse struct {
	OwnerID    string               `json:"owner_id"`
	ByCategory []CategoryTotalEntry `json:"by_category"`
}

type CategoryTotalEntry struct {
	Category   string `json:"category"`
	Type       string `json:"type"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

// IngestResponse reports what one uploaded document produced.
type IngestResponse struct {
	DocumentID   string                `json:"document_id"`
	Structure    string                `json:"structure"`
	Count        int                   `json:"count"`
	Transactions []TransactionResponse `json:"transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toTransactionResponse(st storage.StoredTransaction) TransactionResponse {
	tx := st.Transaction
	return TransactionResponse{
		ID:          st.ID,
		OwnerID:     tx.OwnerID,
		DocumentID:  st.DocumentID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.Format(),
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		SyncStatus:  st.SyncStatus,
	}
}

func toTransactionResponses(stored []storage.StoredTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(stored))
	for i, st := range stored {
		out[i] = toTransactionResponse(st)
	}
	return out
}

func toSummaryResponse(s core.Summary) SummaryResponse {
	resp := SummaryResponse{
		OwnerID:    s.OwnerID,
		ByCategory: make([]CategoryTotalEntry, len(s.ByCategory)),
	}
	for i, ct := range s.ByCategory {
		resp.ByCategory[i] = CategoryTotalEntry{
			Category:   ct.Category,
			Type:       string(ct.Type),
			Total:      ct.Total.Format(),
			TotalCents: ct.Total.Cents,
		}
	}
	return resp
}

func toIngestResponse(res services.IngestResult) IngestResponse {
	return IngestResponse{
		DocumentID:   res.DocumentID,
		Structure:    string(res.Structure),
		Count:        len(res.Stored),
		Transactions: toTransactionResponses(res.Stored),
	}
}

// ingestResponseForEmpty reports a document that produced no transactions.
func ingestResponseForEmpty(documentID string, structure extract.Structure) IngestResponse {
	return IngestResponse{
		DocumentID:   documentID,
		Structure:    string(structure),
		Count:        0,
		Transactions: []TransactionResponse{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
