package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/services"
	"fintrack/internal/textproducer"
)

// handleTransactions dispatches GET (list) and POST (manual entry) on
// /api/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	tx, err := parseCreateTransaction(r, ownerID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	stored, err := s.service.Create(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction create error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.invalidateOwner(ownerID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(stored))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	filter, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	key := ownerID + ":list:" + filter.From + ":" + filter.To + ":" +
		strconv.Itoa(filter.Limit) + ":" + strconv.Itoa(filter.Offset)
	if cached, found := s.listCache.Get(key); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stored, err := s.service.List(r.Context(), ownerID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	total, err := s.service.Count(r.Context(), ownerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction count error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	resp := ListTransactionsResponse{
		Total:        total,
		Transactions: toTransactionResponses(stored),
	}
	s.listCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	key := ownerID + ":summary"
	if cached, found := s.summaryCache.Get(key); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.service.Summary(r.Context(), ownerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	resp := toSummaryResponse(summary)
	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleUploadReceipt ingests a scanned receipt image or PDF.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, false)
}

// handleUploadHistory ingests a transaction history document, PDF only.
func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, true)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, pdfOnly bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	path, mimeType, err := s.saveUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(path)

	if pdfOnly && !strings.HasPrefix(mimeType, "application/pdf") {
		writeError(w, http.StatusUnsupportedMediaType, "transaction history uploads must be PDF")
		return
	}

	var res services.IngestResult
	if pdfOnly {
		res, err = s.service.IngestStatement(r.Context(), ownerID, path, mimeType)
	} else {
		res, err = s.service.IngestReceipt(r.Context(), ownerID, path, mimeType)
	}

	switch {
	case errors.Is(err, services.ErrNoTransactions):
		writeJSON(w, http.StatusUnprocessableEntity, ingestResponseForEmpty(res.DocumentID, res.Structure))
		return
	case errors.Is(err, textproducer.ErrProducer):
		if strings.Contains(err.Error(), "unsupported media type") {
			writeError(w, http.StatusUnsupportedMediaType, "unsupported media type "+mimeType)
			return
		}
		slog.ErrorContext(r.Context(), "Text production error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusBadGateway, "failed to read document")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Ingest error", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	s.invalidateOwner(ownerID)
	writeJSON(w, http.StatusCreated, toIngestResponse(res))
}

// saveUpload stores the multipart "file" part under the upload directory
// and returns the path together with the detected MIME type. The caller
// removes the file when done.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return "", "", fmt.Errorf("parse upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("missing file part: %w", err)
	}
	defer file.Close()

	mimeType, err := detectMIME(file, header)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("store upload: %w", err)
	}
	return path, mimeType, nil
}

// detectMIME prefers the declared part type and falls back to content
// sniffing when the client sent none or a generic one.
func detectMIME(file multipart.File, header *multipart.FileHeader) (string, error) {
	declared := strings.TrimSpace(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("sniff upload type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
