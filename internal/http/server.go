// Package http exposes the JSON API: manual transaction entry, document
// uploads and read endpoints for listings and summaries.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// TransactionAPI is the service surface the server needs. Implemented by
// *services.TransactionService.
type TransactionAPI interface {
	IngestReceipt(ctx context.Context, ownerID, path, mimeType string) (services.IngestResult, error)
	IngestStatement(ctx context.Context, ownerID, path, mimeType string) (services.IngestResult, error)
	Create(ctx context.Context, tx core.Transaction) (storage.StoredTransaction, error)
	List(ctx context.Context, ownerID string, f storage.ListFilter) ([]storage.StoredTransaction, error)
	Count(ctx context.Context, ownerID string) (int64, error)
	Summary(ctx context.Context, ownerID string) (core.Summary, error)
}

type Server struct {
	http.Server
	service        TransactionAPI
	uploadDir      string
	maxUploadBytes int64

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Read-side caches, keyed per owner so writes can invalidate an
	// owner's entries as a group.
	listCache    *cache.LRUCache[ListTransactionsResponse]
	summaryCache *cache.LRUCache[SummaryResponse]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, service TransactionAPI, uploadDir string, maxUploadBytes int64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		listCache:      cache.NewLRUCache[ListTransactionsResponse](200, 5*time.Minute),
		summaryCache:   cache.NewLRUCache[SummaryResponse](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/api/transactions/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/api/upload/receipt", s.withSecurityHeaders(s.handleUploadReceipt))
	mux.HandleFunc("/api/upload/history", s.withSecurityHeaders(s.handleUploadHistory))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting and request
// logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limiting applies to writes only.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateOwner(ownerID string) {
	s.listCache.DeletePrefix(ownerID + ":")
	s.summaryCache.DeletePrefix(ownerID + ":")
}
