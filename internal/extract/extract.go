// Package extract converts noisy OCR or PDF text into structured
// transactions.
//
// The engine is a one-pass, stateless pipeline:
//
//	Text -> StructureDecision -> {Candidate}* -> {Transaction}*
//
// Each stage consumes the previous stage's output. The engine holds no
// shared mutable state, performs no I/O and is safe to invoke concurrently.
// Candidates that fail field extraction or validation are dropped silently;
// an empty result is a normal outcome, not an error.
package extract

import (
	"strings"
	"time"
	"unicode/utf8"

	"fintrack/internal/core"
)

const (
	StructureTabular Structure = "tabular"
	StructureSingle  Structure = "single"
)

type (
	// Structure is the document-level shape decision: one transaction per
	// qualifying line (tabular) or one transaction for the whole text (single).
	Structure string

	// TraceEvent describes one observable step inside the pipeline.
	// Line is 1-based and zero for document-level events.
	TraceEvent struct {
		Stage  string
		Line   int
		Detail string
	}

	// TraceFunc receives pipeline events when installed via WithTrace.
	TraceFunc func(e TraceEvent)

	// Result is the engine output for one input text.
	Result struct {
		RawText      string
		Structure    Structure
		Transactions []core.Transaction
	}

	Engine struct {
		now          func() time.Time
		dateFallback bool
		trace        TraceFunc
	}

	Option func(*Engine)
)

// WithClock overrides the time source used for the single-document date
// fallback. Useful for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDateFallback controls whether a single-document candidate without a
// parseable date is stamped with the current processing date (default) or
// dropped.
func WithDateFallback(enabled bool) Option {
	return func(e *Engine) { e.dateFallback = enabled }
}

// WithTrace installs an observability hook. The engine never logs on its
// own; callers that want visibility into structure decisions and dropped
// candidates pass a hook here.
func WithTrace(fn TraceFunc) Option {
	return func(e *Engine) { e.trace = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:          time.Now,
		dateFallback: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emit(stage string, line int, detail string) {
	if e.trace != nil {
		e.trace(TraceEvent{Stage: stage, Line: line, Detail: detail})
	}
}

// Extract runs the full pipeline over one UTF-8 text and stamps ownerID on
// every produced transaction. Transactions are returned in document order.
func (e *Engine) Extract(text, ownerID string) Result {
	doc := normalize(text)

	candidates, structure := classifyStructure(doc)
	e.emit("structure", 0, string(structure))

	res := Result{RawText: text, Structure: structure}
	for _, cand := range candidates {
		tx, ok := e.build(cand, structure, ownerID)
		if !ok {
			continue
		}
		res.Transactions = append(res.Transactions, tx)
		e.emit("build", cand.line, tx.Description)
	}
	return res
}

// build assembles and validates a single transaction from a candidate.
// A malformed candidate is dropped, not reported as an error.
func (e *Engine) build(cand candidate, structure Structure, ownerID string) (core.Transaction, bool) {
	if !cand.hasAmount || cand.amountCents <= 0 {
		e.emit("drop", cand.line, "amount missing or non-positive")
		return core.Transaction{}, false
	}

	date := cand.date
	if date.IsZero() {
		if structure == StructureTabular {
			// A row without a genuine date is not a transaction row.
			e.emit("drop", cand.line, "date missing")
			return core.Transaction{}, false
		}
		if !e.dateFallback {
			e.emit("drop", cand.line, "date missing and fallback disabled")
			return core.Transaction{}, false
		}
		date = core.DateOf(e.now())
	}

	txType := classifyType(cand)
	e.emit("type", cand.line, string(txType))

	category := classifyCategory(txType, cand.lowerText())
	e.emit("category", cand.line, category)

	tx := core.Transaction{
		OwnerID:     ownerID,
		Type:        txType,
		Amount:      core.Money{Cents: cand.amountCents},
		Category:    category,
		Date:        date,
		Description: clampDescription(cand.description(structure)),
	}
	if err := tx.Validate(); err != nil {
		e.emit("drop", cand.line, "validation: "+err.Error())
		return core.Transaction{}, false
	}
	return tx, true
}

// clampDescription enforces the same byte limit that Validate does,
// backing up to a rune boundary so multibyte text is never split.
func clampDescription(s string) string {
	if len(s) <= 200 {
		return s
	}
	cut := 200
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], " ")
}
