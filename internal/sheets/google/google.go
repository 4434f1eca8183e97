package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/config"
	ports "fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Client appends transactions to a Google Sheets spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Row-count cache so sequential appends skip the Values.Get round trip.
	mu                 sync.Mutex
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var _ ports.TransactionAppender = (*Client)(nil)

// New creates a Sheets client from the configured OAuth client and token.
// Credentials come either inline as JSON or from files, inline winning
// when both are set.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}
	if cfg.GoogleSheetName == "" {
		return nil, errors.New("missing Google sheet name")
	}

	clientJSON, err := loadCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth client: %w", err)
	}
	tokenJSON, err := loadCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth token: %w", err)
	}

	oauthCfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      cfg.GoogleSpreadsheetID,
		sheetName:          cfg.GoogleSheetName,
		cacheValidDuration: 2 * time.Minute,
	}, nil
}

// loadCredential resolves one credential from inline JSON or a file path.
func loadCredential(inline, file string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read credential file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("no credential configured")
}

// Append writes one stored transaction to the next free row of the
// configured sheet and returns its range reference.
func (c *Client) Append(ctx context.Context, st storage.StoredTransaction) (string, error) {
	if err := st.Transaction.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	nextRow, err := c.nextRow(ctx)
	if err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(st)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.InvalidateRowCache()
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	c.mu.Lock()
	c.cachedRowCount = nextRow
	c.mu.Unlock()

	return rng, nil
}

// nextRow returns the first free row, refreshing the row-count cache when
// it has expired.
func (c *Client) nextRow(ctx context.Context) (int, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) {
		row := c.cachedRowCount + 1
		c.mu.Unlock()
		return row, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}

	c.mu.Lock()
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	row := c.cachedRowCount + 1
	c.mu.Unlock()
	return row, nil
}

// InvalidateRowCache forces the next append to re-read the sheet size.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

// rowValues lays out one transaction as a sheet row:
// date, type, amount, category, description, owner, record ID.
func rowValues(st storage.StoredTransaction) []any {
	tx := st.Transaction
	return []any{
		tx.Date.Format("2006-01-02"),
		string(tx.Type),
		float64(tx.Amount.Cents) / 100.0,
		tx.Category,
		tx.Description,
		tx.OwnerID,
		st.ID,
	}
}
