// Package google exports balance snapshots to a Google Sheets
// spreadsheet. Rows are append-only; each export writes one row per
// non-zero pairwise balance tagged with the group version, so the
// latest version wins on the reading side.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"splitledger/internal/core"
	"splitledger/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	balancesSheet string
}

// Ensure interface conformance
var _ export.SnapshotWriter = (*Client)(nil)

// NewFromEnv creates a Sheets exporter using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_BALANCES_SHEET_NAME (default "Balances").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheet := strings.TrimSpace(os.Getenv("GOOGLE_BALANCES_SHEET_NAME"))
	if sheet == "" {
		sheet = "Balances"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		balancesSheet: sheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteSnapshot appends one row per pairwise balance. A fully settled
// group still writes a marker row so the export trail shows the group
// reached zero at that version.
func (c *Client) WriteSnapshot(ctx context.Context, snap core.BalanceSnapshot, names map[string]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	display := func(memberID string) string {
		if name, ok := names[memberID]; ok && name != "" {
			return name
		}
		return memberID
	}

	asOf := snap.AsOf.UTC().Format(time.RFC3339)
	rows := make([][]any, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		rows = append(rows, []any{
			asOf,
			snap.GroupID,
			snap.GroupName,
			snap.Version,
			display(e.Debtor),
			display(e.Creditor),
			e.Amount.String(),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []any{asOf, snap.GroupID, snap.GroupName, snap.Version, "", "", "0.00"})
	}

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", c.balancesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get sheet dimensions for %s: %w", c.balancesSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:G%d", c.balancesSheet, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update rows in sheet %s: %w", c.balancesSheet, err)
	}

	slog.InfoContext(ctx, "Exported balance snapshot",
		"group_id", snap.GroupID,
		"version", snap.Version,
		"rows", len(rows),
		"sheet", c.balancesSheet)
	return nil
}
