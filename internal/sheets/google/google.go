// Package google implements the payment mirror on the Google Sheets API using
// Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rentroll/internal/core"
	ports "rentroll/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

// Ensure interface conformance
var _ ports.PaymentMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   ledgerSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
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

	slog.InfoContext(ctx, "Google Sheets service created", "sheet", "payments")
	return service, nil
}

// rowKey is the value stored in column A so replays can find their row again.
func rowKey(row ports.PaymentRow) string {
	return fmt.Sprintf("%s|%04d-%02d", row.TenantID, row.Year, row.Month)
}

// UpsertRow implements ports.PaymentMirror. The key column is scanned to find
// an existing row for the same tenant-month; matches are overwritten in place,
// everything else is appended below the last used row.
func (c *Client) UpsertRow(ctx context.Context, row ports.PaymentRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	key := rowKey(row)

	rng := fmt.Sprintf("%s!A:A", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read key column of %s: %w", c.ledgerSheet, err)
	}

	targetRow := len(resp.Values) + 1
	for i, cells := range resp.Values {
		if len(cells) > 0 && strings.TrimSpace(fmt.Sprint(cells[0])) == key {
			targetRow = i + 1
			break
		}
	}

	values := [][]any{{
		key,
		row.TenantName,
		row.RoomNo,
		core.MonthName(row.Month),
		row.Year,
		string(row.RentStatus),
		row.ElectricityBill.Rupees(),
		string(row.ElectricityStatus),
		row.MeterReading,
	}}

	dataRange := fmt.Sprintf("%s!A%d:I%d", c.ledgerSheet, targetRow, targetRow)
	vr := &gsheet.ValueRange{Values: values}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Payment row mirrored to Google Sheets",
		"key", key,
		"range", dataRange)

	return nil
}
