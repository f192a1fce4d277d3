// Package google implements the register on a Google Sheets spreadsheet
// authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"repartition/internal/config"
	"repartition/internal/export"
	"repartition/internal/registre"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ registre.Appender = (*Client)(nil)

// NewClient creates a Sheets client from the register configuration.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.RegistreEnabled() {
		return nil, errors.New("register is not configured")
	}

	var credentialsJSON []byte
	switch {
	case cfg.RegistreCredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline register credentials")
		credentialsJSON = []byte(cfg.RegistreCredentialsJSON)
	case cfg.RegistreCredentialsFile != "":
		slog.InfoContext(ctx, "Reading register credentials from file", "path", cfg.RegistreCredentialsFile)
		data, err := os.ReadFile(cfg.RegistreCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read register credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing register credentials (set REGISTRE_CREDENTIALS_JSON or REGISTRE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.RegistreSpreadsheetID,
		sheetName:     cfg.RegistreSheetName,
	}, nil
}

// Append writes one register line below the last used row and returns
// its cell range as a reference.
func (c *Client) Append(ctx context.Context, rep export.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Find the next empty row from the sheet's current height
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get register dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	a := rep.Affaire
	row := []any{
		a.Numero,
		a.DateAffaire.String(),
		a.Dossier.Contrevenant,
		a.MontantTotal,
		a.MontantNet,
		rep.Reconciliation.Distributed,
		rep.Reconciliation.Ecart,
		string(rep.Reconciliation.Status),
	}

	dataRange := fmt.Sprintf("%s!A%d:H%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append register row in %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Register row appended",
		"numero", a.Numero,
		"registre_ref", dataRange)

	return dataRange, nil
}
