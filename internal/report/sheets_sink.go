package report

import (
	"context"

	"mtg_card_prices/internal/retry"

	"github.com/rs/zerolog/log"
)

// SheetsAPI is the slice of the sheets client the sink needs.
type SheetsAPI interface {
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
	AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}) error
}

// SheetsSink mirrors report rows into a Google Sheets range, below whatever
// is already there. The sheet is a convenience copy of the CSV report;
// export failures are logged and never fail the run.
type SheetsSink struct {
	api           SheetsAPI
	spreadsheetID string
	sheetRange    string
	policy        retry.Policy
}

func NewSheetsSink(api SheetsAPI, spreadsheetID, sheetRange string, policy retry.Policy) *SheetsSink {
	return &SheetsSink{
		api:           api,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		policy:        policy,
	}
}

// Append exports rows to the spreadsheet, retrying transient API errors.
// An empty sheet gets the header row first, the same rule the CSV file
// follows.
func (s *SheetsSink) Append(ctx context.Context, rows []Row) {
	if len(rows) == 0 {
		return
	}

	existing, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([][]interface{}, error) {
		return s.api.ReadSheet(ctx, s.spreadsheetID, s.sheetRange)
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("spreadsheet_id", s.spreadsheetID).
			Msg("Failed to read sheet before export")
		return
	}

	if len(existing) == 0 {
		rows = append([]Row{Header()}, rows...)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	_, err = retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.AppendRows(ctx, s.spreadsheetID, s.sheetRange, values)
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("spreadsheet_id", s.spreadsheetID).
			Msg("Failed to export report to sheet")
		return
	}

	log.Debug().
		Int("rows", len(values)).
		Str("spreadsheet_id", s.spreadsheetID).
		Msg("Exported report rows to sheet")
}
