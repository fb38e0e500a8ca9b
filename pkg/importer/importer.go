// Package importer bulk-loads assets and trackers from Excel workbooks.
// Each data row is turned into a header->cell payload map and pushed
// through the reconciler, so spreadsheet columns enjoy the same alias and
// casing tolerance as webhook payloads.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"asset-tracker-api/internal/store"
	"asset-tracker-api/pkg/reconciler"
)

// ImportOptions defines the configuration for Excel import operations.
type ImportOptions struct {
	Aliases      *reconciler.AliasConfig
	HistoryLimit int
	DryRun       bool
	MaxErrors    int // default 50
}

// RowError represents an error that occurred during row processing.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet.
type SheetSummary struct {
	Name    string     `json:"name"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  int        `json:"errors"`
	Samples []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics.
type ImportSummary struct {
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Skipped int            `json:"skipped"`
	Errors  int            `json:"errors"`
	Sheets  []SheetSummary `json:"sheets"`
	DryRun  bool           `json:"dry_run"`
}

// ImportExcel processes an Excel workbook and upserts its rows into st.
// A dry run replays the rows against a scratch copy of the store, so the
// summary is accurate without persisting anything.
func ImportExcel(ctx context.Context, st store.Store, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	target := st
	if opts.DryRun {
		target, err = scratchCopy(ctx, st)
		if err != nil {
			return summary, fmt.Errorf("failed to snapshot store for dry run: %w", err)
		}
	}

	rec := reconciler.New(target, reconciler.Options{
		Aliases:      opts.Aliases,
		HistoryLimit: opts.HistoryLimit,
	})

	for _, sheet := range xlFile.Sheets {
		sheetSummary := processSheet(ctx, rec, sheet)
		summary.Sheets = append(summary.Sheets, sheetSummary)

		summary.Created += sheetSummary.Created
		summary.Updated += sheetSummary.Updated
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

// scratchCopy clones the five collection keys into a fresh memory store.
func scratchCopy(ctx context.Context, st store.Store) (store.Store, error) {
	mem := store.NewMemory()
	keys := []string{store.KeyAssets, store.KeyTrackers, store.KeyLinks, store.KeyPositions, store.KeyHistory}
	for _, key := range keys {
		doc, ok, err := st.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := mem.Set(ctx, key, doc); err != nil {
			return nil, err
		}
	}
	return mem, nil
}

func processSheet(ctx context.Context, rec *reconciler.Reconciler, sheet *xlsx.Sheet) SheetSummary {
	summary := SheetSummary{Name: sheet.Name}

	headerRow, err := sheet.Row(0)
	if err != nil {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{
			Sheet:   sheet.Name,
			Row:     1,
			Message: "failed to read header row: " + err.Error(),
		})
		return summary
	}

	// Header names become payload keys verbatim; the reconciler's alias
	// index handles spelling and casing.
	headers := make(map[int]string)
	for colIdx := 0; colIdx < sheet.MaxCol; colIdx++ {
		cell := headerRow.GetCell(colIdx)
		if cell == nil {
			continue
		}
		name := strings.TrimSpace(cell.String())
		if name != "" {
			headers[colIdx] = name
		}
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		row, err := sheet.Row(rowIdx)
		if err != nil {
			break
		}

		payload := make(map[string]interface{})
		for colIdx, name := range headers {
			cell := row.GetCell(colIdx)
			if cell == nil {
				continue
			}
			value := strings.TrimSpace(cell.String())
			if value != "" {
				payload[name] = value
			}
		}

		if len(payload) == 0 {
			summary.Skipped++
			continue
		}

		sum := rec.ReconcileValue(ctx, payload)
		recordRow(&summary, sheet.Name, rowIdx+1, sum)
	}

	return summary
}

// recordRow folds one reconciliation summary into the sheet statistics.
// A row counts as created/updated if either entity was; rows where both
// entity phases skipped count as skipped, and any failed phase counts as
// an error with a sample.
func recordRow(summary *SheetSummary, sheetName string, rowNum int, sum reconciler.Summary) {
	for _, phase := range []reconciler.PhaseResult{sum.Asset, sum.Tracker, sum.Link, sum.Position} {
		if phase.Outcome == reconciler.OutcomeFailed {
			summary.Errors++
			summary.Samples = append(summary.Samples, RowError{
				Sheet:   sheetName,
				Row:     rowNum,
				Message: phase.Reason,
			})
			return
		}
	}

	switch {
	case sum.Asset.Outcome == reconciler.OutcomeCreated || sum.Tracker.Outcome == reconciler.OutcomeCreated:
		summary.Created++
	case sum.Asset.Outcome == reconciler.OutcomeUpdated || sum.Tracker.Outcome == reconciler.OutcomeUpdated:
		summary.Updated++
	default:
		summary.Skipped++
	}
}
