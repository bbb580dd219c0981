package xlsx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

const (
	sheetSummary  = "Summary"
	sheetInvoices = "Invoices"
	sheetVendors  = "Vendors"
)

// Writer renders a reconciliation result set as an XLSX workbook. Unlike the
// terminal table, the Invoices sheet carries every record.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

func (w *Writer) WriteResults(ctx context.Context, out io.Writer, resp domain.ReconciliationResponse, view domain.ResultsView) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("name summary sheet: %w", err)
	}
	for _, sheet := range []string{sheetInvoices, sheetVendors} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create %s sheet: %w", sheet, err)
		}
	}

	writeSummary(f, view)
	if err := ctx.Err(); err != nil {
		return err
	}
	writeInvoices(f, resp.ReconciliationResults)
	writeVendors(f, view.Vendors)

	summaryIndex, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(summaryIndex)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.Info("results_export",
		"format", "xlsx",
		"records", len(resp.ReconciliationResults),
		"vendors", len(view.Vendors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeSummary(f *excelize.File, view domain.ResultsView) {
	writeRow(f, sheetSummary, 1, "Status", "Count")
	row := 2
	for _, status := range domain.KnownStatuses() {
		writeRow(f, sheetSummary, row, string(status), view.Tally.Count(status))
		row++
	}

	other := view.Tally.Unrecognized()
	statuses := make([]string, 0, len(other))
	for status := range other {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		writeRow(f, sheetSummary, row, status, other[domain.ReconciliationStatus(status)])
		row++
	}

	row++
	writeRow(f, sheetSummary, row, "Total invoices", view.TotalInvoices)
	writeRow(f, sheetSummary, row+1, "Records", view.TotalRecords)
	_ = f.SetColWidth(sheetSummary, "A", "A", 18)
}

func writeInvoices(f *excelize.File, records []domain.ReconciliationRecord) {
	writeRow(f, sheetInvoices, 1, "Invoice Number", "GSTIN", "Status", "Explanation", "Suggested Action")
	for i, rec := range records {
		writeRow(f, sheetInvoices, i+2, rec.InvoiceNumber, rec.GSTIN, string(rec.Status), rec.Explanation, rec.SuggestedAction)
	}
	_ = f.SetColWidth(sheetInvoices, "A", "A", 18)
	_ = f.SetColWidth(sheetInvoices, "B", "B", 18)
	_ = f.SetColWidth(sheetInvoices, "C", "C", 16)
	_ = f.SetColWidth(sheetInvoices, "D", "E", 48)
}

func writeVendors(f *excelize.File, vendors []domain.VendorRow) {
	writeRow(f, sheetVendors, 1,
		"Vendor GSTIN", "Total Invoices", "Missing in 2B", "Risky", "Risky ITC Amount", "Risk Level", "Badge")
	for i, vendor := range vendors {
		s := vendor.Summary
		writeRow(f, sheetVendors, i+2,
			s.VendorGSTIN, s.TotalInvoices, s.MissingIn2BCount, s.RiskyCount, s.RiskyITCAmount,
			string(s.VendorRiskLevel), string(vendor.Badge))
	}
	_ = f.SetColWidth(sheetVendors, "A", "A", 18)
	_ = f.SetColWidth(sheetVendors, "B", "G", 16)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
