package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

func TestWriteResultsKeepsEveryRecord(t *testing.T) {
	records := make([]domain.ReconciliationRecord, 1200)
	for i := range records {
		records[i] = domain.ReconciliationRecord{
			InvoiceNumber: fmt.Sprintf("INV-%04d", i),
			GSTIN:         "27AAAAA0000A1Z5",
			Status:        domain.StatusMatched,
		}
	}
	records[5].Status = "NEEDS_REVIEW"
	resp := domain.ReconciliationResponse{TotalInvoices: 1200, ReconciliationResults: records}
	view := domain.ResultsView{
		Tally:         domain.StatusTally{domain.StatusMatched: 1199, "NEEDS_REVIEW": 1},
		Rows:          records[:1000],
		TotalInvoices: 1200,
		TotalRecords:  1200,
		Vendors: []domain.VendorRow{{
			Summary: domain.VendorSummary{VendorGSTIN: "27AAAAA0000A1Z5", TotalInvoices: 1200, VendorRiskLevel: domain.RiskMedium},
			Badge:   domain.BadgePartialMatch,
		}},
	}

	var out bytes.Buffer
	if err := NewWriter(nil).WriteResults(context.Background(), &out, resp, view); err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	f, err := excelize.OpenReader(&out)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	invoices, err := f.GetRows(sheetInvoices)
	if err != nil {
		t.Fatalf("GetRows(invoices) error = %v", err)
	}
	if len(invoices) != 1201 {
		t.Fatalf("expected header plus 1200 rows, got %d", len(invoices))
	}
	if invoices[1200][0] != "INV-1199" {
		t.Fatalf("unexpected last row: %v", invoices[1200])
	}

	summary, err := f.GetRows(sheetSummary)
	if err != nil {
		t.Fatalf("GetRows(summary) error = %v", err)
	}
	found := false
	for _, row := range summary {
		if len(row) == 2 && row[0] == "NEEDS_REVIEW" && row[1] == "1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unrecognized status in summary, got %v", summary)
	}

	vendors, err := f.GetRows(sheetVendors)
	if err != nil {
		t.Fatalf("GetRows(vendors) error = %v", err)
	}
	if len(vendors) != 2 || vendors[1][6] != string(domain.BadgePartialMatch) {
		t.Fatalf("unexpected vendor rows: %v", vendors)
	}
}
