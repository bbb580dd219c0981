package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

func TestReportViewerRendersWithoutSessionChange(t *testing.T) {
	backend := &backendFake{reportResp: domain.ReconciliationResponse{
		TotalInvoices:         3,
		ReconciliationResults: records(domain.StatusMatched, domain.StatusMissingIn2B, "NEEDS_REVIEW"),
	}}
	renderer := &rendererFake{}
	session := newTestSession(backend, renderer, domain.PolicyReject)
	viewer := NewReportViewerUseCase(backend, renderer, mustTenant("tenant-1", "PRO"), ReportViewerOptions{})

	if err := viewer.Show(context.Background()); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if renderer.tally[domain.StatusMissingIn2B] != 1 || renderer.tally["NEEDS_REVIEW"] != 1 {
		t.Fatalf("unexpected tally: %v", renderer.tally)
	}
	if renderer.usage != 3 || len(renderer.table) != 3 {
		t.Fatalf("unexpected render: usage=%d rows=%d", renderer.usage, len(renderer.table))
	}
	if session.State().Phase != domain.PhaseIdle {
		t.Fatalf("expected session untouched")
	}
}

func TestReportViewerDisplaysBackendDetail(t *testing.T) {
	backend := &backendFake{reportErr: &domain.TransportError{
		Kind:       domain.ErrReportFetchFailed,
		StatusCode: 404,
		Message:    "No reconciliation results found for this session.",
	}}
	renderer := &rendererFake{}
	viewer := NewReportViewerUseCase(backend, renderer, mustTenant("tenant-1", "PRO"), ReportViewerOptions{})

	err := viewer.Show(context.Background())
	if !errors.Is(err, domain.ErrReportFetchFailed) {
		t.Fatalf("expected ErrReportFetchFailed, got %v", err)
	}
	if len(renderer.errors) != 1 || renderer.errors[0] != "No reconciliation results found for this session." {
		t.Fatalf("unexpected errors: %v", renderer.errors)
	}
}

type spreadsheetFake struct {
	resp domain.ReconciliationResponse
	view domain.ResultsView
}

func (f *spreadsheetFake) WriteResults(_ context.Context, w io.Writer, resp domain.ReconciliationResponse, view domain.ResultsView) error {
	f.resp = resp
	f.view = view
	_, err := io.WriteString(w, "xlsx")
	return err
}

func TestResultsExportRequiresResults(t *testing.T) {
	session := newTestSession(&backendFake{}, &rendererFake{}, domain.PolicyReject)
	export := NewResultsExportUseCase(session, &spreadsheetFake{}, nil)

	if err := export.Export(context.Background(), io.Discard); !errors.Is(err, domain.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestResultsExportWritesFullResultSet(t *testing.T) {
	statuses := make([]domain.ReconciliationStatus, 1200)
	for i := range statuses {
		statuses[i] = domain.StatusMatched
	}
	backend := &backendFake{submitFn: func(context.Context, domain.InvoiceFile) (domain.ReconciliationResponse, error) {
		return domain.ReconciliationResponse{TotalInvoices: 1200, ReconciliationResults: records(statuses...)}, nil
	}}
	session := newTestSession(backend, &rendererFake{}, domain.PolicyReject)
	if err := session.Trigger(context.Background(), invoiceFile("big.csv")); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	writer := &spreadsheetFake{}
	metrics := &metricsFake{}
	var out bytes.Buffer
	if err := NewResultsExportUseCase(session, writer, metrics).Export(context.Background(), &out); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(writer.resp.ReconciliationResults) != 1200 || writer.view.Tally.Total() != 1200 {
		t.Fatalf("expected full result set, got %d records", len(writer.resp.ReconciliationResults))
	}
	if !strings.Contains(out.String(), "xlsx") || metrics.exports["xlsx:success"] != 1 {
		t.Fatalf("unexpected export output %q metrics %v", out.String(), metrics.exports)
	}
}
