package ports

import (
	"context"
	"io"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// ReconciliationBackend is the only boundary to the reconciliation server.
// Every failure is a *domain.TransportError.
type ReconciliationBackend interface {
	SubmitFile(ctx context.Context, file domain.InvoiceFile, tenant domain.TenantContext) (domain.ReconciliationResponse, error)
	FetchReportJSON(ctx context.Context, tenant domain.TenantContext) (domain.ReconciliationResponse, error)
	FetchReportPDF(ctx context.Context, tenant domain.TenantContext) (domain.PDFReport, error)
}

// Renderer is the presentation surface. It only consumes aggregated output.
type Renderer interface {
	ShowProcessing(active bool)
	ClearResults()
	DisplayCounts(tally domain.StatusTally)
	DisplayTable(records []domain.ReconciliationRecord)
	DisplayVendorSummary(rows []domain.VendorRow)
	DisplayUsage(totalInvoices int)
	DisplayError(message string)
	Alert(message string)
	TriggerDownload(ctx context.Context, handle domain.BlobHandle, filename string) error
	ResetInputSource()
}

// BlobSpool creates and releases transient local handles for binary payloads.
type BlobSpool interface {
	Acquire(ctx context.Context, data io.Reader) (domain.BlobHandle, error)
	Release(ctx context.Context, handle domain.BlobHandle) error
}

// ReportInspector checks that a downloaded report is a readable document.
type ReportInspector interface {
	Inspect(ctx context.Context, data []byte) (pages int, err error)
}

// SpreadsheetWriter serializes a results view as a workbook.
type SpreadsheetWriter interface {
	WriteResults(ctx context.Context, w io.Writer, resp domain.ReconciliationResponse, view domain.ResultsView) error
}

// SessionEventPublisher ships audit events out of the process.
type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}

// SessionMetrics records client-side outcomes.
type SessionMetrics interface {
	RecordSessionTransition(phase domain.SessionPhase)
	RecordReportExport(format, status string)
}
