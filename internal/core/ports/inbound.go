package ports

import (
	"context"
	"io"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// UploadSession is the inbound contract for the upload-and-reconcile state machine.
type UploadSession interface {
	Trigger(ctx context.Context, file *domain.InvoiceFile) error
	State() domain.SessionState
}

// ReportExporter downloads the tenant's PDF risk report.
type ReportExporter interface {
	Export(ctx context.Context) error
}

// ReportViewer renders the tenant's JSON risk report.
type ReportViewer interface {
	Show(ctx context.Context) error
}

// ResultsExporter writes the current session results as a spreadsheet.
type ResultsExporter interface {
	Export(ctx context.Context, w io.Writer) error
}
