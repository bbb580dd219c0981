package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

const pdfDownloadFailed = "Failed to download PDF"

type PDFExportOptions struct {
	SessionID string
	Inspector ports.ReportInspector
	Publisher ports.SessionEventPublisher
	Metrics   ports.SessionMetrics
	Logger    *slog.Logger
}

// PDFExportTask downloads the risk report. It never touches session state.
type PDFExportTask struct {
	backend   ports.ReconciliationBackend
	renderer  ports.Renderer
	spool     ports.BlobSpool
	inspector ports.ReportInspector
	tenant    domain.TenantContext
	audit     auditTrail
}

func NewPDFExportTask(
	backend ports.ReconciliationBackend,
	renderer ports.Renderer,
	spool ports.BlobSpool,
	tenant domain.TenantContext,
	opts PDFExportOptions,
) *PDFExportTask {
	return &PDFExportTask{
		backend:   backend,
		renderer:  renderer,
		spool:     spool,
		inspector: opts.Inspector,
		tenant:    tenant,
		audit: auditTrail{
			sessionID: opts.SessionID,
			tenant:    tenant,
			publisher: opts.Publisher,
			metrics:   opts.Metrics,
			logger:    opts.Logger,
		},
	}
}

// Export fetches the PDF and hands it to the renderer. Any failure is shown
// as an alert and returned.
func (t *PDFExportTask) Export(ctx context.Context) (err error) {
	defer func() {
		t.audit.export("pdf", err)
		status := domain.EventSuccess
		if err != nil {
			status = domain.EventFailure
			t.renderer.Alert(exportMessage(err))
			t.audit.log().Warn("pdf_export_failed", "session_id", t.audit.sessionID, "error", err)
		}
		t.audit.publish(ctx, domain.ActionReportPDF, status, "", exportMessage(err))
	}()

	report, err := t.backend.FetchReportPDF(ctx, t.tenant)
	if err != nil {
		return fmt.Errorf("fetch pdf report: %w", err)
	}

	if t.inspector != nil {
		pages, inspectErr := t.inspector.Inspect(ctx, report.Data)
		if inspectErr != nil {
			return &domain.TransportError{
				Kind:      domain.ErrMalformedResponse,
				Operation: "fetch_report_pdf",
				Message:   pdfDownloadFailed,
				Err:       inspectErr,
			}
		}
		t.audit.log().Debug("pdf_report_inspected", "pages", pages, "bytes", len(report.Data))
	}

	if err := t.download(ctx, report); err != nil {
		return err
	}
	t.audit.log().Info("pdf_export", "session_id", t.audit.sessionID, "filename", report.Filename, "bytes", len(report.Data))
	return nil
}

// download holds the transient handle only around the trigger; release runs
// on every exit path, including a panicking renderer.
func (t *PDFExportTask) download(ctx context.Context, report domain.PDFReport) error {
	handle, err := t.spool.Acquire(ctx, bytes.NewReader(report.Data))
	if err != nil {
		return fmt.Errorf("acquire report handle: %w", err)
	}
	defer func() {
		if releaseErr := t.spool.Release(context.WithoutCancel(ctx), handle); releaseErr != nil {
			t.audit.log().Error("pdf_handle_release_failed", "handle", handle.ID, "error", releaseErr)
		}
	}()

	return t.trigger(ctx, handle, report.Filename)
}

func (t *PDFExportTask) trigger(ctx context.Context, handle domain.BlobHandle, filename string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("download trigger panicked: %v", recovered)
		}
	}()
	if err := t.renderer.TriggerDownload(ctx, handle, filename); err != nil {
		return fmt.Errorf("trigger download: %w", err)
	}
	return nil
}

// exportMessage keeps backend messages and hides local failure details.
func exportMessage(err error) string {
	if err == nil {
		return ""
	}
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Error()
	}
	return pdfDownloadFailed
}
