package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

type sessionReader interface {
	State() domain.SessionState
}

// ResultsExportUseCase writes the current session results, untruncated, as a
// spreadsheet.
type ResultsExportUseCase struct {
	session sessionReader
	writer  ports.SpreadsheetWriter
	limit   int
	metrics ports.SessionMetrics
}

func NewResultsExportUseCase(session sessionReader, writer ports.SpreadsheetWriter, metrics ports.SessionMetrics) *ResultsExportUseCase {
	return &ResultsExportUseCase{
		session: session,
		writer:  writer,
		limit:   DefaultDisplayLimit,
		metrics: metrics,
	}
}

func (uc *ResultsExportUseCase) Export(ctx context.Context, w io.Writer) error {
	state := uc.session.State()
	if state.Phase != domain.PhaseResults || state.Response == nil {
		return domain.ErrNoResults
	}

	resp := *state.Response
	err := uc.writer.WriteResults(ctx, w, resp, Aggregate(resp, uc.limit))
	if uc.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		uc.metrics.RecordReportExport("xlsx", status)
	}
	if err != nil {
		return fmt.Errorf("write results workbook: %w", err)
	}
	return nil
}
