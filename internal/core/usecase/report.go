package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

type ReportViewerOptions struct {
	SessionID    string
	DisplayLimit int
	Publisher    ports.SessionEventPublisher
	Logger       *slog.Logger
}

// ReportViewerUseCase renders the stored risk report for the tenant without
// affecting the upload session.
type ReportViewerUseCase struct {
	backend  ports.ReconciliationBackend
	renderer ports.Renderer
	tenant   domain.TenantContext
	limit    int
	audit    auditTrail
}

func NewReportViewerUseCase(
	backend ports.ReconciliationBackend,
	renderer ports.Renderer,
	tenant domain.TenantContext,
	opts ReportViewerOptions,
) *ReportViewerUseCase {
	limit := opts.DisplayLimit
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	return &ReportViewerUseCase{
		backend:  backend,
		renderer: renderer,
		tenant:   tenant,
		limit:    limit,
		audit: auditTrail{
			sessionID: opts.SessionID,
			tenant:    tenant,
			publisher: opts.Publisher,
			logger:    opts.Logger,
		},
	}
}

func (uc *ReportViewerUseCase) Show(ctx context.Context) error {
	resp, err := uc.backend.FetchReportJSON(ctx, uc.tenant)
	if err != nil {
		message := domain.UserMessage(err)
		uc.renderer.DisplayError(message)
		uc.audit.publish(ctx, domain.ActionReportJSON, domain.EventFailure, "", message)
		return fmt.Errorf("fetch report json: %w", err)
	}

	resp.Normalize()
	uc.renderer.ClearResults()
	renderView(uc.renderer, Aggregate(resp, uc.limit))
	uc.audit.publish(ctx, domain.ActionReportJSON, domain.EventSuccess, "", "")
	return nil
}
