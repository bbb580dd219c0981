package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

// FailurePreamble prefixes every failed upload message.
const FailurePreamble = "Reconciliation could not be completed."

type SessionOptions struct {
	SessionID    string
	Policy       domain.UploadPolicy
	DisplayLimit int
	Publisher    ports.SessionEventPublisher
	Metrics      ports.SessionMetrics
	Logger       *slog.Logger
}

// SessionController drives upload attempts through
// Idle -> Uploading -> Results|Failed. At most one attempt is current; the
// renderer is only called while holding mu so views never interleave.
type SessionController struct {
	backend  ports.ReconciliationBackend
	renderer ports.Renderer
	tenant   domain.TenantContext
	policy   domain.UploadPolicy
	limit    int
	audit    auditTrail

	mu         sync.Mutex
	state      domain.SessionState
	generation uint64
	cancel     context.CancelFunc
}

func NewSessionController(
	backend ports.ReconciliationBackend,
	renderer ports.Renderer,
	tenant domain.TenantContext,
	opts SessionOptions,
) *SessionController {
	policy := opts.Policy
	if policy == "" {
		policy = domain.PolicyReject
	}
	limit := opts.DisplayLimit
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	return &SessionController{
		backend:  backend,
		renderer: renderer,
		tenant:   tenant,
		policy:   policy,
		limit:    limit,
		audit: auditTrail{
			sessionID: opts.SessionID,
			tenant:    tenant,
			publisher: opts.Publisher,
			metrics:   opts.Metrics,
			logger:    opts.Logger,
		},
		state: domain.IdleState(),
	}
}

func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Trigger runs one upload attempt and blocks until it resolves. A nil or
// unnamed file is ignored.
func (c *SessionController) Trigger(ctx context.Context, file *domain.InvoiceFile) error {
	if file == nil || strings.TrimSpace(file.Name) == "" {
		return domain.ErrNoFile
	}

	attemptCtx, cancel, generation, err := c.begin(ctx, file.Name)
	if err != nil {
		return err
	}
	defer cancel()

	inputHash := hashInput(file.Data)
	resp, submitErr := c.backend.SubmitFile(attemptCtx, *file, c.tenant)

	status, message, finishErr := c.finish(generation, resp, submitErr)
	c.audit.publish(ctx, domain.ActionUpload, status, inputHash, message)
	return finishErr
}

func (c *SessionController) begin(ctx context.Context, filename string) (context.Context, context.CancelFunc, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase == domain.PhaseUploading {
		if c.policy == domain.PolicyReject {
			c.audit.log().Warn("upload_rejected",
				"session_id", c.audit.sessionID,
				"file", filename,
				"in_flight", c.state.File,
			)
			return nil, nil, 0, domain.ErrUploadInFlight
		}
		if c.cancel != nil {
			c.cancel()
		}
		c.audit.log().Info("upload_superseded",
			"session_id", c.audit.sessionID,
			"file", filename,
			"superseded", c.state.File,
		)
	}

	c.generation++
	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = domain.UploadingState(filename)

	c.renderer.ClearResults()
	c.renderer.ShowProcessing(true)
	c.audit.transition(domain.PhaseUploading)

	return attemptCtx, cancel, c.generation, nil
}

func (c *SessionController) finish(
	generation uint64,
	resp domain.ReconciliationResponse,
	submitErr error,
) (domain.EventStatus, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return domain.EventSuperseded, "", domain.ErrSuperseded
	}
	c.cancel = nil

	var (
		status domain.EventStatus
		detail string
		err    error
	)
	if submitErr != nil {
		detail = domain.UserMessage(submitErr)
		message := FailurePreamble + " " + detail
		c.state = domain.FailedState(message)
		c.renderer.DisplayError(message)
		c.audit.transition(domain.PhaseFailed)
		c.audit.log().Warn("upload_failed",
			"session_id", c.audit.sessionID,
			"error", submitErr,
		)
		status = domain.EventFailure
		err = fmt.Errorf("submit file: %w", submitErr)
	} else {
		resp.Normalize()
		c.state = domain.ResultsState(resp)
		view := Aggregate(resp, c.limit)
		renderView(c.renderer, view)
		c.audit.transition(domain.PhaseResults)
		c.audit.log().Info("upload_reconciled",
			"session_id", c.audit.sessionID,
			"total_invoices", view.TotalInvoices,
			"records", view.TotalRecords,
			"displayed", len(view.Rows),
		)
		status = domain.EventSuccess
	}

	c.renderer.ShowProcessing(false)
	c.renderer.ResetInputSource()
	return status, detail, err
}
