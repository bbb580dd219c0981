package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

const publishTimeout = 2 * time.Second

// auditTrail publishes session events and records metrics. Zero-value
// dependencies are skipped.
type auditTrail struct {
	sessionID string
	tenant    domain.TenantContext
	publisher ports.SessionEventPublisher
	metrics   ports.SessionMetrics
	logger    *slog.Logger
}

func (a auditTrail) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

func (a auditTrail) transition(phase domain.SessionPhase) {
	if a.metrics != nil {
		a.metrics.RecordSessionTransition(phase)
	}
	a.log().Info("session_transition", "session_id", a.sessionID, "phase", string(phase))
}

func (a auditTrail) export(format string, err error) {
	if a.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordReportExport(format, status)
}

func (a auditTrail) publish(ctx context.Context, action domain.SessionAction, status domain.EventStatus, inputHash, message string) {
	if a.publisher == nil {
		return
	}
	event := domain.SessionEvent{
		ID:         uuid.NewString(),
		SessionID:  a.sessionID,
		TenantID:   a.tenant.TenantID(),
		Action:     action,
		Status:     status,
		InputHash:  inputHash,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.publisher.PublishSessionEvent(pubCtx, event); err != nil {
		a.log().Warn("session_event_publish_failed",
			"session_id", a.sessionID,
			"action", string(action),
			"error", err,
		)
	}
}

func hashInput(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
