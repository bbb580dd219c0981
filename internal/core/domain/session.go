package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionPhase string

const (
	PhaseIdle      SessionPhase = "idle"
	PhaseUploading SessionPhase = "uploading"
	PhaseResults   SessionPhase = "results"
	PhaseFailed    SessionPhase = "failed"
)

// SessionState is a tagged variant: only the fields of the current phase are set.
type SessionState struct {
	Phase    SessionPhase            `json:"phase"`
	File     string                  `json:"file,omitempty"`
	Response *ReconciliationResponse `json:"response,omitempty"`
	Message  string                  `json:"message,omitempty"`
}

func IdleState() SessionState { return SessionState{Phase: PhaseIdle} }

func UploadingState(file string) SessionState {
	return SessionState{Phase: PhaseUploading, File: file}
}

func ResultsState(resp ReconciliationResponse) SessionState {
	return SessionState{Phase: PhaseResults, Response: &resp}
}

func FailedState(message string) SessionState {
	return SessionState{Phase: PhaseFailed, Message: message}
}

// AcceptsTrigger reports whether the input source is ready for a new file.
func (s SessionState) AcceptsTrigger() bool {
	return s.Phase != PhaseUploading
}

// UploadPolicy decides what a trigger does while an upload is in flight.
type UploadPolicy string

const (
	PolicyReject    UploadPolicy = "reject"
	PolicySupersede UploadPolicy = "supersede"
)

func ParseUploadPolicy(raw string) (UploadPolicy, error) {
	switch UploadPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicySupersede:
		return PolicySupersede, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse upload policy", fmt.Errorf("unknown policy %q", raw))
	}
}

type SessionAction string

const (
	ActionUpload     SessionAction = "UPLOAD"
	ActionReportJSON SessionAction = "REPORT_JSON"
	ActionReportPDF  SessionAction = "REPORT_PDF"
)

type EventStatus string

const (
	EventSuccess    EventStatus = "SUCCESS"
	EventFailure    EventStatus = "FAILURE"
	EventSuperseded EventStatus = "SUPERSEDED"
)

// SessionEvent is the client-side audit record of one operation.
type SessionEvent struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	TenantID   string        `json:"tenant_id"`
	Action     SessionAction `json:"action_type"`
	Status     EventStatus   `json:"status"`
	InputHash  string        `json:"input_hash,omitempty"`
	Message    string        `json:"message,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
