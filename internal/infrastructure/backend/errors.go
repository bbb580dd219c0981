package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/resilience"
)

const (
	msgUploadFailed       = "Upload failed"
	msgReportFetchFailed  = "Failed to fetch report"
	msgPDFDownloadFailed  = "Failed to download PDF"
	msgNetwork            = "Network error. Please check your connection and try again."
	msgTimeout            = "The server took too long to respond. Please try again."
	msgBackendUnavailable = "Backend temporarily unavailable. Please try again later."
	msgCanceled           = "Request canceled."
	msgUnexpectedResponse = "Unexpected response from server."
)

// statusError is a non-2xx answer. Detail is empty when the body carried
// none; Malformed marks a body that was not JSON at all.
type statusError struct {
	Operation  string
	StatusCode int
	Status     string
	Detail     string
	Malformed  bool
}

func (e *statusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, e.Detail)
}

// decodeError is a 2xx answer whose body does not match the contract.
type decodeError struct {
	Operation string
	Err       error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Operation, e.Err)
}

func (e *decodeError) Unwrap() error { return e.Err }

func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{RecordFailure: isServerSideStatus(statusErr.StatusCode)}
	}

	return resilience.ErrorClassification{RecordFailure: true}
}

func isServerSideStatus(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError || statusCode == http.StatusTooManyRequests
}

// toTransportError recovers every failure of one call into the uniform
// transport shape.
func toTransportError(call request, err error) error {
	if err == nil {
		return nil
	}
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return err
	}

	out := &domain.TransportError{Operation: call.operation, Err: err}

	var (
		statusErr *statusError
		decodeErr *decodeError
		netErr    net.Error
	)
	switch {
	case errors.As(err, &statusErr):
		out.StatusCode = statusErr.StatusCode
		switch {
		case statusErr.Malformed:
			out.Kind = domain.ErrMalformedErrorBody
			out.Message = call.fallback
		case statusErr.Detail == "":
			out.Kind = call.failKind
			out.Message = call.fallback
		default:
			out.Kind = call.failKind
			out.Message = statusErr.Detail
		}
	case errors.As(err, &decodeErr):
		out.Kind = domain.ErrMalformedResponse
		out.Message = msgUnexpectedResponse
	case resilience.IsCircuitOpen(err):
		out.Kind = domain.ErrNetwork
		out.Message = msgBackendUnavailable
	case errors.Is(err, context.Canceled):
		out.Kind = domain.ErrCanceled
		out.Message = msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = domain.ErrNetwork
		out.Message = msgTimeout
	case errors.As(err, &netErr):
		out.Kind = domain.ErrNetwork
		out.Message = msgNetwork
	default:
		out.Kind = domain.ErrNetwork
		out.Message = msgNetwork
	}
	return out
}

// outcomeLabel is the metrics label for a finished call.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrMalformedErrorBody):
		return "malformed_error_body"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, domain.ErrUploadFailed), errors.Is(err, domain.ErrReportFetchFailed):
		return "rejected"
	case errors.Is(err, domain.ErrCanceled):
		return "canceled"
	default:
		return "network_error"
	}
}
