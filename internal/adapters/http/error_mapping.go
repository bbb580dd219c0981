package httpadapter

import (
	"net/http"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrNoFile):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoResults):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUploadInFlight), domain.IsKind(err, domain.ErrSuperseded):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrCanceled):
		return 499
	case domain.IsKind(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUploadFailed),
		domain.IsKind(err, domain.ErrReportFetchFailed),
		domain.IsKind(err, domain.ErrMalformedErrorBody),
		domain.IsKind(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
