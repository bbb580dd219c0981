package httpadapter

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
	"github.com/kirillkom/gst-reconcile-client/internal/core/usecase"
)

const maxUploadBytes = 32 << 20

// Router serves the local ops surface of a running session: health, metrics,
// session state, uploads and spreadsheet export.
type Router struct {
	session ports.UploadSession
	results ports.ResultsExporter
	metrics http.Handler
	wrap    func(http.Handler) http.Handler
	logger  *slog.Logger
}

type RouterOptions struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Middleware wraps the whole mux, innermost first.
	Middleware func(http.Handler) http.Handler
	Logger     *slog.Logger
}

func NewRouter(session ports.UploadSession, results ports.ResultsExporter, opts RouterOptions) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		session: session,
		results: results,
		metrics: opts.Metrics,
		wrap:    opts.Middleware,
		logger:  logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/session", rt.sessionState)
	mux.HandleFunc("POST /v1/session/upload", rt.upload)
	mux.HandleFunc("GET /v1/session/results.xlsx", rt.exportResults)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}

	var handler http.Handler = mux
	if rt.wrap != nil {
		handler = rt.wrap(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionSummary struct {
	Phase         domain.SessionPhase                 `json:"phase"`
	File          string                              `json:"file,omitempty"`
	Message       string                              `json:"message,omitempty"`
	TotalInvoices *int                                `json:"total_invoices,omitempty"`
	Tally         map[domain.ReconciliationStatus]int `json:"tally,omitempty"`
}

func summarize(state domain.SessionState) sessionSummary {
	summary := sessionSummary{Phase: state.Phase, File: state.File, Message: state.Message}
	if state.Response != nil {
		total := state.Response.TotalInvoices
		summary.TotalInvoices = &total
		summary.Tally = usecase.ComputeTally(state.Response.ReconciliationResults)
	}
	return summary
}

func (rt *Router) sessionState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, summarize(rt.session.State()))
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	err = rt.session.Trigger(r.Context(), &domain.InvoiceFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), domain.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, summarize(rt.session.State()))
}

func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request) {
	if !hasResults(rt.session.State()) {
		writeError(w, http.StatusNotFound, domain.ErrNoResults.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reconciliation_results.xlsx"`)
	if err := rt.results.Export(r.Context(), w); err != nil {
		rt.logger.Error("results_export_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func hasResults(state domain.SessionState) bool {
	return state.Phase == domain.PhaseResults && state.Response != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
