package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/resilience"
)

const (
	headerTenantID  = "X-Tenant-ID"
	headerPlan      = "X-Plan"
	headerRequestID = "X-Request-Id"
	tenantCookie    = "gst_tenant_id"

	pathUpload     = "/invoices/upload"
	pathReportJSON = "/reports/gst-risk"
	pathReportPDF  = "/reports/gst-risk/pdf"

	opSubmitFile      = "submit_file"
	opFetchReportJSON = "fetch_report_json"
	opFetchReportPDF  = "fetch_report_pdf"
)

// RequestObserver receives one observation per finished backend call.
type RequestObserver interface {
	ObserveBackendRequest(operation, outcome string, elapsed time.Duration)
	TrackBackendInFlight(operation string) func()
}

type Options struct {
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Limiter    *rate.Limiter
	Validator  *ContractValidator
	Observer   RequestObserver
	Logger     *slog.Logger
}

// Client is the only boundary to the reconciliation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	validator  *ContractValidator
	observer   RequestObserver
	logger     *slog.Logger
}

func New(baseURL string, opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "backend client", fmt.Errorf("invalid base url %q", baseURL))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		withJar := *httpClient
		withJar.Jar = jar
		httpClient = &withJar
	}

	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		executor:   executor,
		limiter:    opts.Limiter,
		validator:  opts.Validator,
		observer:   opts.Observer,
		logger:     logger,
	}, nil
}

func (c *Client) SubmitFile(ctx context.Context, file domain.InvoiceFile, tenant domain.TenantContext) (domain.ReconciliationResponse, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return domain.ReconciliationResponse{}, fmt.Errorf("build upload body: %w", err)
	}

	return c.call(ctx, tenant, request{
		operation:   opSubmitFile,
		method:      http.MethodPost,
		path:        pathUpload,
		sendPlan:    true,
		body:        body,
		contentType: contentType,
		accept:      "application/json",
		fallback:    msgUploadFailed,
		failKind:    domain.ErrUploadFailed,
	})
}

func (c *Client) FetchReportJSON(ctx context.Context, tenant domain.TenantContext) (domain.ReconciliationResponse, error) {
	return c.call(ctx, tenant, request{
		operation: opFetchReportJSON,
		method:    http.MethodGet,
		path:      pathReportJSON,
		accept:    "application/json",
		fallback:  msgReportFetchFailed,
		failKind:  domain.ErrReportFetchFailed,
	})
}

func (c *Client) FetchReportPDF(ctx context.Context, tenant domain.TenantContext) (domain.PDFReport, error) {
	call := request{
		operation: opFetchReportPDF,
		method:    http.MethodGet,
		path:      pathReportPDF,
		accept:    "application/pdf",
		fallback:  msgPDFDownloadFailed,
		failKind:  domain.ErrReportFetchFailed,
	}
	resp, err := c.execute(ctx, tenant, call)
	if err != nil {
		return domain.PDFReport{}, err
	}
	return domain.PDFReport{
		Data:     resp.body,
		Filename: PDFFilename(tenant),
	}, nil
}

// PDFFilename names the downloaded report after the tenant's short id.
func PDFFilename(tenant domain.TenantContext) string {
	return fmt.Sprintf("GST_Risk_Report_%s.pdf", tenant.ShortID())
}

// call runs a JSON operation and decodes the reconciliation response.
func (c *Client) call(ctx context.Context, tenant domain.TenantContext, call request) (domain.ReconciliationResponse, error) {
	var out domain.ReconciliationResponse
	_, err := c.executeDecoded(ctx, tenant, call, func(resp response) error {
		if c.validator != nil {
			if err := c.validator.ValidateResponse(ctx, call.method, call.path, resp.status, resp.header, resp.body); err != nil {
				return &decodeError{Operation: call.operation, Err: err}
			}
		}
		var decoded domain.ReconciliationResponse
		if err := json.Unmarshal(resp.body, &decoded); err != nil {
			return &decodeError{Operation: call.operation, Err: err}
		}
		decoded.Normalize()
		out = decoded
		return nil
	})
	if err != nil {
		return domain.ReconciliationResponse{}, err
	}
	return out, nil
}

func (c *Client) execute(ctx context.Context, tenant domain.TenantContext, call request) (response, error) {
	return c.executeDecoded(ctx, tenant, call, nil)
}

// executeDecoded runs one call through the executor. A decode failure counts
// as a failure of the call, so it is returned from inside the breaker.
func (c *Client) executeDecoded(
	ctx context.Context,
	tenant domain.TenantContext,
	call request,
	decode func(response) error,
) (response, error) {
	if c.observer != nil {
		done := c.observer.TrackBackendInFlight(call.operation)
		defer done()
	}
	started := time.Now()

	var out response
	err := c.executor.Execute(ctx, call.operation, func(ctx context.Context) error {
		resp, err := c.roundTrip(ctx, call, tenant.TenantID(), tenant.Plan())
		if err != nil {
			return err
		}
		if decode != nil {
			if err := decode(resp); err != nil {
				return err
			}
		}
		out = resp
		return nil
	}, classifyBackendError)
	err = toTransportError(call, err)

	elapsed := time.Since(started)
	if c.observer != nil {
		c.observer.ObserveBackendRequest(call.operation, outcomeLabel(err), elapsed)
	}
	if err != nil {
		c.logger.Warn("backend_request_failed",
			"operation", call.operation,
			"duration_ms", float64(elapsed.Microseconds())/1000.0,
			"error", err,
			"cause", errorCause(err),
		)
		return response{}, err
	}
	c.logger.Info("backend_request",
		"operation", call.operation,
		"status", out.status,
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)
	return out, nil
}

func errorCause(err error) string {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) && transportErr.Err != nil {
		return transportErr.Err.Error()
	}
	return ""
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(file domain.InvoiceFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
