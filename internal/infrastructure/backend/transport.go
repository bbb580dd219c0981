package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	maxErrorBodyBytes = 64 << 10
	maxResponseBytes  = 64 << 20
)

type request struct {
	operation   string
	method      string
	path        string
	sendPlan    bool
	body        []byte
	contentType string
	accept      string
	fallback    string
	failKind    error
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) roundTrip(ctx context.Context, call request, tenantID, plan string) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, fmt.Errorf("backend %s rate limit: %w", call.operation, err)
		}
	}

	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}
	req, err := http.NewRequestWithContext(ctx, call.method, c.baseURL+call.path, body)
	if err != nil {
		return response{}, fmt.Errorf("create %s request: %w", call.operation, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerTenantID, tenantID)
	if call.sendPlan {
		req.Header.Set(headerPlan, plan)
	}
	if call.contentType != "" {
		req.Header.Set("Content-Type", call.contentType)
	}
	if call.accept != "" {
		req.Header.Set("Accept", call.accept)
	}
	c.rememberTenant(req, tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("backend %s request: %w", call.operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := parseErrorBody(call.operation, resp)
		c.logger.Warn("backend_request_rejected",
			"operation", call.operation,
			"request_id", requestID,
			"status", resp.StatusCode,
			"detail", statusErr.Detail,
			"malformed_body", statusErr.Malformed,
		)
		return response{}, statusErr
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("read %s response: %w", call.operation, err)
	}
	c.logger.Debug("backend_response",
		"operation", call.operation,
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(payload),
	)
	return response{status: resp.StatusCode, header: resp.Header, body: payload}, nil
}

func (c *Client) rememberTenant(req *http.Request, tenantID string) {
	if c.httpClient.Jar == nil {
		return
	}
	c.httpClient.Jar.SetCookies(req.URL, []*http.Cookie{{
		Name:  tenantCookie,
		Value: tenantID,
		Path:  "/",
	}})
}

// parseErrorBody reads the {"detail": "..."} error shape. A body that is not
// JSON is reported as malformed; a JSON body without a string detail yields
// an empty Detail so the caller falls back to its generic message.
func parseErrorBody(operation string, resp *http.Response) *statusError {
	out := &statusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		out.Malformed = true
		return out
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		out.Malformed = true
		return out
	}

	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil {
		out.Detail = strings.TrimSpace(detail)
	}
	return out
}
