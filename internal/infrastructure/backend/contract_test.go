package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

func TestContractValidatorAcceptsReconciliationResponse(t *testing.T) {
	validator, err := NewContractValidator()
	if err != nil {
		t.Fatalf("NewContractValidator() error = %v", err)
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"total_invoices":1,"reconciliation_results":[{"invoice_number":"INV-1","gstin":"27AAAAA0000A1Z5","status":"RISKY_ITC"}],"vendor_summary":[{"vendor_gstin":"27AAAAA0000A1Z5","total_invoices":1,"risky_count":1,"missing_in_2b_count":0,"vendor_risk_level":"HIGH"}]}`)

	if err := validator.ValidateResponse(context.Background(), http.MethodPost, "/invoices/upload", http.StatusOK, header, body); err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}
}

func TestContractValidatorRejectsWrongShape(t *testing.T) {
	validator, err := NewContractValidator()
	if err != nil {
		t.Fatalf("NewContractValidator() error = %v", err)
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"total_invoices":"three","reconciliation_results":[]}`)

	if err := validator.ValidateResponse(context.Background(), http.MethodGet, "/reports/gst-risk", http.StatusOK, header, body); err == nil {
		t.Fatalf("expected contract violation")
	}
}

func TestStrictClientFailsOnContractViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reconciliation_results":[{"gstin":"27AAAAA0000A1Z5"}]}`)
	}))
	defer server.Close()

	validator, err := NewContractValidator()
	if err != nil {
		t.Fatalf("NewContractValidator() error = %v", err)
	}
	client := newTestClient(t, server.URL, Options{Validator: validator})

	_, err = client.FetchReportJSON(context.Background(), testTenant(t))
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}
