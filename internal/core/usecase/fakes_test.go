package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

type backendFake struct {
	submitFn    func(ctx context.Context, file domain.InvoiceFile) (domain.ReconciliationResponse, error)
	reportResp  domain.ReconciliationResponse
	reportErr   error
	pdf         domain.PDFReport
	pdfErr      error
	submitCalls int
	mu          sync.Mutex
}

func (f *backendFake) SubmitFile(ctx context.Context, file domain.InvoiceFile, _ domain.TenantContext) (domain.ReconciliationResponse, error) {
	f.mu.Lock()
	f.submitCalls++
	fn := f.submitFn
	f.mu.Unlock()
	if fn == nil {
		return domain.ReconciliationResponse{}, errors.New("not implemented")
	}
	return fn(ctx, file)
}

func (f *backendFake) FetchReportJSON(context.Context, domain.TenantContext) (domain.ReconciliationResponse, error) {
	return f.reportResp, f.reportErr
}

func (f *backendFake) FetchReportPDF(context.Context, domain.TenantContext) (domain.PDFReport, error) {
	return f.pdf, f.pdfErr
}

type rendererFake struct {
	mu sync.Mutex

	processing  []bool
	clears      int
	tally       domain.StatusTally
	table       []domain.ReconciliationRecord
	tableCalls  int
	vendors     []domain.VendorRow
	vendorCalls int
	usage       int
	errors      []string
	alerts      []string
	downloads   []string
	resets      int

	downloadErr   error
	downloadPanic bool
	onDownload    func(handle domain.BlobHandle)
}

func (r *rendererFake) ShowProcessing(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processing = append(r.processing, active)
}

func (r *rendererFake) ClearResults() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.tally = nil
	r.table = nil
	r.vendors = nil
}

func (r *rendererFake) DisplayCounts(tally domain.StatusTally) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tally = tally
}

func (r *rendererFake) DisplayTable(records []domain.ReconciliationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = records
	r.tableCalls++
}

func (r *rendererFake) DisplayVendorSummary(rows []domain.VendorRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendors = rows
	r.vendorCalls++
}

func (r *rendererFake) DisplayUsage(totalInvoices int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = totalInvoices
}

func (r *rendererFake) DisplayError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *rendererFake) Alert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, message)
}

func (r *rendererFake) TriggerDownload(_ context.Context, handle domain.BlobHandle, filename string) error {
	if r.onDownload != nil {
		r.onDownload(handle)
	}
	if r.downloadPanic {
		panic("download surface exploded")
	}
	if r.downloadErr != nil {
		return r.downloadErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloads = append(r.downloads, filename)
	return nil
}

func (r *rendererFake) ResetInputSource() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

type spoolFake struct {
	acquired []domain.BlobHandle
	released []domain.BlobHandle
	data     []byte
	err      error
}

func (s *spoolFake) Acquire(_ context.Context, data io.Reader) (domain.BlobHandle, error) {
	if s.err != nil {
		return domain.BlobHandle{}, s.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return domain.BlobHandle{}, err
	}
	s.data = raw
	handle := domain.BlobHandle{ID: "blob-1", Path: "/spool/blob-1", Size: int64(len(raw))}
	s.acquired = append(s.acquired, handle)
	return handle, nil
}

func (s *spoolFake) Release(_ context.Context, handle domain.BlobHandle) error {
	s.released = append(s.released, handle)
	return nil
}

func (s *spoolFake) live() int {
	return len(s.acquired) - len(s.released)
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (p *publisherFake) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type metricsFake struct {
	mu          sync.Mutex
	transitions []domain.SessionPhase
	exports     map[string]int
}

func (m *metricsFake) RecordSessionTransition(phase domain.SessionPhase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, phase)
}

func (m *metricsFake) RecordReportExport(format, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exports == nil {
		m.exports = make(map[string]int)
	}
	m.exports[format+":"+status]++
}

func mustTenant(tenantID, plan string) domain.TenantContext {
	tenant, err := domain.NewTenantContext(tenantID, plan)
	if err != nil {
		panic(err)
	}
	return tenant
}

func records(statuses ...domain.ReconciliationStatus) []domain.ReconciliationRecord {
	out := make([]domain.ReconciliationRecord, 0, len(statuses))
	for i, status := range statuses {
		out = append(out, domain.ReconciliationRecord{
			InvoiceNumber: "INV-" + string(rune('A'+i%26)),
			GSTIN:         "27AAAAA0000A1Z5",
			Status:        status,
		})
	}
	return out
}
