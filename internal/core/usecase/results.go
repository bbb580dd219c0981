package usecase

import (
	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

// DefaultDisplayLimit bounds the rendered invoice table.
const DefaultDisplayLimit = 1000

// ComputeTally counts records per status. The four known statuses are always
// present; unrecognized statuses get their own key.
func ComputeTally(records []domain.ReconciliationRecord) domain.StatusTally {
	tally := make(domain.StatusTally, len(domain.KnownStatuses()))
	for _, status := range domain.KnownStatuses() {
		tally[status] = 0
	}
	for _, record := range records {
		tally[record.Status]++
	}
	return tally
}

// BoundedSlice returns the first limit records in original order.
func BoundedSlice(records []domain.ReconciliationRecord, limit int) []domain.ReconciliationRecord {
	if limit <= 0 {
		return []domain.ReconciliationRecord{}
	}
	if len(records) < limit {
		limit = len(records)
	}
	out := make([]domain.ReconciliationRecord, limit)
	copy(out, records[:limit])
	return out
}

// ClassifyVendorBadge maps a vendor risk level to its severity bucket.
func ClassifyVendorBadge(level domain.VendorRiskLevel) domain.BadgeClass {
	switch level {
	case domain.RiskHigh:
		return domain.BadgeRiskyITC
	case domain.RiskMedium:
		return domain.BadgePartialMatch
	default:
		return domain.BadgeMatched
	}
}

// Aggregate derives everything the rendering surface needs from one response.
func Aggregate(resp domain.ReconciliationResponse, limit int) domain.ResultsView {
	vendors := make([]domain.VendorRow, 0, len(resp.VendorSummary))
	for _, summary := range resp.VendorSummary {
		vendors = append(vendors, domain.VendorRow{
			Summary: summary,
			Badge:   ClassifyVendorBadge(summary.VendorRiskLevel),
		})
	}

	return domain.ResultsView{
		Tally:         ComputeTally(resp.ReconciliationResults),
		Rows:          BoundedSlice(resp.ReconciliationResults, limit),
		TotalInvoices: resp.TotalInvoices,
		TotalRecords:  len(resp.ReconciliationResults),
		Vendors:       vendors,
	}
}

// renderView paints a view. The vendor section stays hidden when empty.
func renderView(renderer ports.Renderer, view domain.ResultsView) {
	renderer.DisplayCounts(view.Tally)
	renderer.DisplayTable(view.Rows)
	renderer.DisplayUsage(view.TotalInvoices)
	if len(view.Vendors) > 0 {
		renderer.DisplayVendorSummary(view.Vendors)
	}
}
