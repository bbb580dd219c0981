package usecase

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

func TestComputeTallyEmptyHasKnownStatusesAtZero(t *testing.T) {
	tally := ComputeTally(nil)
	for _, status := range domain.KnownStatuses() {
		n, ok := tally[status]
		if !ok || n != 0 {
			t.Fatalf("expected %s=0, got %d (present=%v)", status, n, ok)
		}
	}
	if len(tally) != 4 {
		t.Fatalf("expected only known statuses, got %v", tally)
	}
}

func TestComputeTallyCountsMixedStatuses(t *testing.T) {
	tally := ComputeTally(records(domain.StatusMatched, domain.StatusRiskyITC, domain.StatusRiskyITC))

	want := domain.StatusTally{
		domain.StatusMatched:      1,
		domain.StatusPartialMatch: 0,
		domain.StatusMissingIn2B:  0,
		domain.StatusRiskyITC:     2,
	}
	if !reflect.DeepEqual(tally, want) {
		t.Fatalf("unexpected tally: %v", tally)
	}
}

func TestComputeTallyKeepsUnrecognizedStatuses(t *testing.T) {
	input := records(domain.StatusMatched, "NEEDS_REVIEW", "NEEDS_REVIEW", "SOMETHING_NEW")
	tally := ComputeTally(input)

	if tally.Total() != len(input) {
		t.Fatalf("expected total %d, got %d", len(input), tally.Total())
	}
	other := tally.Unrecognized()
	if other["NEEDS_REVIEW"] != 2 || other["SOMETHING_NEW"] != 1 {
		t.Fatalf("unexpected unrecognized bucket: %v", other)
	}
	if _, ok := other[domain.StatusMatched]; ok {
		t.Fatalf("known status leaked into unrecognized bucket")
	}
}

func TestComputeTallySumsToLengthAndIsIdempotent(t *testing.T) {
	statuses := []domain.ReconciliationStatus{
		domain.StatusMatched, domain.StatusPartialMatch, domain.StatusMissingIn2B, domain.StatusRiskyITC, "NEEDS_REVIEW",
	}
	for n := 0; n < 40; n += 7 {
		input := make([]domain.ReconciliationStatus, 0, n)
		for i := 0; i < n; i++ {
			input = append(input, statuses[(i*3)%len(statuses)])
		}
		recs := records(input...)

		first := ComputeTally(recs)
		second := ComputeTally(recs)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("tally not idempotent for n=%d: %v vs %v", n, first, second)
		}
		if first.Total() != n {
			t.Fatalf("expected sum %d, got %d", n, first.Total())
		}
		for status, count := range first {
			if count < 0 {
				t.Fatalf("negative count for %s", status)
			}
		}

		reversed := make([]domain.ReconciliationRecord, len(recs))
		for i := range recs {
			reversed[len(recs)-1-i] = recs[i]
		}
		if !reflect.DeepEqual(first, ComputeTally(reversed)) {
			t.Fatalf("tally depends on order for n=%d", n)
		}
	}
}

func TestBoundedSliceReturnsPrefix(t *testing.T) {
	for _, n := range []int{0, 1, 999, 1000, 1001, 1500} {
		recs := make([]domain.ReconciliationRecord, n)
		for i := range recs {
			recs[i] = domain.ReconciliationRecord{InvoiceNumber: fmt.Sprintf("INV-%04d", i)}
		}

		got := BoundedSlice(recs, DefaultDisplayLimit)
		want := n
		if want > DefaultDisplayLimit {
			want = DefaultDisplayLimit
		}
		if len(got) != want {
			t.Fatalf("n=%d: expected %d rows, got %d", n, want, len(got))
		}
		for i := range got {
			if got[i].InvoiceNumber != recs[i].InvoiceNumber {
				t.Fatalf("n=%d: row %d out of order: %s", n, i, got[i].InvoiceNumber)
			}
		}
	}
}

func TestBoundedSliceDoesNotAliasInput(t *testing.T) {
	recs := records(domain.StatusMatched, domain.StatusRiskyITC)
	got := BoundedSlice(recs, 1)
	got[0].InvoiceNumber = "changed"
	if recs[0].InvoiceNumber == "changed" {
		t.Fatalf("expected bounded slice to copy records")
	}
	if len(BoundedSlice(recs, 0)) != 0 {
		t.Fatalf("expected empty slice for zero limit")
	}
}

func TestClassifyVendorBadgeIsTotal(t *testing.T) {
	cases := map[domain.VendorRiskLevel]domain.BadgeClass{
		domain.RiskHigh:   domain.BadgeRiskyITC,
		domain.RiskMedium: domain.BadgePartialMatch,
		domain.RiskLow:    domain.BadgeMatched,
		"":                domain.BadgeMatched,
		"high":            domain.BadgeMatched,
		"CRITICAL":        domain.BadgeMatched,
	}
	for level, want := range cases {
		if got := ClassifyVendorBadge(level); got != want {
			t.Fatalf("ClassifyVendorBadge(%q) = %s, want %s", level, got, want)
		}
	}
}

func TestAggregateSeparatesTallyFromDisplayedRows(t *testing.T) {
	statuses := make([]domain.ReconciliationStatus, 1500)
	for i := range statuses {
		if i%3 == 0 {
			statuses[i] = domain.StatusRiskyITC
		} else {
			statuses[i] = domain.StatusMatched
		}
	}
	resp := domain.ReconciliationResponse{
		TotalInvoices:         1500,
		ReconciliationResults: records(statuses...),
		VendorSummary: []domain.VendorSummary{
			{VendorGSTIN: "27AAAAA0000A1Z5", VendorRiskLevel: domain.RiskHigh},
		},
	}

	view := Aggregate(resp, DefaultDisplayLimit)
	if view.Tally.Total() != 1500 {
		t.Fatalf("expected tally over 1500 records, got %d", view.Tally.Total())
	}
	if view.Tally[domain.StatusRiskyITC] != 500 || view.Tally[domain.StatusMatched] != 1000 {
		t.Fatalf("unexpected tally: %v", view.Tally)
	}
	if len(view.Rows) != 1000 || view.TotalRecords != 1500 || view.TotalInvoices != 1500 {
		t.Fatalf("unexpected view sizes: rows=%d records=%d invoices=%d", len(view.Rows), view.TotalRecords, view.TotalInvoices)
	}
	if len(view.Vendors) != 1 || view.Vendors[0].Badge != domain.BadgeRiskyITC {
		t.Fatalf("unexpected vendor rows: %+v", view.Vendors)
	}
}
