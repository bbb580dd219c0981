package domain

// ReconciliationStatus is the backend verdict for one invoice. The set is open:
// values outside the known four are kept as-is.
type ReconciliationStatus string

const (
	StatusMatched      ReconciliationStatus = "MATCHED"
	StatusPartialMatch ReconciliationStatus = "PARTIAL_MATCH"
	StatusMissingIn2B  ReconciliationStatus = "MISSING_IN_2B"
	StatusRiskyITC     ReconciliationStatus = "RISKY_ITC"
)

// KnownStatuses lists the statuses that own a display slot, in display order.
func KnownStatuses() []ReconciliationStatus {
	return []ReconciliationStatus{StatusMatched, StatusPartialMatch, StatusMissingIn2B, StatusRiskyITC}
}

func (s ReconciliationStatus) IsKnown() bool {
	switch s {
	case StatusMatched, StatusPartialMatch, StatusMissingIn2B, StatusRiskyITC:
		return true
	default:
		return false
	}
}

type VendorRiskLevel string

const (
	RiskHigh   VendorRiskLevel = "HIGH"
	RiskMedium VendorRiskLevel = "MEDIUM"
	RiskLow    VendorRiskLevel = "LOW"
)

// BadgeClass is the severity bucket a vendor row is displayed under.
type BadgeClass string

const (
	BadgeRiskyITC     BadgeClass = "RISKY_ITC"
	BadgePartialMatch BadgeClass = "PARTIAL_MATCH"
	BadgeMatched      BadgeClass = "MATCHED"
)

type ReconciliationRecord struct {
	InvoiceNumber   string               `json:"invoice_number"`
	GSTIN           string               `json:"gstin"`
	Status          ReconciliationStatus `json:"status"`
	Explanation     string               `json:"explanation"`
	SuggestedAction string               `json:"suggested_action"`
}

type VendorSummary struct {
	VendorGSTIN      string          `json:"vendor_gstin"`
	TotalInvoices    int             `json:"total_invoices"`
	MatchedCount     int             `json:"matched_count,omitempty"`
	MissingIn2BCount int             `json:"missing_in_2b_count"`
	RiskyCount       int             `json:"risky_count"`
	TotalTaxable     float64         `json:"total_taxable_value,omitempty"`
	TotalITCAmount   float64         `json:"total_itc_amount,omitempty"`
	RiskyITCAmount   float64         `json:"risky_itc_amount,omitempty"`
	VendorRiskLevel  VendorRiskLevel `json:"vendor_risk_level"`
}

type ReconciliationResponse struct {
	TotalInvoices         int                    `json:"total_invoices"`
	ReconciliationResults []ReconciliationRecord `json:"reconciliation_results"`
	VendorSummary         []VendorSummary        `json:"vendor_summary"`
}

// Normalize replaces missing collections with empty ones.
func (r *ReconciliationResponse) Normalize() {
	if r.ReconciliationResults == nil {
		r.ReconciliationResults = []ReconciliationRecord{}
	}
	if r.VendorSummary == nil {
		r.VendorSummary = []VendorSummary{}
	}
}

// StatusTally counts records per status over the full, untruncated result set.
type StatusTally map[ReconciliationStatus]int

func (t StatusTally) Count(status ReconciliationStatus) int {
	return t[status]
}

func (t StatusTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Unrecognized is the "other" bucket: statuses without a display slot.
func (t StatusTally) Unrecognized() map[ReconciliationStatus]int {
	out := make(map[ReconciliationStatus]int)
	for status, n := range t {
		if !status.IsKnown() {
			out[status] = n
		}
	}
	return out
}

type VendorRow struct {
	Summary VendorSummary
	Badge   BadgeClass
}

// ResultsView is what the rendering surface receives for one response.
type ResultsView struct {
	Tally         StatusTally
	Rows          []ReconciliationRecord
	TotalInvoices int
	TotalRecords  int
	Vendors       []VendorRow
}

// InvoiceFile is the user-selected upload.
type InvoiceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type PDFReport struct {
	Data     []byte
	Filename string
}

// BlobHandle is a transient local reference to a binary payload.
type BlobHandle struct {
	ID   string
	Path string
	Size int64
}
