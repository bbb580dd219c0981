package domain

import (
	"fmt"
	"strings"
)

// TenantContext identifies the tenant a session acts for. It is built once at
// bootstrap and never mutated.
type TenantContext struct {
	tenantID string
	plan     string
}

func NewTenantContext(tenantID, plan string) (TenantContext, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return TenantContext{}, WrapError(ErrInvalidInput, "tenant context", fmt.Errorf("tenant id is required"))
	}
	return TenantContext{
		tenantID: tenantID,
		plan:     strings.TrimSpace(plan),
	}, nil
}

func (t TenantContext) TenantID() string { return t.tenantID }

func (t TenantContext) Plan() string { return t.plan }

// ShortID returns the first 8 characters of the tenant id.
func (t TenantContext) ShortID() string {
	runes := []rune(t.tenantID)
	if len(runes) <= 8 {
		return t.tenantID
	}
	return string(runes[:8])
}

func (t TenantContext) IsZero() bool { return t.tenantID == "" }
