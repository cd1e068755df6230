package core

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Actor is the authenticated identity performing a state-changing call.
// It is always passed explicitly; the engine never reads it from ambient state.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

func (a Actor) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return invalid("actor", "actor identity is required")
	}
	return nil
}

// Vendor is the subset of vendor master data the engine reads.
type Vendor struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Project is the subset of project master data the engine reads.
type Project struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Directory resolves vendor and project references owned by other parts of the application.
type Directory interface {
	// GetVendor returns the vendor or a *NotFoundError.
	GetVendor(ctx context.Context, vendorID int) (*Vendor, error)

	// GetProject returns the project or a *NotFoundError.
	GetProject(ctx context.Context, projectID int) (*Project, error)
}

// TaxRate is the fixed tax percentage applied to every purchase order subtotal.
var TaxRate = decimal.NewFromFloat(0.18)

const defaultUnit = "pcs"

// QuantityScale is the number of decimal places persisted for quantities and unit prices.
const QuantityScale = 4

func exceedsScale(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(QuantityScale))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trimmedOr(s, fallback string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return fallback
}
