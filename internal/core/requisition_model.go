package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionStatus is the closed set of requisition states.
//
//	draft → pending → approved
//	                → rejected
type RequisitionStatus string

const (
	RequisitionDraft    RequisitionStatus = "draft"
	RequisitionPending  RequisitionStatus = "pending"
	RequisitionApproved RequisitionStatus = "approved"
	RequisitionRejected RequisitionStatus = "rejected"
)

var requisitionTransitions = map[RequisitionStatus][]RequisitionStatus{
	RequisitionDraft:    {RequisitionPending},
	RequisitionPending:  {RequisitionApproved, RequisitionRejected},
	RequisitionApproved: nil,
	RequisitionRejected: nil,
}

// Valid reports whether s is one of the defined statuses.
func (s RequisitionStatus) Valid() bool {
	_, ok := requisitionTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s RequisitionStatus) IsTerminal() bool {
	return s.Valid() && len(requisitionTransitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows s → next.
func (s RequisitionStatus) CanTransitionTo(next RequisitionStatus) bool {
	for _, allowed := range requisitionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseRequisitionStatus converts user input into a RequisitionStatus.
func ParseRequisitionStatus(s string) (RequisitionStatus, error) {
	st := RequisitionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("status", "unknown requisition status %q", s)
	}
	return st, nil
}

// Requisition is an internal request to purchase items for a project.
type Requisition struct {
	ID            int               `json:"id"`
	Number        string            `json:"requisition_number"`
	ProjectID     int               `json:"project_id"`
	RequiredBy    *time.Time        `json:"required_by,omitempty"`
	Notes         string            `json:"notes"`
	Status        RequisitionStatus `json:"status"`
	RequestedBy   string            `json:"requested_by"`
	ApproverID    *string           `json:"approver_id,omitempty"`
	ApprovalNotes string            `json:"approval_notes,omitempty"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Lines         []RequisitionLine `json:"lines"`
}

// RequisitionLine is one requested item.
type RequisitionLine struct {
	ID                 int             `json:"id"`
	LineNumber         int             `json:"line_number"`
	ItemName           string          `json:"item_name"`
	Description        string          `json:"description"`
	Category           string          `json:"category,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// EstimatedTotal is Σ quantity × estimated unit price.
func (r *Requisition) EstimatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Quantity.Mul(l.EstimatedUnitPrice))
	}
	return total.Round(2)
}

// RequisitionInput holds the fields required to create a requisition.
type RequisitionInput struct {
	ProjectID  int                    `json:"project_id"`
	RequiredBy *time.Time             `json:"required_by,omitempty"`
	Notes      string                 `json:"notes"`
	Submit     bool                   `json:"submit"`
	Lines      []RequisitionLineInput `json:"lines"`
}

// RequisitionLineInput holds the fields of one requested item.
type RequisitionLineInput struct {
	ItemName           string          `json:"item_name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// Validate checks every line carries a name and a positive whole quantity.
func (in RequisitionInput) Validate() error {
	if in.ProjectID <= 0 {
		return invalid("project_id", "project is required")
	}
	if len(in.Lines) == 0 {
		return invalid("lines", "requisition must have at least one line")
	}
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if strings.TrimSpace(l.ItemName) == "" {
			return invalid(field+".item_name", "item name is required")
		}
		if !l.Quantity.IsPositive() {
			return invalid(field+".quantity", "quantity must be greater than zero, got %s", l.Quantity)
		}
		if !l.Quantity.Equal(l.Quantity.Truncate(0)) {
			return invalid(field+".quantity", "quantity must be a whole number, got %s", l.Quantity)
		}
		if l.EstimatedUnitPrice.IsNegative() {
			return invalid(field+".estimated_unit_price", "estimated unit price cannot be negative")
		}
		if exceedsScale(l.EstimatedUnitPrice) {
			return invalid(field+".estimated_unit_price", "estimated unit price allows at most %d decimal places, got %s", QuantityScale, l.EstimatedUnitPrice)
		}
	}
	return nil
}

// RequisitionFilter narrows ListRequisitions. Zero values mean "any".
type RequisitionFilter struct {
	Status    RequisitionStatus
	ProjectID int
	From      *time.Time
	To        *time.Time
}

// Matches reports whether r satisfies every set criterion. From/To bound CreatedAt by day.
func (f RequisitionFilter) Matches(r *Requisition) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.ProjectID != 0 && r.ProjectID != f.ProjectID {
		return false
	}
	return withinDays(r.CreatedAt, f.From, f.To)
}

// ApprovalService applies the requisition state machine and authorizes PO derivation.
type ApprovalService interface {
	// CreateRequisition stores a new requisition in draft (or pending when input.Submit is set).
	CreateRequisition(ctx context.Context, actor Actor, input RequisitionInput) (*Requisition, error)

	// GetRequisition returns a requisition with its lines.
	GetRequisition(ctx context.Context, id int) (*Requisition, error)

	// ListRequisitions returns requisitions matching filter, newest first.
	ListRequisitions(ctx context.Context, filter RequisitionFilter) ([]Requisition, error)

	// SubmitForApproval moves a draft requisition to pending.
	SubmitForApproval(ctx context.Context, actor Actor, id int) (*Requisition, error)

	// Approve moves a pending requisition to approved and records the approver.
	Approve(ctx context.Context, actor Actor, id int, notes string) (*Requisition, error)

	// Reject moves a pending requisition to rejected and records the approver.
	Reject(ctx context.Context, actor Actor, id int, notes string) (*Requisition, error)

	// DeriveDraftPO creates exactly one draft purchase order from an approved requisition.
	// vendorID may be zero; the vendor must then be set before the order is issued.
	DeriveDraftPO(ctx context.Context, actor Actor, id, vendorID int) (*PurchaseOrder, error)

	// DeleteRequisition removes a draft or pending requisition that has no derived order.
	DeleteRequisition(ctx context.Context, actor Actor, id int) error
}

func withinDays(t time.Time, from, to *time.Time) bool {
	day := dateOnly(t)
	if from != nil && day.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to)) {
		return false
	}
	return true
}
