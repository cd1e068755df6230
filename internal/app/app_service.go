package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"procurement/internal/core"
)

type appService struct {
	approvals core.ApprovalService
	orders    core.PurchaseOrderService
	receiving core.ReceivingService
	reports   core.ReportingService
	drafter   RequisitionDrafter
	log       *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// drafter may be nil, in which case DraftRequisition returns ErrAssistantDisabled.
func NewAppService(
	approvals core.ApprovalService,
	orders core.PurchaseOrderService,
	receiving core.ReceivingService,
	reports core.ReportingService,
	drafter RequisitionDrafter,
	log *zap.Logger,
) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		approvals: approvals,
		orders:    orders,
		receiving: receiving,
		reports:   reports,
		drafter:   drafter,
		log:       log,
	}
}

// ── Requisitions ──────────────────────────────────────────────────────────────

func (s *appService) CreateRequisition(ctx context.Context, actor core.Actor, req CreateRequisitionRequest) (*RequisitionResult, error) {
	requiredBy, err := parseOptionalDate("required_by", req.RequiredBy)
	if err != nil {
		return nil, err
	}
	input := core.RequisitionInput{
		ProjectID:  req.ProjectID,
		RequiredBy: requiredBy,
		Notes:      req.Notes,
		Submit:     req.Submit,
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, core.RequisitionLineInput{
			ItemName:           l.ItemName,
			Description:        l.Description,
			Category:           l.Category,
			Quantity:           l.Quantity,
			Unit:               l.Unit,
			EstimatedUnitPrice: l.EstimatedUnitPrice,
		})
	}
	r, err := s.approvals.CreateRequisition(ctx, actor, input)
	if err != nil {
		return nil, err
	}
	return &RequisitionResult{Requisition: r}, nil
}

func (s *appService) GetRequisition(ctx context.Context, id int) (*RequisitionResult, error) {
	r, err := s.approvals.GetRequisition(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RequisitionResult{Requisition: r}, nil
}

func (s *appService) ListRequisitions(ctx context.Context, req ListRequisitionsRequest) (*RequisitionsResult, error) {
	var filter core.RequisitionFilter
	if req.Status != "" {
		st, err := core.ParseRequisitionStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	filter.ProjectID = req.ProjectID

	var err error
	if filter.From, err = parseOptionalDate("from", req.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseOptionalDate("to", req.To); err != nil {
		return nil, err
	}

	list, err := s.approvals.ListRequisitions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &RequisitionsResult{Requisitions: list}, nil
}

func (s *appService) SubmitRequisition(ctx context.Context, actor core.Actor, id int) (*RequisitionResult, error) {
	return wrapRequisition(s.approvals.SubmitForApproval(ctx, actor, id))
}

func (s *appService) ApproveRequisition(ctx context.Context, actor core.Actor, id int, notes string) (*RequisitionResult, error) {
	return wrapRequisition(s.approvals.Approve(ctx, actor, id, notes))
}

func (s *appService) RejectRequisition(ctx context.Context, actor core.Actor, id int, notes string) (*RequisitionResult, error) {
	return wrapRequisition(s.approvals.Reject(ctx, actor, id, notes))
}

func (s *appService) DeriveOrder(ctx context.Context, actor core.Actor, requisitionID, vendorID int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.approvals.DeriveDraftPO(ctx, actor, requisitionID, vendorID))
}

func (s *appService) DeleteRequisition(ctx context.Context, actor core.Actor, id int) error {
	return s.approvals.DeleteRequisition(ctx, actor, id)
}

func (s *appService) DraftRequisition(ctx context.Context, projectID int, text string) (*RequisitionDraftResult, error) {
	if s.drafter == nil {
		return nil, ErrAssistantDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, &core.ValidationError{Field: "text", Message: "describe what you need"}
	}
	draft, err := s.drafter.DraftRequisition(ctx, projectID, text)
	if err != nil {
		s.log.Warn("requisition draft failed", zap.Int("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return &RequisitionDraftResult{Draft: draft}, nil
}

// ── Purchase orders ───────────────────────────────────────────────────────────

func (s *appService) CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	terms, err := req.Terms.toCore()
	if err != nil {
		return nil, err
	}
	return wrapOrder(s.orders.CreateOrder(ctx, actor, core.OrderInput{
		VendorID:  req.VendorID,
		ProjectID: req.ProjectID,
		Lines:     orderLines(req.Lines),
		Terms:     terms,
		Issue:     req.Issue,
	}))
}

func (s *appService) GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.orders.GetOrder(ctx, id))
}

func (s *appService) ListPurchaseOrders(ctx context.Context, req ListPurchaseOrdersRequest) (*PurchaseOrdersResult, error) {
	filter := core.PurchaseOrderFilter{VendorID: req.VendorID, ProjectID: req.ProjectID}
	if req.Status != "" {
		st, err := core.ParsePOStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}

	var err error
	if filter.From, err = parseOptionalDate("from", req.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseOptionalDate("to", req.To); err != nil {
		return nil, err
	}

	list, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrdersResult{PurchaseOrders: list}, nil
}

func (s *appService) UpdatePurchaseOrder(ctx context.Context, actor core.Actor, id int, req UpdatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	terms, err := req.Terms.toCore()
	if err != nil {
		return nil, err
	}
	return wrapOrder(s.orders.UpdateOrder(ctx, actor, id, core.OrderUpdate{
		VendorID: req.VendorID,
		Lines:    orderLines(req.Lines),
		Terms:    terms,
	}))
}

func (s *appService) IssuePurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.orders.IssueOrder(ctx, actor, id))
}

func (s *appService) ConfirmPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.orders.ConfirmOrder(ctx, actor, id))
}

func (s *appService) ProcessPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.orders.StartProcessing(ctx, actor, id))
}

func (s *appService) CancelPurchaseOrder(ctx context.Context, actor core.Actor, id int) (*PurchaseOrderResult, error) {
	return wrapOrder(s.orders.CancelOrder(ctx, actor, id))
}

func (s *appService) DeletePurchaseOrder(ctx context.Context, actor core.Actor, id int) error {
	return s.orders.DeleteOrder(ctx, actor, id)
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*POReceiptResult, error) {
	var receiptDate time.Time
	if req.ReceiptDate != "" {
		d, err := parseDate("receipt_date", req.ReceiptDate)
		if err != nil {
			return nil, err
		}
		receiptDate = d
	}

	lines := make([]core.ReceiptLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.ReceiptLineInput{
			PurchaseOrderLineID: l.POLineID,
			QuantityReceived:    l.QtyReceived,
		})
	}

	po, gr, err := s.receiving.Receive(ctx, actor, req.POID, lines, receiptDate, req.Notes)
	if err != nil {
		return nil, err
	}
	return &POReceiptResult{PurchaseOrder: po, Receipt: gr}, nil
}

func (s *appService) ListReceipts(ctx context.Context, poID int) (*ReceiptsResult, error) {
	receipts, err := s.receiving.ListReceipts(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &ReceiptsResult{POID: poID, Receipts: receipts}, nil
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetSpendReport(ctx context.Context, from, to string) (*SpendReportResult, error) {
	fromDate, err := parseDate("from", from)
	if err != nil {
		return nil, err
	}
	toDate, err := parseDate("to", to)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.SpendReport(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return &SpendReportResult{Report: report}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &core.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected a date as YYYY-MM-DD, got %q", s),
		}
	}
	return t, nil
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (t TermsRequest) toCore() (core.DeliveryTerms, error) {
	terms := core.DeliveryTerms{
		ShippingAddress: t.ShippingAddress,
		PaymentTerms:    t.PaymentTerms,
		Notes:           t.Notes,
	}
	if t.OrderDate != "" {
		d, err := parseDate("order_date", t.OrderDate)
		if err != nil {
			return terms, err
		}
		terms.OrderDate = d
	}
	expected, err := parseOptionalDate("expected_delivery_date", t.ExpectedDelivery)
	if err != nil {
		return terms, err
	}
	terms.ExpectedDelivery = expected
	return terms, nil
}

func orderLines(lines []POLineRequest) []core.OrderLineInput {
	out := make([]core.OrderLineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, core.OrderLineInput{
			ID:              l.ID,
			ItemName:        l.ItemName,
			Description:     l.Description,
			Category:        l.Category,
			OrderedQuantity: l.Quantity,
			Unit:            l.Unit,
			UnitPrice:       l.UnitPrice,
		})
	}
	return out
}

func wrapRequisition(r *core.Requisition, err error) (*RequisitionResult, error) {
	if err != nil {
		return nil, err
	}
	return &RequisitionResult{Requisition: r}, nil
}

func wrapOrder(po *core.PurchaseOrder, err error) (*PurchaseOrderResult, error) {
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}
