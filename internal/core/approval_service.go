package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type approvalService struct {
	engine
}

// NewApprovalService constructs the requisition approval engine.
func NewApprovalService(store Store, events EventPublisher, log *zap.Logger) ApprovalService {
	return &approvalService{engine: newEngine(store, nil, events, log)}
}

// CreateRequisition validates the input, assigns a requisition number and stores it.
func (s *approvalService) CreateRequisition(ctx context.Context, actor Actor, input RequisitionInput) (*Requisition, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	status := RequisitionDraft
	if input.Submit {
		status = RequisitionPending
	}

	now := s.now()
	r := &Requisition{
		ProjectID:   input.ProjectID,
		RequiredBy:  input.RequiredBy,
		Notes:       input.Notes,
		Status:      status,
		RequestedBy: actor.ID,
	}
	for i, l := range input.Lines {
		r.Lines = append(r.Lines, RequisitionLine{
			LineNumber:         i + 1,
			ItemName:           l.ItemName,
			Description:        l.Description,
			Category:           l.Category,
			Quantity:           l.Quantity,
			Unit:               trimmedOr(l.Unit, defaultUnit),
			EstimatedUnitPrice: l.EstimatedUnitPrice,
		})
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		number, err := tx.NextNumber(ctx, "REQ", now)
		if err != nil {
			return fmt.Errorf("assign requisition number: %w", err)
		}
		r.Number = number
		return tx.InsertRequisition(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("requisition created",
		zap.String("number", r.Number),
		zap.String("status", string(r.Status)),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventRequisitionCreated, EntityID: r.ID, Number: r.Number, Status: string(r.Status), Actor: actor.ID})
	return r, nil
}

// GetRequisition returns a requisition by ID.
func (s *approvalService) GetRequisition(ctx context.Context, id int) (*Requisition, error) {
	return s.store.GetRequisition(ctx, id)
}

// ListRequisitions returns requisitions matching filter.
func (s *approvalService) ListRequisitions(ctx context.Context, filter RequisitionFilter) ([]Requisition, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "unknown requisition status %q", filter.Status)
	}
	return s.store.ListRequisitions(ctx, filter)
}

// SubmitForApproval moves a draft requisition to pending.
func (s *approvalService) SubmitForApproval(ctx context.Context, actor Actor, id int) (*Requisition, error) {
	r, err := s.transition(ctx, actor, id, RequisitionPending, "submitted", nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventRequisitionSubmitted, EntityID: r.ID, Number: r.Number, Status: string(r.Status), Actor: actor.ID})
	return r, nil
}

// Approve moves a pending requisition to approved.
func (s *approvalService) Approve(ctx context.Context, actor Actor, id int, notes string) (*Requisition, error) {
	r, err := s.decide(ctx, actor, id, RequisitionApproved, "approved", notes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventRequisitionApproved, EntityID: r.ID, Number: r.Number, Status: string(r.Status), Actor: actor.ID})
	return r, nil
}

// Reject moves a pending requisition to rejected.
func (s *approvalService) Reject(ctx context.Context, actor Actor, id int, notes string) (*Requisition, error) {
	r, err := s.decide(ctx, actor, id, RequisitionRejected, "rejected", notes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventRequisitionRejected, EntityID: r.ID, Number: r.Number, Status: string(r.Status), Actor: actor.ID})
	return r, nil
}

func (s *approvalService) decide(ctx context.Context, actor Actor, id int, to RequisitionStatus, op, notes string) (*Requisition, error) {
	return s.transition(ctx, actor, id, to, op, func(r *Requisition) {
		approver := actor.ID
		decidedAt := s.now().UTC()
		r.ApproverID = &approver
		r.ApprovalNotes = notes
		r.DecidedAt = &decidedAt
	})
}

// transition applies one edge of the requisition state machine under the requisition's row lock.
func (s *approvalService) transition(ctx context.Context, actor Actor, id int, to RequisitionStatus, op string, mutate func(*Requisition)) (*Requisition, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}

	var out *Requisition
	err := s.store.WithTx(ctx, func(tx Tx) error {
		r, err := tx.LockRequisition(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(to) {
			return &InvalidStateError{Entity: "requisition", ID: id, Status: string(r.Status), Operation: op}
		}
		r.Status = to
		if mutate != nil {
			mutate(r)
		}
		if err := tx.UpdateRequisitionStatus(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("requisition transitioned",
		zap.String("number", out.Number),
		zap.String("status", string(out.Status)),
		zap.String("actor", actor.ID),
	)
	return out, nil
}

// DeriveDraftPO copies an approved requisition into a new draft purchase order.
// The requisition row lock plus the derivation marker make a second call fail with ConflictError.
func (s *approvalService) DeriveDraftPO(ctx context.Context, actor Actor, id, vendorID int) (*PurchaseOrder, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if vendorID != 0 {
		if _, err := s.resolveVendor(ctx, vendorID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var po *PurchaseOrder
	err := s.store.WithTx(ctx, func(tx Tx) error {
		r, err := tx.LockRequisition(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != RequisitionApproved {
			return &InvalidStateError{Entity: "requisition", ID: id, Status: string(r.Status), Operation: "derived into a purchase order"}
		}
		if poID, ok, err := tx.DerivedOrderID(ctx, r.ID); err != nil {
			return err
		} else if ok {
			return &ConflictError{Message: fmt.Sprintf("requisition %s already derived into purchase order %d", r.Number, poID)}
		}

		reqID := r.ID
		po = &PurchaseOrder{
			VendorID:         vendorID,
			ProjectID:        r.ProjectID,
			RequisitionID:    &reqID,
			OrderDate:        dateOnly(now),
			ExpectedDelivery: r.RequiredBy,
			Notes:            "Derived from requisition " + r.Number,
			Status:           PODraft,
			CreatedBy:        actor.ID,
		}
		for i, l := range r.Lines {
			po.Lines = append(po.Lines, PurchaseOrderLine{
				LineNumber:      i + 1,
				ItemName:        l.ItemName,
				Description:     l.Description,
				Category:        l.Category,
				OrderedQuantity: l.Quantity,
				Unit:            l.Unit,
				UnitPrice:       l.EstimatedUnitPrice,
			})
		}
		po.ComputeTotals()

		number, err := tx.NextNumber(ctx, "PO", now)
		if err != nil {
			return fmt.Errorf("assign purchase order number: %w", err)
		}
		po.Number = number
		return tx.InsertPurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase order derived from requisition",
		zap.Int("requisition_id", id),
		zap.String("po_number", po.Number),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventOrderCreated, EntityID: po.ID, Number: po.Number, Status: string(po.Status), Actor: actor.ID})
	return po, nil
}

// DeleteRequisition removes a requisition still open for correction.
func (s *approvalService) DeleteRequisition(ctx context.Context, actor Actor, id int) error {
	if err := actor.validate(); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		r, err := tx.LockRequisition(ctx, id)
		if err != nil {
			return err
		}
		if poID, ok, err := tx.DerivedOrderID(ctx, r.ID); err != nil {
			return err
		} else if ok {
			return &ConflictError{Message: fmt.Sprintf("requisition %s has derived purchase order %d", r.Number, poID)}
		}
		if r.Status.IsTerminal() {
			return &InvalidStateError{Entity: "requisition", ID: id, Status: string(r.Status), Operation: "deleted"}
		}
		return tx.DeleteRequisition(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("requisition deleted", zap.Int("requisition_id", id), zap.String("actor", actor.ID))
	return nil
}
