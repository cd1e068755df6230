package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type receivingService struct {
	engine
}

// NewReceivingService constructs the goods-receipt reconciliation engine.
func NewReceivingService(store Store, locker Locker, events EventPublisher, log *zap.Logger) ReceivingService {
	return &receivingService{engine: newEngine(store, locker, events, log)}
}

// Receive records a delivery against a purchase order. Validation and mutation run under the
// order's lock and inside one transaction, re-reading the order so no stale remaining quantity
// is ever trusted. Any failure leaves every line untouched.
func (s *receivingService) Receive(ctx context.Context, actor Actor, poID int, lines []ReceiptLineInput, receiptDate time.Time, notes string) (*PurchaseOrder, *GoodsReceipt, error) {
	if err := actor.validate(); err != nil {
		return nil, nil, err
	}
	if receiptDate.IsZero() {
		receiptDate = s.now()
	}

	var po *PurchaseOrder
	var gr *GoodsReceipt
	err := s.withOrderLock(ctx, poID, func() error {
		return s.store.WithTx(ctx, func(tx Tx) error {
			current, err := tx.LockPurchaseOrder(ctx, poID)
			if err != nil {
				return err
			}
			if current.Status.IsTerminal() {
				return &InvalidStateError{Entity: "purchase order", ID: poID, Status: string(current.Status), Operation: "received"}
			}

			deltas, order, err := reconcile(current, lines)
			if err != nil {
				return err
			}

			receipt := &GoodsReceipt{
				PurchaseOrderID: poID,
				ReceiptDate:     dateOnly(receiptDate),
				Notes:           notes,
				ReceivedBy:      actor.ID,
			}
			for _, lineID := range order {
				line, _ := current.Line(lineID)
				line.ReceivedQuantity = line.ReceivedQuantity.Add(deltas[lineID])
				receipt.Lines = append(receipt.Lines, ReceiptLine{PurchaseOrderLineID: lineID, QuantityReceived: deltas[lineID]})
			}
			current.Status = DeriveReceiptStatus(current.Status, current.Lines)
			current.UpdatedAt = s.now().UTC()
			receipt.StatusAfter = current.Status

			if err := tx.UpdatePurchaseOrder(ctx, current); err != nil {
				return fmt.Errorf("update received quantities: %w", err)
			}
			if err := tx.InsertReceipt(ctx, receipt); err != nil {
				return fmt.Errorf("append goods receipt: %w", err)
			}
			po, gr = current, receipt
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("goods received",
		zap.String("po_number", po.Number),
		zap.Int("receipt_id", gr.ID),
		zap.Int("lines", len(gr.Lines)),
		zap.String("status", string(po.Status)),
		zap.String("actor", actor.ID),
	)
	s.publish(ctx, Event{Type: EventOrderReceived, EntityID: po.ID, Number: po.Number, Status: string(po.Status), Actor: actor.ID})
	return po, gr, nil
}

// reconcile validates a submission against the order's current lines and returns the positive
// per-line deltas in first-seen order. Repeated references to one line are summed before the
// remaining-quantity check.
func reconcile(po *PurchaseOrder, lines []ReceiptLineInput) (map[int]decimal.Decimal, []int, error) {
	if len(lines) == 0 {
		return nil, nil, invalid("lines", "nothing to receive")
	}
	deltas := make(map[int]decimal.Decimal, len(lines))
	var order []int
	for i, in := range lines {
		if _, ok := po.Line(in.PurchaseOrderLineID); !ok {
			return nil, nil, &NotFoundError{Entity: "purchase order line", ID: in.PurchaseOrderLineID}
		}
		if in.QuantityReceived.IsNegative() {
			return nil, nil, invalid(fmt.Sprintf("lines[%d].quantity_received", i),
				"quantity received cannot be negative, got %s", in.QuantityReceived)
		}
		if exceedsScale(in.QuantityReceived) {
			return nil, nil, invalid(fmt.Sprintf("lines[%d].quantity_received", i),
				"quantity received allows at most %d decimal places, got %s", QuantityScale, in.QuantityReceived)
		}
		if _, seen := deltas[in.PurchaseOrderLineID]; !seen {
			order = append(order, in.PurchaseOrderLineID)
		}
		deltas[in.PurchaseOrderLineID] = deltas[in.PurchaseOrderLineID].Add(in.QuantityReceived)
	}

	total := decimal.Zero
	var positive []int
	for _, lineID := range order {
		line, _ := po.Line(lineID)
		delta := deltas[lineID]
		if delta.GreaterThan(line.Remaining()) {
			return nil, nil, invalid(fmt.Sprintf("line %d (%s)", line.LineNumber, line.ItemName),
				"receiving %s exceeds remaining %s (ordered %s, already received %s)",
				delta, line.Remaining(), line.OrderedQuantity, line.ReceivedQuantity)
		}
		if delta.IsPositive() {
			positive = append(positive, lineID)
			total = total.Add(delta)
		}
	}
	if !total.IsPositive() {
		return nil, nil, invalid("lines", "nothing to receive")
	}
	return deltas, positive, nil
}

// ListReceipts returns the audit trail of an order.
func (s *receivingService) ListReceipts(ctx context.Context, poID int) ([]GoodsReceipt, error) {
	if _, err := s.store.GetPurchaseOrder(ctx, poID); err != nil {
		return nil, err
	}
	return s.store.ListReceipts(ctx, poID)
}
