package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// engine carries the collaborators shared by the lifecycle services.
type engine struct {
	store  Store
	locker Locker
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func newEngine(store Store, locker Locker, events EventPublisher, log *zap.Logger) engine {
	if log == nil {
		log = zap.NewNop()
	}
	return engine{store: store, locker: locker, events: events, log: log, now: time.Now}
}

// withOrderLock runs fn while holding the purchase order's mutual-exclusion lock.
// The lock covers only validate+mutate; callers publish events after it returns.
func (e engine) withOrderLock(ctx context.Context, poID int, fn func() error) error {
	if e.locker == nil {
		return fn()
	}
	unlock, err := e.locker.Lock(ctx, orderLockKey(poID))
	if err != nil {
		return &ConcurrencyError{Resource: fmt.Sprintf("purchase order %d", poID), Err: err}
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("release purchase order lock", zap.Int("purchase_order_id", poID), zap.Error(err))
		}
	}()
	return fn()
}

func (e engine) publish(ctx context.Context, ev Event) {
	if e.events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now().UTC()
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event",
			zap.String("type", ev.Type),
			zap.Int("entity_id", ev.EntityID),
			zap.Error(err),
		)
	}
}

// resolveVendor checks that vendorID names an active vendor.
func (e engine) resolveVendor(ctx context.Context, vendorID int) (*Vendor, error) {
	if vendorID <= 0 {
		return nil, invalid("vendor_id", "vendor is required")
	}
	v, err := e.store.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, invalid("vendor_id", "vendor %s is inactive", v.Code)
	}
	return v, nil
}

// buildLines turns validated inputs into fresh order lines with zero received quantity.
func buildLines(inputs []OrderLineInput) []PurchaseOrderLine {
	lines := make([]PurchaseOrderLine, len(inputs))
	for i, in := range inputs {
		lines[i] = PurchaseOrderLine{
			LineNumber:      i + 1,
			ItemName:        in.ItemName,
			Description:     in.Description,
			Category:        in.Category,
			OrderedQuantity: in.OrderedQuantity,
			Unit:            trimmedOr(in.Unit, defaultUnit),
			UnitPrice:       in.UnitPrice,
		}
	}
	return lines
}
