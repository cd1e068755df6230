package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"procurement/internal/core"
	"procurement/internal/lock"
	"procurement/internal/store"
)

var (
	buyer    = core.Actor{ID: "alice", Role: "buyer"}
	approver = core.Actor{ID: "bob", Role: "approver"}
	receiver = core.Actor{ID: "carol", Role: "warehouse"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) Publish(_ context.Context, e core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *store.Memory
	locker    core.Locker
	events    *recorder
	approvals core.ApprovalService
	orders    core.PurchaseOrderService
	receiving core.ReceivingService
	vendor    core.Vendor
	project   core.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	f := &fixture{
		ctx:     context.Background(),
		store:   mem,
		locker:  lock.NewLocal(2 * time.Second),
		events:  &recorder{},
		vendor:  mem.AddVendor(core.Vendor{Code: "V001", Name: "Acme Supplies", Category: "hardware", IsActive: true}),
		project: mem.AddProject(core.Project{Code: "PRJ-1", Name: "Warehouse fit-out"}),
	}
	f.wire(t, mem, f.locker)
	return f
}

// wire (re)builds the services over st and locker.
func (f *fixture) wire(t *testing.T, st core.Store, locker core.Locker) {
	log := zaptest.NewLogger(t)
	f.approvals = core.NewApprovalService(st, f.events, log)
	f.orders = core.NewPurchaseOrderService(st, locker, f.events, log)
	f.receiving = core.NewReceivingService(st, locker, f.events, log)
}

// approvedRequisition creates a requisition with the given quantities and drives it to approved.
func (f *fixture) approvedRequisition(t *testing.T, quantities ...string) *core.Requisition {
	t.Helper()
	in := core.RequisitionInput{ProjectID: f.project.ID, Submit: true}
	for i, q := range quantities {
		in.Lines = append(in.Lines, core.RequisitionLineInput{
			ItemName:           "Item " + string(rune('A'+i)),
			Quantity:           dec(q),
			Unit:               "pcs",
			EstimatedUnitPrice: dec("25.00"),
		})
	}
	r, err := f.approvals.CreateRequisition(f.ctx, buyer, in)
	require.NoError(t, err)
	r, err = f.approvals.Approve(f.ctx, approver, r.ID, "ok")
	require.NoError(t, err)
	return r
}

// issuedOrder creates a sent purchase order with one line per quantity at unit price 10.
func (f *fixture) issuedOrder(t *testing.T, quantities ...string) *core.PurchaseOrder {
	t.Helper()
	in := core.OrderInput{VendorID: f.vendor.ID, ProjectID: f.project.ID, Issue: true}
	for i, q := range quantities {
		in.Lines = append(in.Lines, core.OrderLineInput{
			ItemName:        "Item " + string(rune('A'+i)),
			OrderedQuantity: dec(q),
			UnitPrice:       dec("10.00"),
		})
	}
	po, err := f.orders.CreateOrder(f.ctx, buyer, in)
	require.NoError(t, err)
	return po
}

func (f *fixture) receive(poID int, pairs ...any) (*core.PurchaseOrder, *core.GoodsReceipt, error) {
	var lines []core.ReceiptLineInput
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, core.ReceiptLineInput{
			PurchaseOrderLineID: pairs[i].(int),
			QuantityReceived:    dec(pairs[i+1].(string)),
		})
	}
	return f.receiving.Receive(f.ctx, receiver, poID, lines, time.Time{}, "")
}
