package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
)

// TestProcurementLifecycle walks one requisition through derivation, issue and receiving.
func TestProcurementLifecycle(t *testing.T) {
	f := newFixture(t)

	var po *core.PurchaseOrder

	t.Run("requisition approved and derived into a draft order", func(t *testing.T) {
		r, err := f.approvals.CreateRequisition(f.ctx, buyer, core.RequisitionInput{
			ProjectID: f.project.ID,
			Lines: []core.RequisitionLineInput{
				{ItemName: "Steel bracket", Quantity: dec("10"), Unit: "pcs", EstimatedUnitPrice: dec("12.50")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, core.RequisitionDraft, r.Status)

		r, err = f.approvals.SubmitForApproval(f.ctx, buyer, r.ID)
		require.NoError(t, err)
		assert.Equal(t, core.RequisitionPending, r.Status)

		r, err = f.approvals.Approve(f.ctx, approver, r.ID, "within budget")
		require.NoError(t, err)
		assert.Equal(t, core.RequisitionApproved, r.Status)
		require.NotNil(t, r.ApproverID)
		assert.Equal(t, "bob", *r.ApproverID)
		assert.Equal(t, "within budget", r.ApprovalNotes)

		po, err = f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
		require.NoError(t, err)
		assert.Equal(t, core.PODraft, po.Status)
		require.Len(t, po.Lines, 1)
		assert.True(t, po.Lines[0].OrderedQuantity.Equal(dec("10")))
		assert.True(t, po.Lines[0].ReceivedQuantity.IsZero())
		assert.True(t, po.Lines[0].UnitPrice.Equal(dec("12.50")))
		require.NotNil(t, po.RequisitionID)
		assert.Equal(t, r.ID, *po.RequisitionID)

		po, err = f.orders.IssueOrder(f.ctx, buyer, po.ID)
		require.NoError(t, err)
		assert.Equal(t, core.POSent, po.Status)
	})

	t.Run("partial receipt", func(t *testing.T) {
		got, gr, err := f.receive(po.ID, po.Lines[0].ID, "4")
		require.NoError(t, err)
		assert.True(t, got.Lines[0].ReceivedQuantity.Equal(dec("4")))
		assert.Equal(t, core.POPartiallyReceived, got.Status)
		assert.Equal(t, core.POPartiallyReceived, gr.StatusAfter)
		assert.Equal(t, "carol", gr.ReceivedBy)
	})

	t.Run("remaining quantity completes the order", func(t *testing.T) {
		got, _, err := f.receive(po.ID, po.Lines[0].ID, "6")
		require.NoError(t, err)
		assert.True(t, got.Lines[0].ReceivedQuantity.Equal(dec("10")))
		assert.Equal(t, core.POCompleted, got.Status)
	})

	t.Run("completed order rejects further receipts", func(t *testing.T) {
		_, _, err := f.receive(po.ID, po.Lines[0].ID, "1")
		var ise *core.InvalidStateError
		require.True(t, errors.As(err, &ise), "got %v", err)
		assert.Equal(t, string(core.POCompleted), ise.Status)

		receipts, err := f.receiving.ListReceipts(f.ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, receipts, 2)
	})

	assert.Equal(t, []string{
		core.EventRequisitionCreated,
		core.EventRequisitionSubmitted,
		core.EventRequisitionApproved,
		core.EventOrderCreated,
		core.EventOrderStatusChanged,
		core.EventOrderReceived,
		core.EventOrderReceived,
	}, f.events.types())
}

func TestReceive_OverReceiptRejected(t *testing.T) {
	f := newFixture(t)
	po := f.issuedOrder(t, "10")

	_, _, err := f.receive(po.ID, po.Lines[0].ID, "15")
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Contains(t, ve.Field, "Item A")

	got, err := f.orders.GetOrder(f.ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].ReceivedQuantity.IsZero())
	assert.Equal(t, core.POSent, got.Status)
}
