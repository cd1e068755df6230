package core_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
)

func TestCreateRequisition_Validation(t *testing.T) {
	f := newFixture(t)
	line := core.RequisitionLineInput{ItemName: "Gloves", Quantity: dec("5"), EstimatedUnitPrice: dec("2")}

	tests := []struct {
		name  string
		actor core.Actor
		input core.RequisitionInput
		field string
	}{
		{name: "no actor", input: core.RequisitionInput{ProjectID: f.project.ID, Lines: []core.RequisitionLineInput{line}}, field: "actor"},
		{name: "no project", actor: buyer, input: core.RequisitionInput{Lines: []core.RequisitionLineInput{line}}, field: "project_id"},
		{name: "no lines", actor: buyer, input: core.RequisitionInput{ProjectID: f.project.ID}, field: "lines"},
		{
			name: "fractional quantity", actor: buyer,
			input: core.RequisitionInput{ProjectID: f.project.ID, Lines: []core.RequisitionLineInput{
				{ItemName: "Gloves", Quantity: dec("1.5")},
			}},
			field: "lines[0].quantity",
		},
		{
			name: "zero quantity", actor: buyer,
			input: core.RequisitionInput{ProjectID: f.project.ID, Lines: []core.RequisitionLineInput{
				{ItemName: "Gloves", Quantity: dec("0")},
			}},
			field: "lines[0].quantity",
		},
		{
			name: "negative estimate", actor: buyer,
			input: core.RequisitionInput{ProjectID: f.project.ID, Lines: []core.RequisitionLineInput{
				{ItemName: "Gloves", Quantity: dec("1"), EstimatedUnitPrice: dec("-1")},
			}},
			field: "lines[0].estimated_unit_price",
		},
		{
			name: "estimate finer than four decimals", actor: buyer,
			input: core.RequisitionInput{ProjectID: f.project.ID, Lines: []core.RequisitionLineInput{
				{ItemName: "Gloves", Quantity: dec("1"), EstimatedUnitPrice: dec("2.00001")},
			}},
			field: "lines[0].estimated_unit_price",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.approvals.CreateRequisition(f.ctx, tc.actor, tc.input)
			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	_, err := f.approvals.CreateRequisition(f.ctx, buyer, core.RequisitionInput{ProjectID: 77, Lines: []core.RequisitionLineInput{line}})
	var nf *core.NotFoundError
	assert.True(t, errors.As(err, &nf), "unknown project")
}

func TestRequisitionStateMachine(t *testing.T) {
	f := newFixture(t)
	create := func(t *testing.T, submit bool) *core.Requisition {
		r, err := f.approvals.CreateRequisition(f.ctx, buyer, core.RequisitionInput{
			ProjectID: f.project.ID,
			Submit:    submit,
			Lines:     []core.RequisitionLineInput{{ItemName: "Helmet", Quantity: dec("2"), EstimatedUnitPrice: dec("30")}},
		})
		require.NoError(t, err)
		return r
	}
	expectInvalid := func(t *testing.T, err error, status core.RequisitionStatus) {
		t.Helper()
		var ise *core.InvalidStateError
		require.True(t, errors.As(err, &ise), "got %v", err)
		assert.Equal(t, string(status), ise.Status)
	}

	t.Run("draft cannot be decided", func(t *testing.T) {
		r := create(t, false)
		_, err := f.approvals.Approve(f.ctx, approver, r.ID, "")
		expectInvalid(t, err, core.RequisitionDraft)
		_, err = f.approvals.Reject(f.ctx, approver, r.ID, "")
		expectInvalid(t, err, core.RequisitionDraft)
	})

	t.Run("pending cannot be submitted again", func(t *testing.T) {
		r := create(t, true)
		assert.Equal(t, core.RequisitionPending, r.Status)
		_, err := f.approvals.SubmitForApproval(f.ctx, buyer, r.ID)
		expectInvalid(t, err, core.RequisitionPending)
	})

	t.Run("rejected is terminal and records the decision", func(t *testing.T) {
		r := create(t, true)
		r, err := f.approvals.Reject(f.ctx, approver, r.ID, "over budget")
		require.NoError(t, err)
		assert.Equal(t, core.RequisitionRejected, r.Status)
		require.NotNil(t, r.ApproverID)
		assert.Equal(t, approver.ID, *r.ApproverID)
		assert.Equal(t, "over budget", r.ApprovalNotes)
		assert.NotNil(t, r.DecidedAt)

		_, err = f.approvals.Approve(f.ctx, approver, r.ID, "")
		expectInvalid(t, err, core.RequisitionRejected)
		_, err = f.approvals.SubmitForApproval(f.ctx, buyer, r.ID)
		expectInvalid(t, err, core.RequisitionRejected)
		_, err = f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
		expectInvalid(t, err, core.RequisitionRejected)
	})

	t.Run("approved cannot be approved twice", func(t *testing.T) {
		r := f.approvedRequisition(t, "1")
		_, err := f.approvals.Approve(f.ctx, approver, r.ID, "")
		expectInvalid(t, err, core.RequisitionApproved)
	})

	t.Run("pending cannot be derived", func(t *testing.T) {
		r := create(t, true)
		_, err := f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
		expectInvalid(t, err, core.RequisitionPending)
	})

	t.Run("unknown requisition", func(t *testing.T) {
		_, err := f.approvals.Approve(f.ctx, approver, 4242, "")
		var nf *core.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "requisition", nf.Entity)
	})
}

func TestDeriveDraftPO_CopiesLines(t *testing.T) {
	f := newFixture(t)
	r := f.approvedRequisition(t, "4", "7")

	po, err := f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
	require.NoError(t, err)

	require.Len(t, po.Lines, len(r.Lines))
	for i, l := range r.Lines {
		assert.Equal(t, l.ItemName, po.Lines[i].ItemName)
		assert.True(t, l.Quantity.Equal(po.Lines[i].OrderedQuantity))
		assert.True(t, l.EstimatedUnitPrice.Equal(po.Lines[i].UnitPrice))
		assert.True(t, po.Lines[i].ReceivedQuantity.IsZero())
	}
	assert.Equal(t, "275.00", po.Subtotal.StringFixed(2))
	assert.Equal(t, "324.50", po.TotalAmount.StringFixed(2))
	assert.Equal(t, r.ProjectID, po.ProjectID)
	assert.Contains(t, po.Notes, r.Number)
}

func TestDeriveDraftPO_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	r := f.approvedRequisition(t, "10")

	_, err := f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
	require.NoError(t, err)

	_, err = f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
	var ce *core.ConflictError
	require.True(t, errors.As(err, &ce), "got %v", err)

	orders, err := f.orders.ListOrders(f.ctx, core.PurchaseOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestDeriveDraftPO_ConcurrentCallsYieldOneOrder(t *testing.T) {
	f := newFixture(t)
	r := f.approvedRequisition(t, "10")

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var ce *core.ConflictError
		assert.True(t, errors.As(err, &ce), "got %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestDeriveDraftPO_InactiveVendor(t *testing.T) {
	f := newFixture(t)
	r := f.approvedRequisition(t, "1")
	inactive := f.store.AddVendor(core.Vendor{Code: "OLD", Name: "Closed Co", IsActive: false})

	_, err := f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, inactive.ID)
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve), "got %v", err)
}

func TestDeleteRequisition_Guards(t *testing.T) {
	f := newFixture(t)

	t.Run("draft is deleted", func(t *testing.T) {
		r, err := f.approvals.CreateRequisition(f.ctx, buyer, core.RequisitionInput{
			ProjectID: f.project.ID,
			Lines:     []core.RequisitionLineInput{{ItemName: "Tape", Quantity: dec("1")}},
		})
		require.NoError(t, err)
		require.NoError(t, f.approvals.DeleteRequisition(f.ctx, buyer, r.ID))

		_, err = f.approvals.GetRequisition(f.ctx, r.ID)
		var nf *core.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("derived requisition is protected", func(t *testing.T) {
		r := f.approvedRequisition(t, "1")
		_, err := f.approvals.DeriveDraftPO(f.ctx, buyer, r.ID, f.vendor.ID)
		require.NoError(t, err)

		err = f.approvals.DeleteRequisition(f.ctx, buyer, r.ID)
		var ce *core.ConflictError
		assert.True(t, errors.As(err, &ce), "got %v", err)
	})

	t.Run("decided requisition is kept", func(t *testing.T) {
		r := f.approvedRequisition(t, "1")
		err := f.approvals.DeleteRequisition(f.ctx, buyer, r.ID)
		var ise *core.InvalidStateError
		assert.True(t, errors.As(err, &ise), "got %v", err)
	})
}

func TestListRequisitions_Filters(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddProject(core.Project{Code: "PRJ-2", Name: "Office"})

	_ = f.approvedRequisition(t, "1")
	_, err := f.approvals.CreateRequisition(f.ctx, buyer, core.RequisitionInput{
		ProjectID: other.ID,
		Lines:     []core.RequisitionLineInput{{ItemName: "Chair", Quantity: dec("2")}},
	})
	require.NoError(t, err)

	all, err := f.approvals.ListRequisitions(f.ctx, core.RequisitionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved, err := f.approvals.ListRequisitions(f.ctx, core.RequisitionFilter{Status: core.RequisitionApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, f.project.ID, approved[0].ProjectID)

	byProject, err := f.approvals.ListRequisitions(f.ctx, core.RequisitionFilter{ProjectID: other.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, core.RequisitionDraft, byProject[0].Status)

	_, err = f.approvals.ListRequisitions(f.ctx, core.RequisitionFilter{Status: "archived"})
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}
