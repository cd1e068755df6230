package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/adapters/cli"
	"procurement/internal/app"
	"procurement/internal/core"
	"procurement/internal/lock"
	"procurement/internal/store"
)

var alice = core.Actor{ID: "alice"}

func setup(t *testing.T) (app.ApplicationService, *core.PurchaseOrder) {
	t.Helper()
	mem := store.NewMemory()
	vendor := mem.AddVendor(core.Vendor{Code: "V001", Name: "Acme", IsActive: true})
	project := mem.AddProject(core.Project{Code: "P1", Name: "Depot"})
	locker := lock.NewLocal(time.Second)
	svc := app.NewAppService(
		core.NewApprovalService(mem, nil, nil),
		core.NewPurchaseOrderService(mem, locker, nil, nil),
		core.NewReceivingService(mem, locker, nil, nil),
		core.NewReportingService(mem, nil, 0, nil),
		nil, nil,
	)

	res, err := svc.CreatePurchaseOrder(context.Background(), alice, app.CreatePurchaseOrderRequest{
		VendorID:  vendor.ID,
		ProjectID: project.ID,
		Issue:     true,
		Terms:     app.TermsRequest{OrderDate: "2026-03-02"},
		Lines: []app.POLineRequest{
			{ItemName: "Bolt", Quantity: decimal.NewFromInt(10), Unit: "pcs", UnitPrice: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	return svc, res.PurchaseOrder
}

func run(t *testing.T, svc app.ApplicationService, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := cli.Run(context.Background(), svc, alice, args, &out)
	return out.String(), err
}

func TestRun_ReceiveAndReport(t *testing.T) {
	svc, po := setup(t)

	out, err := run(t, svc, "receive", fmt.Sprint(po.ID), fmt.Sprintf("%d=4", po.Lines[0].ID))
	require.NoError(t, err)
	assert.Contains(t, out, "is now partially_received")

	out, err = run(t, svc, "receipts", fmt.Sprint(po.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "by alice")

	out, err = run(t, svc, "orders", "partially_received")
	require.NoError(t, err)
	assert.Contains(t, out, po.Number)

	out, err = run(t, svc, "spend", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "23.60")
	assert.Contains(t, out, "Acme")
}

func TestRun_Errors(t *testing.T) {
	svc, po := setup(t)

	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{"no command", nil, true},
		{"unknown command", []string{"ship"}, true},
		{"missing id", []string{"order"}, true},
		{"bad id", []string{"order", "x"}, true},
		{"bad receipt pair", []string{"receive", fmt.Sprint(po.ID), "4"}, true},
		{"bad quantity", []string{"receive", fmt.Sprint(po.ID), fmt.Sprintf("%d=lots", po.Lines[0].ID)}, true},
		{"engine rejection", []string{"receive", fmt.Sprint(po.ID), fmt.Sprintf("%d=11", po.Lines[0].ID)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, svc, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.usage, errors.Is(err, cli.ErrUsage), "got %v", err)
		})
	}
}

func TestRun_DraftWithoutAssistant(t *testing.T) {
	svc, _ := setup(t)
	_, err := run(t, svc, "draft", "1", "twenty", "bags", "of", "cement")
	assert.ErrorIs(t, err, app.ErrAssistantDisabled)
}

func TestUsageMentionsEveryCommand(t *testing.T) {
	for _, cmd := range []string{"requisitions", "requisition", "submit", "approve", "reject", "derive",
		"orders", "order", "issue", "cancel", "receive", "receipts", "spend", "draft"} {
		assert.True(t, strings.Contains(cli.Usage, "  "+cmd+" "), cmd)
	}
}
