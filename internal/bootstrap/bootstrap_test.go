package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"procurement/internal/app"
	"procurement/internal/config"
	"procurement/internal/core"
)

func TestBuild_MemoryWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Store:  config.StoreConfig{Driver: "memory"},
		Lock:   config.LockConfig{Wait: time.Second},
		Report: config.ReportConfig{Freshness: time.Minute},
	}
	rt, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	actor := core.Actor{ID: "alice"}

	// The demo seed gives project 1 and vendor 1.
	res, err := rt.App.CreatePurchaseOrder(ctx, actor, app.CreatePurchaseOrderRequest{
		VendorID:  1,
		ProjectID: 1,
		Issue:     true,
		Lines:     []app.POLineRequest{{ItemName: "Gravel", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(40)}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.POSent, res.PurchaseOrder.Status)
	assert.Equal(t, "141.60", res.PurchaseOrder.TotalAmount.StringFixed(2))

	_, err = rt.App.DraftRequisition(ctx, 1, "gravel")
	assert.ErrorIs(t, err, app.ErrAssistantDisabled)
}
