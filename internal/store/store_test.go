package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
	"procurement/internal/store"
	"procurement/migrations"
)

// backend is a store under test plus the IDs of its seeded vendor and project.
type backend struct {
	store     core.Store
	vendorID  int
	projectID int
}

func memoryBackend(t *testing.T) backend {
	m := store.NewMemory()
	v := m.AddVendor(core.Vendor{Code: "V001", Name: "Acme", Category: "hardware", IsActive: true})
	p := m.AddProject(core.Project{Code: "P1", Name: "Depot"})
	return backend{store: m, vendorID: v.ID, projectID: p.ID}
}

func postgresBackend(t *testing.T) backend {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("Failed to parse TEST_DATABASE_URL: %v", err)
	}
	// A session zone far from UTC makes day filters disagree with the memory store if they drift.
	cfg.ConnConfig.RuntimeParams["timezone"] = "Pacific/Kiritimati"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE goods_receipt_lines, goods_receipts, purchase_order_lines, purchase_orders,
		               requisition_lines, requisitions, number_sequences, vendors, projects RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to truncate test database: %v", err)
	}

	var vendorID, projectID int
	if err := pool.QueryRow(ctx,
		"INSERT INTO vendors (code, name, category, is_active) VALUES ('V001', 'Acme', 'hardware', true) RETURNING id",
	).Scan(&vendorID); err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	if err := pool.QueryRow(ctx,
		"INSERT INTO projects (code, name) VALUES ('P1', 'Depot') RETURNING id",
	).Scan(&projectID); err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}

	return backend{store: store.NewPostgres(pool, 2*time.Second), vendorID: vendorID, projectID: projectID}
}

func TestStore(t *testing.T) {
	for name, open := range map[string]func(*testing.T) backend{
		"memory":   memoryBackend,
		"postgres": postgresBackend,
	} {
		t.Run(name, func(t *testing.T) {
			runStoreContract(t, open(t))
		})
	}
}

func runStoreContract(t *testing.T, b backend) {
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	newOrder := func() *core.PurchaseOrder {
		po := &core.PurchaseOrder{
			VendorID:  b.vendorID,
			ProjectID: b.projectID,
			OrderDate: day,
			Status:    core.PODraft,
			CreatedBy: "alice",
			Lines: []core.PurchaseOrderLine{
				{ItemName: "Bolt", OrderedQuantity: decimal.NewFromInt(10), Unit: "pcs", UnitPrice: decimal.RequireFromString("2.50")},
				{ItemName: "Nut", OrderedQuantity: decimal.NewFromInt(5), Unit: "pcs", UnitPrice: decimal.RequireFromString("1.00")},
			},
		}
		po.ComputeTotals()
		return po
	}

	t.Run("numbers are sequential per prefix and day", func(t *testing.T) {
		var got []string
		err := b.store.WithTx(ctx, func(tx core.Tx) error {
			for _, prefix := range []string{"PO", "PO", "REQ"} {
				n, err := tx.NextNumber(ctx, prefix, day)
				if err != nil {
					return err
				}
				got = append(got, n)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"PO-20260301-0001", "PO-20260301-0002", "REQ-20260301-0001"}, got)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		boom := errors.New("boom")
		var id int
		err := b.store.WithTx(ctx, func(tx core.Tx) error {
			po := newOrder()
			po.Number = "PO-ROLLBACK"
			if err := tx.InsertPurchaseOrder(ctx, po); err != nil {
				return err
			}
			id = po.ID
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = b.store.GetPurchaseOrder(ctx, id)
		var nf *core.NotFoundError
		assert.True(t, errors.As(err, &nf), "got %v", err)
	})

	t.Run("order round trip and line reconciliation", func(t *testing.T) {
		po := newOrder()
		po.Number = "PO-ROUNDTRIP"
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertPurchaseOrder(ctx, po) }))
		require.NotZero(t, po.ID)
		require.NotZero(t, po.Lines[0].ID)

		got, err := b.store.GetPurchaseOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, "PO-ROUNDTRIP", got.Number)
		assert.Equal(t, "30.00", got.Subtotal.StringFixed(2))
		require.Len(t, got.Lines, 2)
		assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("2.5")))

		keep := got.Lines[1]
		keep.ReceivedQuantity = decimal.NewFromInt(2)
		got.Lines = []core.PurchaseOrderLine{
			keep,
			{ItemName: "Washer", OrderedQuantity: decimal.NewFromInt(3), Unit: "pcs", UnitPrice: decimal.NewFromInt(1)},
		}
		got.Status = core.POPartiallyReceived
		got.ComputeTotals()
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.UpdatePurchaseOrder(ctx, got) }))

		again, err := b.store.GetPurchaseOrder(ctx, po.ID)
		require.NoError(t, err)
		require.Len(t, again.Lines, 2)
		assert.Equal(t, keep.ID, again.Lines[0].ID)
		assert.Equal(t, 1, again.Lines[0].LineNumber)
		assert.True(t, again.Lines[0].ReceivedQuantity.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, "Washer", again.Lines[1].ItemName)
		assert.Equal(t, core.POPartiallyReceived, again.Status)
	})

	t.Run("receipts are appended and block deletion", func(t *testing.T) {
		po := newOrder()
		po.Number = "PO-RECEIPTS"
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertPurchaseOrder(ctx, po) }))

		gr := &core.GoodsReceipt{
			PurchaseOrderID: po.ID,
			ReceiptDate:     day,
			ReceivedBy:      "carol",
			StatusAfter:     core.POPartiallyReceived,
			Lines:           []core.ReceiptLine{{PurchaseOrderLineID: po.Lines[0].ID, QuantityReceived: decimal.NewFromInt(4)}},
		}
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertReceipt(ctx, gr) }))
		assert.NotZero(t, gr.ID)

		receipts, err := b.store.ListReceipts(ctx, po.ID)
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		assert.Equal(t, core.POPartiallyReceived, receipts[0].StatusAfter)
		assert.True(t, receipts[0].Lines[0].QuantityReceived.Equal(decimal.NewFromInt(4)))

		err = b.store.WithTx(ctx, func(tx core.Tx) error {
			has, err := tx.HasReceipts(ctx, po.ID)
			if err != nil {
				return err
			}
			assert.True(t, has)
			return tx.DeletePurchaseOrder(ctx, po.ID)
		})
		var ce *core.ConflictError
		assert.True(t, errors.As(err, &ce), "got %v", err)
	})

	t.Run("one order per requisition", func(t *testing.T) {
		r := &core.Requisition{
			Number:      "REQ-UNIQUE",
			ProjectID:   b.projectID,
			Status:      core.RequisitionApproved,
			RequestedBy: "alice",
			Lines:       []core.RequisitionLine{{LineNumber: 1, ItemName: "Bolt", Quantity: decimal.NewFromInt(1), Unit: "pcs"}},
		}
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertRequisition(ctx, r) }))

		first := newOrder()
		first.Number = "PO-DERIVED-1"
		first.RequisitionID = &r.ID
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertPurchaseOrder(ctx, first) }))

		err := b.store.WithTx(ctx, func(tx core.Tx) error {
			id, ok, err := tx.DerivedOrderID(ctx, r.ID)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, first.ID, id)

			second := newOrder()
			second.Number = "PO-DERIVED-2"
			second.RequisitionID = &r.ID
			return tx.InsertPurchaseOrder(ctx, second)
		})
		var ce *core.ConflictError
		assert.True(t, errors.As(err, &ce), "got %v", err)
	})

	t.Run("requisition day filter uses UTC days", func(t *testing.T) {
		r := &core.Requisition{
			Number:      "REQ-DAYS",
			ProjectID:   b.projectID,
			Status:      core.RequisitionDraft,
			RequestedBy: "alice",
			Lines:       []core.RequisitionLine{{LineNumber: 1, ItemName: "Bolt", Quantity: decimal.NewFromInt(1), Unit: "pcs"}},
		}
		require.NoError(t, b.store.WithTx(ctx, func(tx core.Tx) error { return tx.InsertRequisition(ctx, r) }))

		created := r.CreatedAt.UTC()
		today := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
		tomorrow := today.AddDate(0, 0, 1)

		got, err := b.store.ListRequisitions(ctx, core.RequisitionFilter{From: &today, To: &today})
		require.NoError(t, err)
		var numbers []string
		for _, req := range got {
			numbers = append(numbers, req.Number)
		}
		assert.Contains(t, numbers, "REQ-DAYS")

		got, err = b.store.ListRequisitions(ctx, core.RequisitionFilter{From: &tomorrow})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("directory lookups", func(t *testing.T) {
		v, err := b.store.GetVendor(ctx, b.vendorID)
		require.NoError(t, err)
		assert.Equal(t, "hardware", v.Category)

		_, err = b.store.GetProject(ctx, 987654)
		var nf *core.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})
}
