package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"procurement/internal/core"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the PostgreSQL-backed core.Store. Row locks are taken with SELECT ... FOR UPDATE
// under a per-transaction lock_timeout so a blocked writer fails fast with ConcurrencyError.
type Postgres struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgres wraps pool. lockTimeout bounds every row-lock wait; zero waits indefinitely.
func NewPostgres(pool *pgxpool.Pool, lockTimeout time.Duration) *Postgres {
	return &Postgres{pool: pool, lockTimeout: lockTimeout}
}

func (p *Postgres) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.lockTimeout > 0 {
		ms := p.lockTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := fn(&pgTx{q: tx}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (p *Postgres) reader() *pgTx { return &pgTx{q: p.pool} }

func (p *Postgres) GetRequisition(ctx context.Context, id int) (*core.Requisition, error) {
	return p.reader().GetRequisition(ctx, id)
}

func (p *Postgres) ListRequisitions(ctx context.Context, filter core.RequisitionFilter) ([]core.Requisition, error) {
	return p.reader().ListRequisitions(ctx, filter)
}

func (p *Postgres) GetPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return p.reader().GetPurchaseOrder(ctx, id)
}

func (p *Postgres) ListPurchaseOrders(ctx context.Context, filter core.PurchaseOrderFilter) ([]core.PurchaseOrder, error) {
	return p.reader().ListPurchaseOrders(ctx, filter)
}

func (p *Postgres) ListReceipts(ctx context.Context, poID int) ([]core.GoodsReceipt, error) {
	return p.reader().ListReceipts(ctx, poID)
}

func (p *Postgres) GetVendor(ctx context.Context, id int) (*core.Vendor, error) {
	v := &core.Vendor{}
	err := p.pool.QueryRow(ctx,
		"SELECT id, code, name, COALESCE(category, ''), is_active FROM vendors WHERE id = $1", id,
	).Scan(&v.ID, &v.Code, &v.Name, &v.Category, &v.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "vendor", ID: id}
		}
		return nil, fmt.Errorf("fetch vendor %d: %w", id, err)
	}
	return v, nil
}

func (p *Postgres) GetProject(ctx context.Context, id int) (*core.Project, error) {
	pr := &core.Project{}
	err := p.pool.QueryRow(ctx, "SELECT id, code, name FROM projects WHERE id = $1", id).Scan(&pr.ID, &pr.Code, &pr.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "project", ID: id}
		}
		return nil, fmt.Errorf("fetch project %d: %w", id, err)
	}
	return pr, nil
}

// translate maps PostgreSQL lock and uniqueness failures onto the engine's error kinds.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "55P03", "40001", "40P01":
		return &core.ConcurrencyError{Resource: strings.TrimSpace(pgErr.TableName + " row"), Err: err}
	case "23505":
		return &core.ConflictError{Message: pgErr.Detail}
	}
	return err
}

type pgTx struct {
	q querier
}

// ── Requisitions ──────────────────────────────────────────────────────────────

const requisitionColumns = `
	id, requisition_number, project_id, required_by, COALESCE(notes, ''), status, requested_by,
	approver_id, COALESCE(approval_notes, ''), decided_at, created_at`

func scanRequisition(row pgx.Row) (*core.Requisition, error) {
	r := &core.Requisition{}
	var status string
	err := row.Scan(&r.ID, &r.Number, &r.ProjectID, &r.RequiredBy, &r.Notes, &status, &r.RequestedBy,
		&r.ApproverID, &r.ApprovalNotes, &r.DecidedAt, &r.CreatedAt)
	r.Status = core.RequisitionStatus(status)
	return r, err
}

func (t *pgTx) GetRequisition(ctx context.Context, id int) (*core.Requisition, error) {
	return t.getRequisition(ctx, id, "")
}

func (t *pgTx) LockRequisition(ctx context.Context, id int) (*core.Requisition, error) {
	return t.getRequisition(ctx, id, " FOR UPDATE")
}

func (t *pgTx) getRequisition(ctx context.Context, id int, suffix string) (*core.Requisition, error) {
	r, err := scanRequisition(t.q.QueryRow(ctx, "SELECT"+requisitionColumns+" FROM requisitions WHERE id = $1"+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "requisition", ID: id}
		}
		return nil, translate(fmt.Errorf("fetch requisition %d: %w", id, err))
	}
	if r.Lines, err = t.requisitionLines(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (t *pgTx) requisitionLines(ctx context.Context, id int) ([]core.RequisitionLine, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, line_number, item_name, COALESCE(description, ''), COALESCE(category, ''), quantity, unit, estimated_unit_price
		FROM requisition_lines
		WHERE requisition_id = $1
		ORDER BY line_number`, id)
	if err != nil {
		return nil, fmt.Errorf("query requisition lines: %w", err)
	}
	defer rows.Close()

	var lines []core.RequisitionLine
	for rows.Next() {
		var l core.RequisitionLine
		if err := rows.Scan(&l.ID, &l.LineNumber, &l.ItemName, &l.Description, &l.Category, &l.Quantity, &l.Unit, &l.EstimatedUnitPrice); err != nil {
			return nil, fmt.Errorf("scan requisition line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *pgTx) ListRequisitions(ctx context.Context, filter core.RequisitionFilter) ([]core.Requisition, error) {
	where, args := whereClause(map[string]any{
		"status":     string(filter.Status),
		"project_id": filter.ProjectID,
	}, "(created_at AT TIME ZONE 'UTC')::date", filter.From, filter.To)

	rows, err := t.q.Query(ctx, "SELECT"+requisitionColumns+" FROM requisitions"+where+" ORDER BY id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	out := []core.Requisition{}
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		out = append(out, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Lines, err = t.requisitionLines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *pgTx) NextNumber(ctx context.Context, prefix string, day time.Time) (string, error) {
	var last int
	err := t.q.QueryRow(ctx, `
		INSERT INTO number_sequences (prefix, day, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number`,
		prefix, day.Format(time.DateOnly),
	).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("generate %s sequence number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), last), nil
}

func (t *pgTx) InsertRequisition(ctx context.Context, r *core.Requisition) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO requisitions (requisition_number, project_id, required_by, notes, status, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		r.Number, r.ProjectID, r.RequiredBy, r.Notes, string(r.Status), r.RequestedBy,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return translate(fmt.Errorf("insert requisition: %w", err))
	}
	for i := range r.Lines {
		l := &r.Lines[i]
		err := t.q.QueryRow(ctx, `
			INSERT INTO requisition_lines (requisition_id, line_number, item_name, description, category, quantity, unit, estimated_unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			r.ID, l.LineNumber, l.ItemName, l.Description, l.Category, l.Quantity, l.Unit, l.EstimatedUnitPrice,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert requisition line %d: %w", l.LineNumber, err)
		}
	}
	return nil
}

func (t *pgTx) UpdateRequisitionStatus(ctx context.Context, r *core.Requisition) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE requisitions
		SET status = $1, approver_id = $2, approval_notes = $3, decided_at = $4
		WHERE id = $5`,
		string(r.Status), r.ApproverID, r.ApprovalNotes, r.DecidedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update requisition %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Entity: "requisition", ID: r.ID}
	}
	return nil
}

func (t *pgTx) DeleteRequisition(ctx context.Context, id int) error {
	tag, err := t.q.Exec(ctx, "DELETE FROM requisitions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete requisition %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Entity: "requisition", ID: id}
	}
	return nil
}

func (t *pgTx) DerivedOrderID(ctx context.Context, requisitionID int) (int, bool, error) {
	var id int
	err := t.q.QueryRow(ctx, "SELECT id FROM purchase_orders WHERE requisition_id = $1", requisitionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("check derived purchase order: %w", err)
	}
	return id, true, nil
}

// ── Purchase orders ───────────────────────────────────────────────────────────

const orderColumns = `
	id, po_number, COALESCE(vendor_id, 0), project_id, requisition_id, order_date, expected_delivery_date,
	COALESCE(shipping_address, ''), COALESCE(payment_terms, ''), COALESCE(notes, ''), status,
	subtotal, tax_amount, total_amount, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*core.PurchaseOrder, error) {
	po := &core.PurchaseOrder{}
	var status string
	err := row.Scan(&po.ID, &po.Number, &po.VendorID, &po.ProjectID, &po.RequisitionID, &po.OrderDate, &po.ExpectedDelivery,
		&po.ShippingAddress, &po.PaymentTerms, &po.Notes, &status,
		&po.Subtotal, &po.TaxAmount, &po.TotalAmount, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	po.Status = core.POStatus(status)
	return po, err
}

func (t *pgTx) GetPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return t.getOrder(ctx, id, "")
}

func (t *pgTx) LockPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return t.getOrder(ctx, id, " FOR UPDATE")
}

func (t *pgTx) getOrder(ctx context.Context, id int, suffix string) (*core.PurchaseOrder, error) {
	po, err := scanOrder(t.q.QueryRow(ctx, "SELECT"+orderColumns+" FROM purchase_orders WHERE id = $1"+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Entity: "purchase order", ID: id}
		}
		return nil, translate(fmt.Errorf("fetch purchase order %d: %w", id, err))
	}
	if po.Lines, err = t.orderLines(ctx, id); err != nil {
		return nil, err
	}
	return po, nil
}

func (t *pgTx) orderLines(ctx context.Context, poID int) ([]core.PurchaseOrderLine, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, line_number, item_name, COALESCE(description, ''), COALESCE(category, ''),
		       ordered_quantity, unit, unit_price, received_quantity, line_total
		FROM purchase_order_lines
		WHERE purchase_order_id = $1
		ORDER BY line_number`, poID)
	if err != nil {
		return nil, fmt.Errorf("query purchase order lines: %w", err)
	}
	defer rows.Close()

	var lines []core.PurchaseOrderLine
	for rows.Next() {
		var l core.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.LineNumber, &l.ItemName, &l.Description, &l.Category,
			&l.OrderedQuantity, &l.Unit, &l.UnitPrice, &l.ReceivedQuantity, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *pgTx) ListPurchaseOrders(ctx context.Context, filter core.PurchaseOrderFilter) ([]core.PurchaseOrder, error) {
	where, args := whereClause(map[string]any{
		"status":     string(filter.Status),
		"vendor_id":  filter.VendorID,
		"project_id": filter.ProjectID,
	}, "order_date", filter.From, filter.To)

	rows, err := t.q.Query(ctx, "SELECT"+orderColumns+" FROM purchase_orders"+where+" ORDER BY id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	out := []core.PurchaseOrder{}
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, *po)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Lines, err = t.orderLines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *pgTx) InsertPurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO purchase_orders (po_number, vendor_id, project_id, requisition_id, order_date, expected_delivery_date,
		                             shipping_address, payment_terms, notes, status, subtotal, tax_amount, total_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		po.Number, nullableID(po.VendorID), po.ProjectID, po.RequisitionID, po.OrderDate, po.ExpectedDelivery,
		po.ShippingAddress, po.PaymentTerms, po.Notes, string(po.Status), po.Subtotal, po.TaxAmount, po.TotalAmount, po.CreatedBy,
	).Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return translate(fmt.Errorf("insert purchase order: %w", err))
	}
	for i := range po.Lines {
		po.Lines[i].LineNumber = i + 1
		if err := t.insertOrderLine(ctx, po.ID, &po.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) insertOrderLine(ctx context.Context, poID int, l *core.PurchaseOrderLine) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO purchase_order_lines (purchase_order_id, line_number, item_name, description, category,
		                                  ordered_quantity, unit, unit_price, received_quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		poID, l.LineNumber, l.ItemName, l.Description, l.Category,
		l.OrderedQuantity, l.Unit, l.UnitPrice, l.ReceivedQuantity, l.LineTotal,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert purchase order line %d: %w", l.LineNumber, err)
	}
	return nil
}

func (t *pgTx) UpdatePurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE purchase_orders
		SET vendor_id = $1, order_date = $2, expected_delivery_date = $3, shipping_address = $4,
		    payment_terms = $5, notes = $6, status = $7, subtotal = $8, tax_amount = $9,
		    total_amount = $10, updated_at = $11
		WHERE id = $12`,
		nullableID(po.VendorID), po.OrderDate, po.ExpectedDelivery, po.ShippingAddress,
		po.PaymentTerms, po.Notes, string(po.Status), po.Subtotal, po.TaxAmount,
		po.TotalAmount, po.UpdatedAt, po.ID)
	if err != nil {
		return fmt.Errorf("update purchase order %d: %w", po.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Entity: "purchase order", ID: po.ID}
	}

	keep := make([]int, 0, len(po.Lines))
	for _, l := range po.Lines {
		if l.ID != 0 {
			keep = append(keep, l.ID)
		}
	}
	if _, err := t.q.Exec(ctx,
		"DELETE FROM purchase_order_lines WHERE purchase_order_id = $1 AND NOT (id = ANY($2))", po.ID, keep,
	); err != nil {
		return fmt.Errorf("remove dropped purchase order lines: %w", err)
	}

	for i := range po.Lines {
		l := &po.Lines[i]
		l.LineNumber = i + 1
		if l.ID == 0 {
			if err := t.insertOrderLine(ctx, po.ID, l); err != nil {
				return err
			}
			continue
		}
		if _, err := t.q.Exec(ctx, `
			UPDATE purchase_order_lines
			SET line_number = $1, item_name = $2, description = $3, category = $4, ordered_quantity = $5,
			    unit = $6, unit_price = $7, received_quantity = $8, line_total = $9
			WHERE id = $10 AND purchase_order_id = $11`,
			l.LineNumber, l.ItemName, l.Description, l.Category, l.OrderedQuantity,
			l.Unit, l.UnitPrice, l.ReceivedQuantity, l.LineTotal, l.ID, po.ID,
		); err != nil {
			return fmt.Errorf("update purchase order line %d: %w", l.ID, err)
		}
	}
	return nil
}

func (t *pgTx) DeletePurchaseOrder(ctx context.Context, id int) error {
	tag, err := t.q.Exec(ctx, "DELETE FROM purchase_orders WHERE id = $1", id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return &core.ConflictError{Message: fmt.Sprintf("purchase order %d is still referenced", id)}
		}
		return fmt.Errorf("delete purchase order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Entity: "purchase order", ID: id}
	}
	return nil
}

func (t *pgTx) HasReceipts(ctx context.Context, poID int) (bool, error) {
	var exists bool
	if err := t.q.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM goods_receipts WHERE purchase_order_id = $1)", poID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check receipts: %w", err)
	}
	return exists, nil
}

// ── Goods receipts ────────────────────────────────────────────────────────────

func (t *pgTx) InsertReceipt(ctx context.Context, gr *core.GoodsReceipt) error {
	err := t.q.QueryRow(ctx, `
		INSERT INTO goods_receipts (purchase_order_id, receipt_date, notes, received_by, status_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		gr.PurchaseOrderID, gr.ReceiptDate, gr.Notes, gr.ReceivedBy, string(gr.StatusAfter),
	).Scan(&gr.ID, &gr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert goods receipt: %w", err)
	}
	for _, l := range gr.Lines {
		if _, err := t.q.Exec(ctx, `
			INSERT INTO goods_receipt_lines (goods_receipt_id, purchase_order_line_id, quantity_received)
			VALUES ($1, $2, $3)`,
			gr.ID, l.PurchaseOrderLineID, l.QuantityReceived,
		); err != nil {
			return fmt.Errorf("insert goods receipt line: %w", err)
		}
	}
	return nil
}

func (t *pgTx) ListReceipts(ctx context.Context, poID int) ([]core.GoodsReceipt, error) {
	rows, err := t.q.Query(ctx, `
		SELECT gr.id, gr.purchase_order_id, gr.receipt_date, COALESCE(gr.notes, ''), gr.received_by, gr.status_after, gr.created_at,
		       grl.purchase_order_line_id, grl.quantity_received
		FROM goods_receipts gr
		JOIN goods_receipt_lines grl ON grl.goods_receipt_id = gr.id
		WHERE gr.purchase_order_id = $1
		ORDER BY gr.id, grl.id`, poID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	out := []core.GoodsReceipt{}
	for rows.Next() {
		var gr core.GoodsReceipt
		var status string
		var line core.ReceiptLine
		if err := rows.Scan(&gr.ID, &gr.PurchaseOrderID, &gr.ReceiptDate, &gr.Notes, &gr.ReceivedBy, &status, &gr.CreatedAt,
			&line.PurchaseOrderLineID, &line.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].ID == gr.ID {
			out[n-1].Lines = append(out[n-1].Lines, line)
			continue
		}
		gr.StatusAfter = core.POStatus(status)
		gr.Lines = []core.ReceiptLine{line}
		out = append(out, gr)
	}
	return out, rows.Err()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nullableID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}

// whereClause builds a WHERE clause from non-zero equality filters plus an inclusive date range on dateExpr.
func whereClause(eq map[string]any, dateExpr string, from, to *time.Time) (string, []any) {
	var conds []string
	var args []any
	for _, col := range []string{"status", "vendor_id", "project_id"} {
		v, ok := eq[col]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			if x == "" {
				continue
			}
		case int:
			if x == 0 {
				continue
			}
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if from != nil {
		args = append(args, from.Format(time.DateOnly))
		conds = append(conds, fmt.Sprintf("%s >= $%d::date", dateExpr, len(args)))
	}
	if to != nil {
		args = append(args, to.Format(time.DateOnly))
		conds = append(conds, fmt.Sprintf("%s <= $%d::date", dateExpr, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
