package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"procurement/internal/core"
)

// Memory is an in-process core.Store. Each WithTx holds a store-wide mutex and works on a
// copy-on-write view of the maps, swapped in only when fn succeeds. Entities are copied
// on every read and write so callers never share memory with the store.
type Memory struct {
	mu  sync.Mutex
	st  *memState
	now func() time.Time
}

type memState struct {
	requisitions map[int]*core.Requisition
	orders       map[int]*core.PurchaseOrder
	receipts     map[int][]core.GoodsReceipt
	vendors      map[int]*core.Vendor
	projects     map[int]*core.Project
	sequences    map[string]int
	ids          memIDs
}

type memIDs struct {
	requisition, requisitionLine, order, orderLine, receipt, vendor, project int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		st: &memState{
			requisitions: make(map[int]*core.Requisition),
			orders:       make(map[int]*core.PurchaseOrder),
			receipts:     make(map[int][]core.GoodsReceipt),
			vendors:      make(map[int]*core.Vendor),
			projects:     make(map[int]*core.Project),
			sequences:    make(map[string]int),
		},
		now: time.Now,
	}
}

// AddVendor registers a vendor, assigning an ID when v.ID is zero.
func (m *Memory) AddVendor(v core.Vendor) core.Vendor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		m.st.ids.vendor++
		v.ID = m.st.ids.vendor
	} else if v.ID > m.st.ids.vendor {
		m.st.ids.vendor = v.ID
	}
	m.st.vendors[v.ID] = &v
	return v
}

// AddProject registers a project, assigning an ID when p.ID is zero.
func (m *Memory) AddProject(p core.Project) core.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.st.ids.project++
		p.ID = m.st.ids.project
	} else if p.ID > m.st.ids.project {
		m.st.ids.project = p.ID
	}
	m.st.projects[p.ID] = &p
	return p
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := m.st.fork()
	if err := fn(&memTx{st: work, now: m.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	m.st = work
	return nil
}

func (m *Memory) view() *memTx {
	return &memTx{st: m.st, now: m.now}
}

func (m *Memory) GetRequisition(ctx context.Context, id int) (*core.Requisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().GetRequisition(ctx, id)
}

func (m *Memory) ListRequisitions(ctx context.Context, filter core.RequisitionFilter) ([]core.Requisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().ListRequisitions(ctx, filter)
}

func (m *Memory) GetPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().GetPurchaseOrder(ctx, id)
}

func (m *Memory) ListPurchaseOrders(ctx context.Context, filter core.PurchaseOrderFilter) ([]core.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().ListPurchaseOrders(ctx, filter)
}

func (m *Memory) ListReceipts(ctx context.Context, poID int) ([]core.GoodsReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().ListReceipts(ctx, poID)
}

func (m *Memory) GetVendor(_ context.Context, id int) (*core.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.st.vendors[id]
	if !ok {
		return nil, &core.NotFoundError{Entity: "vendor", ID: id}
	}
	out := *v
	return &out, nil
}

func (m *Memory) GetProject(_ context.Context, id int) (*core.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.projects[id]
	if !ok {
		return nil, &core.NotFoundError{Entity: "project", ID: id}
	}
	out := *p
	return &out, nil
}

// fork returns a view whose maps can be written without touching s.
func (s *memState) fork() *memState {
	out := &memState{
		requisitions: maps.Clone(s.requisitions),
		orders:       maps.Clone(s.orders),
		receipts:     maps.Clone(s.receipts),
		vendors:      s.vendors,
		projects:     s.projects,
		sequences:    maps.Clone(s.sequences),
		ids:          s.ids,
	}
	return out
}

type memTx struct {
	st  *memState
	now func() time.Time
}

func copyRequisition(r *core.Requisition) *core.Requisition {
	out := *r
	out.Lines = append([]core.RequisitionLine(nil), r.Lines...)
	return &out
}

func copyOrder(po *core.PurchaseOrder) *core.PurchaseOrder {
	out := *po
	out.Lines = append([]core.PurchaseOrderLine(nil), po.Lines...)
	return &out
}

func copyReceipt(gr core.GoodsReceipt) core.GoodsReceipt {
	gr.Lines = append([]core.ReceiptLine(nil), gr.Lines...)
	return gr
}

func (t *memTx) GetRequisition(_ context.Context, id int) (*core.Requisition, error) {
	r, ok := t.st.requisitions[id]
	if !ok {
		return nil, &core.NotFoundError{Entity: "requisition", ID: id}
	}
	return copyRequisition(r), nil
}

func (t *memTx) ListRequisitions(_ context.Context, filter core.RequisitionFilter) ([]core.Requisition, error) {
	out := []core.Requisition{}
	for _, r := range t.st.requisitions {
		if filter.Matches(r) {
			out = append(out, *copyRequisition(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) GetPurchaseOrder(_ context.Context, id int) (*core.PurchaseOrder, error) {
	po, ok := t.st.orders[id]
	if !ok {
		return nil, &core.NotFoundError{Entity: "purchase order", ID: id}
	}
	return copyOrder(po), nil
}

func (t *memTx) ListPurchaseOrders(_ context.Context, filter core.PurchaseOrderFilter) ([]core.PurchaseOrder, error) {
	out := []core.PurchaseOrder{}
	for _, po := range t.st.orders {
		if filter.Matches(po) {
			out = append(out, *copyOrder(po))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) ListReceipts(_ context.Context, poID int) ([]core.GoodsReceipt, error) {
	out := make([]core.GoodsReceipt, 0, len(t.st.receipts[poID]))
	for _, gr := range t.st.receipts[poID] {
		out = append(out, copyReceipt(gr))
	}
	return out, nil
}

func (t *memTx) LockRequisition(ctx context.Context, id int) (*core.Requisition, error) {
	return t.GetRequisition(ctx, id)
}

func (t *memTx) LockPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return t.GetPurchaseOrder(ctx, id)
}

func (t *memTx) NextNumber(_ context.Context, prefix string, day time.Time) (string, error) {
	stamp := day.Format("20060102")
	key := prefix + "-" + stamp
	t.st.sequences[key]++
	return fmt.Sprintf("%s-%s-%04d", prefix, stamp, t.st.sequences[key]), nil
}

func (t *memTx) InsertRequisition(_ context.Context, r *core.Requisition) error {
	t.st.ids.requisition++
	r.ID = t.st.ids.requisition
	r.CreatedAt = t.now().UTC()
	for i := range r.Lines {
		t.st.ids.requisitionLine++
		r.Lines[i].ID = t.st.ids.requisitionLine
	}
	t.st.requisitions[r.ID] = copyRequisition(r)
	return nil
}

func (t *memTx) UpdateRequisitionStatus(_ context.Context, r *core.Requisition) error {
	current, ok := t.st.requisitions[r.ID]
	if !ok {
		return &core.NotFoundError{Entity: "requisition", ID: r.ID}
	}
	next := copyRequisition(current)
	next.Status = r.Status
	next.ApproverID = r.ApproverID
	next.ApprovalNotes = r.ApprovalNotes
	next.DecidedAt = r.DecidedAt
	t.st.requisitions[r.ID] = next
	return nil
}

func (t *memTx) DeleteRequisition(_ context.Context, id int) error {
	if _, ok := t.st.requisitions[id]; !ok {
		return &core.NotFoundError{Entity: "requisition", ID: id}
	}
	delete(t.st.requisitions, id)
	return nil
}

func (t *memTx) DerivedOrderID(_ context.Context, requisitionID int) (int, bool, error) {
	for _, po := range t.st.orders {
		if po.RequisitionID != nil && *po.RequisitionID == requisitionID {
			return po.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *memTx) InsertPurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	if po.RequisitionID != nil {
		if id, ok, _ := t.DerivedOrderID(context.Background(), *po.RequisitionID); ok {
			return &core.ConflictError{Message: fmt.Sprintf("requisition %d already derived into purchase order %d", *po.RequisitionID, id)}
		}
	}
	t.st.ids.order++
	po.ID = t.st.ids.order
	po.CreatedAt = t.now().UTC()
	po.UpdatedAt = po.CreatedAt
	t.assignLineIDs(po)
	t.st.orders[po.ID] = copyOrder(po)
	return nil
}

func (t *memTx) UpdatePurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	if _, ok := t.st.orders[po.ID]; !ok {
		return &core.NotFoundError{Entity: "purchase order", ID: po.ID}
	}
	t.assignLineIDs(po)
	t.st.orders[po.ID] = copyOrder(po)
	return nil
}

func (t *memTx) assignLineIDs(po *core.PurchaseOrder) {
	for i := range po.Lines {
		if po.Lines[i].ID == 0 {
			t.st.ids.orderLine++
			po.Lines[i].ID = t.st.ids.orderLine
		}
		po.Lines[i].LineNumber = i + 1
	}
}

func (t *memTx) DeletePurchaseOrder(_ context.Context, id int) error {
	if _, ok := t.st.orders[id]; !ok {
		return &core.NotFoundError{Entity: "purchase order", ID: id}
	}
	if len(t.st.receipts[id]) > 0 {
		return &core.ConflictError{Message: fmt.Sprintf("purchase order %d has recorded receipts", id)}
	}
	delete(t.st.orders, id)
	return nil
}

func (t *memTx) HasReceipts(_ context.Context, poID int) (bool, error) {
	return len(t.st.receipts[poID]) > 0, nil
}

func (t *memTx) InsertReceipt(_ context.Context, gr *core.GoodsReceipt) error {
	if _, ok := t.st.orders[gr.PurchaseOrderID]; !ok {
		return &core.NotFoundError{Entity: "purchase order", ID: gr.PurchaseOrderID}
	}
	t.st.ids.receipt++
	gr.ID = t.st.ids.receipt
	gr.CreatedAt = t.now().UTC()
	existing := t.st.receipts[gr.PurchaseOrderID]
	t.st.receipts[gr.PurchaseOrderID] = append(append([]core.GoodsReceipt(nil), existing...), copyReceipt(*gr))
	return nil
}
