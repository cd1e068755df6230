package app

import "procurement/internal/core"

// RequisitionResult is returned by requisition lifecycle operations.
type RequisitionResult struct {
	Requisition *core.Requisition
}

// RequisitionsResult is returned by ListRequisitions.
type RequisitionsResult struct {
	Requisitions []core.Requisition
}

// RequisitionDraftResult is returned by DraftRequisition. Draft is ready to pass to
// CreateRequisition after the user reviews it.
type RequisitionDraftResult struct {
	Draft *core.RequisitionInput
}

// PurchaseOrderResult is returned by purchase order lifecycle operations.
type PurchaseOrderResult struct {
	PurchaseOrder *core.PurchaseOrder
}

// PurchaseOrdersResult is returned by ListPurchaseOrders.
type PurchaseOrdersResult struct {
	PurchaseOrders []core.PurchaseOrder
}

// POReceiptResult is returned by ReceivePurchaseOrder.
type POReceiptResult struct {
	PurchaseOrder *core.PurchaseOrder
	Receipt       *core.GoodsReceipt
}

// ReceiptsResult is returned by ListReceipts.
type ReceiptsResult struct {
	POID     int
	Receipts []core.GoodsReceipt
}

// SpendReportResult is returned by GetSpendReport.
type SpendReportResult struct {
	Report *core.SpendReport
}
