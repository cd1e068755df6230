package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"procurement/internal/app"
	"procurement/internal/core"
)

// Usage lists the available one-shot commands.
const Usage = `Commands:
  requisitions [status]              list requisitions
  requisition <id>                   show one requisition
  submit <id>                        submit a draft requisition
  approve <id> [notes]               approve a pending requisition
  reject <id> [notes]                reject a pending requisition
  derive <id> [vendor-id]            create the draft purchase order for an approved requisition
  orders [status]                    list purchase orders
  order <id>                         show one purchase order
  issue <id>                         send a draft order to its vendor
  cancel <id>                        cancel an order
  receive <po-id> <line-id>=<qty>... record a delivery
  receipts <po-id>                   list goods receipts of an order
  spend <from> <to>                  spend report, dates as YYYY-MM-DD
  draft <project-id> "<text>"        draft a requisition from free text (not saved)`

// ErrUsage is returned when a command is unknown or its arguments are malformed.
var ErrUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Run executes a one-shot CLI command, writing human-readable output to out.
// args[0] is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, actor core.Actor, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("no command given")
	}

	switch args[0] {
	case "requisitions", "reqs":
		req := app.ListRequisitionsRequest{}
		if len(args) > 1 {
			req.Status = args[1]
		}
		result, err := svc.ListRequisitions(ctx, req)
		if err != nil {
			return err
		}
		printRequisitions(out, result.Requisitions)

	case "requisition", "req":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		result, err := svc.GetRequisition(ctx, id)
		if err != nil {
			return err
		}
		printRequisition(out, result.Requisition)

	case "submit", "approve", "reject":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		notes := strings.Join(args[min(2, len(args)):], " ")
		var result *app.RequisitionResult
		switch args[0] {
		case "submit":
			result, err = svc.SubmitRequisition(ctx, actor, id)
		case "approve":
			result, err = svc.ApproveRequisition(ctx, actor, id, notes)
		default:
			result, err = svc.RejectRequisition(ctx, actor, id, notes)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Requisition %s is now %s.\n", result.Requisition.Number, result.Requisition.Status)

	case "derive":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		vendorID := 0
		if len(args) > 2 {
			if vendorID, err = idArg(args, 2); err != nil {
				return err
			}
		}
		result, err := svc.DeriveOrder(ctx, actor, id, vendorID)
		if err != nil {
			return err
		}
		printOrder(out, result.PurchaseOrder)

	case "orders", "pos":
		req := app.ListPurchaseOrdersRequest{}
		if len(args) > 1 {
			req.Status = args[1]
		}
		result, err := svc.ListPurchaseOrders(ctx, req)
		if err != nil {
			return err
		}
		printOrders(out, result.PurchaseOrders)

	case "order", "po":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		result, err := svc.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		printOrder(out, result.PurchaseOrder)

	case "issue", "cancel":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		var result *app.PurchaseOrderResult
		if args[0] == "issue" {
			result, err = svc.IssuePurchaseOrder(ctx, actor, id)
		} else {
			result, err = svc.CancelPurchaseOrder(ctx, actor, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Purchase order %s is now %s.\n", result.PurchaseOrder.Number, result.PurchaseOrder.Status)

	case "receive":
		poID, err := idArg(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return usageError("receive <po-id> <line-id>=<qty>...")
		}
		req := app.ReceivePORequest{POID: poID}
		for _, pair := range args[2:] {
			line, err := parseReceiptLine(pair)
			if err != nil {
				return err
			}
			req.Lines = append(req.Lines, line)
		}
		result, err := svc.ReceivePurchaseOrder(ctx, actor, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Receipt recorded. Purchase order %s is now %s.\n",
			result.PurchaseOrder.Number, result.PurchaseOrder.Status)
		printOrder(out, result.PurchaseOrder)

	case "receipts":
		poID, err := idArg(args, 1)
		if err != nil {
			return err
		}
		result, err := svc.ListReceipts(ctx, poID)
		if err != nil {
			return err
		}
		printReceipts(out, result.Receipts)

	case "spend":
		if len(args) < 3 {
			return usageError("spend <from> <to>")
		}
		result, err := svc.GetSpendReport(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		printSpendReport(out, result.Report)

	case "draft":
		projectID, err := idArg(args, 1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return usageError(`draft <project-id> "<text>"`)
		}
		result, err := svc.DraftRequisition(ctx, projectID, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Draft)

	default:
		return usageError("unknown command %q", args[0])
	}
	return nil
}

func idArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, usageError("%s needs an id", args[0])
	}
	id, err := strconv.Atoi(args[i])
	if err != nil || id <= 0 {
		return 0, usageError("%q is not a valid id", args[i])
	}
	return id, nil
}

// parseReceiptLine reads "<line-id>=<qty>".
func parseReceiptLine(pair string) (app.ReceivedLineInput, error) {
	lineStr, qtyStr, ok := strings.Cut(pair, "=")
	if !ok {
		return app.ReceivedLineInput{}, usageError("expected <line-id>=<qty>, got %q", pair)
	}
	lineID, err := strconv.Atoi(lineStr)
	if err != nil || lineID <= 0 {
		return app.ReceivedLineInput{}, usageError("%q is not a valid line id", lineStr)
	}
	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		return app.ReceivedLineInput{}, usageError("%q is not a valid quantity", qtyStr)
	}
	return app.ReceivedLineInput{POLineID: lineID, QtyReceived: qty}, nil
}

// ── Output ────────────────────────────────────────────────────────────────────

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, 72))
}

func printRequisitions(out io.Writer, list []core.Requisition) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No requisitions.")
		return
	}
	fmt.Fprintf(out, "  %-5s %-20s %-10s %-8s %-12s %10s\n", "ID", "NUMBER", "STATUS", "PROJECT", "REQUESTED BY", "ESTIMATE")
	rule(out, "-")
	for _, r := range list {
		fmt.Fprintf(out, "  %-5d %-20s %-10s %-8d %-12s %10s\n",
			r.ID, r.Number, r.Status, r.ProjectID, r.RequestedBy, r.EstimatedTotal().StringFixed(2))
	}
}

func printRequisition(out io.Writer, r *core.Requisition) {
	rule(out, "=")
	fmt.Fprintf(out, "  REQUISITION %s  [%s]\n", r.Number, r.Status)
	fmt.Fprintf(out, "  Project      : %d\n", r.ProjectID)
	fmt.Fprintf(out, "  Requested by : %s\n", r.RequestedBy)
	if r.RequiredBy != nil {
		fmt.Fprintf(out, "  Required by  : %s\n", r.RequiredBy.Format("2006-01-02"))
	}
	if r.ApproverID != nil {
		fmt.Fprintf(out, "  Decided by   : %s %s\n", *r.ApproverID, r.ApprovalNotes)
	}
	rule(out, "=")
	fmt.Fprintf(out, "  %-4s %-30s %10s %-6s %12s\n", "#", "ITEM", "QTY", "UNIT", "EST. PRICE")
	rule(out, "-")
	for _, l := range r.Lines {
		fmt.Fprintf(out, "  %-4d %-30s %10s %-6s %12s\n",
			l.LineNumber, l.ItemName, l.Quantity.String(), l.Unit, l.EstimatedUnitPrice.StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-53s %12s\n", "Estimated total", r.EstimatedTotal().StringFixed(2))
}

func printOrders(out io.Writer, list []core.PurchaseOrder) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No purchase orders.")
		return
	}
	fmt.Fprintf(out, "  %-5s %-20s %-20s %-8s %-10s %12s\n", "ID", "NUMBER", "STATUS", "VENDOR", "DATE", "TOTAL")
	rule(out, "-")
	for _, po := range list {
		fmt.Fprintf(out, "  %-5d %-20s %-20s %-8d %-10s %12s\n",
			po.ID, po.Number, po.Status, po.VendorID, po.OrderDate.Format("2006-01-02"), po.TotalAmount.StringFixed(2))
	}
}

func printOrder(out io.Writer, po *core.PurchaseOrder) {
	rule(out, "=")
	fmt.Fprintf(out, "  PURCHASE ORDER %s  [%s]\n", po.Number, po.Status)
	fmt.Fprintf(out, "  Vendor  : %d\n", po.VendorID)
	fmt.Fprintf(out, "  Project : %d\n", po.ProjectID)
	fmt.Fprintf(out, "  Date    : %s\n", po.OrderDate.Format("2006-01-02"))
	rule(out, "=")
	fmt.Fprintf(out, "  %-5s %-24s %9s %9s %-5s %10s %10s\n", "LINE", "ITEM", "ORDERED", "RECEIVED", "UNIT", "PRICE", "TOTAL")
	rule(out, "-")
	for _, l := range po.Lines {
		fmt.Fprintf(out, "  %-5d %-24s %9s %9s %-5s %10s %10s\n",
			l.ID, l.ItemName, l.OrderedQuantity.String(), l.ReceivedQuantity.String(), l.Unit,
			l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-58s %11s\n", "Subtotal", po.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "  %-58s %11s\n", "Tax", po.TaxAmount.StringFixed(2))
	fmt.Fprintf(out, "  %-58s %11s\n", "Total", po.TotalAmount.StringFixed(2))
}

func printReceipts(out io.Writer, receipts []core.GoodsReceipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(out, "No receipts.")
		return
	}
	for _, gr := range receipts {
		fmt.Fprintf(out, "  Receipt %d on %s by %s -> %s\n",
			gr.ID, gr.ReceiptDate.Format("2006-01-02"), gr.ReceivedBy, gr.StatusAfter)
		for _, l := range gr.Lines {
			fmt.Fprintf(out, "      line %-6d %10s\n", l.PurchaseOrderLineID, l.QuantityReceived.String())
		}
	}
}

func printSpendReport(out io.Writer, r *core.SpendReport) {
	rule(out, "=")
	fmt.Fprintf(out, "  SPEND %s to %s\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	fmt.Fprintf(out, "  Orders         : %d\n", r.OrderCount)
	fmt.Fprintf(out, "  Total spend    : %s\n", r.TotalSpend.StringFixed(2))
	fmt.Fprintf(out, "  Received value : %s\n", r.ReceivedValue.StringFixed(2))
	rule(out, "=")
	fmt.Fprintf(out, "  %-10s %-30s %8s %14s\n", "VENDOR", "NAME", "ORDERS", "SPEND")
	rule(out, "-")
	for _, v := range r.Vendors {
		fmt.Fprintf(out, "  %-10s %-30s %8d %14s\n", v.VendorCode, v.VendorName, v.OrderCount, v.Spend.StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-41s %22s\n", "CATEGORY", "SPEND")
	for _, c := range r.Categories {
		fmt.Fprintf(out, "  %-41s %22s\n", c.Category, c.Spend.StringFixed(2))
	}
}
