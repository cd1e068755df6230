package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ── Report types ──────────────────────────────────────────────────────────────

// SpendReport is the spend rollup over purchase orders dated within [From, To].
// Cancelled orders are excluded. TotalSpend always equals the sum of the included
// orders' total_amount as of GeneratedAt; the figure is served until FreshUntil.
type SpendReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalSpend    decimal.Decimal `json:"total_spend"`
	OrderCount    int             `json:"order_count"`
	ReceivedValue decimal.Decimal `json:"received_value"`
	Vendors       []VendorSpend   `json:"vendors"`
	Categories    []CategorySpend `json:"categories"`
	GeneratedAt   time.Time       `json:"generated_at"`
	FreshUntil    time.Time       `json:"fresh_until"`
}

// VendorSpend is the per-vendor rollup (tax inclusive).
type VendorSpend struct {
	VendorID   int             `json:"vendor_id"`
	VendorCode string          `json:"vendor_code"`
	VendorName string          `json:"vendor_name"`
	Spend      decimal.Decimal `json:"spend"`
	OrderCount int             `json:"order_count"`
}

// CategorySpend is the per-category rollup of pre-tax line totals. A line's category is its
// own, else its vendor's, else "uncategorized".
type CategorySpend struct {
	Category string          `json:"category"`
	Spend    decimal.Decimal `json:"spend"`
}

const uncategorized = "uncategorized"

// ReportCache stores computed reports for a bounded time.
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only spend rollups over purchase orders.
type ReportingService interface {
	// SpendReport aggregates non-cancelled orders with order date in [from, to], both inclusive.
	SpendReport(ctx context.Context, from, to time.Time) (*SpendReport, error)

	// FreshnessWindow is the longest a served report may lag behind the underlying orders.
	FreshnessWindow() time.Duration
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	store     Store
	cache     ReportCache
	freshness time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewReportingService constructs a ReportingService. A nil cache or a zero freshness
// window computes every report from the store.
func NewReportingService(store Store, cache ReportCache, freshness time.Duration, log *zap.Logger) ReportingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &reportingService{store: store, cache: cache, freshness: freshness, log: log, now: time.Now}
}

func (s *reportingService) FreshnessWindow() time.Duration { return s.freshness }

func (s *reportingService) SpendReport(ctx context.Context, from, to time.Time) (*SpendReport, error) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, invalid("to", "end date %s is before start date %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	key := fmt.Sprintf("report:spend:%s:%s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	if s.cacheEnabled() {
		var cached SpendReport
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("read spend report cache", zap.String("key", key), zap.Error(err))
		} else if hit && s.now().Before(cached.FreshUntil) {
			return &cached, nil
		}
	}

	report, err := s.compute(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, report, s.freshness); err != nil {
			s.log.Warn("write spend report cache", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

func (s *reportingService) cacheEnabled() bool {
	return s.cache != nil && s.freshness > 0
}

func (s *reportingService) compute(ctx context.Context, from, to time.Time) (*SpendReport, error) {
	orders, err := s.store.ListPurchaseOrders(ctx, PurchaseOrderFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list purchase orders for spend report: %w", err)
	}

	vendors := make(map[int]*Vendor)
	lookup := func(id int) (*Vendor, error) {
		if v, ok := vendors[id]; ok {
			return v, nil
		}
		v := &Vendor{ID: id, Code: "-", Name: "unassigned"}
		if id != 0 {
			found, err := s.store.GetVendor(ctx, id)
			var nf *NotFoundError
			switch {
			case errors.As(err, &nf):
				v.Name = "unknown vendor"
			case err != nil:
				return nil, err
			default:
				v = found
			}
		}
		vendors[id] = v
		return v, nil
	}

	now := s.now().UTC()
	report := &SpendReport{
		From:          from,
		To:            to,
		TotalSpend:    decimal.Zero,
		ReceivedValue: decimal.Zero,
		Vendors:       []VendorSpend{},
		Categories:    []CategorySpend{},
		GeneratedAt:   now,
		FreshUntil:    now.Add(s.freshness),
	}
	byVendor := make(map[int]*VendorSpend)
	byCategory := make(map[string]decimal.Decimal)

	for _, po := range orders {
		if po.Status == POCancelled {
			continue
		}
		vendor, err := lookup(po.VendorID)
		if err != nil {
			return nil, fmt.Errorf("resolve vendor %d: %w", po.VendorID, err)
		}

		report.TotalSpend = report.TotalSpend.Add(po.TotalAmount)
		report.OrderCount++

		vs, ok := byVendor[po.VendorID]
		if !ok {
			vs = &VendorSpend{VendorID: po.VendorID, VendorCode: vendor.Code, VendorName: vendor.Name, Spend: decimal.Zero}
			byVendor[po.VendorID] = vs
		}
		vs.Spend = vs.Spend.Add(po.TotalAmount)
		vs.OrderCount++

		for _, l := range po.Lines {
			category := trimmedOr(l.Category, trimmedOr(vendor.Category, uncategorized))
			byCategory[category] = byCategory[category].Add(l.LineTotal)
			report.ReceivedValue = report.ReceivedValue.Add(l.ReceivedQuantity.Mul(l.UnitPrice))
		}
	}
	report.ReceivedValue = report.ReceivedValue.Round(2)

	for _, vs := range byVendor {
		report.Vendors = append(report.Vendors, *vs)
	}
	sort.Slice(report.Vendors, func(i, j int) bool {
		a, b := report.Vendors[i], report.Vendors[j]
		if !a.Spend.Equal(b.Spend) {
			return a.Spend.GreaterThan(b.Spend)
		}
		return a.VendorID < b.VendorID
	})

	for c, spend := range byCategory {
		report.Categories = append(report.Categories, CategorySpend{Category: c, Spend: spend})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if !a.Spend.Equal(b.Spend) {
			return a.Spend.GreaterThan(b.Spend)
		}
		return a.Category < b.Category
	})

	return report, nil
}
