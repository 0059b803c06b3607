// Package dashboard derives the sales read model from the stock history.
// Automatic history entries carry a structured sale reference; entries
// written before that field existed are recognised by their reason string.
package dashboard

import (
	"fmt"
	"time"

	"restoran-pos/internal/ledger"
	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
)

// Pricing selects which price revenue is computed with.
type Pricing string

const (
	// PricingCurrent multiplies by the product's current catalog price.
	PricingCurrent Pricing = "current"
	// PricingSale uses the price frozen on the order line at sale time.
	PricingSale Pricing = "sale"
)

type Options struct {
	Now               time.Time
	Location          *time.Location
	LowStockThreshold float64
	Pricing           Pricing
}

type Summary struct {
	Date           string             `json:"date"`
	Revenue        float64            `json:"revenue"`
	Orders         int                `json:"orders"`
	OccupiedTables int                `json:"occupiedTables"`
	TotalTables    int                `json:"totalTables"`
	LowStock       []models.StockItem `json:"lowStock"`
}

// sale is one product sold within one checkout, however many stock entries
// its recipe produced.
type sale struct {
	key       string
	orderKey  string
	at        time.Time
	productID uint
	name      string
	quantity  int
	unitPrice float64
	method    models.PaymentMethod
}

// Build computes today's figures in opts.Location.
func Build(products []models.Product, stock []models.StockItem, tables []models.Table, history []models.HistoryEntry, opts Options) Summary {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	revenue := decimal.Zero
	orders := map[string]struct{}{}
	for _, s := range sales(history) {
		if s.at.Before(start) || !s.at.Before(end) {
			continue
		}
		revenue = revenue.Add(lineRevenue(s, products, opts.Pricing))
		orders[s.orderKey] = struct{}{}
	}

	occupied := 0
	for _, t := range tables {
		if t.Status == models.TableOccupied {
			occupied++
		}
	}

	low := make([]models.StockItem, 0)
	for _, it := range stock {
		if it.Quantity < opts.LowStockThreshold {
			low = append(low, it)
		}
	}

	return Summary{
		Date:           start.Format("2006-01-02"),
		Revenue:        revenue.InexactFloat64(),
		Orders:         len(orders),
		OccupiedTables: occupied,
		TotalTables:    len(tables),
		LowStock:       low,
	}
}

// sales collapses automatic history entries into one record per product per
// checkout, in history order.
func sales(history []models.HistoryEntry) []sale {
	var out []sale
	seen := map[string]bool{}
	for _, h := range history {
		if h.Type != models.HistoryAuto {
			continue
		}
		s, ok := saleFrom(h)
		if !ok || seen[s.key] {
			continue
		}
		seen[s.key] = true
		out = append(out, s)
	}
	return out
}

func saleFrom(h models.HistoryEntry) (sale, bool) {
	if h.Sale != nil {
		return sale{
			key:       fmt.Sprintf("%s/%d", h.Sale.SaleID, h.Sale.ProductID),
			orderKey:  h.Sale.SaleID,
			at:        h.Timestamp,
			productID: h.Sale.ProductID,
			name:      h.Sale.ProductName,
			quantity:  h.Sale.QuantitySold,
			unitPrice: h.Sale.UnitPrice,
			method:    h.Sale.PaymentMethod,
		}, true
	}
	// Entries of one checkout share a timestamp. Two different products with
	// the same name and quantity in one legacy checkout collapse into one
	// sale here; structured entries do not have this limitation.
	name, qty, ok := ledger.ParseSaleReason(h.Reason)
	if !ok {
		return sale{}, false
	}
	stamp := h.Timestamp.UTC().Format(time.RFC3339Nano)
	return sale{
		key:      stamp + "/" + h.Reason,
		orderKey: stamp,
		at:       h.Timestamp,
		name:     name,
		quantity: qty,
	}, true
}

func lineRevenue(s sale, products []models.Product, pricing Pricing) decimal.Decimal {
	qty := decimal.NewFromInt(int64(s.quantity))
	if pricing == PricingSale && s.productID != 0 {
		return decimal.NewFromFloat(s.unitPrice).Mul(qty)
	}
	if p, ok := findProduct(products, s); ok {
		return decimal.NewFromFloat(p.Price).Mul(qty)
	}
	if s.productID != 0 {
		// deleted product: the frozen price is all that is left
		return decimal.NewFromFloat(s.unitPrice).Mul(qty)
	}
	return decimal.Zero
}

func findProduct(products []models.Product, s sale) (models.Product, bool) {
	for _, p := range products {
		if s.productID != 0 && p.ID == s.productID {
			return p, true
		}
		if s.productID == 0 && p.Name == s.name {
			return p, true
		}
	}
	return models.Product{}, false
}
