// Package checkout settles the active table: it turns the order into stock
// consumption, applies it to the ledger as one batch and frees the table.
package checkout

import (
	"time"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/catalog"
	"restoran-pos/internal/ledger"
	"restoran-pos/internal/models"
	"restoran-pos/internal/orders"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	orders  *orders.Manager
	now     func() time.Time
	newID   func() string
}

type Option func(*Transaction)

func WithClock(now func() time.Time) Option {
	return func(t *Transaction) { t.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(t *Transaction) { t.newID = fn }
}

func New(c *catalog.Catalog, l *ledger.Ledger, o *orders.Manager, opts ...Option) *Transaction {
	t := &Transaction{catalog: c, ledger: l, orders: o, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Checkout pays for the order being edited on tableID. Nothing is mutated
// unless every precondition holds.
func (t *Transaction) Checkout(tableID uint, method models.PaymentMethod) (models.Receipt, error) {
	table, lines, ok := t.orders.Active()
	if !ok || len(lines) == 0 {
		return models.Receipt{}, apperr.ErrEmptyOrder
	}
	if table.ID != tableID {
		return models.Receipt{}, apperr.InvalidState("table %d is not the selected table", tableID)
	}
	if !method.Valid() {
		return models.Receipt{}, apperr.Validation("unknown payment method %q", method)
	}

	saleID := t.newID()
	batch := t.buildBatch(saleID, method, lines)

	res, err := t.ledger.ApplyConsumption(batch)
	if err != nil {
		return models.Receipt{}, err
	}
	if _, err := t.orders.CloseActive(); err != nil {
		return models.Receipt{}, err
	}

	return models.Receipt{
		SaleID:        saleID,
		TableID:       table.ID,
		TableName:     table.Name,
		Lines:         lines,
		Total:         Total(lines),
		PaymentMethod: method,
		PaidAt:        t.now(),
		MissingStock:  res.Missing,
	}, nil
}

// buildBatch resolves every line into one combined batch. Lines that share a
// stock item simply produce two decrements of it.
func (t *Transaction) buildBatch(saleID string, method models.PaymentMethod, lines []models.OrderLine) []models.Consumption {
	var batch []models.Consumption
	for _, line := range lines {
		sale := &models.SaleRef{
			SaleID:        saleID,
			ProductID:     line.ProductID,
			ProductName:   line.Name,
			QuantitySold:  line.Quantity,
			UnitPrice:     line.Price,
			PaymentMethod: method,
		}
		for _, c := range t.catalog.ResolveConsumption(line.ProductID, line.Quantity) {
			c.Sale = sale
			batch = append(batch, c)
		}
	}
	return batch
}

// Total sums price*quantity using the prices frozen on the lines.
func Total(lines []models.OrderLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.InexactFloat64()
}
