// Package ledger owns current stock quantities and the append-only history of
// every quantity change. History is kept newest first and is never pruned;
// long-running installs archive it through the archive package instead.
package ledger

import (
	"math"
	"strings"
	"time"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Ledger struct {
	items   []models.StockItem
	history []models.HistoryEntry
	now     func() time.Time
	newID   func() string

	// highest stock id ever handed out or seen; never decreases
	lastID uint
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithReservedIDs keeps stock ids known from elsewhere (the audit log) from
// being handed out again.
func WithReservedIDs(ids ...uint) Option {
	return func(l *Ledger) {
		for _, id := range ids {
			l.reserve(id)
		}
	}
}

// New builds a ledger over already loaded collections. history must be newest first.
func New(items []models.StockItem, history []models.HistoryEntry, opts ...Option) *Ledger {
	l := &Ledger{
		items:   append([]models.StockItem(nil), items...),
		history: append([]models.HistoryEntry(nil), history...),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, it := range l.items {
		l.reserve(it.ID)
	}
	for _, h := range l.history {
		l.reserve(h.StockID)
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ConsumptionResult lists the history entries written by ApplyConsumption and
// the stock ids that did not resolve and were skipped.
type ConsumptionResult struct {
	Entries []models.HistoryEntry
	Missing []uint
}

func (l *Ledger) Items() []models.StockItem {
	return append(make([]models.StockItem, 0, len(l.items)), l.items...)
}

func (l *Ledger) History() []models.HistoryEntry {
	return append(make([]models.HistoryEntry, 0, len(l.history)), l.history...)
}

func (l *Ledger) Item(id uint) (models.StockItem, error) {
	i := l.indexOf(id)
	if i < 0 {
		return models.StockItem{}, apperr.NotFound("stock item", id)
	}
	return l.items[i], nil
}

// LowStock returns items whose quantity is strictly below threshold.
func (l *Ledger) LowStock(threshold float64) []models.StockItem {
	out := make([]models.StockItem, 0)
	for _, it := range l.items {
		if it.Quantity < threshold {
			out = append(out, it)
		}
	}
	return out
}

func (l *Ledger) AddItem(name, unit string, quantity float64) (models.StockItem, error) {
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return models.StockItem{}, apperr.Validation("name and unit are required")
	}
	if !finite(quantity) || quantity < 0 {
		return models.StockItem{}, apperr.Validation("initial quantity must be >= 0")
	}
	it := models.StockItem{ID: l.nextID(), Name: name, Unit: unit, Quantity: quantity}
	l.items = append(l.items, it)
	return it, nil
}

// UpdateItem renames an item or changes its unit. Quantity only moves through
// adjustments so that every change is in the history.
func (l *Ledger) UpdateItem(id uint, name, unit string) (models.StockItem, error) {
	i := l.indexOf(id)
	if i < 0 {
		return models.StockItem{}, apperr.NotFound("stock item", id)
	}
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return models.StockItem{}, apperr.Validation("name and unit are required")
	}
	l.items[i].Name = name
	l.items[i].Unit = unit
	return l.items[i], nil
}

func (l *Ledger) DeleteItem(id uint) (models.StockItem, error) {
	i := l.indexOf(id)
	if i < 0 {
		return models.StockItem{}, apperr.NotFound("stock item", id)
	}
	removed := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	return removed, nil
}

// ApplyManualAdjustment adds amount (negative to remove stock) and prepends one
// manual history entry.
func (l *Ledger) ApplyManualAdjustment(stockID uint, amount float64, reason string) (models.HistoryEntry, error) {
	if !finite(amount) || amount == 0 {
		return models.HistoryEntry{}, apperr.Validation("adjustment amount must be non-zero")
	}
	i := l.indexOf(stockID)
	if i < 0 {
		return models.HistoryEntry{}, apperr.NotFound("stock item", stockID)
	}
	l.items[i].Quantity = add(l.items[i].Quantity, amount)
	entry := models.HistoryEntry{
		ID:        l.newID(),
		Type:      models.HistoryManual,
		StockID:   stockID,
		StockName: l.items[i].Name,
		Amount:    amount,
		Reason:    strings.TrimSpace(reason),
		Timestamp: l.now(),
	}
	l.history = append([]models.HistoryEntry{entry}, l.history...)
	return entry, nil
}

// ApplyConsumption decrements stock for a whole sale. The batch is validated
// before anything is touched; unknown stock ids are skipped and reported in
// Missing. Entries are prepended in batch order.
func (l *Ledger) ApplyConsumption(batch []models.Consumption) (ConsumptionResult, error) {
	for _, c := range batch {
		if !finite(c.Amount) || c.Amount <= 0 {
			return ConsumptionResult{}, apperr.Validation("consumption amount for stock %d must be > 0", c.StockID)
		}
	}

	var res ConsumptionResult
	ts := l.now()
	for _, c := range batch {
		i := l.indexOf(c.StockID)
		if i < 0 {
			res.Missing = appendUnique(res.Missing, c.StockID)
			continue
		}
		l.items[i].Quantity = add(l.items[i].Quantity, -c.Amount)
		entry := models.HistoryEntry{
			ID:        l.newID(),
			Type:      models.HistoryAuto,
			StockID:   c.StockID,
			StockName: l.items[i].Name,
			Amount:    -c.Amount,
			Reason:    "consumption",
			Timestamp: ts,
		}
		if c.Sale != nil {
			sale := *c.Sale
			entry.Sale = &sale
			entry.Reason = SaleReason(sale.ProductName, sale.QuantitySold)
		}
		res.Entries = append(res.Entries, entry)
	}
	if len(res.Entries) > 0 {
		l.history = append(append([]models.HistoryEntry(nil), res.Entries...), l.history...)
	}
	return res, nil
}

func (l *Ledger) indexOf(id uint) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) nextID() uint {
	l.lastID++
	return l.lastID
}

func (l *Ledger) reserve(id uint) {
	if id > l.lastID {
		l.lastID = id
	}
}

// add sums in decimal so that 50 - 0.2*3 lands on 49.4 and not 49.400000000000006.
func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func appendUnique(ids []uint, id uint) []uint {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}
