package pos

import (
	"math"
	"strings"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/shopspring/decimal"
)

const stockCountReason = "stock count"

// CountLine is a physically counted quantity for the stock item called Name.
type CountLine struct {
	Name    string  `json:"name"`
	Counted float64 `json:"counted"`
}

type CountResult struct {
	Adjusted []models.HistoryEntry `json:"adjusted"`
	Unknown  []string              `json:"unknown"`
}

// ApplyStockCount moves every named item to its counted quantity through a
// manual adjustment. Names match case-insensitively; unmatched names are
// returned and items already at the counted quantity are left alone.
func (c *Controller) ApplyStockCount(lines []CountLine) (CountResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range lines {
		if math.IsNaN(l.Counted) || math.IsInf(l.Counted, 0) || l.Counted < 0 {
			return CountResult{}, apperr.Validation("counted quantity for %q must be >= 0", l.Name)
		}
	}

	byName := make(map[string]uint)
	for _, it := range c.ledger.Items() {
		byName[strings.ToLower(strings.TrimSpace(it.Name))] = it.ID
	}

	res := CountResult{Adjusted: []models.HistoryEntry{}, Unknown: []string{}}
	for _, l := range lines {
		id, ok := byName[strings.ToLower(strings.TrimSpace(l.Name))]
		if !ok {
			res.Unknown = append(res.Unknown, l.Name)
			continue
		}
		// current quantity, so a name listed twice lands on the last count
		it, err := c.ledger.Item(id)
		if err != nil {
			return res, err
		}
		diff := decimal.NewFromFloat(l.Counted).Sub(decimal.NewFromFloat(it.Quantity))
		if diff.IsZero() {
			continue
		}
		entry, err := c.ledger.ApplyManualAdjustment(it.ID, diff.InexactFloat64(), stockCountReason)
		if err != nil {
			return res, err
		}
		c.metrics.ObserveAdjustment()
		res.Adjusted = append(res.Adjusted, entry)
	}
	if len(res.Adjusted) > 0 {
		c.save(storage.KeyStockItems, storage.KeyStockHistory)
	}
	return res, nil
}
