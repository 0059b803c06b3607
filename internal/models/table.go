package models

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

// OrderLine: one product inside a table's order. Name and Price are copied
// from the catalog when the line is created and never re-read afterwards.
type OrderLine struct {
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Table struct {
	ID     uint        `json:"id"`
	Name   string      `json:"name"`
	Status TableStatus `json:"status"`
	Order  []OrderLine `json:"order"`
}

// StatusFor derives the table status from its order.
func StatusFor(order []OrderLine) TableStatus {
	if len(order) > 0 {
		return TableOccupied
	}
	return TableAvailable
}

// CloneLines copies an order so callers never share the backing array.
func CloneLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	copy(out, lines)
	return out
}

func (t Table) Clone() Table {
	t.Order = CloneLines(t.Order)
	return t
}
