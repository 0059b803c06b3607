package models

// StockItem: tracked raw material (rice, eggs ...). Quantity may go below zero
// after sales; no floor is enforced.
type StockItem struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"` // kg, pcs, l ...
	Quantity float64 `json:"quantity"`
}
