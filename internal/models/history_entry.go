package models

import "time"

type HistoryType string

const (
	HistoryManual HistoryType = "manual"
	HistoryAuto   HistoryType = "auto"
)

// SaleRef ties an automatic history entry to the sale that caused it, so the
// dashboard never has to parse Reason back.
type SaleRef struct {
	SaleID        string        `json:"saleId"`
	ProductID     uint          `json:"productId"`
	ProductName   string        `json:"productName"`
	QuantitySold  int           `json:"quantitySold"`
	UnitPrice     float64       `json:"unitPrice"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
}

// HistoryEntry: one stock quantity change. Amount > 0 adds stock, < 0 consumes it.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Type      HistoryType `json:"type"`
	StockID   uint        `json:"stockId"`
	StockName string      `json:"stockName"`
	Amount    float64     `json:"amount"`
	Reason    string      `json:"reason"`
	Timestamp time.Time   `json:"timestamp"`
	Sale      *SaleRef    `json:"sale,omitempty"`
}

// Consumption is one stock decrement requested by a sale. Amount is positive.
type Consumption struct {
	StockID uint
	Amount  float64
	Sale    *SaleRef
}
