package models

import "time"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQR   PaymentMethod = "qr"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentQR
}

// Receipt is returned by checkout. MissingStock lists recipe stock ids that
// did not resolve and were therefore not deducted.
type Receipt struct {
	SaleID        string        `json:"saleId"`
	TableID       uint          `json:"tableId"`
	TableName     string        `json:"tableName"`
	Lines         []OrderLine   `json:"lines"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaidAt        time.Time     `json:"paidAt"`
	MissingStock  []uint        `json:"missingStock,omitempty"`
}
