package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	// "product", "recipe", "stock_item", "settings"
	EntityType string `json:"entityType"`
	EntityID   uint   `json:"entityId"`

	Action      AuditAction `json:"action"`
	Description string      `json:"description"`

	// JSON of the entity before and after the change ("null" when absent)
	BeforeData string `json:"beforeData"`
	AfterData  string `json:"afterData"`
}
