// Package storage defines the key/value persistence boundary the POS state
// is loaded from and written to.
package storage

import (
	"context"
	"sync"
)

// Collection keys. Each holds one JSON-encoded collection.
const (
	KeyConfig       = "config"
	KeyProducts     = "products"
	KeyRecipes      = "recipes"
	KeyStockItems   = "stockItems"
	KeyTables       = "tables"
	KeyStockHistory = "stockHistory"
	KeyAuditLog     = "auditLog"
)

// Keys lists every collection key in load order.
var Keys = []string{
	KeyConfig,
	KeyProducts,
	KeyRecipes,
	KeyStockItems,
	KeyTables,
	KeyStockHistory,
	KeyAuditLog,
}

// Gateway stores string values under string keys. Get reports ok=false for a
// key that was never written.
type Gateway interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Driver names a concrete Gateway implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Memory is a process-local Gateway, used by tests and the memory driver.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Len reports how many keys have been written.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
