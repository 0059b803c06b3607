// Package database implements the storage gateway on Postgres through gorm.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StateEntry is one persisted collection.
type StateEntry struct {
	Bucket    string    `gorm:"primaryKey;size:64" json:"bucket"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StateEntry) TableName() string { return "pos_state" }

// Gateway reads and writes StateEntry rows.
type Gateway struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the state table.
func Open(dsn string) (*Gateway, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the state table.
func New(db *gorm.DB) (*Gateway, error) {
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Gateway{db: db}, nil
}

func (g *Gateway) Get(ctx context.Context, key string) (string, bool, error) {
	var entry StateEntry
	err := g.db.WithContext(ctx).Where("bucket = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Payload, true, nil
}

func (g *Gateway) Set(ctx context.Context, key, value string) error {
	entry := StateEntry{Bucket: key, Payload: value, UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&entry).Error
}

// Close releases the pooled connections.
func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
