package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"restoran-pos/internal/models"

	"go.uber.org/zap"
)

// Prefix is the key prefix every history archive is written under.
const Prefix = "stock-history/"

// Document is the JSON body of one archive.
type Document struct {
	ArchivedAt time.Time             `json:"archivedAt"`
	StoreName  string                `json:"storeName"`
	Count      int                   `json:"count"`
	Entries    []models.HistoryEntry `json:"entries"`
}

// Archiver copies the full history to a Store. It never prunes the source.
type Archiver struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{store: store, log: log}
}

// Key names the archive written at t.
func Key(t time.Time) string {
	return Prefix + t.UTC().Format("20060102T150405.000000000Z") + ".json"
}

func (a *Archiver) Archive(ctx context.Context, storeName string, history []models.HistoryEntry, at time.Time) (Info, error) {
	doc := Document{ArchivedAt: at.UTC(), StoreName: storeName, Count: len(history), Entries: history}
	if doc.Entries == nil {
		doc.Entries = []models.HistoryEntry{}
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode archive: %w", err)
	}
	info, err := a.store.Put(ctx, Key(at), bytes.NewReader(body), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"entries": strconv.Itoa(len(history))},
	})
	if err != nil {
		return Info{}, fmt.Errorf("write archive: %w", err)
	}
	a.log.Info("history archived",
		zap.String("driver", string(a.store.Driver())),
		zap.String("key", info.Key),
		zap.Int("entries", len(history)))
	return info, nil
}

// List returns every archive, oldest first.
func (a *Archiver) List(ctx context.Context) ([]Info, error) {
	return a.store.List(ctx, Prefix)
}

func (a *Archiver) Load(ctx context.Context, key string) (Document, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode archive %s: %w", key, err)
	}
	return doc, nil
}
