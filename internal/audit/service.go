package audit

import (
	"encoding/json"
	"time"

	"restoran-pos/internal/models"

	"github.com/google/uuid"
)

// Entity types recorded in the trail.
const (
	EntityProduct   = "product"
	EntityRecipe    = "recipe"
	EntityStockItem = "stock_item"
	EntitySettings  = "settings"
)

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   uint
	Limit      int
}

// Trail is the append-only audit log, newest first. Not safe for concurrent
// use; the POS controller serialises access.
type Trail struct {
	logs  []models.AuditLog
	now   func() time.Time
	newID func() string
}

type Option func(*Trail)

func WithClock(now func() time.Time) Option { return func(t *Trail) { t.now = now } }

func WithIDGenerator(gen func() string) Option { return func(t *Trail) { t.newID = gen } }

// NewTrail wraps previously persisted logs (newest first).
func NewTrail(logs []models.AuditLog, opts ...Option) *Trail {
	t := &Trail{
		logs:  append([]models.AuditLog(nil), logs...),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Trail) WriteLog(opts LogOptions) models.AuditLog {
	log := models.AuditLog{
		ID:          t.newID(),
		CreatedAt:   t.now(),
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  encode(opts.Before),
		AfterData:   encode(opts.After),
	}
	t.logs = append([]models.AuditLog{log}, t.logs...)
	return log
}

// Logs returns a copy of the whole trail.
func (t *Trail) Logs() []models.AuditLog {
	return append(make([]models.AuditLog, 0, len(t.logs)), t.logs...)
}

func (t *Trail) List(f Filter) []models.AuditLog {
	out := make([]models.AuditLog, 0)
	for _, log := range t.logs {
		if f.EntityType != "" && log.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != 0 && log.EntityID != f.EntityID {
			continue
		}
		out = append(out, log)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// encode renders v as JSON, "null" when absent or unencodable.
func encode(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
