// Package pos is the application-state controller. It owns every store,
// serialises operations with a single lock and persists the collections each
// operation touched.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/audit"
	"restoran-pos/internal/catalog"
	"restoran-pos/internal/checkout"
	"restoran-pos/internal/ledger"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/models"
	"restoran-pos/internal/orders"
	"restoran-pos/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	Logger            *zap.Logger
	Metrics           *metrics.Metrics
	LowStockThreshold float64
	Clock             func() time.Time
	NewID             func() string

	// WriteTimeout bounds each background write; zero means 10s.
	WriteTimeout time.Duration
}

type Controller struct {
	mu sync.Mutex

	settings models.StoreSettings
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	orders   *orders.Manager
	checkout *checkout.Transaction
	audit    *audit.Trail

	persist  *persister
	log      *zap.Logger
	metrics  *metrics.Metrics
	lowStock float64
	now      func() time.Time
}

// Snapshot is a consistent copy of the persisted state.
type Snapshot struct {
	Settings   models.StoreSettings  `json:"settings"`
	Products   []models.Product      `json:"products"`
	Recipes    []models.Recipe       `json:"recipes"`
	StockItems []models.StockItem    `json:"stockItems"`
	Tables     []models.Table        `json:"tables"`
	History    []models.HistoryEntry `json:"stockHistory"`
	TakenAt    time.Time             `json:"takenAt"`
}

// ActiveOrder is the table being edited and its unsaved buffer.
type ActiveOrder struct {
	Table models.Table       `json:"table"`
	Lines []models.OrderLine `json:"lines"`
	Total float64            `json:"total"`
}

// Open loads every collection from gw, seeding the ones that are missing or
// unreadable, and starts the background writer.
func Open(ctx context.Context, gw storage.Gateway, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	log := opts.Logger

	ld := loader{ctx: ctx, gw: gw, log: log}
	settings := load(&ld, storage.KeyConfig, DefaultSettings)
	products := load(&ld, storage.KeyProducts, seedProducts)
	recipes := load(&ld, storage.KeyRecipes, seedRecipes)
	stockItems := load(&ld, storage.KeyStockItems, seedStockItems)
	tables := load(&ld, storage.KeyTables, seedTables)
	history := load(&ld, storage.KeyStockHistory, func() []models.HistoryEntry { return []models.HistoryEntry{} })
	logs := load(&ld, storage.KeyAuditLog, func() []models.AuditLog { return []models.AuditLog{} })

	used := referencedIDs(tables, history, logs)
	cat := catalog.New(products, recipes,
		catalog.WithReservedProductIDs(used.products...),
		catalog.WithReservedRecipeIDs(used.recipes...))
	led := ledger.New(stockItems, history,
		ledger.WithClock(opts.Clock),
		ledger.WithIDGenerator(opts.NewID),
		ledger.WithReservedIDs(used.stock...))

	c := &Controller{
		settings: settings,
		catalog:  cat,
		ledger:   led,
		orders:   orders.New(tables),
		audit:    audit.NewTrail(logs, audit.WithClock(opts.Clock), audit.WithIDGenerator(opts.NewID)),
		persist:  newPersister(gw, log, opts.Metrics, opts.WriteTimeout),
		log:      log,
		metrics:  opts.Metrics,
		lowStock: opts.LowStockThreshold,
		now:      opts.Clock,
	}
	c.checkout = checkout.New(c.catalog, c.ledger, c.orders, checkout.WithClock(opts.Clock), checkout.WithIDGenerator(opts.NewID))
	c.metrics.SetOccupiedTables(c.orders.Occupied())

	c.mu.Lock()
	c.save(ld.missing...)
	c.mu.Unlock()
	return c
}

type idRefs struct {
	products []uint
	recipes  []uint
	stock    []uint
}

// referencedIDs collects ids that live on outside their own collection, so
// deleting and re-adding an entity never hands an old id to a new one.
func referencedIDs(tables []models.Table, history []models.HistoryEntry, logs []models.AuditLog) idRefs {
	var refs idRefs
	for _, t := range tables {
		for _, l := range t.Order {
			refs.products = append(refs.products, l.ProductID)
		}
	}
	for _, h := range history {
		if h.Sale != nil {
			refs.products = append(refs.products, h.Sale.ProductID)
		}
	}
	for _, l := range logs {
		switch l.EntityType {
		case audit.EntityProduct:
			refs.products = append(refs.products, l.EntityID)
		case audit.EntityRecipe:
			refs.recipes = append(refs.recipes, l.EntityID)
		case audit.EntityStockItem:
			refs.stock = append(refs.stock, l.EntityID)
		}
	}
	return refs
}

type loader struct {
	ctx     context.Context
	gw      storage.Gateway
	log     *zap.Logger
	missing []string
}

func load[T any](ld *loader, key string, seed func() T) T {
	raw, ok, err := ld.gw.Get(ld.ctx, key)
	if err != nil {
		ld.log.Warn("load failed, using defaults", zap.String("key", key), zap.Error(err))
		return seed()
	}
	if !ok {
		ld.missing = append(ld.missing, key)
		return seed()
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		ld.log.Warn("decode failed, using defaults", zap.String("key", key), zap.Error(err))
		return seed()
	}
	return v
}

// save snapshots the named collections and hands them to the writer. The
// caller holds c.mu.
func (c *Controller) save(keys ...string) {
	for _, key := range keys {
		var v any
		switch key {
		case storage.KeyConfig:
			v = c.settings
		case storage.KeyProducts:
			v = c.catalog.Products()
		case storage.KeyRecipes:
			v = c.catalog.Recipes()
		case storage.KeyStockItems:
			v = c.ledger.Items()
		case storage.KeyTables:
			v = c.orders.Tables()
		case storage.KeyStockHistory:
			v = c.ledger.History()
		case storage.KeyAuditLog:
			v = c.audit.Logs()
		default:
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			c.log.Warn("encode failed", zap.String("key", key), zap.Error(err))
			continue
		}
		c.persist.enqueue(key, string(data))
	}
}

// Flush blocks until every pending write has been attempted.
func (c *Controller) Flush(ctx context.Context) error {
	return c.persist.flush(ctx)
}

// Close flushes pending writes and stops the writer.
func (c *Controller) Close(ctx context.Context) error {
	return c.persist.close(ctx)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Settings:   c.settings,
		Products:   c.catalog.Products(),
		Recipes:    c.catalog.Recipes(),
		StockItems: c.ledger.Items(),
		Tables:     c.orders.Tables(),
		History:    c.ledger.History(),
		TakenAt:    c.now(),
	}
}

// Settings

func (c *Controller) Settings() models.StoreSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *Controller) UpdateSettings(s models.StoreSettings) (models.StoreSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := validSettings(s)
	if err != nil {
		return models.StoreSettings{}, err
	}
	before := c.settings
	c.settings = s
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntitySettings,
		Action:      models.AuditActionUpdate,
		Description: "store settings updated",
		Before:      before,
		After:       s,
	})
	c.save(storage.KeyConfig, storage.KeyAuditLog)
	return s, nil
}

// Products

func (c *Controller) Products() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.Products()
}

func (c *Controller) Product(id uint) (models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.Product(id)
}

func (c *Controller) AddProduct(name string, price float64, recipeID *uint) (models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.catalog.AddProduct(name, price, recipeID)
	if err != nil {
		return models.Product{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    p.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("product %q created", p.Name),
		After:       p,
	})
	c.save(storage.KeyProducts, storage.KeyAuditLog)
	return p, nil
}

func (c *Controller) UpdateProduct(id uint, name string, price float64, recipeID *uint) (models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before, err := c.catalog.Product(id)
	if err != nil {
		return models.Product{}, err
	}
	p, err := c.catalog.UpdateProduct(id, name, price, recipeID)
	if err != nil {
		return models.Product{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    p.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("product %q updated", p.Name),
		Before:      before,
		After:       p,
	})
	c.save(storage.KeyProducts, storage.KeyAuditLog)
	return p, nil
}

func (c *Controller) DeleteProduct(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.catalog.DeleteProduct(id)
	if err != nil {
		return err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    p.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("product %q deleted", p.Name),
		Before:      p,
	})
	c.save(storage.KeyProducts, storage.KeyAuditLog)
	return nil
}

// Recipes

func (c *Controller) Recipes() []models.Recipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.Recipes()
}

func (c *Controller) Recipe(id uint) (models.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog.Recipe(id)
}

func (c *Controller) AddRecipe(name string, items []models.RecipeItem) (models.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkStockRefs(items); err != nil {
		return models.Recipe{}, err
	}
	r, err := c.catalog.AddRecipe(name, items)
	if err != nil {
		return models.Recipe{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityRecipe,
		EntityID:    r.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("recipe %q created", r.Name),
		After:       r,
	})
	c.save(storage.KeyRecipes, storage.KeyAuditLog)
	return r, nil
}

func (c *Controller) UpdateRecipe(id uint, name string, items []models.RecipeItem) (models.Recipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before, err := c.catalog.Recipe(id)
	if err != nil {
		return models.Recipe{}, err
	}
	if err := c.checkStockRefs(items); err != nil {
		return models.Recipe{}, err
	}
	r, err := c.catalog.UpdateRecipe(id, name, items)
	if err != nil {
		return models.Recipe{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityRecipe,
		EntityID:    r.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("recipe %q updated", r.Name),
		Before:      before,
		After:       r,
	})
	c.save(storage.KeyRecipes, storage.KeyAuditLog)
	return r, nil
}

func (c *Controller) DeleteRecipe(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, err := c.catalog.DeleteRecipe(id)
	if err != nil {
		return err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityRecipe,
		EntityID:    r.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("recipe %q deleted", r.Name),
		Before:      r,
	})
	c.save(storage.KeyRecipes, storage.KeyAuditLog)
	return nil
}

func (c *Controller) checkStockRefs(items []models.RecipeItem) error {
	for _, it := range items {
		if _, err := c.ledger.Item(it.StockID); err != nil {
			return err
		}
	}
	return nil
}

// Stock

func (c *Controller) StockItems() []models.StockItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Items()
}

func (c *Controller) StockItem(id uint) (models.StockItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Item(id)
}

// LowStock lists items below the configured threshold.
func (c *Controller) LowStock() []models.StockItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.LowStock(c.lowStock)
}

func (c *Controller) History() []models.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.History()
}

func (c *Controller) AddStockItem(name, unit string, quantity float64) (models.StockItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, err := c.ledger.AddItem(name, unit, quantity)
	if err != nil {
		return models.StockItem{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityStockItem,
		EntityID:    item.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("stock item %q created", item.Name),
		After:       item,
	})
	c.save(storage.KeyStockItems, storage.KeyAuditLog)
	return item, nil
}

func (c *Controller) UpdateStockItem(id uint, name, unit string) (models.StockItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before, err := c.ledger.Item(id)
	if err != nil {
		return models.StockItem{}, err
	}
	item, err := c.ledger.UpdateItem(id, name, unit)
	if err != nil {
		return models.StockItem{}, err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityStockItem,
		EntityID:    item.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("stock item %q updated", item.Name),
		Before:      before,
		After:       item,
	})
	c.save(storage.KeyStockItems, storage.KeyAuditLog)
	return item, nil
}

// DeleteStockItem refuses while any recipe still consumes the item.
func (c *Controller) DeleteStockItem(id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.ledger.Item(id); err != nil {
		return err
	}
	if used := c.catalog.RecipesUsingStock(id); len(used) > 0 {
		return apperr.InvalidState("stock item %d is used by recipe %q", id, used[0].Name)
	}
	item, err := c.ledger.DeleteItem(id)
	if err != nil {
		return err
	}
	c.audit.WriteLog(audit.LogOptions{
		EntityType:  audit.EntityStockItem,
		EntityID:    item.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("stock item %q deleted", item.Name),
		Before:      item,
	})
	c.save(storage.KeyStockItems, storage.KeyAuditLog)
	return nil
}

func (c *Controller) AdjustStock(stockID uint, amount float64, reason string) (models.HistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, err := c.ledger.ApplyManualAdjustment(stockID, amount, reason)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	c.metrics.ObserveAdjustment()
	c.save(storage.KeyStockItems, storage.KeyStockHistory)
	return entry, nil
}

// Tables and orders

func (c *Controller) Tables() []models.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders.Tables()
}

func (c *Controller) SelectTable(id uint) (ActiveOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.orders.SelectTable(id); err != nil {
		return ActiveOrder{}, err
	}
	order, _ := c.activeOrder()
	return order, nil
}

func (c *Controller) ActiveOrder() (ActiveOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeOrder()
}

func (c *Controller) activeOrder() (ActiveOrder, bool) {
	table, lines, ok := c.orders.Active()
	if !ok {
		return ActiveOrder{}, false
	}
	return ActiveOrder{Table: table, Lines: lines, Total: checkout.Total(lines)}, true
}

// AddToOrder adds one unit of productID to the active buffer.
func (c *Controller) AddToOrder(productID uint) (ActiveOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.catalog.Product(productID)
	if err != nil {
		return ActiveOrder{}, err
	}
	if err := c.orders.AddLine(p); err != nil {
		return ActiveOrder{}, err
	}
	order, _ := c.activeOrder()
	return order, nil
}

func (c *Controller) ChangeQuantity(productID uint, delta int) (ActiveOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.orders.ChangeQuantity(productID, delta); err != nil {
		return ActiveOrder{}, err
	}
	order, _ := c.activeOrder()
	return order, nil
}

func (c *Controller) SaveOrder() (models.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.orders.SaveOrder()
	if err != nil {
		return models.Table{}, err
	}
	c.metrics.SetOccupiedTables(c.orders.Occupied())
	c.save(storage.KeyTables)
	return t, nil
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders.ClearSelection()
}

func (c *Controller) Checkout(tableID uint, method models.PaymentMethod) (models.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, err := c.checkout.Checkout(tableID, method)
	if err != nil {
		return models.Receipt{}, err
	}
	if len(receipt.MissingStock) > 0 {
		c.log.Warn("recipe references missing stock items",
			zap.String("sale", receipt.SaleID),
			zap.Uints("stockIds", receipt.MissingStock))
	}
	c.log.Info("checkout",
		zap.String("sale", receipt.SaleID),
		zap.Uint("table", receipt.TableID),
		zap.Float64("total", receipt.Total),
		zap.String("method", string(receipt.PaymentMethod)))
	c.metrics.ObserveCheckout(string(receipt.PaymentMethod), receipt.Total, len(receipt.MissingStock))
	c.metrics.SetOccupiedTables(c.orders.Occupied())
	c.save(storage.KeyStockItems, storage.KeyStockHistory, storage.KeyTables)
	return receipt, nil
}

// Audit

func (c *Controller) AuditLogs(f audit.Filter) []models.AuditLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audit.List(f)
}
