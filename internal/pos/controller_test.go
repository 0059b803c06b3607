package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/audit"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = func() time.Time { return time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC) }

func newIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func openTest(t *testing.T, gw storage.Gateway, m *metrics.Metrics) *Controller {
	t.Helper()
	c := Open(context.Background(), gw, Options{
		Metrics:           m,
		LowStockThreshold: 10,
		Clock:             testClock,
		NewID:             newIDs(),
	})
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func flush(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Flush(ctx))
}

type failingGateway struct{}

func (failingGateway) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}

func (failingGateway) Set(context.Context, string, string) error {
	return errors.New("storage offline")
}

func TestOpenSeedsEmptyGateway(t *testing.T) {
	gw := storage.NewMemory()
	c := openTest(t, gw, nil)

	assert.Len(t, c.Products(), 2)
	assert.Len(t, c.Recipes(), 2)
	assert.Len(t, c.StockItems(), 3)
	assert.Len(t, c.Tables(), 4)
	assert.Empty(t, c.History())
	assert.Equal(t, DefaultSettings(), c.Settings())

	flush(t, c)
	assert.Equal(t, len(storage.Keys), gw.Len())
}

func TestOpenKeepsCorruptDataUntouched(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemory()
	require.NoError(t, gw.Set(ctx, storage.KeyProducts, `{not json`))

	c := openTest(t, gw, nil)
	assert.Len(t, c.Products(), 2)

	flush(t, c)
	raw, ok, err := gw.Get(ctx, storage.KeyProducts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{not json`, raw)
}

func TestSavedOrderSurvivesReload(t *testing.T) {
	gw := storage.NewMemory()
	c := openTest(t, gw, nil)

	_, err := c.SelectTable(2)
	require.NoError(t, err)
	_, err = c.AddToOrder(1)
	require.NoError(t, err)
	_, err = c.AddToOrder(1)
	require.NoError(t, err)
	_, err = c.AddToOrder(2)
	require.NoError(t, err)
	saved, err := c.SaveOrder()
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, saved.Status)
	require.NoError(t, c.Close(context.Background()))

	reloaded := openTest(t, gw, nil)
	tables := reloaded.Tables()
	require.Len(t, tables, 4)
	assert.Equal(t, saved, tables[1])
	assert.Equal(t, []models.OrderLine{
		{ProductID: 1, Name: "fried rice", Price: 50, Quantity: 2},
		{ProductID: 2, Name: "papaya salad", Price: 40, Quantity: 1},
	}, tables[1].Order)
	_, active := reloaded.ActiveOrder()
	assert.False(t, active, "the editing buffer is not persisted")
}

func TestDeletedProductIDNotReusedByParkedOrder(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	_, err := c.SelectTable(1)
	require.NoError(t, err)
	_, err = c.AddToOrder(2)
	require.NoError(t, err)
	_, err = c.SaveOrder()
	require.NoError(t, err)

	require.NoError(t, c.DeleteProduct(2))
	friedRice := uint(1)
	special, err := c.AddProduct("fried rice special", 60, &friedRice)
	require.NoError(t, err)
	assert.Equal(t, uint(3), special.ID)

	_, err = c.SelectTable(1)
	require.NoError(t, err)
	receipt, err := c.Checkout(1, models.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, 40.0, receipt.Total)
	assert.Equal(t, "papaya salad", receipt.Lines[0].Name)

	// the deleted product resolves to nothing; rice and egg stay untouched
	rice, err := c.StockItem(1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rice.Quantity)
	egg, err := c.StockItem(2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, egg.Quantity)
	assert.Empty(t, c.History())
}

func TestReferencedIDsSurviveReload(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemory()
	require.NoError(t, gw.Set(ctx, storage.KeyTables,
		`[{"id":1,"name":"Table 1","status":"occupied","order":[{"productId":9,"name":"old special","price":70,"quantity":1}]}]`))
	require.NoError(t, gw.Set(ctx, storage.KeyStockHistory,
		`[{"id":"h1","type":"manual","stockId":6,"stockName":"flour","amount":1,"reason":"","timestamp":"2024-05-01T10:00:00Z"}]`))

	c := openTest(t, gw, nil)

	p, err := c.AddProduct("iced tea", 15, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(10), p.ID)

	it, err := c.AddStockItem("sugar", "kg", 1)
	require.NoError(t, err)
	assert.Equal(t, uint(7), it.ID)
}

func TestCheckoutWithSeedData(t *testing.T) {
	m := metrics.New()
	c := openTest(t, storage.NewMemory(), m)

	_, err := c.SelectTable(1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = c.AddToOrder(1)
		require.NoError(t, err)
	}
	receipt, err := c.Checkout(1, models.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, 150.0, receipt.Total)
	assert.Empty(t, receipt.MissingStock)

	rice, err := c.StockItem(1)
	require.NoError(t, err)
	assert.Equal(t, 49.4, rice.Quantity)
	egg, err := c.StockItem(2)
	require.NoError(t, err)
	assert.Equal(t, 99.7, egg.Quantity)

	history := c.History()
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, models.HistoryAuto, h.Type)
		assert.Equal(t, "sold fried rice x3", h.Reason)
	}

	table := c.Tables()[0]
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Empty(t, table.Order)
}

func TestCheckoutEmptyOrderMutatesNothing(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)
	_, err := c.SelectTable(1)
	require.NoError(t, err)

	_, err = c.Checkout(1, models.PaymentQR)
	require.ErrorIs(t, err, apperr.ErrEmptyOrder)
	assert.Empty(t, c.History())
	assert.Equal(t, seedStockItems(), c.StockItems())
}

func TestOrderOperationsNeedActiveTable(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	_, err := c.AddToOrder(1)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = c.ChangeQuantity(1, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = c.SaveOrder()
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = c.SelectTable(99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = c.SelectTable(1)
	require.NoError(t, err)
	_, err = c.AddToOrder(42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	order, err := c.AddToOrder(2)
	require.NoError(t, err)
	assert.Equal(t, 40.0, order.Total)
	order, err = c.ChangeQuantity(2, -5)
	require.NoError(t, err)
	assert.Empty(t, order.Lines)

	c.ClearSelection()
	_, active := c.ActiveOrder()
	assert.False(t, active)
}

func TestDeleteStockItemGuardedByRecipes(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	err := c.DeleteStockItem(3)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	require.ErrorIs(t, c.DeleteRecipe(2), apperr.ErrInvalidState)
	require.NoError(t, c.DeleteProduct(2))
	require.NoError(t, c.DeleteRecipe(2))
	require.NoError(t, c.DeleteStockItem(3))

	_, err = c.StockItem(3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, c.DeleteStockItem(3), apperr.ErrNotFound)
}

func TestRecipesMustReferenceExistingStock(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	_, err := c.AddRecipe("omelette", []models.RecipeItem{{StockID: 2, Amount: 3}, {StockID: 77, Amount: 1}})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	r, err := c.AddRecipe("omelette", []models.RecipeItem{{StockID: 2, Amount: 3}})
	require.NoError(t, err)
	assert.Equal(t, uint(3), r.ID)

	_, err = c.UpdateRecipe(r.ID, "omelette", []models.RecipeItem{{StockID: 99, Amount: 1}})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = c.AddProduct("omelette", 35, &r.ID)
	require.NoError(t, err)
	missing := uint(40)
	_, err = c.AddProduct("ghost", 10, &missing)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestManagementIsAudited(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	p, err := c.AddProduct("iced tea", 20, nil)
	require.NoError(t, err)
	_, err = c.UpdateProduct(p.ID, "iced tea", 25, nil)
	require.NoError(t, err)
	_, err = c.AddStockItem("tea leaves", "g", 500)
	require.NoError(t, err)
	_, err = c.UpdateSettings(models.StoreSettings{StoreName: "Noodle Bar", Theme: "#112233"})
	require.NoError(t, err)

	logs := c.AuditLogs(audit.Filter{})
	require.Len(t, logs, 4)
	assert.Equal(t, audit.EntitySettings, logs[0].EntityType)
	assert.Equal(t, audit.EntityStockItem, logs[1].EntityType)

	productLogs := c.AuditLogs(audit.Filter{EntityType: audit.EntityProduct, EntityID: p.ID})
	require.Len(t, productLogs, 2)
	assert.Equal(t, models.AuditActionUpdate, productLogs[0].Action)

	var before models.Product
	require.NoError(t, json.Unmarshal([]byte(productLogs[0].BeforeData), &before))
	assert.Equal(t, 20.0, before.Price)
}

func TestUpdateSettingsValidation(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	_, err := c.UpdateSettings(models.StoreSettings{StoreName: "  ", Theme: "#000000"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = c.UpdateSettings(models.StoreSettings{StoreName: "Cafe", Theme: "blue"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, DefaultSettings(), c.Settings())

	s, err := c.UpdateSettings(models.StoreSettings{StoreName: " Cafe ", Logo: "☕", Theme: "#AbCdEf"})
	require.NoError(t, err)
	assert.Equal(t, "Cafe", s.StoreName)
}

func TestLowStockUsesThreshold(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)
	assert.Empty(t, c.LowStock())

	_, err := c.AdjustStock(3, -15, "spoiled")
	require.NoError(t, err)
	low := c.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, "papaya", low[0].Name)
}

func TestConcurrentAdjustmentsAreSerialised(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.AdjustStock(2, 1, "delivery")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	egg, err := c.StockItem(2)
	require.NoError(t, err)
	assert.Equal(t, 150.0, egg.Quantity)
	assert.Len(t, c.History(), 50)
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	m := metrics.New()
	c := openTest(t, failingGateway{}, m)

	assert.Len(t, c.StockItems(), 3)
	_, err := c.AdjustStock(1, 5, "delivery")
	require.NoError(t, err)
	flush(t, c)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range families {
		if mf.GetName() == "restoran_pos_persist_failures_total" {
			for _, metric := range mf.GetMetric() {
				failures += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, failures)
}

func TestSnapshotIsConsistentCopy(t *testing.T) {
	c := openTest(t, storage.NewMemory(), nil)
	snap := c.Snapshot()
	assert.Equal(t, testClock(), snap.TakenAt)
	snap.StockItems[0].Quantity = -1
	rice, err := c.StockItem(1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rice.Quantity)
}
