package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"restoran-pos/internal/archive"
	"restoran-pos/internal/config"
	"restoran-pos/internal/dashboard"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/models"
	"restoran-pos/internal/pos"
	"restoran-pos/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testNow = time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	clock := func() time.Time { return testNow }
	m := metrics.New()
	p := pos.Open(context.Background(), storage.NewMemory(), pos.Options{
		Metrics:           m,
		LowStockThreshold: 10,
		Clock:             clock,
	})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	cfg := config.Default()
	cfg.Timezone = "UTC"

	app, err := NewApp(Deps{
		POS:      p,
		Archiver: archive.New(archive.NewMemory(), nil),
		Config:   cfg,
		Metrics:  m,
		Clock:    clock,
	})
	require.NoError(t, err)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[map[string]string](t, resp)["error"]
}

func TestSaleFlow(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/tables/1/select", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp = do(t, app, http.MethodPost, "/api/orders/active/lines", AddLineRequest{ProductID: 1})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	order := decode[pos.ActiveOrder](t, resp)
	assert.Equal(t, 150.0, order.Total)

	resp = do(t, app, http.MethodPost, "/api/tables/1/checkout", CheckoutRequest{PaymentMethod: models.PaymentCash})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	receipt := decode[models.Receipt](t, resp)
	assert.Equal(t, 150.0, receipt.Total)
	assert.Equal(t, "Table 1", receipt.TableName)

	resp = do(t, app, http.MethodGet, "/api/stock-items/1", nil)
	rice := decode[models.StockItem](t, resp)
	assert.Equal(t, 49.4, rice.Quantity)

	resp = do(t, app, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[map[string]any](t, resp)
	assert.Equal(t, 150.0, summary["revenue"])
	assert.Equal(t, 1.0, summary["orders"])
	assert.Equal(t, "2024-05-01", summary["date"])

	resp = do(t, app, http.MethodGet, "/api/dashboard/sales-chart?period=daily&count=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chart := decode[dashboard.SalesChartResponse](t, resp)
	assert.Equal(t, "2024-04-30", chart.From)
	require.Len(t, chart.Points, 1, "only buckets with sales are returned")
	assert.Equal(t, dashboard.SalesChartPoint{Label: "2024-05-01", Cash: 150, Total: 150}, chart.Points[0])

	resp = do(t, app, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `restoran_pos_checkouts_total{method="cash"} 1`)
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"checkout without selection", http.MethodPost, "/api/tables/1/checkout", CheckoutRequest{PaymentMethod: models.PaymentCash}, http.StatusConflict},
		{"unknown product", http.MethodGet, "/api/products/99", nil, http.StatusNotFound},
		{"empty product name", http.MethodPost, "/api/products", ProductRequest{Name: " ", Price: 5}, http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/api/products/abc", nil, http.StatusBadRequest},
		{"line without table", http.MethodPost, "/api/orders/active/lines", AddLineRequest{ProductID: 1}, http.StatusConflict},
		{"zero adjustment", http.MethodPost, "/api/stock-items/1/adjustments", AdjustmentRequest{Amount: 0}, http.StatusBadRequest},
		{"stock item used by recipe", http.MethodDelete, "/api/stock-items/1", nil, http.StatusConflict},
		{"no active order", http.MethodGet, "/api/orders/active", nil, http.StatusNotFound},
		{"bad chart period", http.MethodGet, "/api/dashboard/sales-chart?period=hourly", nil, http.StatusBadRequest},
		{"bad theme", http.MethodPut, "/api/settings", models.StoreSettings{StoreName: "x", Theme: "blue"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, app, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, resp))
		})
	}
}

func TestUnknownPaymentMethod(t *testing.T) {
	app := newTestApp(t)
	do(t, app, http.MethodPost, "/api/tables/2/select", nil)
	do(t, app, http.MethodPost, "/api/orders/active/lines", AddLineRequest{ProductID: 2})

	resp := do(t, app, http.MethodPost, "/api/tables/2/checkout", map[string]string{"paymentMethod": "card"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogAndAudit(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/stock-items", CreateStockItemRequest{Name: "water", Unit: "bottle", Quantity: 24})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	water := decode[models.StockItem](t, resp)

	resp = do(t, app, http.MethodPost, "/api/recipes", RecipeRequest{Name: "water", Items: []models.RecipeItem{{StockID: water.ID, Amount: 1}}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	recipe := decode[models.Recipe](t, resp)

	resp = do(t, app, http.MethodPost, "/api/products", ProductRequest{Name: "water", Price: 10, RecipeID: &recipe.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[models.Product](t, resp)

	resp = do(t, app, http.MethodPut, "/api/products/"+itoa(product.ID), ProductRequest{Name: "sparkling water", Price: 12, RecipeID: &recipe.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/products/"+itoa(product.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/audit-logs?entityType=product&entityId="+itoa(product.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[[]models.AuditLog](t, resp)
	require.Len(t, logs, 3)
	assert.Equal(t, models.AuditActionDelete, logs[0].Action)
	assert.Equal(t, models.AuditActionCreate, logs[2].Action)

	resp = do(t, app, http.MethodGet, "/api/audit-logs?limit=2", nil)
	assert.Len(t, decode[[]models.AuditLog](t, resp), 2)
}

func TestStockCountJSON(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/stock-items/count", []pos.CountLine{{Name: "papaya", Counted: 18}, {Name: "mango", Counted: 1}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[pos.CountResult](t, resp)
	require.Len(t, res.Adjusted, 1)
	assert.Equal(t, -2.0, res.Adjusted[0].Amount)
	assert.Equal(t, []string{"mango"}, res.Unknown)

	resp = do(t, app, http.MethodGet, "/api/stock-history?limit=1", nil)
	history := decode[[]models.HistoryEntry](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, "stock count", history[0].Reason)
}

func TestStockCountUpload(t *testing.T) {
	app := newTestApp(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Counted"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"egg", 96}))
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "count.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stock-items/count", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/stock-items/2", nil)
	assert.Equal(t, 96.0, decode[models.StockItem](t, resp).Quantity)
}

func TestArchiveAndReport(t *testing.T) {
	app := newTestApp(t)
	do(t, app, http.MethodPost, "/api/stock-items/1/adjustments", AdjustmentRequest{Amount: 5, Reason: "delivery"})

	resp := do(t, app, http.MethodPost, "/api/stock-history/archive", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	info := decode[archive.Info](t, resp)
	assert.True(t, strings.HasPrefix(info.Key, archive.Prefix))

	resp = do(t, app, http.MethodGet, "/api/stock-history/archives", nil)
	assert.Len(t, decode[[]archive.Info](t, resp), 1)

	resp = do(t, app, http.MethodGet, "/api/reports/stock.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "stock-report-2024-05-01.xlsx")

	wb, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "delivery", rows[1][5])
}

func TestArchiveNotConfigured(t *testing.T) {
	p := pos.Open(context.Background(), storage.NewMemory(), pos.Options{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	app, err := NewApp(Deps{POS: p})
	require.NoError(t, err)

	resp := do(t, app, http.MethodPost, "/api/stock-history/archive", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
