// Package api is the fiber HTTP adapter the presentation layer talks to.
package api

import (
	"errors"
	"strings"
	"time"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/archive"
	"restoran-pos/internal/config"
	"restoran-pos/internal/dashboard"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/pos"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

// Deps are the collaborators every handler is built from.
type Deps struct {
	POS      *pos.Controller
	Archiver *archive.Archiver
	Config   *config.Config
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

// NewApp builds the fiber app with CORS, the error handler and every route.
func NewApp(d Deps) (*fiber.App, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Config == nil {
		d.Config = config.Default()
	}
	loc, err := d.Config.Location()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(d.Logger),
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Config.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	view := viewOptions{
		now:      d.Clock,
		loc:      loc,
		lowStock: d.Config.LowStockThreshold,
		pricing:  dashboard.Pricing(d.Config.RevenuePricing),
	}

	api := app.Group("/api")

	// Settings
	api.Get("/settings", GetSettingsHandler(d.POS))
	api.Put("/settings", UpdateSettingsHandler(d.POS))

	// Catalog
	api.Get("/products", ListProductsHandler(d.POS))
	api.Post("/products", CreateProductHandler(d.POS))
	api.Get("/products/:id", GetProductHandler(d.POS))
	api.Put("/products/:id", UpdateProductHandler(d.POS))
	api.Delete("/products/:id", DeleteProductHandler(d.POS))

	api.Get("/recipes", ListRecipesHandler(d.POS))
	api.Post("/recipes", CreateRecipeHandler(d.POS))
	api.Get("/recipes/:id", GetRecipeHandler(d.POS))
	api.Put("/recipes/:id", UpdateRecipeHandler(d.POS))
	api.Delete("/recipes/:id", DeleteRecipeHandler(d.POS))

	// Stock
	api.Get("/stock-items", ListStockItemsHandler(d.POS))
	api.Post("/stock-items", CreateStockItemHandler(d.POS))
	api.Get("/stock-items/low", LowStockHandler(d.POS))
	api.Post("/stock-items/count", StockCountHandler(d.POS))
	api.Get("/stock-items/:id", GetStockItemHandler(d.POS))
	api.Put("/stock-items/:id", UpdateStockItemHandler(d.POS))
	api.Delete("/stock-items/:id", DeleteStockItemHandler(d.POS))
	api.Post("/stock-items/:id/adjustments", AdjustStockHandler(d.POS))

	api.Get("/stock-history", ListHistoryHandler(d.POS))
	api.Post("/stock-history/archive", ArchiveHistoryHandler(d.POS, d.Archiver, d.Clock))
	api.Get("/stock-history/archives", ListArchivesHandler(d.Archiver))

	// Tables and orders
	api.Get("/tables", ListTablesHandler(d.POS))
	api.Post("/tables/:id/select", SelectTableHandler(d.POS))
	api.Post("/tables/:id/checkout", CheckoutHandler(d.POS))

	api.Get("/orders/active", GetActiveOrderHandler(d.POS))
	api.Delete("/orders/active", ClearSelectionHandler(d.POS))
	api.Post("/orders/active/lines", AddOrderLineHandler(d.POS))
	api.Patch("/orders/active/lines/:productId", ChangeQuantityHandler(d.POS))
	api.Post("/orders/active/save", SaveOrderHandler(d.POS))

	// Read models
	api.Get("/dashboard", DashboardHandler(d.POS, view))
	api.Get("/dashboard/sales-chart", SalesChartHandler(d.POS, view))
	api.Get("/audit-logs", ListAuditLogsHandler(d.POS))
	api.Get("/reports/stock.xlsx", StockReportHandler(d.POS, view))

	return app, nil
}

// ErrorHandler turns core errors into JSON responses: validation 400,
// not found 404, invalid state 409, anything else 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		case errors.Is(err, apperr.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, apperr.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, apperr.ErrInvalidState):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error("unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

type viewOptions struct {
	now      func() time.Time
	loc      *time.Location
	lowStock float64
	pricing  dashboard.Pricing
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}
