package api

import (
	"bytes"
	"strconv"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/dashboard"
	"restoran-pos/internal/pos"
	"restoran-pos/internal/report"

	"github.com/gofiber/fiber/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/dashboard
func DashboardHandler(p *pos.Controller, v viewOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := p.Snapshot()
		return c.JSON(dashboard.Build(s.Products, s.StockItems, s.Tables, s.History, dashboard.Options{
			Now:               v.now(),
			Location:          v.loc,
			LowStockThreshold: v.lowStock,
			Pricing:           v.pricing,
		}))
	}
}

// GET /api/dashboard/sales-chart?period=daily|weekly|monthly&count=
func SalesChartHandler(p *pos.Controller, v viewOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := p.Snapshot()
		res, err := dashboard.SalesChart(s.Products, s.History, dashboard.ChartOptions{
			Period:   c.Query("period", "daily"),
			Count:    c.QueryInt("count"),
			Now:      v.now(),
			Location: v.loc,
			Pricing:  v.pricing,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(res)
	}
}

// GET /api/audit-logs?entityType=&entityId=&limit=
func ListAuditLogsHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := audit.Filter{
			EntityType: c.Query("entityType"),
			Limit:      c.QueryInt("limit"),
		}
		if raw := c.Query("entityId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid entityId")
			}
			f.EntityID = uint(id)
		}
		return c.JSON(p.AuditLogs(f))
	}
}

// GET /api/reports/stock.xlsx
func StockReportHandler(p *pos.Controller, v viewOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := p.Snapshot()
		var buf bytes.Buffer
		if err := report.WriteStock(&buf, s.StockItems, s.History, report.Options{
			LowStockThreshold: v.lowStock,
			Location:          v.loc,
		}); err != nil {
			return err
		}
		c.Attachment("stock-report-" + v.now().In(v.loc).Format("2006-01-02") + ".xlsx")
		c.Set(fiber.HeaderContentType, xlsxMIME)
		return c.Send(buf.Bytes())
	}
}
