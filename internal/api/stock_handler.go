package api

import (
	"strings"
	"time"

	"restoran-pos/internal/archive"
	"restoran-pos/internal/pos"
	"restoran-pos/internal/report"

	"github.com/gofiber/fiber/v2"
)

type CreateStockItemRequest struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

type UpdateStockItemRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type AdjustmentRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// GET /api/stock-items
func ListStockItemsHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.StockItems())
	}
}

// GET /api/stock-items/low
func LowStockHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.LowStock())
	}
}

// GET /api/stock-items/:id
func GetStockItemHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		it, err := p.StockItem(id)
		if err != nil {
			return err
		}
		return c.JSON(it)
	}
}

// POST /api/stock-items
func CreateStockItemHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStockItemRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		it, err := p.AddStockItem(body.Name, body.Unit, body.Quantity)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(it)
	}
}

// PUT /api/stock-items/:id
func UpdateStockItemHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateStockItemRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		it, err := p.UpdateStockItem(id, body.Name, body.Unit)
		if err != nil {
			return err
		}
		return c.JSON(it)
	}
}

// DELETE /api/stock-items/:id
func DeleteStockItemHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := p.DeleteStockItem(id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/stock-items/:id/adjustments
func AdjustStockHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body AdjustmentRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		entry, err := p.AdjustStock(id, body.Amount, body.Reason)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// POST /api/stock-items/count
// Accepts either a JSON array of {name, counted} or an XLSX upload in the
// "file" form field whose first sheet lists name and counted quantity.
func StockCountHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var lines []pos.CountLine

		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			fh, err := c.FormFile("file")
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "file is required")
			}
			if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
				return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are supported")
			}
			f, err := fh.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "file could not be opened")
			}
			defer f.Close()

			rows, err := report.ReadStockCount(f)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			for _, r := range rows {
				lines = append(lines, pos.CountLine{Name: r.Name, Counted: r.Quantity})
			}
		} else if err := parseBody(c, &lines); err != nil {
			return err
		}

		if len(lines) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no stock counts given")
		}
		res, err := p.ApplyStockCount(lines)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/stock-history?limit=
func ListHistoryHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		history := p.History()
		if limit := c.QueryInt("limit"); limit > 0 && limit < len(history) {
			history = history[:limit]
		}
		return c.JSON(history)
	}
}

// POST /api/stock-history/archive
func ArchiveHistoryHandler(p *pos.Controller, a *archive.Archiver, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "history archive is not configured")
		}
		info, err := a.Archive(c.UserContext(), p.Settings().StoreName, p.History(), now())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(info)
	}
}

// GET /api/stock-history/archives
func ListArchivesHandler(a *archive.Archiver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "history archive is not configured")
		}
		list, err := a.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}
