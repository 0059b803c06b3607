package api

import (
	"restoran-pos/internal/models"
	"restoran-pos/internal/pos"

	"github.com/gofiber/fiber/v2"
)

type AddLineRequest struct {
	ProductID uint `json:"productId"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

type CheckoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// GET /api/tables
func ListTablesHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.Tables())
	}
}

// POST /api/tables/:id/select
func SelectTableHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		order, err := p.SelectTable(id)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// POST /api/tables/:id/checkout
func CheckoutHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body CheckoutRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		receipt, err := p.Checkout(id, body.PaymentMethod)
		if err != nil {
			return err
		}
		return c.JSON(receipt)
	}
}

// GET /api/orders/active
func GetActiveOrderHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, ok := p.ActiveOrder()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no table selected")
		}
		return c.JSON(order)
	}
}

// DELETE /api/orders/active discards the unsaved buffer.
func ClearSelectionHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p.ClearSelection()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/orders/active/lines
func AddOrderLineHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddLineRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		order, err := p.AddToOrder(body.ProductID)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// PATCH /api/orders/active/lines/:productId
func ChangeQuantityHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := paramID(c, "productId")
		if err != nil {
			return err
		}
		var body ChangeQuantityRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		order, err := p.ChangeQuantity(productID, body.Delta)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// POST /api/orders/active/save
func SaveOrderHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := p.SaveOrder()
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}
