package api

import (
	"restoran-pos/internal/models"
	"restoran-pos/internal/pos"

	"github.com/gofiber/fiber/v2"
)

type ProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	RecipeID *uint   `json:"recipeId"`
}

type RecipeRequest struct {
	Name  string              `json:"name"`
	Items []models.RecipeItem `json:"items"`
}

// GET /api/settings
func GetSettingsHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.Settings())
	}
}

// PUT /api/settings
func UpdateSettingsHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body models.StoreSettings
		if err := parseBody(c, &body); err != nil {
			return err
		}
		s, err := p.UpdateSettings(body)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// GET /api/products
func ListProductsHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.Products())
	}
}

// GET /api/products/:id
func GetProductHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		product, err := p.Product(id)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

// POST /api/products
func CreateProductHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		product, err := p.AddProduct(body.Name, body.Price, body.RecipeID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// PUT /api/products/:id
func UpdateProductHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body ProductRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		product, err := p.UpdateProduct(id, body.Name, body.Price, body.RecipeID)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := p.DeleteProduct(id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/recipes
func ListRecipesHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(p.Recipes())
	}
}

// GET /api/recipes/:id
func GetRecipeHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		r, err := p.Recipe(id)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// POST /api/recipes
func CreateRecipeHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecipeRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		r, err := p.AddRecipe(body.Name, body.Items)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// PUT /api/recipes/:id
func UpdateRecipeHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body RecipeRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		r, err := p.UpdateRecipe(id, body.Name, body.Items)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// DELETE /api/recipes/:id
func DeleteRecipeHandler(p *pos.Controller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := p.DeleteRecipe(id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
