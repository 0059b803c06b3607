// Package catalog holds sellable products and the recipes that tie them to
// stock consumption.
package catalog

import (
	"math"
	"strings"

	"restoran-pos/internal/apperr"
	"restoran-pos/internal/models"

	"github.com/shopspring/decimal"
)

// Catalog hands out ids from a high-water mark that only grows, so a deleted
// product's id never comes back while an open order or the history still
// refers to it.
type Catalog struct {
	products []models.Product
	recipes  []models.Recipe

	lastProductID uint
	lastRecipeID  uint
}

type Option func(*Catalog)

// WithReservedProductIDs raises the product high-water mark past ids that
// are referenced outside the catalog (order lines, sale history, audit log).
func WithReservedProductIDs(ids ...uint) Option {
	return func(c *Catalog) { c.lastProductID = maxID(c.lastProductID, ids...) }
}

func WithReservedRecipeIDs(ids ...uint) Option {
	return func(c *Catalog) { c.lastRecipeID = maxID(c.lastRecipeID, ids...) }
}

func New(products []models.Product, recipes []models.Recipe, opts ...Option) *Catalog {
	c := &Catalog{}
	for _, p := range products {
		c.products = append(c.products, p.Clone())
		c.lastProductID = maxID(c.lastProductID, p.ID)
		if p.RecipeID != nil {
			c.lastRecipeID = maxID(c.lastRecipeID, *p.RecipeID)
		}
	}
	for _, r := range recipes {
		c.recipes = append(c.recipes, r.Clone())
		c.lastRecipeID = maxID(c.lastRecipeID, r.ID)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p.Clone())
	}
	return out
}

func (c *Catalog) Product(id uint) (models.Product, error) {
	i := c.productIndex(id)
	if i < 0 {
		return models.Product{}, apperr.NotFound("product", id)
	}
	return c.products[i].Clone(), nil
}

func (c *Catalog) Recipes() []models.Recipe {
	out := make([]models.Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, r.Clone())
	}
	return out
}

func (c *Catalog) Recipe(id uint) (models.Recipe, error) {
	i := c.recipeIndex(id)
	if i < 0 {
		return models.Recipe{}, apperr.NotFound("recipe", id)
	}
	return c.recipes[i].Clone(), nil
}

func (c *Catalog) AddProduct(name string, price float64, recipeID *uint) (models.Product, error) {
	p, err := c.validProduct(name, price, recipeID)
	if err != nil {
		return models.Product{}, err
	}
	p.ID = c.nextProductID()
	c.products = append(c.products, p)
	return p.Clone(), nil
}

// UpdateProduct replaces name, price and recipe. Open orders keep the price
// they were created with.
func (c *Catalog) UpdateProduct(id uint, name string, price float64, recipeID *uint) (models.Product, error) {
	i := c.productIndex(id)
	if i < 0 {
		return models.Product{}, apperr.NotFound("product", id)
	}
	p, err := c.validProduct(name, price, recipeID)
	if err != nil {
		return models.Product{}, err
	}
	p.ID = id
	c.products[i] = p
	return p.Clone(), nil
}

// DeleteProduct does not look at open orders: order lines carry their own name
// and price, and checkout treats a missing product as consuming nothing.
func (c *Catalog) DeleteProduct(id uint) (models.Product, error) {
	i := c.productIndex(id)
	if i < 0 {
		return models.Product{}, apperr.NotFound("product", id)
	}
	removed := c.products[i]
	c.products = append(c.products[:i:i], c.products[i+1:]...)
	return removed, nil
}

// AddRecipe checks the recipe shape only; whether the stock ids exist is the
// caller's concern because stock lives in the ledger.
func (c *Catalog) AddRecipe(name string, items []models.RecipeItem) (models.Recipe, error) {
	r, err := validRecipe(name, items)
	if err != nil {
		return models.Recipe{}, err
	}
	r.ID = c.nextRecipeID()
	c.recipes = append(c.recipes, r)
	return r.Clone(), nil
}

func (c *Catalog) UpdateRecipe(id uint, name string, items []models.RecipeItem) (models.Recipe, error) {
	i := c.recipeIndex(id)
	if i < 0 {
		return models.Recipe{}, apperr.NotFound("recipe", id)
	}
	r, err := validRecipe(name, items)
	if err != nil {
		return models.Recipe{}, err
	}
	r.ID = id
	c.recipes[i] = r
	return r.Clone(), nil
}

// DeleteRecipe is refused while a product still points at the recipe.
func (c *Catalog) DeleteRecipe(id uint) (models.Recipe, error) {
	i := c.recipeIndex(id)
	if i < 0 {
		return models.Recipe{}, apperr.NotFound("recipe", id)
	}
	for _, p := range c.products {
		if p.RecipeID != nil && *p.RecipeID == id {
			return models.Recipe{}, apperr.InvalidState("recipe %d is used by product %q", id, p.Name)
		}
	}
	removed := c.recipes[i]
	c.recipes = append(c.recipes[:i:i], c.recipes[i+1:]...)
	return removed, nil
}

// RecipesUsingStock lists recipes that consume stockID.
func (c *Catalog) RecipesUsingStock(stockID uint) []models.Recipe {
	var out []models.Recipe
	for _, r := range c.recipes {
		if r.UsesStock(stockID) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ResolveConsumption returns what selling quantitySold units of a product takes
// from stock. Products without a recipe, or whose recipe is gone, consume nothing.
func (c *Catalog) ResolveConsumption(productID uint, quantitySold int) []models.Consumption {
	pi := c.productIndex(productID)
	if pi < 0 || c.products[pi].RecipeID == nil || quantitySold <= 0 {
		return nil
	}
	ri := c.recipeIndex(*c.products[pi].RecipeID)
	if ri < 0 {
		return nil
	}
	qty := decimal.NewFromInt(int64(quantitySold))
	items := c.recipes[ri].Items
	out := make([]models.Consumption, 0, len(items))
	for _, it := range items {
		out = append(out, models.Consumption{
			StockID: it.StockID,
			Amount:  decimal.NewFromFloat(it.Amount).Mul(qty).InexactFloat64(),
		})
	}
	return out
}

func (c *Catalog) validProduct(name string, price float64, recipeID *uint) (models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Product{}, apperr.Validation("product name is required")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return models.Product{}, apperr.Validation("price must be greater than 0")
	}
	p := models.Product{Name: name, Price: price}
	if recipeID != nil {
		if c.recipeIndex(*recipeID) < 0 {
			return models.Product{}, apperr.NotFound("recipe", *recipeID)
		}
		id := *recipeID
		p.RecipeID = &id
	}
	return p, nil
}

func validRecipe(name string, items []models.RecipeItem) (models.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Recipe{}, apperr.Validation("recipe name is required")
	}
	if len(items) == 0 {
		return models.Recipe{}, apperr.Validation("recipe needs at least one item")
	}
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if math.IsNaN(it.Amount) || math.IsInf(it.Amount, 0) || it.Amount <= 0 {
			return models.Recipe{}, apperr.Validation("amount for stock %d must be greater than 0", it.StockID)
		}
		if seen[it.StockID] {
			return models.Recipe{}, apperr.Validation("stock %d listed twice", it.StockID)
		}
		seen[it.StockID] = true
	}
	return models.Recipe{Name: name, Items: append([]models.RecipeItem(nil), items...)}, nil
}

func (c *Catalog) productIndex(id uint) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) recipeIndex(id uint) int {
	for i := range c.recipes {
		if c.recipes[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) nextProductID() uint {
	c.lastProductID++
	return c.lastProductID
}

func (c *Catalog) nextRecipeID() uint {
	c.lastRecipeID++
	return c.lastRecipeID
}

func maxID(cur uint, ids ...uint) uint {
	for _, id := range ids {
		if id > cur {
			cur = id
		}
	}
	return cur
}
