package models

// Product: sellable menu item. RecipeID is nil for items that do not consume
// stock (service charge, bottled water bought per unit ...).
type Product struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	RecipeID *uint   `json:"recipeId"`
}

func (p Product) Clone() Product {
	if p.RecipeID != nil {
		id := *p.RecipeID
		p.RecipeID = &id
	}
	return p
}
