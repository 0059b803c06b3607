package models

// RecipeItem: consumption of one stock item per one unit of product sold.
type RecipeItem struct {
	StockID uint    `json:"stockId"`
	Amount  float64 `json:"amount"`
}

type Recipe struct {
	ID    uint         `json:"id"`
	Name  string       `json:"name"`
	Items []RecipeItem `json:"items"`
}

// Clone returns a copy that does not share the Items slice.
func (r Recipe) Clone() Recipe {
	items := make([]RecipeItem, len(r.Items))
	copy(items, r.Items)
	r.Items = items
	return r
}

// UsesStock reports whether any item of the recipe consumes stockID.
func (r Recipe) UsesStock(stockID uint) bool {
	for _, it := range r.Items {
		if it.StockID == stockID {
			return true
		}
	}
	return false
}
