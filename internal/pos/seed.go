package pos

import "restoran-pos/internal/models"

// Collections written on first start, when the gateway has nothing stored.

func DefaultSettings() models.StoreSettings {
	return models.StoreSettings{
		StoreName: "My Restaurant",
		Logo:      "🍽️",
		Theme:     "#3b82f6",
	}
}

func seedProducts() []models.Product {
	friedRice, papayaSalad := uint(1), uint(2)
	return []models.Product{
		{ID: 1, Name: "fried rice", Price: 50, RecipeID: &friedRice},
		{ID: 2, Name: "papaya salad", Price: 40, RecipeID: &papayaSalad},
	}
}

func seedRecipes() []models.Recipe {
	return []models.Recipe{
		{ID: 1, Name: "fried rice recipe", Items: []models.RecipeItem{{StockID: 1, Amount: 0.2}, {StockID: 2, Amount: 0.1}}},
		{ID: 2, Name: "papaya salad recipe", Items: []models.RecipeItem{{StockID: 3, Amount: 0.3}}},
	}
}

func seedStockItems() []models.StockItem {
	return []models.StockItem{
		{ID: 1, Name: "rice", Unit: "kg", Quantity: 50},
		{ID: 2, Name: "egg", Unit: "pcs", Quantity: 100},
		{ID: 3, Name: "papaya", Unit: "kg", Quantity: 20},
	}
}

func seedTables() []models.Table {
	return []models.Table{
		{ID: 1, Name: "Table 1", Status: models.TableAvailable, Order: []models.OrderLine{}},
		{ID: 2, Name: "Table 2", Status: models.TableAvailable, Order: []models.OrderLine{}},
		{ID: 3, Name: "Table 3", Status: models.TableAvailable, Order: []models.OrderLine{}},
		{ID: 4, Name: "Table 4", Status: models.TableAvailable, Order: []models.OrderLine{}},
	}
}
