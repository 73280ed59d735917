package estimation

// DefaultContainerTypes is the built-in container table.
func DefaultContainerTypes() []ContainerType {
	return []ContainerType{
		{Name: "Small Box", Multiplier: 1},
		{Name: "Medium Box", Multiplier: 2},
		{Name: "Large Box", Multiplier: 3},
		{Name: "Extra Large Box", Multiplier: 4},
		{Name: "Small Sack", Multiplier: 2},
		{Name: "Medium Sack", Multiplier: 3.5},
		{Name: "Large Sack", Multiplier: 5},
		{Name: "Small Bag", Multiplier: 0.5},
		{Name: "Medium Bag", Multiplier: 1},
		{Name: "Large Bag", Multiplier: 1.5},
		{Name: "Plastic Bin", Multiplier: 2.5},
		{Name: "Crate", Multiplier: 3},
	}
}

// DefaultItemRates is the built-in baseline table, calibrated for a Medium Box.
func DefaultItemRates() []ItemBaseRate {
	return []ItemBaseRate{
		// clothing
		{Item: "T-shirts", Quantity: 20},
		{Item: "Shirts", Quantity: 15},
		{Item: "Pants", Quantity: 12},
		{Item: "Shorts", Quantity: 18},
		{Item: "Dresses", Quantity: 10},
		{Item: "Jackets", Quantity: 6},
		{Item: "Sweaters", Quantity: 8},
		{Item: "Socks", Quantity: 40},
		{Item: "Underwear", Quantity: 35},
		{Item: "Shoes", Quantity: 4},
		{Item: "Baby Clothes", Quantity: 30},
		// food
		{Item: "Rice", Quantity: 10},
		{Item: "Canned Goods", Quantity: 24},
		{Item: "Instant Noodles", Quantity: 30},
		{Item: "Pasta", Quantity: 16},
		{Item: "Cereal", Quantity: 8},
		{Item: "Bottled Water", Quantity: 12},
		{Item: "Coffee", Quantity: 20},
		{Item: "Biscuits", Quantity: 25},
		// household and hygiene
		{Item: "Blankets", Quantity: 4},
		{Item: "Towels", Quantity: 10},
		{Item: "Bed Sheets", Quantity: 6},
		{Item: "Soap", Quantity: 40},
		{Item: "Toothpaste", Quantity: 30},
		{Item: "Toothbrushes", Quantity: 50},
		{Item: "Shampoo", Quantity: 15},
		{Item: "Diapers", Quantity: 3},
		{Item: "Sanitary Pads", Quantity: 20},
		{Item: "Face Masks", Quantity: 100},
		// school and recreation
		{Item: "Books", Quantity: 15},
		{Item: "Notebooks", Quantity: 30},
		{Item: "School Supplies", Quantity: 25},
		{Item: "Toys", Quantity: 10},
		{Item: "Stuffed Toys", Quantity: 8},
		// kitchen
		{Item: "Kitchen Utensils", Quantity: 20},
		{Item: "Plates", Quantity: 12},
		{Item: "Cups", Quantity: 16},
	}
}
