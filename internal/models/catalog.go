package models

// ItemType is a catalog entry that seeds a DonationItemDraft.
type ItemType struct {
	ID                string    `json:"item_type_id" bson:"_id"`
	Name              string    `json:"item_type_name" bson:"name"`
	Category          string    `json:"category,omitempty" bson:"category"`
	DefaultValue      float64   `json:"default_value" bson:"default_value"`
	FixedCondition    Condition `json:"fixed_condition,omitempty" bson:"fixed_condition,omitempty"`
	HasFixedCondition bool      `json:"has_fixed_condition" bson:"has_fixed_condition"`
	AvgRetailPrice    float64   `json:"avg_retail_price" bson:"avg_retail_price"`
}

// BaseValue is the catalog value before any condition adjustment. The
// default value wins; the average retail price fills in when it is unset.
func (t *ItemType) BaseValue() float64 {
	if t.DefaultValue > 0 {
		return t.DefaultValue
	}
	if t.AvgRetailPrice > 0 {
		return t.AvgRetailPrice
	}
	return 0
}

type Category struct {
	ID        string     `json:"category_id"`
	Name      string     `json:"category_name"`
	ItemTypes []ItemType `json:"item_types"`
}

// FallbackCategories is served when the category lookup is unreachable so
// staff can keep recording a donation.
func FallbackCategories() []Category {
	return []Category{
		{
			ID:   "fallback-clothing",
			Name: "Clothing",
			ItemTypes: []ItemType{
				{ID: "fallback-tshirts", Name: "T-shirts", Category: "Clothing", DefaultValue: 5},
				{ID: "fallback-pants", Name: "Pants", Category: "Clothing", DefaultValue: 8},
				{ID: "fallback-jackets", Name: "Jackets", Category: "Clothing", DefaultValue: 15},
				{ID: "fallback-shoes", Name: "Shoes", Category: "Clothing", DefaultValue: 12},
			},
		},
		{
			ID:   "fallback-food",
			Name: "Food",
			ItemTypes: []ItemType{
				{ID: "fallback-rice", Name: "Rice", Category: "Food", DefaultValue: 3, FixedCondition: ConditionNew, HasFixedCondition: true},
				{ID: "fallback-canned", Name: "Canned Goods", Category: "Food", DefaultValue: 2, FixedCondition: ConditionNew, HasFixedCondition: true},
				{ID: "fallback-noodles", Name: "Instant Noodles", Category: "Food", DefaultValue: 1, FixedCondition: ConditionNew, HasFixedCondition: true},
			},
		},
		{
			ID:   "fallback-hygiene",
			Name: "Hygiene",
			ItemTypes: []ItemType{
				{ID: "fallback-soap", Name: "Soap", Category: "Hygiene", DefaultValue: 1.5, FixedCondition: ConditionNew, HasFixedCondition: true},
				{ID: "fallback-toothpaste", Name: "Toothpaste", Category: "Hygiene", DefaultValue: 2.5, FixedCondition: ConditionNew, HasFixedCondition: true},
			},
		},
		{
			ID:   "fallback-household",
			Name: "Household",
			ItemTypes: []ItemType{
				{ID: "fallback-blankets", Name: "Blankets", Category: "Household", DefaultValue: 10},
				{ID: "fallback-books", Name: "Books", Category: "Household", DefaultValue: 4},
				{ID: "fallback-toys", Name: "Toys", Category: "Household", DefaultValue: 6},
			},
		},
	}
}
