package cart

import "time"

const (
	ProductTypeDish   = "dish"
	ProductTypeDrink  = "drink"
	ProductTypeCustom = "custom"
)

// IngredientLine is one weighted ingredient inside a custom product. The
// nutrition record is per 100g; MinOrder/MaxOrder/Step are the catalog
// bounds for the weight slider, carried along so later edits can be
// validated without another catalog round trip.
type IngredientLine struct {
	ID               int64            `json:"id" bson:"id"`
	Name             string           `json:"name" bson:"name"`
	WeightGrams      float64          `json:"weight_grams" bson:"weight_grams"`
	PricePerGram     float64          `json:"price" bson:"price"`
	MinOrder         float64          `json:"min_order" bson:"min_order"`
	MaxOrder         float64          `json:"max_order" bson:"max_order"`
	Step             float64          `json:"step" bson:"step"`
	NutritionalValue NutritionalValue `json:"nutritional_value" bson:"nutritional_value"`
}

// LineTotal is the price contribution of this ingredient.
func (i *IngredientLine) LineTotal() float64 {
	return i.PricePerGram * i.WeightGrams
}

// Product is a denormalized snapshot of a catalog product or a user-built
// custom product. The cart never holds live references into the catalog:
// whatever the menu said at add time is what the customer pays.
type Product struct {
	ID               int64            `json:"id" bson:"id"`
	Name             string           `json:"name" bson:"name"`
	Description      string           `json:"description" bson:"description"`
	Image            string           `json:"image" bson:"image"`
	ProductType      string           `json:"product_type" bson:"product_type"`
	Price            float64          `json:"price" bson:"price"`
	Weight           float64          `json:"weight" bson:"weight"`
	NutritionalValue NutritionalValue `json:"nutritional_value" bson:"nutritional_value"`
	Ingredients      []IngredientLine `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
}

func (p *Product) IsCustom() bool {
	return p.ProductType == ProductTypeCustom
}

// Clone returns a deep copy. The store keeps only clones so callers can keep
// mutating their own snapshot after adding it.
func (p *Product) Clone() *Product {
	clone := *p
	if p.Ingredients != nil {
		clone.Ingredients = make([]IngredientLine, len(p.Ingredients))
		copy(clone.Ingredients, p.Ingredients)
	}
	return &clone
}

// NewCustomProduct returns an empty custom product. Custom products never
// exist in the catalog, so the ID is a synthetic unix-millis value, unique
// enough for cart-local identity.
func NewCustomProduct() *Product {
	return &Product{
		ID:          time.Now().UnixMilli(),
		Name:        "Custom Meal",
		Description: "Custom created meal",
		ProductType: ProductTypeCustom,
		Ingredients: []IngredientLine{},
	}
}

// ProductForCalories derives the calorie-variant snapshot of a dish: price
// and all nutrients scale linearly with the requested calories relative to
// the base portion. Drinks and products without a calorie base are returned
// unchanged.
func ProductForCalories(p *Product, calories float64) *Product {
	variant := p.Clone()
	base := p.NutritionalValue.Calories
	if p.ProductType != ProductTypeDish || base <= 0 || calories <= 0 {
		return variant
	}
	factor := calories / base
	variant.Price = p.Price * factor
	variant.Weight = p.Weight * factor
	variant.NutritionalValue.Scale(factor)
	return variant
}
