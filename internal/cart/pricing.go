package cart

// Pricing is pure derivation over snapshots: nothing here touches the store,
// the network, or the clock, so every function is directly unit-testable.

// NutritionSummary is the aggregate over a list of line items.
type NutritionSummary struct {
	NutritionalValue NutritionalValue `json:"nutritional_value"`
	TotalPrice       float64          `json:"total_price"`
}

// Promo is the promo-lookup response shape consumed by the checkout
// pipeline. Discount is a fraction in [0,1]; MaxDiscount of zero means the
// discount is uncapped.
type Promo struct {
	Code        string  `json:"promo_code"`
	Discount    float64 `json:"discount"`
	MaxDiscount float64 `json:"max_discount"`
	IsActive    bool    `json:"is_active"`
}

// CheckoutTotals is the full breakdown of the checkout computation. Values
// are unrounded; rounding to whole currency is a presentation concern.
type CheckoutTotals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	AfterDiscount float64 `json:"after_discount"`
	ServiceCharge float64 `json:"service_charge"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

// RecalculateCustomMealSummary rederives a custom product's nutrition,
// price, and weight from its ingredient list. Ingredient nutrition is per
// 100g; price is per gram. Each nutrient and the price are rounded to two
// decimal places after summation. Calling it twice on the same ingredient
// list yields the same result.
func RecalculateCustomMealSummary(p *Product) {
	var nv NutritionalValue
	var price, weight float64

	for i := range p.Ingredients {
		ing := &p.Ingredients[i]
		nv.Add(&ing.NutritionalValue, ing.WeightGrams/100)
		price += ing.PricePerGram * ing.WeightGrams
		weight += ing.WeightGrams
	}

	nv.Round2()
	p.NutritionalValue = nv
	p.Price = round2(price)
	p.Weight = weight
}

// CalculateNutritionSummary folds a list of line items into one aggregate.
// Official and custom lines are treated identically: every nutrient scales
// with the line amount, and TotalPrice is the raw subtotal before discount,
// service charge, or tax.
func CalculateNutritionSummary(items []LineItem) NutritionSummary {
	var sum NutritionSummary
	for i := range items {
		item := &items[i]
		amount := float64(item.Amount)
		sum.NutritionalValue.Add(&item.Product.NutritionalValue, amount)
		sum.TotalPrice += item.Product.Price * amount
	}
	return sum
}

// ComputeCheckoutTotal applies the charging pipeline in its fixed order:
// discount first (capped by MaxDiscount when one is set), then the service
// charge on the discounted subtotal, then tax on the discounted subtotal
// plus the service charge. Reordering any step changes the charged amount.
func ComputeCheckoutTotal(subtotal float64, promo *Promo, serviceRate, taxRate float64) CheckoutTotals {
	var discount float64
	if promo != nil && promo.IsActive {
		discount = subtotal * promo.Discount
		if promo.MaxDiscount > 0 && discount > promo.MaxDiscount {
			discount = promo.MaxDiscount
		}
	}

	afterDiscount := subtotal - discount
	serviceCharge := afterDiscount * serviceRate
	tax := (afterDiscount + serviceCharge) * taxRate

	return CheckoutTotals{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		ServiceCharge: serviceCharge,
		Tax:           tax,
		Total:         afterDiscount + serviceCharge + tax,
	}
}
