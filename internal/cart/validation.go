package cart

import (
	"fmt"
	"math"
)

const (
	// MaxAmountPerLine caps how many of one line a single order may hold.
	MaxAmountPerLine = 10
	// MaxNutrientValue is the sanity ceiling for any aggregated nutrient.
	MaxNutrientValue = 100000
	// PriceTolerancePercent is the allowed divergence between a price the
	// customer saw and the price recomputed at checkout.
	PriceTolerancePercent = 0.5
)

var paymentTypes = map[string]bool{
	"cash": true,
	"card": true,
	"qr":   true,
}

// ValidationError is a field-level rejection surfaced to the customer
// before any network call is made.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateCheckout runs every boundary check for a checkout attempt:
// payment type, non-empty cart, per-line amounts, and ingredient weight
// bounds on custom lines.
func ValidateCheckout(paymentType string, official, custom []LineItem) []ValidationError {
	var errs []ValidationError

	if !paymentTypes[paymentType] {
		errs = append(errs, ValidationError{
			Field:   "payment_type",
			Message: "payment type must be one of cash, card, qr",
		})
	}

	if len(official) == 0 && len(custom) == 0 {
		errs = append(errs, ValidationError{
			Field:   "cart",
			Message: "the cart is empty",
		})
	}

	for i := range official {
		errs = append(errs, validateAmount("official_meals", i, official[i].Amount)...)
	}

	for i := range custom {
		item := &custom[i]
		errs = append(errs, validateAmount("custom_meals", i, item.Amount)...)

		if len(item.Product.Ingredients) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("custom_meals[%d].ingredients", i),
				Message: "custom meal has no ingredients",
			})
			continue
		}

		for j := range item.Product.Ingredients {
			ing := &item.Product.Ingredients[j]
			field := fmt.Sprintf("custom_meals[%d].ingredients[%d]", i, j)
			if err := ValidateIngredientWeight(ing); err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error()})
			}
		}
	}

	return errs
}

func validateAmount(collection string, index, amount int) []ValidationError {
	if amount >= 1 && amount <= MaxAmountPerLine {
		return nil
	}
	return []ValidationError{{
		Field:   fmt.Sprintf("%s[%d].amount", collection, index),
		Message: fmt.Sprintf("amount must be between 1 and %d", MaxAmountPerLine),
	}}
}

// ValidateIngredientWeight checks the weight against the bounds carried in
// the snapshot. Snapshots without bounds (MaxOrder zero) only require a
// positive weight.
func ValidateIngredientWeight(ing *IngredientLine) error {
	if ing.WeightGrams <= 0 {
		return fmt.Errorf("ingredient %q: weight must be positive", ing.Name)
	}
	if ing.MaxOrder <= 0 {
		return nil
	}
	if ing.WeightGrams < ing.MinOrder || ing.WeightGrams > ing.MaxOrder {
		return fmt.Errorf("ingredient %q: weight %.1fg outside allowed %.0f-%.0fg",
			ing.Name, ing.WeightGrams, ing.MinOrder, ing.MaxOrder)
	}
	return nil
}

// ValidateNutritionSummary sanity-checks an aggregate before it is sent in
// a checkout payload: every nutrient finite, non-negative, and below the
// ceiling.
func ValidateNutritionSummary(nv *NutritionalValue) []ValidationError {
	var errs []ValidationError
	names := nutrientNames()
	for i, f := range nv.fields() {
		v := *f
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, ValidationError{
				Field:   names[i],
				Message: "value is not a number",
			})
		case v < 0:
			errs = append(errs, ValidationError{
				Field:   names[i],
				Message: "value must be non-negative",
			})
		case v > MaxNutrientValue:
			errs = append(errs, ValidationError{
				Field:   names[i],
				Message: fmt.Sprintf("value exceeds maximum of %d", MaxNutrientValue),
			})
		}
	}
	return errs
}

func nutrientNames() []string {
	return []string{
		"calories", "proteins", "fats", "saturated_fats",
		"carbohydrates", "sugars", "fiber",
		"vitamin_a", "vitamin_c", "vitamin_d", "vitamin_e", "vitamin_k",
		"thiamin", "riboflavin", "niacin", "vitamin_b6", "folate",
		"vitamin_b12",
		"calcium", "iron", "magnesium", "phosphorus", "potassium",
		"sodium", "zinc", "copper", "manganese", "selenium",
	}
}

// PriceWithinTolerance reports whether two prices agree within the allowed
// percentage, boundary included. Used to accept the customer-displayed
// price when it is close enough to the recomputed one.
func PriceWithinTolerance(p1, p2 float64) bool {
	if p1 == p2 {
		return true
	}
	if p1 == 0 {
		return false
	}
	difference := math.Abs(p1 - p2)
	return difference/math.Abs(p1)*100 <= PriceTolerancePercent
}
