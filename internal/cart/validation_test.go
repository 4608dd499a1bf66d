package cart

import (
	"math"
	"strings"
	"testing"
)

func TestValidateCheckout(t *testing.T) {
	validCustom := func() LineItem {
		p := NewCustomProduct()
		p.Ingredients = []IngredientLine{{ID: 1, Name: "Chicken", WeightGrams: 100}}
		return LineItem{Product: *p, Amount: 1}
	}

	tests := []struct {
		name       string
		payment    string
		official   []LineItem
		custom     []LineItem
		wantFields []string
	}{
		{
			name:       "validCashCheckout",
			payment:    "cash",
			official:   []LineItem{{Product: *testDish(1, 500, 2500), Amount: 1}},
			wantFields: nil,
		},
		{
			name:       "validCardCheckout",
			payment:    "card",
			custom:     []LineItem{validCustom()},
			wantFields: nil,
		},
		{
			name:       "validQRCheckout",
			payment:    "qr",
			official:   []LineItem{{Product: *testDish(1, 500, 2500), Amount: 10}},
			wantFields: nil,
		},
		{
			name:       "unknownPaymentType",
			payment:    "crypto",
			official:   []LineItem{{Product: *testDish(1, 500, 2500), Amount: 1}},
			wantFields: []string{"payment_type"},
		},
		{
			name:       "emptyCart",
			payment:    "cash",
			wantFields: []string{"cart"},
		},
		{
			name:       "amountAboveCap",
			payment:    "cash",
			official:   []LineItem{{Product: *testDish(1, 500, 2500), Amount: 11}},
			wantFields: []string{"official_meals[0].amount"},
		},
		{
			name:       "amountBelowOne",
			payment:    "cash",
			official:   []LineItem{{Product: *testDish(1, 500, 2500), Amount: 0}},
			wantFields: []string{"official_meals[0].amount"},
		},
		{
			name:    "customMealWithoutIngredients",
			payment: "cash",
			custom: []LineItem{
				{Product: *NewCustomProduct(), Amount: 1},
			},
			wantFields: []string{"custom_meals[0].ingredients"},
		},
		{
			name:    "ingredientWeightOutOfBounds",
			payment: "cash",
			custom: func() []LineItem {
				p := NewCustomProduct()
				p.Ingredients = []IngredientLine{
					{ID: 1, Name: "Chicken", WeightGrams: 500, MinOrder: 20, MaxOrder: 300},
				}
				return []LineItem{{Product: *p, Amount: 1}}
			}(),
			wantFields: []string{"custom_meals[0].ingredients[0]"},
		},
		{
			name:    "multipleFailuresReported",
			payment: "crypto",
			official: []LineItem{
				{Product: *testDish(1, 500, 2500), Amount: 99},
			},
			wantFields: []string{"payment_type", "official_meals[0].amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCheckout(tt.payment, tt.official, tt.custom)

			if len(tt.wantFields) == 0 {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %+v", errs)
				}
				return
			}

			for _, field := range tt.wantFields {
				found := false
				for _, e := range errs {
					if e.Field == field {
						found = true
					}
				}
				if !found {
					t.Errorf("missing expected error on %q, got %+v", field, errs)
				}
			}
		})
	}
}

func TestValidateIngredientWeight(t *testing.T) {
	tests := []struct {
		name    string
		ing     IngredientLine
		wantErr bool
	}{
		{
			name:    "withinBounds",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 150, MinOrder: 20, MaxOrder: 300},
			wantErr: false,
		},
		{
			name:    "atLowerBound",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 20, MinOrder: 20, MaxOrder: 300},
			wantErr: false,
		},
		{
			name:    "atUpperBound",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 300, MinOrder: 20, MaxOrder: 300},
			wantErr: false,
		},
		{
			name:    "belowMin",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 10, MinOrder: 20, MaxOrder: 300},
			wantErr: true,
		},
		{
			name:    "aboveMax",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 301, MinOrder: 20, MaxOrder: 300},
			wantErr: true,
		},
		{
			name:    "zeroWeight",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 0},
			wantErr: true,
		},
		{
			name:    "noBoundsOnlyRequiresPositive",
			ing:     IngredientLine{Name: "Chicken", WeightGrams: 5000},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngredientWeight(&tt.ing)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIngredientWeight() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNutritionSummary(t *testing.T) {
	t.Run("cleanSummaryPasses", func(t *testing.T) {
		nv := NutritionalValue{Calories: 1500, Proteins: 80, Sodium: 2.5}
		if errs := ValidateNutritionSummary(&nv); len(errs) != 0 {
			t.Errorf("expected no errors, got %+v", errs)
		}
	})

	t.Run("rejectsNaN", func(t *testing.T) {
		nv := NutritionalValue{Calories: math.NaN()}
		errs := ValidateNutritionSummary(&nv)
		if len(errs) != 1 || errs[0].Field != "calories" {
			t.Errorf("expected calories NaN rejection, got %+v", errs)
		}
	})

	t.Run("rejectsInfinity", func(t *testing.T) {
		nv := NutritionalValue{Fats: math.Inf(1)}
		errs := ValidateNutritionSummary(&nv)
		if len(errs) != 1 || errs[0].Field != "fats" {
			t.Errorf("expected fats infinity rejection, got %+v", errs)
		}
	})

	t.Run("rejectsNegative", func(t *testing.T) {
		nv := NutritionalValue{Iron: -1}
		errs := ValidateNutritionSummary(&nv)
		if len(errs) != 1 || errs[0].Field != "iron" {
			t.Errorf("expected iron negative rejection, got %+v", errs)
		}
	})

	t.Run("rejectsAboveCeiling", func(t *testing.T) {
		nv := NutritionalValue{Calories: MaxNutrientValue + 1}
		errs := ValidateNutritionSummary(&nv)
		if len(errs) != 1 || !strings.Contains(errs[0].Message, "exceeds maximum") {
			t.Errorf("expected ceiling rejection, got %+v", errs)
		}
	})

	t.Run("ceilingIsInclusive", func(t *testing.T) {
		nv := NutritionalValue{Calories: MaxNutrientValue}
		if errs := ValidateNutritionSummary(&nv); len(errs) != 0 {
			t.Errorf("value at ceiling should pass, got %+v", errs)
		}
	})
}

func TestPriceWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		p1   float64
		p2   float64
		want bool
	}{
		{name: "identical", p1: 100, p2: 100, want: true},
		{name: "bothZero", p1: 0, p2: 0, want: true},
		{name: "zeroAgainstNonZero", p1: 0, p2: 1, want: false},
		{name: "justInside", p1: 1000, p2: 1004, want: true},
		{name: "exactBoundaryAccepted", p1: 1000, p2: 1005, want: true},
		{name: "justOutside", p1: 1000, p2: 1006, want: false},
		{name: "wellOutside", p1: 1000, p2: 1100, want: false},
		{name: "symmetricBelow", p1: 1000, p2: 996, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceWithinTolerance(tt.p1, tt.p2); got != tt.want {
				t.Errorf("PriceWithinTolerance(%v, %v) = %v, want %v", tt.p1, tt.p2, got, tt.want)
			}
		})
	}
}
