package cart

import "math"

// NutritionalValue holds the per-unit nutrition record of a product or the
// per-100g record of an ingredient. The schema is fixed: every known nutrient
// is a concrete field defaulting to zero, so aggregation never has to deal
// with missing keys.
type NutritionalValue struct {
	Calories      float64 `json:"calories" bson:"calories"`
	Proteins      float64 `json:"proteins" bson:"proteins"`
	Fats          float64 `json:"fats" bson:"fats"`
	SaturatedFats float64 `json:"saturated_fats" bson:"saturated_fats"`
	Carbohydrates float64 `json:"carbohydrates" bson:"carbohydrates"`
	Sugars        float64 `json:"sugars" bson:"sugars"`
	Fiber         float64 `json:"fiber" bson:"fiber"`

	VitaminA   float64 `json:"vitamin_a" bson:"vitamin_a"`
	VitaminC   float64 `json:"vitamin_c" bson:"vitamin_c"`
	VitaminD   float64 `json:"vitamin_d" bson:"vitamin_d"`
	VitaminE   float64 `json:"vitamin_e" bson:"vitamin_e"`
	VitaminK   float64 `json:"vitamin_k" bson:"vitamin_k"`
	Thiamin    float64 `json:"thiamin" bson:"thiamin"`
	Riboflavin float64 `json:"riboflavin" bson:"riboflavin"`
	Niacin     float64 `json:"niacin" bson:"niacin"`
	VitaminB6  float64 `json:"vitamin_b6" bson:"vitamin_b6"`
	Folate     float64 `json:"folate" bson:"folate"`
	VitaminB12 float64 `json:"vitamin_b12" bson:"vitamin_b12"`

	Calcium    float64 `json:"calcium" bson:"calcium"`
	Iron       float64 `json:"iron" bson:"iron"`
	Magnesium  float64 `json:"magnesium" bson:"magnesium"`
	Phosphorus float64 `json:"phosphorus" bson:"phosphorus"`
	Potassium  float64 `json:"potassium" bson:"potassium"`
	Sodium     float64 `json:"sodium" bson:"sodium"`
	Zinc       float64 `json:"zinc" bson:"zinc"`
	Copper     float64 `json:"copper" bson:"copper"`
	Manganese  float64 `json:"manganese" bson:"manganese"`
	Selenium   float64 `json:"selenium" bson:"selenium"`
}

func (n *NutritionalValue) fields() []*float64 {
	return []*float64{
		&n.Calories, &n.Proteins, &n.Fats, &n.SaturatedFats,
		&n.Carbohydrates, &n.Sugars, &n.Fiber,
		&n.VitaminA, &n.VitaminC, &n.VitaminD, &n.VitaminE, &n.VitaminK,
		&n.Thiamin, &n.Riboflavin, &n.Niacin, &n.VitaminB6, &n.Folate,
		&n.VitaminB12,
		&n.Calcium, &n.Iron, &n.Magnesium, &n.Phosphorus, &n.Potassium,
		&n.Sodium, &n.Zinc, &n.Copper, &n.Manganese, &n.Selenium,
	}
}

// Add accumulates other scaled by factor into n.
func (n *NutritionalValue) Add(other *NutritionalValue, factor float64) {
	dst := n.fields()
	src := other.fields()
	for i := range dst {
		*dst[i] += *src[i] * factor
	}
}

// Scale multiplies every nutrient by factor.
func (n *NutritionalValue) Scale(factor float64) {
	for _, f := range n.fields() {
		*f *= factor
	}
}

// Round2 rounds every nutrient to two decimal places. It is applied once,
// after summation; rounding per ingredient first accumulates error.
func (n *NutritionalValue) Round2() {
	for _, f := range n.fields() {
		*f = round2(*f)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
