package cart

// CustomMealDraft is the single in-progress custom meal. Its product's
// nutrition and price are always derived from the ingredient list, never set
// by hand.
type CustomMealDraft struct {
	Product Product `json:"product" bson:"product"`
	Amount  int     `json:"amount" bson:"amount"`
}

func NewCustomMealDraft() *CustomMealDraft {
	return &CustomMealDraft{
		Product: *NewCustomProduct(),
		Amount:  1,
	}
}

// CartState is the root aggregate persisted as one blob per cart key:
// catalog-sourced lines, finalized custom lines, and the optional draft.
type CartState struct {
	OfficialMeals   []LineItem       `json:"official_meals" bson:"official_meals"`
	CustomMeals     []LineItem       `json:"custom_meals" bson:"custom_meals"`
	CustomMealDraft *CustomMealDraft `json:"custom_meal_draft" bson:"custom_meal_draft"`
}

func NewCartState() *CartState {
	return &CartState{
		OfficialMeals: []LineItem{},
		CustomMeals:   []LineItem{},
	}
}

// Normalize patches a blob written by an older schema: absent collections
// come back as nil and are replaced with empty slices so the rest of the
// code never branches on nil.
func (s *CartState) Normalize() {
	if s.OfficialMeals == nil {
		s.OfficialMeals = []LineItem{}
	}
	if s.CustomMeals == nil {
		s.CustomMeals = []LineItem{}
	}
	if s.CustomMealDraft != nil && s.CustomMealDraft.Product.Ingredients == nil {
		s.CustomMealDraft.Product.Ingredients = []IngredientLine{}
	}
}

// IsEmpty reports whether both collections are empty. The draft does not
// count: an unfinished custom meal is not yet in the cart.
func (s *CartState) IsEmpty() bool {
	return len(s.OfficialMeals) == 0 && len(s.CustomMeals) == 0
}
