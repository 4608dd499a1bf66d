package cart

// LineItem is one purchasable entry in the cart: a product snapshot plus a
// quantity. Two line items are the same line iff they share a product ID and
// a calories value; the calories value distinguishes portion variants of the
// same dish (a 400 kcal and an 800 kcal bowl are different lines).
type LineItem struct {
	Product Product `json:"product" bson:"product"`
	Amount  int     `json:"amount" bson:"amount"`
}

// Matches reports whether this line is identified by the given product ID
// and calories discriminator.
func (li *LineItem) Matches(productID int64, calories float64) bool {
	return li.Product.ID == productID && li.Product.NutritionalValue.Calories == calories
}

// SameLine reports whether product would merge into this line.
func (li *LineItem) SameLine(p *Product) bool {
	return li.Matches(p.ID, p.NutritionalValue.Calories)
}

// LineTotal is price times amount for this line.
func (li *LineItem) LineTotal() float64 {
	return li.Product.Price * float64(li.Amount)
}
