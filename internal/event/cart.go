package event

import "time"

const (
	CartTopic   = "carts.checkout"
	PromosTopic = "backoffice.promos"

	EventCartCheckedOut = "cart.checked_out"
	EventPromoChanged   = "promo.changed"
)

// CartCheckedOutEvent is published after an order has been accepted and the
// cart cleared. Downstream consumers (receipts, analytics) get the final
// numbers without re-deriving them.
type CartCheckedOutEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	CartKey     string    `json:"cart_key"`
	OrderID     string    `json:"order_id"`
	BasePrice   float64   `json:"base_price"`
	FinalPrice  float64   `json:"final_price"`
	PaymentType string    `json:"payment_type"`
	PromoCode   string    `json:"promo_code,omitempty"`
}

// PromoChangedEvent announces that the back office created, edited, or
// retired a promo; consumers drop their cached copy.
type PromoChangedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	PromoCode  string    `json:"promo_code"`
}

// EventMetadata is the minimal envelope parsed first to route an incoming
// message by type.
type EventMetadata struct {
	EventType string `json:"event_type"`
}
