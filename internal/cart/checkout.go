package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/freshbowl/cart/internal/event"
)

// ErrCheckoutInFlight rejects a second submission for a cart whose first
// submission has not come back yet. Double-submit protection is a contract
// of this service, not a courtesy of the UI.
var ErrCheckoutInFlight = errors.New("checkout already in progress for this cart")

// CheckoutRequest is the customer's side of a checkout: the payment choice,
// an optional promo code, and optionally the prices the customer was shown,
// which are cross-checked against the recomputed ones.
type CheckoutRequest struct {
	PaymentType string  `json:"payment_type"`
	PromoCode   string  `json:"promo_code,omitempty"`
	BasePrice   float64 `json:"base_price,omitempty"`
	FinalPrice  float64 `json:"final_price,omitempty"`
}

// CheckoutPayload is the order submission sent to the order service.
type CheckoutPayload struct {
	BasePrice        float64            `json:"base_price"`
	FinalPrice       float64            `json:"final_price"`
	PaymentType      string             `json:"payment_type"`
	PromoCode        string             `json:"promo_code,omitempty"`
	NutritionalValue NutritionalValue   `json:"nutritional_value"`
	OfficialMeals    []OfficialMealLine `json:"official_meals"`
	CustomMeals      []CustomMealLine   `json:"custom_meals"`
}

type OfficialMealLine struct {
	ID       int64   `json:"id"`
	Calories float64 `json:"calories"`
	Amount   int     `json:"amount"`
	Price    float64 `json:"price"`
	Weight   float64 `json:"weight"`
}

type CustomMealLine struct {
	Ingredients []IngredientRef `json:"ingredients"`
	Amount      int             `json:"amount"`
	Price       float64         `json:"price"`
	Weight      float64         `json:"weight"`
}

type IngredientRef struct {
	ID     int64   `json:"id"`
	Weight float64 `json:"weight"`
}

// CheckoutResult is what a successful checkout hands back to the view.
type CheckoutResult struct {
	OrderID string         `json:"order_id"`
	Totals  CheckoutTotals `json:"totals"`
}

// OrderSubmitter delivers a checkout payload to the order service and
// returns the accepted order's identifier.
type OrderSubmitter interface {
	Submit(ctx context.Context, payload CheckoutPayload) (string, error)
}

// ServiceOrderSubmitter submits orders over the order service's REST API.
type ServiceOrderSubmitter struct {
	client *apt.ServiceClient
}

func NewServiceOrderSubmitter(client *apt.ServiceClient) *ServiceOrderSubmitter {
	return &ServiceOrderSubmitter{client: client}
}

func (s *ServiceOrderSubmitter) Submit(ctx context.Context, payload CheckoutPayload) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("order service client not available")
	}
	resp, err := s.client.Request(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return "", fmt.Errorf("cannot submit order: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := rehydrate(resp.Data, &created); err != nil {
		return "", fmt.Errorf("cannot decode order response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("order service returned no order id")
	}
	return created.ID, nil
}

// CheckoutService turns a cart into an order: validate, price, submit,
// clear, publish. All-or-nothing from the cart's point of view — the cart
// is only cleared after the order service has accepted the order, so a
// failed submission is retried by simply checking out again.
type CheckoutService struct {
	orders      OrderSubmitter
	promos      *PromoCache
	publisher   events.Publisher
	logger      apt.Logger
	serviceRate float64
	taxRate     float64

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCheckoutService(orders OrderSubmitter, promos *PromoCache, publisher events.Publisher, serviceRate, taxRate float64, logger apt.Logger) *CheckoutService {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CheckoutService{
		orders:      orders,
		promos:      promos,
		publisher:   publisher,
		logger:      logger,
		serviceRate: serviceRate,
		taxRate:     taxRate,
		inFlight:    make(map[string]struct{}),
	}
}

func (s *CheckoutService) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return ErrCheckoutInFlight
	}
	s.inFlight[key] = struct{}{}
	return nil
}

func (s *CheckoutService) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// Totals prices a subtotal with the service's configured rates and no
// promo, for display before checkout.
func (s *CheckoutService) Totals(subtotal float64) CheckoutTotals {
	return ComputeCheckoutTotal(subtotal, nil, s.serviceRate, s.taxRate)
}

// Checkout runs the full flow for the given cart. Validation failures come
// back in the second return value; transport and persistence failures in
// the third.
func (s *CheckoutService) Checkout(ctx context.Context, store *CartStore, req CheckoutRequest) (*CheckoutResult, []ValidationError, error) {
	if err := s.begin(store.Key()); err != nil {
		return nil, nil, err
	}
	defer s.end(store.Key())

	official, custom := store.Items()

	if errs := ValidateCheckout(req.PaymentType, official, custom); len(errs) > 0 {
		return nil, errs, nil
	}

	summary := CalculateNutritionSummary(append(official, custom...))
	if errs := ValidateNutritionSummary(&summary.NutritionalValue); len(errs) > 0 {
		return nil, errs, nil
	}

	subtotal := summary.TotalPrice
	if req.BasePrice > 0 && !PriceWithinTolerance(subtotal, req.BasePrice) {
		return nil, []ValidationError{{
			Field:   "base_price",
			Message: fmt.Sprintf("displayed price %.2f does not match computed price %.2f", req.BasePrice, subtotal),
		}}, nil
	}

	var promo *Promo
	if req.PromoCode != "" {
		found, err := s.promos.Ensure(ctx, req.PromoCode)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot verify promo code: %w", err)
		}
		if !found.IsActive {
			return nil, []ValidationError{{
				Field:   "promo_code",
				Message: "the promo code entered is not valid",
			}}, nil
		}
		promo = &found
	}

	totals := ComputeCheckoutTotal(subtotal, promo, s.serviceRate, s.taxRate)
	if req.FinalPrice > 0 && !PriceWithinTolerance(totals.Total, req.FinalPrice) {
		return nil, []ValidationError{{
			Field:   "final_price",
			Message: fmt.Sprintf("displayed total %.2f does not match computed total %.2f", req.FinalPrice, totals.Total),
		}}, nil
	}

	payload := buildCheckoutPayload(req, promo, totals, summary, official, custom)

	orderID, err := s.orders.Submit(ctx, payload)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Clear(ctx); err != nil {
		// The order exists; losing the clear would charge the customer
		// twice on a retry. Surface it loudly.
		s.logger.Error("order accepted but cart not cleared", "cart_key", store.Key(), "order_id", orderID, "error", err)
		return nil, nil, err
	}

	s.publishCheckedOut(ctx, store.Key(), orderID, payload)

	s.logger.Info("checkout complete", "cart_key", store.Key(), "order_id", orderID, "final_price", totals.Total)
	return &CheckoutResult{OrderID: orderID, Totals: totals}, nil, nil
}

func buildCheckoutPayload(req CheckoutRequest, promo *Promo, totals CheckoutTotals, summary NutritionSummary, official, custom []LineItem) CheckoutPayload {
	payload := CheckoutPayload{
		BasePrice:        totals.Subtotal,
		FinalPrice:       totals.Total,
		PaymentType:      req.PaymentType,
		NutritionalValue: summary.NutritionalValue,
		OfficialMeals:    make([]OfficialMealLine, 0, len(official)),
		CustomMeals:      make([]CustomMealLine, 0, len(custom)),
	}
	if promo != nil {
		payload.PromoCode = promo.Code
	}

	for i := range official {
		item := &official[i]
		payload.OfficialMeals = append(payload.OfficialMeals, OfficialMealLine{
			ID:       item.Product.ID,
			Calories: item.Product.NutritionalValue.Calories,
			Amount:   item.Amount,
			Price:    item.Product.Price,
			Weight:   item.Product.Weight,
		})
	}

	for i := range custom {
		item := &custom[i]
		line := CustomMealLine{
			Ingredients: make([]IngredientRef, 0, len(item.Product.Ingredients)),
			Amount:      item.Amount,
			Price:       item.Product.Price,
			Weight:      item.Product.Weight,
		}
		for j := range item.Product.Ingredients {
			ing := &item.Product.Ingredients[j]
			line.Ingredients = append(line.Ingredients, IngredientRef{
				ID:     ing.ID,
				Weight: ing.WeightGrams,
			})
		}
		payload.CustomMeals = append(payload.CustomMeals, line)
	}

	return payload
}

func (s *CheckoutService) publishCheckedOut(ctx context.Context, cartKey, orderID string, payload CheckoutPayload) {
	if s.publisher == nil {
		return
	}

	evt := event.CartCheckedOutEvent{
		EventType:   event.EventCartCheckedOut,
		OccurredAt:  time.Now().UTC(),
		CartKey:     cartKey,
		OrderID:     orderID,
		BasePrice:   payload.BasePrice,
		FinalPrice:  payload.FinalPrice,
		PaymentType: payload.PaymentType,
		PromoCode:   payload.PromoCode,
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal cart checked out event", "error", err, "cart_key", cartKey)
		return
	}
	if err := s.publisher.Publish(ctx, event.CartTopic, msg); err != nil {
		s.logger.Error("cannot publish cart checked out event", "error", err, "cart_key", cartKey)
	} else {
		s.logger.Info("published cart checked out event", "cart_key", cartKey, "order_id", orderID)
	}
}
