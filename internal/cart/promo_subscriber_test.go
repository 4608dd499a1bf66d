package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/freshbowl/cart/internal/event"
)

func TestPromoSubscriberInvalidatesOnChange(t *testing.T) {
	ctx := context.Background()

	cache := NewPromoCache(nil, nil)
	cache.Set(Promo{Code: "TENOFF", Discount: 0.1, IsActive: true})

	sub := NewMockSubscriber()
	promoSub := NewPromoSubscriber(sub, cache, nil)
	if err := promoSub.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	msg, _ := json.Marshal(event.PromoChangedEvent{
		EventType:  event.EventPromoChanged,
		OccurredAt: time.Now().UTC(),
		PromoCode:  "TENOFF",
	})
	if err := sub.Deliver(ctx, event.PromosTopic, msg); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if _, ok := cache.Get("TENOFF"); ok {
		t.Error("promo should be invalidated after a change event")
	}
}

func TestPromoSubscriberIgnoresOtherEvents(t *testing.T) {
	ctx := context.Background()

	cache := NewPromoCache(nil, nil)
	cache.Set(Promo{Code: "TENOFF", Discount: 0.1, IsActive: true})

	sub := NewMockSubscriber()
	promoSub := NewPromoSubscriber(sub, cache, nil)
	if err := promoSub.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		name string
		msg  []byte
	}{
		{
			name: "unknownEventType",
			msg:  []byte(`{"event_type":"promo.viewed","promo_code":"TENOFF"}`),
		},
		{
			name: "missingPromoCode",
			msg:  []byte(`{"event_type":"promo.changed"}`),
		},
		{
			name: "malformedJSON",
			msg:  []byte(`{not json`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sub.Deliver(ctx, event.PromosTopic, tt.msg); err != nil {
				t.Fatalf("Deliver() error = %v", err)
			}
			if _, ok := cache.Get("TENOFF"); !ok {
				t.Error("cache entry should survive unrelated or malformed events")
			}
		})
	}
}

func TestPromoSubscriberWithoutSubscriberFails(t *testing.T) {
	promoSub := NewPromoSubscriber(nil, NewPromoCache(nil, nil), nil)

	if err := promoSub.Start(context.Background()); err == nil {
		t.Error("Start() without a subscriber should fail")
	}
}
