package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/freshbowl/cart/internal/event"
)

// PromoSubscriber listens for back-office promo changes and drops the
// affected cache entries so stale discounts never reach a checkout.
type PromoSubscriber struct {
	subscriber events.Subscriber
	cache      *PromoCache
	logger     apt.Logger
}

func NewPromoSubscriber(sub events.Subscriber, cache *PromoCache, logger apt.Logger) *PromoSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &PromoSubscriber{
		subscriber: sub,
		cache:      cache,
		logger:     logger,
	}
}

func (s *PromoSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting promo subscriber", "topic", event.PromosTopic)
	if s.subscriber == nil {
		return fmt.Errorf("promo subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.PromosTopic, s.handleEvent)
}

func (s *PromoSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var metadata event.EventMetadata
	if err := json.Unmarshal(msg, &metadata); err != nil {
		s.logger.Info("invalid promo event", "error", err)
		return nil
	}

	if metadata.EventType != event.EventPromoChanged {
		s.logger.Debug("unknown promo event type", "event_type", metadata.EventType)
		return nil
	}

	var evt event.PromoChangedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid promo changed event", "error", err)
		return nil
	}
	if evt.PromoCode == "" {
		s.logger.Debug("promo changed event missing promo_code")
		return nil
	}

	s.cache.Invalidate(evt.PromoCode)
	s.logger.Info("invalidated cached promo", "promo_code", evt.PromoCode)
	return nil
}
