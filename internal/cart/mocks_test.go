package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt/events"
)

// MockCartStateRepo is an in-memory implementation of CartStateRepo for testing
type MockCartStateRepo struct {
	mu     sync.RWMutex
	states map[string]*CartState
	saves  int

	LoadFunc   func(ctx context.Context, key string) (*CartState, error)
	SaveFunc   func(ctx context.Context, key string, state *CartState) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCartStateRepo() *MockCartStateRepo {
	return &MockCartStateRepo{
		states: make(map[string]*CartState),
	}
}

func (m *MockCartStateRepo) Load(ctx context.Context, key string) (*CartState, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	return cloneState(state), nil
}

func (m *MockCartStateRepo) Save(ctx context.Context, key string, state *CartState) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = cloneState(state)
	m.saves++
	return nil
}

func (m *MockCartStateRepo) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

func (m *MockCartStateRepo) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MockCartStateRepo) Stored(key string) *CartState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[key]
}

// cloneState deep-copies a state through its JSON form, the same shape the
// real repository round-trips through.
func cloneState(state *CartState) *CartState {
	if state == nil {
		return nil
	}
	clone := NewCartState()
	clone.OfficialMeals = make([]LineItem, len(state.OfficialMeals))
	for i := range state.OfficialMeals {
		clone.OfficialMeals[i] = LineItem{
			Product: *state.OfficialMeals[i].Product.Clone(),
			Amount:  state.OfficialMeals[i].Amount,
		}
	}
	clone.CustomMeals = make([]LineItem, len(state.CustomMeals))
	for i := range state.CustomMeals {
		clone.CustomMeals[i] = LineItem{
			Product: *state.CustomMeals[i].Product.Clone(),
			Amount:  state.CustomMeals[i].Amount,
		}
	}
	if state.CustomMealDraft != nil {
		clone.CustomMealDraft = &CustomMealDraft{
			Product: *state.CustomMealDraft.Product.Clone(),
			Amount:  state.CustomMealDraft.Amount,
		}
	}
	return clone
}

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	published []publishedMsg

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

type publishedMsg struct {
	topic string
	msg   []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{topic: topic, msg: msg})
	return nil
}

func (m *MockPublisher) Published() []publishedMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMsg(nil), m.published...)
}

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	mu       sync.Mutex
	handlers map[string]events.HandlerFunc

	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{
		handlers: make(map[string]events.HandlerFunc),
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

// Deliver feeds a message to the handler registered for topic.
func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	handler := m.handlers[topic]
	m.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no handler subscribed to %s", topic)
	}
	return handler(ctx, msg)
}

// MockOrderSubmitter is a mock implementation of OrderSubmitter for testing
type MockOrderSubmitter struct {
	mu       sync.Mutex
	payloads []CheckoutPayload

	SubmitFunc func(ctx context.Context, payload CheckoutPayload) (string, error)
}

func NewMockOrderSubmitter() *MockOrderSubmitter {
	return &MockOrderSubmitter{}
}

func (m *MockOrderSubmitter) Submit(ctx context.Context, payload CheckoutPayload) (string, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return fmt.Sprintf("order-%d", len(m.payloads)), nil
}

func (m *MockOrderSubmitter) Submitted() []CheckoutPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CheckoutPayload(nil), m.payloads...)
}

// MockCatalog is a mock implementation of CatalogClient for testing
type MockCatalog struct {
	products    map[int64]*Product
	ingredients map[int64]*IngredientLine

	ProductFunc    func(ctx context.Context, id int64) (*Product, error)
	IngredientFunc func(ctx context.Context, id int64) (*IngredientLine, error)
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products:    make(map[int64]*Product),
		ingredients: make(map[int64]*IngredientLine),
	}
}

func (m *MockCatalog) AddProduct(p *Product) {
	m.products[p.ID] = p
}

func (m *MockCatalog) AddIngredient(ing *IngredientLine) {
	m.ingredients[ing.ID] = ing
}

func (m *MockCatalog) Product(ctx context.Context, id int64) (*Product, error) {
	if m.ProductFunc != nil {
		return m.ProductFunc(ctx, id)
	}
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d not found", id)
	}
	return p.Clone(), nil
}

func (m *MockCatalog) Ingredient(ctx context.Context, id int64) (*IngredientLine, error) {
	if m.IngredientFunc != nil {
		return m.IngredientFunc(ctx, id)
	}
	ing, ok := m.ingredients[id]
	if !ok {
		return nil, fmt.Errorf("ingredient %d not found", id)
	}
	clone := *ing
	return &clone, nil
}
