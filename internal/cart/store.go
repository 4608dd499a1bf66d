package cart

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
)

// CartStore owns the cart state for one cart key. It is an explicit object
// with an explicit Load; every mutating operation writes the whole state
// back through the repository before returning, so a crash between
// operations never loses an acknowledged mutation. Persistence failures
// propagate to the caller; there is no retry tier.
//
// Concurrent writers on the same key (two devices on one session) are not
// coordinated: last writer wins.
type CartStore struct {
	key    string
	repo   CartStateRepo
	state  *CartState
	logger apt.Logger
}

func NewCartStore(repo CartStateRepo, key string, logger apt.Logger) *CartStore {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CartStore{
		key:    key,
		repo:   repo,
		state:  NewCartState(),
		logger: logger,
	}
}

func (s *CartStore) Key() string {
	return s.key
}

// Load replaces the in-memory state with the persisted blob for this key,
// defaulting to an empty cart when the key has never been written.
func (s *CartStore) Load(ctx context.Context) error {
	state, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("cannot load cart %s: %w", s.key, err)
	}
	if state == nil {
		state = NewCartState()
	}
	state.Normalize()
	s.state = state
	return nil
}

func (s *CartStore) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.key, s.state); err != nil {
		return fmt.Errorf("cannot save cart %s: %w", s.key, err)
	}
	return nil
}

// AddItem merges product into the official or custom collection. A line
// with the same product ID and calories value absorbs the amount; otherwise
// a deep copy of the snapshot is appended, so the caller's product stays
// the caller's. Amount is taken at face value; callers validate sign.
func (s *CartStore) AddItem(ctx context.Context, product *Product, amount int, isCustom bool) error {
	target := &s.state.OfficialMeals
	if isCustom {
		target = &s.state.CustomMeals
	}

	for i := range *target {
		if (*target)[i].SameLine(product) {
			(*target)[i].Amount += amount
			return s.save(ctx)
		}
	}

	*target = append(*target, LineItem{Product: *product.Clone(), Amount: amount})
	return s.save(ctx)
}

// RemoveItem deletes every line matching (productID, calories) from the
// chosen collection. Removing a line that does not exist is a no-op, not an
// error.
func (s *CartStore) RemoveItem(ctx context.Context, productID int64, calories float64, isCustom bool) error {
	target := &s.state.OfficialMeals
	if isCustom {
		target = &s.state.CustomMeals
	}

	kept := (*target)[:0]
	for _, item := range *target {
		if !item.Matches(productID, calories) {
			kept = append(kept, item)
		}
	}
	*target = kept
	return s.save(ctx)
}

// Items returns deep copies of both collections. Mutating the returned
// lines, including their ingredient lists, never touches store state;
// callers that want changes must go through the store.
func (s *CartStore) Items() (official, custom []LineItem) {
	official = make([]LineItem, len(s.state.OfficialMeals))
	for i := range s.state.OfficialMeals {
		official[i] = LineItem{
			Product: *s.state.OfficialMeals[i].Product.Clone(),
			Amount:  s.state.OfficialMeals[i].Amount,
		}
	}
	custom = make([]LineItem, len(s.state.CustomMeals))
	for i := range s.state.CustomMeals {
		custom[i] = LineItem{
			Product: *s.state.CustomMeals[i].Product.Clone(),
			Amount:  s.state.CustomMeals[i].Amount,
		}
	}
	return official, custom
}

// AllItems returns both collections flattened into one list, the shape the
// nutrition aggregation takes.
func (s *CartStore) AllItems() []LineItem {
	official, custom := s.Items()
	return append(official, custom...)
}

// Clear empties both collections. The draft survives: abandoning a full
// cart should not discard a half-built custom meal.
func (s *CartStore) Clear(ctx context.Context) error {
	s.state.OfficialMeals = []LineItem{}
	s.state.CustomMeals = []LineItem{}
	return s.save(ctx)
}

// Subtotal is the raw sum of price times amount over both collections,
// before discount, service charge, or tax. The split keeps "subtotal" and
// "grand total" independently displayable.
func (s *CartStore) Subtotal() float64 {
	var total float64
	for i := range s.state.OfficialMeals {
		total += s.state.OfficialMeals[i].LineTotal()
	}
	for i := range s.state.CustomMeals {
		total += s.state.CustomMeals[i].LineTotal()
	}
	return total
}

func (s *CartStore) IsEmpty() bool {
	return s.state.IsEmpty()
}

// State exposes the live state for serialization. Callers must not mutate
// it directly.
func (s *CartStore) State() *CartState {
	return s.state
}
