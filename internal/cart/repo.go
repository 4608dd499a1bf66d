package cart

import "context"

// CartStateRepo persists one CartState blob per cart key. Load returns
// (nil, nil) when the key has never been written.
type CartStateRepo interface {
	Load(ctx context.Context, key string) (*CartState, error)
	Save(ctx context.Context, key string, state *CartState) error
	Delete(ctx context.Context, key string) error
}
