package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/freshbowl/cart/internal/cart"
)

// CartStateRepo stores each cart as a single document keyed by the cart
// key. The whole state is replaced on every save; there are no partial
// updates, which keeps the document equivalent to the JSON blob the web
// client reads back.
type CartStateRepo struct {
	collection *mongo.Collection
}

func NewCartStateRepo(db *mongo.Database) *CartStateRepo {
	return &CartStateRepo{
		collection: db.Collection("cart_states"),
	}
}

type cartStateDoc struct {
	Key       string          `bson:"_id"`
	State     *cart.CartState `bson:"state"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// EnsureIndexes creates the TTL index that expires abandoned carts. Mongo
// only honors the first expireAfterSeconds value for an index, so changing
// the TTL requires dropping the index by hand.
func (r *CartStateRepo) EnsureIndexes(ctx context.Context, maxAge time.Duration) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(maxAge.Seconds())),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("cannot ensure cart state indexes: %w", err)
	}
	return nil
}

func (r *CartStateRepo) Load(ctx context.Context, key string) (*cart.CartState, error) {
	var doc cartStateDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot load cart state: %w", err)
	}
	return doc.State, nil
}

func (r *CartStateRepo) Save(ctx context.Context, key string, state *cart.CartState) error {
	if state == nil {
		return fmt.Errorf("cart state is nil")
	}

	doc := cartStateDoc{
		Key:       key,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("cannot save cart state: %w", err)
	}

	return nil
}

func (r *CartStateRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("cannot delete cart state: %w", err)
	}
	return nil
}
