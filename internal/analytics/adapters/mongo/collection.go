package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the subset of *mongo.Collection the bucket store uses.
type Collection interface {
	FindOneAndUpdate(ctx context.Context, filter, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (Cursor, error)
	CreateIndexes(ctx context.Context, models []mongo.IndexModel) error
}

type SingleResult interface {
	Decode(v any) error
}

type Cursor interface {
	All(ctx context.Context, results any) error
	Close(ctx context.Context) error
}

type mongoCollection struct {
	col *mongo.Collection
}

// NewCollection wraps a driver collection.
func NewCollection(col *mongo.Collection) Collection {
	return &mongoCollection{col: col}
}

func (c *mongoCollection) FindOneAndUpdate(ctx context.Context, filter, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) SingleResult {
	return c.col.FindOneAndUpdate(ctx, filter, update, opts...)
}

func (c *mongoCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (Cursor, error) {
	cur, err := c.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (c *mongoCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	_, err := c.col.Indexes().CreateMany(ctx, models)
	return err
}
