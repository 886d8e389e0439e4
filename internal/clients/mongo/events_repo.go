package mongo

import (
	"context"
	"time"

	"alumni-portal/internal/services/admin"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EventsRepo implements admin.EventsRepo for MongoDB
type EventsRepo struct {
	collection *mongo.Collection
}

// NewEventsRepo creates a new events repository
func NewEventsRepo(ctx context.Context, db *mongo.Database) (*EventsRepo, error) {
	collection := db.Collection("events")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		return nil, err
	}
	return &EventsRepo{collection: collection}, nil
}

// Count returns the number of events.
func (r *EventsRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return r.collection.CountDocuments(ctx, bson.M{})
}

// ListUpcoming returns events dated at or after from, soonest first.
func (r *EventsRepo) ListUpcoming(ctx context.Context, from time.Time, limit int64) ([]*admin.Event, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.collection.Find(ctx, bson.M{"date": bson.M{"$gte": from}}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[admin.Event](ctx, cur)
}

// Insert adds an event. Used by seeding and tests.
func (r *EventsRepo) Insert(ctx context.Context, e *admin.Event) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if e.ID.IsZero() {
		e.ID = bson.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, e)
	return err
}
