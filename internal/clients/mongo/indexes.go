package mongo

import (
	"context"
	"fmt"

	"alumni-portal/internal/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ensureIndexes creates the given indexes, tolerating ones that already exist.
func ensureIndexes(parentCtx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	ctx, cancel := WithRepoTimeout(parentCtx, OpTimeout)
	defer cancel()

	for _, model := range models {
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", coll.Name())
				continue
			}
			logger.L().Error("failed to create index", "collection", coll.Name(), "error", err)
			return fmt.Errorf("failed to create %s collection index: %w", coll.Name(), err)
		}
	}
	return nil
}

func repoCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return WithRepoTimeout(parent, OpTimeout)
}

// decodeAll drains cur into out and closes it.
func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer func() {
		if cerr := cur.Close(ctx); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}()
	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
