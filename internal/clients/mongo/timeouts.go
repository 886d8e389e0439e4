package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OpTimeout bounds a single repository call.
const OpTimeout = 5 * time.Second

// fieldUnset matches documents where the field is absent.
var fieldUnset = bson.M{"$exists": false}

// WithRepoTimeout caps ctx at d. A parent that is already done, or that
// expires sooner than d, is returned as is with a no-op cancel.
func WithRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
