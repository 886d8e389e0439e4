package mongo

import (
	"context"
	"errors"
	"strings"

	"alumni-portal/internal/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Server error codes and message that mean the deployment cannot run
// multi-document transactions.
const (
	codeIllegalOperation        = 20
	codeTxnNotSupported         = 263
	codeNoReplicationEnabled    = 76
	txnReplicaSetOnlyMessageKey = "transaction numbers are only allowed on a replica set member or mongos"
)

// withTxn runs fn inside a transaction when the deployment supports one and
// falls back to running it directly otherwise. Callers must write fn so that
// it is correct without a transaction too.
func withTxn(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	if client == nil || !IsReplicaSet() {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		logger.L().Warn("failed to start session, running without transaction", "error", err)
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && isTxnNotSupported(err) {
		logger.L().Warn("transactions not supported, running without transaction", "error", err)
		return fn(ctx)
	}
	return err
}

func isTxnNotSupported(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorCode(codeIllegalOperation) || se.HasErrorCode(codeTxnNotSupported) || se.HasErrorCode(codeNoReplicationEnabled) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), txnReplicaSetOnlyMessageKey)
}
