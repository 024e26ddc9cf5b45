// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a multi-document transaction when the deployment
// supports one. On a standalone server (no replica set) fn runs directly,
// so the writes in fn should re-check in their filters whatever they depend on.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Debug("transactions unavailable; running without", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unavailable; running without", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes for "no transactions here":
// 20 IllegalOperation, 51 (legacy), 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

var keywords = []string{"transaction", "replica set", "session", "not supported", "illegal operation"}

// IsNotSupported reports whether err means the server cannot run
// transactions, as opposed to a transaction that failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			hits++
		}
	}
	return hits >= 2
}
