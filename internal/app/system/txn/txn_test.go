package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("agent has assigned leads"), false},
		{"standalone server", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"legacy code", mongo.CommandError{Code: 51, Message: "illegal"}, true},
		{"op not allowed in txn", mongo.CommandError{Code: 263, Message: "Cannot create namespace in multi-document transaction"}, true},
		{"write conflict", mongo.CommandError{Code: 112, Message: "WriteConflict"}, false},
		{"wrapped command error", fmt.Errorf("delete agent: %w", mongo.CommandError{Code: 20}), true},
		{"two keywords", errors.New("Transaction numbers require a Replica Set"), true},
		{"one keyword", errors.New("transaction aborted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Run must work on both replica sets and standalone test servers.
func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_leads")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"full_name": "Ravi"}); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, bson.M{"full_name": "Meera"})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 2 {
		t.Errorf("documents = %d, want 2", n)
	}
}

func TestRun_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	errGuard := errors.New("agent still owns leads")
	calls := 0
	err := Run(ctx, db, zap.NewNop(), func(context.Context) error {
		calls++
		return errGuard
	})
	if !errors.Is(err, errGuard) {
		t.Fatalf("Run error = %v, want %v", err, errGuard)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}
