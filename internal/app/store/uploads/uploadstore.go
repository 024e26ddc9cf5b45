// internal/app/store/uploads/uploadstore.go
package uploadstore

import (
	"context"
	"time"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding upload records.
const Collection = "uploads"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create records an ingestion run.
func (s *Store) Create(ctx context.Context, u models.Upload) (models.Upload, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.AgentIDs == nil {
		u.AgentIDs = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.Upload{}, err
	}
	return u, nil
}

// Recent returns the newest uploads, at most limit (default 20).
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.Upload, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Upload{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
