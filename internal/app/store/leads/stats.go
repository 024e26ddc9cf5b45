// internal/app/store/leads/stats.go
package leadstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CountByStatus groups leads matching f by status.
func (s *Store) CountByStatus(ctx context.Context, f Filter) (map[string]int64, error) {
	pipeline := bson.A{
		bson.M{"$match": f.bson()},
		bson.M{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// CountByAgent groups all leads by assigned agent.
func (s *Store) CountByAgent(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{"_id": "$assigned_to", "n": bson.M{"$sum": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]int64)
	for cur.Next(ctx) {
		var row struct {
			Agent primitive.ObjectID `bson:"_id"`
			N     int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Agent] = row.N
	}
	return out, cur.Err()
}
