// internal/app/store/leads/notes.go
package leadstore

import (
	"context"
	"time"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddNote appends a note to a lead.
func (s *Store) AddNote(ctx context.Context, id primitive.ObjectID, n models.Note, by models.UpdatedBy) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":  bson.M{"updated_at": n.CreatedAt, "last_updated_by": by},
		"$push": bson.M{"notes": n},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteNote removes a note by id. It returns false when the lead exists
// but has no such note.
func (s *Store) DeleteNote(ctx context.Context, id, noteID primitive.ObjectID, by models.UpdatedBy, now time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "notes._id": noteID},
		bson.M{
			"$set":  bson.M{"updated_at": now, "last_updated_by": by},
			"$pull": bson.M{"notes": bson.M{"_id": noteID}},
		})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}
