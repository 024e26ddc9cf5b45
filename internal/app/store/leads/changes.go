// internal/app/store/leads/changes.go
package leadstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Change is one planned ledger mutation of a single lead. The expected
// owner and status come from the snapshot the plan was built on; the write
// only applies while the lead still matches them, so history entries
// always record the true pre-mutation values.
//
// A status change sets status and appends a status_history entry. An
// owner change sets assigned_to and appends an assignment_history entry
// whose from_user is ExpectOwner. Both happen in one document update.
type Change struct {
	LeadID       primitive.ObjectID
	ExpectOwner  primitive.ObjectID // checked only when NewOwner is set
	ExpectStatus string             // checked only when NewStatus is set
	NewOwner     *primitive.ObjectID
	Action       string // assignment action for NewOwner
	NewStatus    string
}

// Empty reports whether c changes nothing.
func (c Change) Empty() bool { return c.NewOwner == nil && c.NewStatus == "" }

func (c Change) model(by models.UpdatedBy, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": c.LeadID}
	set := bson.M{"updated_at": now, "last_updated_by": by}
	push := bson.M{}

	if c.NewOwner != nil {
		filter["assigned_to"] = c.ExpectOwner
		from := c.ExpectOwner
		set["assigned_to"] = *c.NewOwner
		push["assignment_history"] = models.AssignmentEntry{
			Action:    c.Action,
			FromUser:  &from,
			ToUser:    *c.NewOwner,
			ChangedBy: by.UserID,
			ChangedAt: now,
		}
	}
	if c.NewStatus != "" {
		filter["status"] = c.ExpectStatus
		set["status"] = c.NewStatus
		push["status_history"] = models.StatusEntry{
			Status:    c.NewStatus,
			ChangedBy: by.UserID,
			ChangedAt: now,
		}
	}

	update := bson.M{"$set": set}
	if len(push) > 0 {
		update["$push"] = push
	}
	return filter, update
}

// Apply performs one Change. It returns ErrNotFound if the lead is gone and
// ErrConflict if it no longer matches the expected owner or status.
func (s *Store) Apply(ctx context.Context, c Change, by models.UpdatedBy, now time.Time) error {
	if c.Empty() {
		return nil
	}
	filter, update := c.model(by, now)
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return s.missingOrConflict(ctx, c.LeadID)
}

// BulkResult summarizes a multi-document write.
type BulkResult struct {
	Matched  int64
	Modified int64
	Errors   []string
}

// ApplyMany performs changes as one unordered BulkWrite. Failures of
// individual updates are collected in the result and do not stop the rest.
// Leads that no longer match their snapshot are silently skipped.
func (s *Store) ApplyMany(ctx context.Context, changes []Change, by models.UpdatedBy, now time.Time) (BulkResult, error) {
	wm := make([]mongo.WriteModel, 0, len(changes))
	for _, c := range changes {
		if c.Empty() {
			continue
		}
		filter, update := c.model(by, now)
		wm = append(wm, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update))
	}
	if len(wm) == 0 {
		return BulkResult{}, nil
	}

	res, err := s.c.BulkWrite(ctx, wm, options.BulkWrite().SetOrdered(false))
	var out BulkResult
	if res != nil {
		out.Matched = res.MatchedCount
		out.Modified = res.ModifiedCount
	}
	if err == nil {
		return out, nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
		for _, we := range bulkErr.WriteErrors {
			id := ""
			if we.Index >= 0 && we.Index < len(changes) {
				id = changes[we.Index].LeadID.Hex()
			}
			out.Errors = append(out.Errors, fmt.Sprintf("lead %s: %s", id, we.Message))
		}
		return out, nil
	}
	return out, err
}

// SetStatusMany moves every listed lead whose status differs from status
// to status, appending one history entry per changed lead, in a single
// UpdateMany.
func (s *Store) SetStatusMany(ctx context.Context, ids []primitive.ObjectID, status string, by models.UpdatedBy, now time.Time) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "status": bson.M{"$ne": status}}
	update := bson.M{
		"$set": bson.M{"status": status, "updated_at": now, "last_updated_by": by},
		"$push": bson.M{"status_history": models.StatusEntry{
			Status:    status,
			ChangedBy: by.UserID,
			ChangedAt: now,
		}},
	}
	res, err := s.c.UpdateMany(ctx, filter, update)
	if err != nil {
		return BulkResult{}, err
	}
	return BulkResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// UpdateFields sets descriptive fields without touching status or owner.
func (s *Store) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M, by models.UpdatedBy, now time.Time) error {
	set := bson.M{"updated_at": now, "last_updated_by": by}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
