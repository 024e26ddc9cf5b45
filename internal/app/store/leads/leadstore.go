// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/dedup"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding leads.
const Collection = "leads"

var (
	// ErrNotFound is returned when no lead matches.
	ErrNotFound = errors.New("lead not found")
	// ErrConflict is returned when a lead changed between read and write.
	ErrConflict = errors.New("lead was modified concurrently; reload and retry")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// prepare fills the slices $push relies on; a null array cannot be pushed to.
func prepare(l *models.Lead) {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.StatusHistory == nil {
		l.StatusHistory = []models.StatusEntry{}
	}
	if l.AssignmentHistory == nil {
		l.AssignmentHistory = []models.AssignmentEntry{}
	}
	if l.Notes == nil {
		l.Notes = []models.Note{}
	}
}

// Create inserts a single lead.
func (s *Store) Create(ctx context.Context, l models.Lead) (models.Lead, error) {
	prepare(&l)
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

// GetByID loads a lead by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Lead, error) {
	var l models.Lead
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Keys returns the email/contact of every lead that has at least one, for
// seeding a dedup index.
func (s *Store) Keys(ctx context.Context) ([]dedup.Keys, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": bson.M{"$gt": ""}},
		bson.M{"contact": bson.M{"$gt": ""}},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 0, "email": 1, "contact": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []dedup.Keys{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// KeyTaken reports whether a lead other than exclude already uses email or
// contact. Empty keys are ignored.
func (s *Store) KeyTaken(ctx context.Context, email, contact string, exclude primitive.ObjectID) (bool, error) {
	or := bson.A{}
	if e := dedup.NormalizeEmail(email); e != "" {
		or = append(or, bson.M{"email": e})
	}
	if c := dedup.NormalizeContact(contact); c != "" {
		or = append(or, bson.M{"contact": c})
	}
	if len(or) == 0 {
		return false, nil
	}
	filter := bson.M{"$or": or}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Filter narrows List, Count, and stats queries.
type Filter struct {
	AssignedTo *primitive.ObjectID
	Status     string
	Search     string // case-insensitive prefix on name, exact on email/contact
}

func (f Filter) bson() bson.M {
	m := bson.M{}
	if f.AssignedTo != nil {
		m["assigned_to"] = *f.AssignedTo
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		or := bson.A{bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q), Options: "i"}}}
		if e := dedup.NormalizeEmail(q); strings.Contains(e, "@") {
			or = append(or, bson.M{"email": e})
		}
		if c := dedup.NormalizeContact(q); c != "" {
			or = append(or, bson.M{"contact": c})
		}
		m["$or"] = or
	}
	return m
}

// Page is an offset page request.
type Page struct {
	Skip  int64
	Limit int64
}

// List returns leads matching f, newest first, and the total match count.
func (s *Store) List(ctx context.Context, f Filter, p Page) ([]models.Lead, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(p.Skip)
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.Lead{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Each streams leads matching f in _id order, for exports.
func (s *Store) Each(ctx context.Context, f Filter, fn func(models.Lead) error) error {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var l models.Lead
		if err := cur.Decode(&l); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return cur.Err()
}

// CountAssigned returns how many leads are assigned to agentID.
func (s *Store) CountAssigned(ctx context.Context, agentID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"assigned_to": agentID})
}

// Delete hard-deletes one lead.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteMany hard-deletes every listed lead that still exists.
func (s *Store) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Snapshot is the pre-mutation state a bulk operation plans from.
type Snapshot struct {
	ID         primitive.ObjectID `bson:"_id"`
	AssignedTo primitive.ObjectID `bson:"assigned_to"`
	Status     string             `bson:"status"`
}

// Snapshots reads the current owner and status of the listed leads in one
// query, ordered by _id. Missing ids are omitted.
func (s *Store) Snapshots(ctx context.Context, ids []primitive.ObjectID) ([]Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "assigned_to": 1, "status": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Snapshot{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatedSince counts leads matching f changed after since by someone whose
// role is not excludeRole, and returns the newest such change time.
func (s *Store) UpdatedSince(ctx context.Context, f Filter, since time.Time, excludeRole string) (int64, time.Time, error) {
	filter := f.bson()
	filter["updated_at"] = bson.M{"$gt": since}
	if excludeRole != "" {
		filter["last_updated_by.role"] = bson.M{"$ne": excludeRole}
	}

	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil || n == 0 {
		return n, time.Time{}, err
	}

	var latest struct {
		UpdatedAt time.Time `bson:"updated_at"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"updated_at": 1})
	if err := s.c.FindOne(ctx, filter, opts).Decode(&latest); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return n, time.Time{}, err
	}
	return n, latest.UpdatedAt, nil
}
