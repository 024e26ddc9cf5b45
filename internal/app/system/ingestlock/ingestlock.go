// internal/app/system/ingestlock/ingestlock.go
package ingestlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LeadIngestion names the lock held while a lead upload runs.
const LeadIngestion = "lead-ingestion"

// ErrHeld is returned when another owner holds an unexpired lock.
var ErrHeld = errors.New("lock is held by another owner")

// Collection is the MongoDB collection holding lock documents.
const Collection = "locks"

type lockDoc struct {
	ID         string    `bson:"_id"`
	Owner      string    `bson:"owner"`
	AcquiredAt time.Time `bson:"acquired_at"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

// Locker hands out exclusive advisory locks stored as one document per
// lock name. A lock whose expiry has passed may be taken over, so a crashed
// holder blocks others for at most the TTL.
type Locker struct {
	c   *mongo.Collection
	now func() time.Time
}

// New returns a Locker over db's locks collection.
func New(db *mongo.Database) *Locker {
	return &Locker{c: db.Collection(Collection), now: time.Now}
}

// Lease is a held lock.
type Lease struct {
	l     *Locker
	name  string
	owner string
}

// Owner returns the token identifying this holder.
func (le *Lease) Owner() string { return le.owner }

// Acquire takes the named lock for ttl. It returns ErrHeld if another
// owner holds it and it has not expired.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	now := l.now().UTC()
	owner := uuid.NewString()

	filter := bson.M{"_id": name, "expires_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{
		"owner":       owner,
		"acquired_at": now,
		"expires_at":  now.Add(ttl),
	}}
	_, err := l.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("acquire %s: %w", name, err)
	}
	return &Lease{l: l, name: name, owner: owner}, nil
}

// Release gives the lock back. Releasing a lock that has since been taken
// over by someone else is a no-op.
func (le *Lease) Release(ctx context.Context) error {
	_, err := le.l.c.DeleteOne(ctx, bson.M{"_id": le.name, "owner": le.owner})
	if err != nil {
		return fmt.Errorf("release %s: %w", le.name, err)
	}
	return nil
}

// Holder returns the current owner of name, or "" if it is free or expired.
func (l *Locker) Holder(ctx context.Context, name string) (string, error) {
	var d lockDoc
	err := l.c.FindOne(ctx, bson.M{"_id": name, "expires_at": bson.M{"$gt": l.now().UTC()}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Owner, nil
}

// PurgeExpired removes lock documents past their expiry.
func (l *Locker) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := l.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": l.now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
