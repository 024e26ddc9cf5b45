// internal/app/leadops/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrInvalidStatus is returned for a status outside the lead pipeline.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidAgent is returned when a transfer or create target is not an agent.
	ErrInvalidAgent = errors.New("target is not an agent")
	// ErrForbidden is returned when an agent touches a lead assigned to someone else.
	ErrForbidden = errors.New("lead is assigned to another agent")
	// ErrEmptyNote is returned for a note with no text after sanitizing.
	ErrEmptyNote = errors.New("note content is required")
	// ErrNoteNotFound is returned when deleting a note the lead does not have.
	ErrNoteNotFound = errors.New("note not found")
	// ErrNothingToUpdate is returned by UpdateFields with no fields set.
	ErrNothingToUpdate = errors.New("nothing to update")
	// ErrDuplicateLead is returned when a created or edited lead reuses
	// another lead's email or contact.
	ErrDuplicateLead = errors.New("a lead with this email or contact already exists")
)

// Ledger applies single-lead mutations. Each status or owner change and
// its history entry are written in one document update.
type Ledger struct {
	Leads *leadstore.Store
	Users *userstore.Store
	Cache cache.Cache
	Log   *zap.Logger

	now func() time.Time
}

// New returns a Ledger.
func New(leads *leadstore.Store, users *userstore.Store, c cache.Cache, logger *zap.Logger) *Ledger {
	return &Ledger{Leads: leads, Users: users, Cache: c, Log: logger, now: time.Now}
}

func (l *Ledger) clock() time.Time {
	return l.now().UTC().Truncate(time.Millisecond)
}

// Get loads a lead visible to by.
func (l *Ledger) Get(ctx context.Context, id primitive.ObjectID, by models.UpdatedBy) (*models.Lead, error) {
	lead, err := l.Leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if by.Role != models.RoleAdmin && lead.AssignedTo != by.UserID {
		return nil, ErrForbidden
	}
	return lead, nil
}

// SetStatus moves a lead to status. Setting the current status is a no-op
// that returns changed=false and records no history.
func (l *Ledger) SetStatus(ctx context.Context, id primitive.ObjectID, status string, by models.UpdatedBy) (bool, error) {
	canon := models.CanonicalStatus(status)
	if canon == "" {
		return false, ErrInvalidStatus
	}
	lead, err := l.Get(ctx, id, by)
	if err != nil {
		return false, err
	}
	if lead.Status == canon {
		return false, nil
	}

	res, err := l.Leads.SetStatusMany(ctx, []primitive.ObjectID{id}, canon, by, l.clock())
	if err != nil {
		return false, fmt.Errorf("set status: %w", err)
	}
	if res.Modified == 0 {
		// Deleted or already moved to canon since the read.
		if _, err := l.Leads.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	l.invalidate(ctx)
	return true, nil
}

// Transfer reassigns a lead to agent. The history entry's from_user is the
// owner read before the write, and the write only applies while that is
// still the owner; otherwise leadstore.ErrConflict is returned.
// Transferring to the current owner is a no-op.
func (l *Ledger) Transfer(ctx context.Context, id, agent primitive.ObjectID, by models.UpdatedBy) (bool, error) {
	if err := l.checkAgent(ctx, agent); err != nil {
		return false, err
	}
	lead, err := l.Get(ctx, id, by)
	if err != nil {
		return false, err
	}
	if lead.AssignedTo == agent {
		return false, nil
	}

	err = l.Leads.Apply(ctx, leadstore.Change{
		LeadID:      id,
		ExpectOwner: lead.AssignedTo,
		NewOwner:    &agent,
		Action:      models.ActionTransferred,
	}, by, l.clock())
	if err != nil {
		return false, err
	}
	l.invalidate(ctx)
	return true, nil
}

// Delete hard-deletes a lead.
func (l *Ledger) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := l.Leads.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return leadstore.ErrNotFound
	}
	l.invalidate(ctx)
	return nil
}

func (l *Ledger) checkAgent(ctx context.Context, id primitive.ObjectID) error {
	u, err := l.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return ErrInvalidAgent
	}
	if err != nil {
		return err
	}
	if !u.IsAgent() {
		return ErrInvalidAgent
	}
	return nil
}

func (l *Ledger) invalidate(ctx context.Context) {
	if _, err := l.Cache.Invalidate(ctx, cache.StatsPattern); err != nil {
		l.Log.Warn("invalidate stats cache", zap.Error(err))
	}
}
