// internal/app/leadops/agents/agents.go
package agents

import (
	"context"
	"errors"
	"fmt"

	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/txn"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrHasLeads is matched by *AssignedError.
	ErrHasLeads = errors.New("agent still has assigned leads")
	// ErrNotAgent is returned when deleting a user who is not an agent.
	ErrNotAgent = errors.New("user is not an agent")
)

// AssignedError blocks an agent delete and carries the number of leads
// that still point at the agent.
type AssignedError struct {
	Count int64
}

func (e *AssignedError) Error() string {
	return fmt.Sprintf("agent has %d assigned leads; transfer or delete them first", e.Count)
}

// Is makes errors.Is(err, ErrHasLeads) true.
func (e *AssignedError) Is(target error) bool { return target == ErrHasLeads }

// Service manages agent accounts.
type Service struct {
	DB    *mongo.Database
	Users *userstore.Store
	Leads *leadstore.Store
	Cache cache.Cache
	Log   *zap.Logger
}

// New returns a Service.
func New(db *mongo.Database, users *userstore.Store, leads *leadstore.Store, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{DB: db, Users: users, Leads: leads, Cache: c, Log: logger}
}

// Create adds an agent account.
func (s *Service) Create(ctx context.Context, fullName, email, password string) (models.User, error) {
	u, err := s.Users.Create(ctx, models.User{FullName: fullName, Email: email, Role: models.RoleUser}, password)
	if err != nil {
		return models.User{}, err
	}
	s.invalidate(ctx)
	return u, nil
}

// Delete removes an agent who has no assigned leads. The count and the
// delete run in one transaction where the deployment supports it.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var deleted models.User
	err := txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		u, err := s.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !u.IsAgent() {
			return ErrNotAgent
		}
		n, err := s.Leads.CountAssigned(ctx, id)
		if err != nil {
			return fmt.Errorf("count assigned leads: %w", err)
		}
		if n > 0 {
			return &AssignedError{Count: n}
		}
		if _, err := s.Users.Delete(ctx, id); err != nil {
			return err
		}
		deleted = *u
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	s.invalidate(ctx)
	return deleted, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if _, err := s.Cache.Invalidate(ctx, cache.StatsPattern); err != nil {
		s.Log.Warn("invalidate stats cache", zap.Error(err))
	}
}
