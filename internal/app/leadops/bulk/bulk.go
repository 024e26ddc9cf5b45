// internal/app/leadops/bulk/bulk.go
package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/assign"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/metrics"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Operation names used in results, metrics, and audit events.
const (
	OpDelete     = "delete"
	OpStatus     = "status"
	OpTransfer   = "transfer"
	OpDistribute = "distribute"
	OpUpdate     = "update"
)

// MaxIDs caps the number of leads one bulk request may name.
const MaxIDs = 10000

// MaxErrorSamples caps the write errors returned in a Result.
const MaxErrorSamples = 10

var (
	// ErrEmptyIDs is returned when no lead ids are given.
	ErrEmptyIDs = errors.New("no leads selected")
	// ErrTooManyIDs is returned when more than MaxIDs ids are given.
	ErrTooManyIDs = fmt.Errorf("at most %d leads can be changed at once", MaxIDs)
	// ErrInvalidID is returned for a malformed lead id.
	ErrInvalidID = errors.New("invalid lead id")
	// ErrInvalidStatus is returned for a status outside the lead pipeline.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidAgent is returned when a target agent is missing or not an agent.
	ErrInvalidAgent = errors.New("invalid agent")
	// ErrNothingToUpdate is returned by Update with neither status nor agent.
	ErrNothingToUpdate = errors.New("choose a status, an agent, or both")
)

// Result summarizes one bulk operation. Counts reflect documents actually
// changed; ids that no longer exist are not errors.
type Result struct {
	Op         string           `json:"op"`
	Requested  int              `json:"requested"`
	Found      int              `json:"found,omitempty"` // leads that still existed; unset for status updates
	Modified   int64            `json:"modified"`
	Skipped    int              `json:"skipped"`
	Breakdown  map[string]int64 `json:"breakdown,omitempty"`
	Errors     []string         `json:"errors"`      // first MaxErrorSamples write errors
	ErrorCount int              `json:"error_count"` // all write errors
	Message    string           `json:"message"`
}

// Engine runs bulk lead operations. Each operation issues one unordered
// multi-document write.
type Engine struct {
	Leads *leadstore.Store
	Users *userstore.Store
	Cache cache.Cache
	Log   *zap.Logger

	now func() time.Time
}

// New returns an Engine.
func New(leads *leadstore.Store, users *userstore.Store, c cache.Cache, logger *zap.Logger) *Engine {
	return &Engine{Leads: leads, Users: users, Cache: c, Log: logger, now: time.Now}
}

// ParseIDs converts hex ids, dropping blanks and repeats. Order is kept.
func ParseIDs(raw []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(raw))
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrEmptyIDs
	}
	if len(out) > MaxIDs {
		return nil, ErrTooManyIDs
	}
	return out, nil
}

// Delete hard-deletes the listed leads.
func (e *Engine) Delete(ctx context.Context, rawIDs []string) (Result, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	n, err := e.Leads.DeleteMany(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("bulk delete: %w", err)
	}
	res := Result{Op: OpDelete, Requested: len(ids), Found: int(n), Modified: n, Errors: []string{}}
	res.Message = fmt.Sprintf("Deleted %d of %d leads.", n, len(ids))
	e.finish(ctx, &res)
	return res, nil
}

// UpdateStatus moves the listed leads to status. Leads already in status
// are left alone and get no history entry.
func (e *Engine) UpdateStatus(ctx context.Context, rawIDs []string, status string, by models.UpdatedBy) (Result, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return Result{}, err
	}
	canon := models.CanonicalStatus(status)
	if canon == "" {
		return Result{}, ErrInvalidStatus
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	br, err := e.Leads.SetStatusMany(ctx, ids, canon, by, e.clock())
	if err != nil {
		return Result{}, fmt.Errorf("bulk status: %w", err)
	}
	res := Result{Op: OpStatus, Requested: len(ids), Modified: br.Modified, Errors: []string{}}
	res.Message = fmt.Sprintf("Updated status of %d leads to %s.", br.Modified, canon)
	e.finish(ctx, &res)
	return res, nil
}

// Transfer reassigns the listed leads to agent. Each update is guarded by
// the owner read in a single snapshot query, and that owner is recorded as
// from_user. Leads already owned by agent are skipped.
func (e *Engine) Transfer(ctx context.Context, rawIDs []string, agentID string, by models.UpdatedBy) (Result, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	agents, err := e.agents(ctx, []string{agentID})
	if err != nil {
		return Result{}, err
	}
	target := agents[0].ID

	snaps, err := e.Leads.Snapshots(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("bulk transfer snapshot: %w", err)
	}
	changes := make([]leadstore.Change, 0, len(snaps))
	for _, s := range snaps {
		if s.AssignedTo == target {
			continue
		}
		changes = append(changes, leadstore.Change{
			LeadID:      s.ID,
			ExpectOwner: s.AssignedTo,
			NewOwner:    &target,
			Action:      models.ActionTransferred,
		})
	}

	res, err := e.apply(ctx, OpTransfer, ids, snaps, changes, by)
	if err != nil {
		return Result{}, err
	}
	res.Message = fmt.Sprintf("Transferred %d leads to %s.", res.Modified, agents[0].FullName)
	e.finish(ctx, &res)
	return res, nil
}

// Distribute spreads the listed leads across agents in round-robin order.
// Leads are taken in ascending _id order; lead i goes to agent i mod n.
// When status is set, leads not already in it move to it in the same
// write. Breakdown reports how many leads each agent was dealt.
func (e *Engine) Distribute(ctx context.Context, rawIDs, agentIDs []string, status string, by models.UpdatedBy) (Result, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return Result{}, err
	}
	canon := ""
	if strings.TrimSpace(status) != "" {
		if canon = models.CanonicalStatus(status); canon == "" {
			return Result{}, ErrInvalidStatus
		}
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	agents, err := e.agents(ctx, agentIDs)
	if err != nil {
		return Result{}, err
	}
	snaps, err := e.Leads.Snapshots(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("bulk distribute snapshot: %w", err)
	}

	breakdown := make(map[string]int64, len(agents))
	for _, a := range agents {
		breakdown[a.Label()] = 0
	}
	changes := make([]leadstore.Change, 0, len(snaps))
	for i, s := range snaps {
		agent := assign.Pick(i, agents)
		breakdown[agent.Label()]++

		c := leadstore.Change{LeadID: s.ID}
		if s.AssignedTo != agent.ID {
			to := agent.ID
			c.ExpectOwner = s.AssignedTo
			c.NewOwner = &to
			c.Action = models.ActionDistributed
		}
		if canon != "" && s.Status != canon {
			c.ExpectStatus = s.Status
			c.NewStatus = canon
		}
		changes = append(changes, c)
	}

	res, err := e.apply(ctx, OpDistribute, ids, snaps, changes, by)
	if err != nil {
		return Result{}, err
	}
	res.Breakdown = breakdown
	res.Message = fmt.Sprintf("Distributed %d leads across %d agents.", len(snaps), len(agents))
	e.finish(ctx, &res)
	return res, nil
}

// UpdateRequest is a combined bulk change. At least one of Status and
// AgentID must be set.
type UpdateRequest struct {
	Status  string
	AgentID string
}

// Update applies an optional status and an optional transfer to each
// listed lead in one write per lead. History is appended only for the
// parts that actually change.
func (e *Engine) Update(ctx context.Context, rawIDs []string, req UpdateRequest, by models.UpdatedBy) (Result, error) {
	ids, err := ParseIDs(rawIDs)
	if err != nil {
		return Result{}, err
	}
	wantStatus := strings.TrimSpace(req.Status) != ""
	wantAgent := strings.TrimSpace(req.AgentID) != ""
	if !wantStatus && !wantAgent {
		return Result{}, ErrNothingToUpdate
	}
	canon := ""
	if wantStatus {
		if canon = models.CanonicalStatus(req.Status); canon == "" {
			return Result{}, ErrInvalidStatus
		}
	}
	ctx, cancel := e.detach(ctx)
	defer cancel()

	var target *models.User
	if wantAgent {
		agents, err := e.agents(ctx, []string{req.AgentID})
		if err != nil {
			return Result{}, err
		}
		target = &agents[0]
	}

	snaps, err := e.Leads.Snapshots(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("bulk update snapshot: %w", err)
	}
	changes := make([]leadstore.Change, 0, len(snaps))
	for _, s := range snaps {
		c := leadstore.Change{LeadID: s.ID}
		if target != nil && s.AssignedTo != target.ID {
			to := target.ID
			c.ExpectOwner = s.AssignedTo
			c.NewOwner = &to
			c.Action = models.ActionTransferred
		}
		if canon != "" && s.Status != canon {
			c.ExpectStatus = s.Status
			c.NewStatus = canon
		}
		changes = append(changes, c)
	}

	res, err := e.apply(ctx, OpUpdate, ids, snaps, changes, by)
	if err != nil {
		return Result{}, err
	}
	res.Message = fmt.Sprintf("Updated %d leads.", res.Modified)
	e.finish(ctx, &res)
	return res, nil
}

func (e *Engine) apply(ctx context.Context, op string, ids []primitive.ObjectID, snaps []leadstore.Snapshot, changes []leadstore.Change, by models.UpdatedBy) (Result, error) {
	res := Result{Op: op, Requested: len(ids), Found: len(snaps), Errors: []string{}}

	pending := 0
	for _, c := range changes {
		if !c.Empty() {
			pending++
		}
	}
	res.Skipped = len(snaps) - pending

	br, err := e.Leads.ApplyMany(ctx, changes, by, e.clock())
	if err != nil {
		return Result{}, fmt.Errorf("bulk %s: %w", op, err)
	}
	res.Modified = br.Modified
	res.ErrorCount = len(br.Errors)
	res.Errors = capErrors(br.Errors)
	return res, nil
}

func capErrors(errs []string) []string {
	if len(errs) > MaxErrorSamples {
		return errs[:MaxErrorSamples]
	}
	if errs == nil {
		return []string{}
	}
	return errs
}

// agents resolves raw agent ids in order, failing if any is invalid.
func (e *Engine) agents(ctx context.Context, raw []string) ([]models.User, error) {
	var ids []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAgent, r)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed more than once", ErrInvalidAgent, r)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: none selected", ErrInvalidAgent)
	}

	agents, invalid, err := e.Users.ResolveAgents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve agents: %w", err)
	}
	if len(invalid) > 0 {
		hex := make([]string, len(invalid))
		for i, id := range invalid {
			hex[i] = id.Hex()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAgent, strings.Join(hex, ", "))
	}
	return agents, nil
}

// detach keeps a bulk write running if the client goes away; the batch
// timeout still bounds it.
func (e *Engine) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeouts.Batch())
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

func (e *Engine) finish(ctx context.Context, res *Result) {
	metrics.BulkOps.WithLabelValues(res.Op).Inc()
	metrics.BulkModified.WithLabelValues(res.Op).Add(float64(res.Modified))
	if _, err := e.Cache.Invalidate(ctx, cache.StatsPattern); err != nil {
		e.Log.Warn("invalidate stats cache", zap.Error(err))
	}
	e.Log.Info("bulk lead operation",
		zap.String("op", res.Op),
		zap.Int("requested", res.Requested),
		zap.Int("found", res.Found),
		zap.Int64("modified", res.Modified),
		zap.Int("errors", res.ErrorCount))
}
