// internal/app/leadops/ingest/ingest.go
package ingest

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
	"github.com/dalemusser/leadhub/internal/app/system/contact"
	"github.com/dalemusser/leadhub/internal/app/system/dedup"
	"github.com/dalemusser/leadhub/internal/app/system/fieldmap"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/app/system/metrics"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dedup modes.
const (
	DedupSkip     = "skip"
	DedupReassign = "reassign" // reserved; rejected
)

// Report caps.
const (
	MaxDuplicateSamples = 20
	MaxErrorSamples     = 10
)

// DefaultLockTTL bounds how long a crashed upload can block the next one.
const DefaultLockTTL = 10 * time.Minute

var (
	// ErrUnsupportedDedupMode is returned for any dedup mode other than skip.
	ErrUnsupportedDedupMode = errors.New(`unsupported dedup mode; only "skip" is available`)
	// ErrNoAgents is returned when no agent ids were supplied.
	ErrNoAgents = errors.New("at least one agent is required")
	// ErrInvalidAgents is matched by *AgentError.
	ErrInvalidAgents = errors.New("invalid agents")
	// ErrIngestionBusy is returned while another upload holds the ingestion lock.
	ErrIngestionBusy = errors.New("another lead upload is in progress; try again shortly")
)

// AgentError lists agent ids that are malformed, unknown, or not agents,
// and ids named more than once.
type AgentError struct {
	IDs      []string
	Repeated []string
}

func (e *AgentError) Error() string {
	var parts []string
	if len(e.IDs) > 0 {
		parts = append(parts, "invalid agents: "+strings.Join(e.IDs, ", "))
	}
	if len(e.Repeated) > 0 {
		parts = append(parts, "agents listed more than once: "+strings.Join(e.Repeated, ", "))
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidAgents) true.
func (e *AgentError) Is(target error) bool { return target == ErrInvalidAgents }

// Request is one upload to ingest.
type Request struct {
	Headers   []string
	Rows      []fieldmap.RawRow
	AgentIDs  []string // ordered; the round-robin cycle follows this order
	DedupMode string
	By        models.UpdatedBy
}

// Duplicate describes one skipped row. Row counts the header as row 1.
type Duplicate struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Reason  string `json:"reason"` // email | contact
}

// Result summarizes an ingestion run.
type Result struct {
	TotalRows        int                    `json:"total_rows"`
	Inserted         int                    `json:"inserted"`
	Duplicates       int                    `json:"duplicates"`
	DuplicateSamples []Duplicate            `json:"duplicate_samples"`
	Failed           int                    `json:"failed"`
	Errors           []leadstore.ChunkError `json:"errors"`
	Distribution     map[string]int         `json:"distribution"` // keyed by models.User.Label
	Headers          fieldmap.Summary       `json:"headers"`
	InvalidContacts  int                    `json:"invalid_contacts"`
	Message          string                 `json:"message"`
}

// Service runs lead uploads.
type Service struct {
	Leads     *leadstore.Store
	Users     *userstore.Store
	Locks     *ingestlock.Locker
	Cache     cache.Cache
	Mapper    *fieldmap.Mapper
	Contacts  *contact.Checker
	ChunkSize int
	LockTTL   time.Duration
	Log       *zap.Logger

	now func() time.Time
}

// New returns a Service with default mapper, checker, chunk size and lock TTL.
func New(leads *leadstore.Store, users *userstore.Store, locks *ingestlock.Locker, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		Leads:     leads,
		Users:     users,
		Locks:     locks,
		Cache:     c,
		Mapper:    fieldmap.Default(),
		Contacts:  contact.NewChecker(""),
		ChunkSize: leadstore.DefaultChunkSize,
		LockTTL:   DefaultLockTTL,
		Log:       logger,
		now:       time.Now,
	}
}

// Preview reports how headers would be mapped without ingesting anything.
func (s *Service) Preview(headers []string) fieldmap.Summary {
	return s.Mapper.Summarize(headers)
}

// NormalizeDedupMode validates mode. Blank means skip.
func NormalizeDedupMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", DedupSkip:
		return DedupSkip, nil
	default:
		return "", ErrUnsupportedDedupMode
	}
}

// Run ingests req. Pre-flight problems (dedup mode, agents, a busy lock)
// fail the whole batch before anything is written. Once persistence
// starts, row and chunk problems are reported in the Result and never
// abort the run; the write is detached from ctx cancellation and bounded
// by the batch timeout.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	start := s.now()

	if _, err := NormalizeDedupMode(req.DedupMode); err != nil {
		metrics.IngestRuns.WithLabelValues("rejected").Inc()
		return Result{}, err
	}
	agents, err := s.resolveAgents(ctx, req.AgentIDs)
	if err != nil {
		outcome := "rejected"
		if !errors.Is(err, ErrNoAgents) && !errors.Is(err, ErrInvalidAgents) {
			outcome = "error"
		}
		metrics.IngestRuns.WithLabelValues(outcome).Inc()
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Batch())
	defer cancel()

	lease, err := s.Locks.Acquire(ctx, ingestlock.LeadIngestion, s.lockTTL())
	if errors.Is(err, ingestlock.ErrHeld) {
		metrics.IngestRuns.WithLabelValues("busy").Inc()
		return Result{}, ErrIngestionBusy
	}
	if err != nil {
		metrics.IngestRuns.WithLabelValues("error").Inc()
		return Result{}, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.Log.Warn("release ingestion lock", zap.Error(err))
		}
	}()

	existing, err := s.Leads.Keys(ctx)
	if err != nil {
		metrics.IngestRuns.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("load existing keys: %w", err)
	}
	ix := dedup.New()
	ix.Seed(existing)

	res, leads := s.plan(req, agents, ix)

	ins, err := s.Leads.InsertChunks(ctx, leads, s.ChunkSize)
	res.Inserted = ins.Inserted
	res.Failed = len(leads) - ins.Inserted
	res.Errors = capErrors(ins.Errors)
	if err != nil {
		s.Log.Error("lead insert stopped early", zap.Error(err), zap.Int("inserted", ins.Inserted))
	}
	if res.Inserted > 0 {
		if _, err := s.Cache.Invalidate(ctx, cache.StatsPattern); err != nil {
			s.Log.Warn("invalidate stats cache", zap.Error(err))
		}
	}

	res.Distribution = distribution(agents, leads, ins, s.ChunkSize)
	res.Message = message(res)

	metrics.IngestRuns.WithLabelValues("ok").Inc()
	metrics.IngestRows.WithLabelValues("inserted").Add(float64(res.Inserted))
	metrics.IngestRows.WithLabelValues("duplicate").Add(float64(res.Duplicates))
	metrics.IngestRows.WithLabelValues("failed").Add(float64(res.Failed))
	metrics.IngestDuration.Observe(s.now().Sub(start).Seconds())

	s.Log.Info("lead upload complete",
		zap.Int("total_rows", res.TotalRows),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
		zap.Int("agents", len(agents)),
		zap.Duration("elapsed", s.now().Sub(start)))
	return res, nil
}

// plan maps, dedups, and assigns every row. It returns the leads to insert
// in input order.
func (s *Service) plan(req Request, agents []models.User, ix *dedup.Index) (Result, []models.Lead) {
	now := s.now().UTC()
	res := Result{
		TotalRows:        len(req.Rows),
		DuplicateSamples: []Duplicate{},
		Errors:           []leadstore.ChunkError{},
		Headers:          s.Mapper.Summarize(req.Headers),
	}

	leads := make([]models.Lead, 0, len(req.Rows))
	for i, row := range req.Rows {
		lead := s.Mapper.Map(row).ToLead()

		if dup, reason := ix.Check(lead.Email, lead.Contact); dup {
			res.Duplicates++
			if len(res.DuplicateSamples) < MaxDuplicateSamples {
				res.DuplicateSamples = append(res.DuplicateSamples, Duplicate{
					Row:     i + 2,
					Email:   lead.Email,
					Contact: lead.Contact,
					Reason:  reason,
				})
			}
			continue
		}
		ix.Record(lead.Email, lead.Contact)

		if !s.Contacts.Plausible(lead.Contact) {
			res.InvalidContacts++
		}

		agent := assign.Pick(len(leads), agents)
		lead.ID = primitive.NewObjectID()
		lead.Status = models.DefaultStatus
		lead.StatusHistory = []models.StatusEntry{{
			Status:    models.DefaultStatus,
			ChangedBy: req.By.UserID,
			ChangedAt: now,
		}}
		lead.AssignedTo = agent.ID
		lead.AssignmentHistory = []models.AssignmentEntry{{
			Action:    models.ActionAssigned,
			ToUser:    agent.ID,
			ChangedBy: req.By.UserID,
			ChangedAt: now,
		}}
		lead.Notes = []models.Note{}
		lead.CreatedAt = now
		lead.UpdatedAt = now
		lead.LastUpdatedBy = req.By
		leads = append(leads, lead)
	}
	return res, leads
}

func (s *Service) resolveAgents(ctx context.Context, raw []string) ([]models.User, error) {
	var (
		ids      []primitive.ObjectID
		bad      []string
		repeated []string
	)
	seen := make(map[string]int, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		seen[r]++
		if seen[r] > 1 {
			if seen[r] == 2 {
				repeated = append(repeated, r)
			}
			continue
		}
		oid, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			bad = append(bad, r)
			continue
		}
		ids = append(ids, oid)
	}
	if len(ids) == 0 && len(bad) == 0 {
		return nil, ErrNoAgents
	}

	agents, invalid, err := s.Users.ResolveAgents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve agents: %w", err)
	}
	for _, id := range invalid {
		bad = append(bad, id.Hex())
	}
	if len(bad) > 0 || len(repeated) > 0 {
		return nil, &AgentError{IDs: bad, Repeated: repeated}
	}
	return agents, nil
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return DefaultLockTTL
}

// distribution counts inserted leads per agent label. Leads whose insert
// failed are not counted.
func distribution(agents []models.User, leads []models.Lead, ins leadstore.InsertResult, chunkSize int) map[string]int {
	if chunkSize <= 0 {
		chunkSize = leadstore.DefaultChunkSize
	}
	failed := make(map[int]bool, len(ins.Errors))
	for _, e := range ins.Errors {
		if e.Index >= 0 {
			failed[e.Index] = true
			continue
		}
		for i := e.Chunk * chunkSize; i < min((e.Chunk+1)*chunkSize, len(leads)); i++ {
			failed[i] = true
		}
	}
	names := make(map[primitive.ObjectID]string, len(agents))
	out := make(map[string]int, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Label()
		out[a.Label()] = 0
	}
	for i, l := range leads {
		if !failed[i] {
			out[names[l.AssignedTo]]++
		}
	}
	return out
}

func capErrors(errs []leadstore.ChunkError) []leadstore.ChunkError {
	if len(errs) > MaxErrorSamples {
		return errs[:MaxErrorSamples]
	}
	if errs == nil {
		return []leadstore.ChunkError{}
	}
	return errs
}

func message(r Result) string {
	switch {
	case r.TotalRows == 0:
		return "The file has no data rows."
	case r.Inserted == 0 && r.Failed == 0:
		return fmt.Sprintf("No new leads: all %d rows were duplicates.", r.Duplicates)
	}
	msg := fmt.Sprintf("Uploaded %d of %d leads.", r.Inserted, r.TotalRows)
	if r.Duplicates > 0 {
		msg += fmt.Sprintf(" Skipped %d duplicates.", r.Duplicates)
	}
	if r.Failed > 0 {
		msg += fmt.Sprintf(" %d failed to save.", r.Failed)
	}
	if r.InvalidContacts > 0 {
		msg += fmt.Sprintf(" %d contacts look invalid.", r.InvalidContacts)
	}
	return msg
}
