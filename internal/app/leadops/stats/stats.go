// internal/app/leadops/stats/stats.go
package stats

import (
	"context"
	"sort"
	"time"

	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/metrics"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTTL is how long a computed view is served from the cache.
const DefaultTTL = 5 * time.Minute

// StatusCount is the number of leads in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// AgentCount is the number of leads assigned to one agent.
type AgentCount struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Count   int64  `json:"count"`
}

// AdminView is the dashboard summary across all leads.
type AdminView struct {
	Total       int64         `json:"total"`
	ByStatus    []StatusCount `json:"by_status"`
	ByAgent     []AgentCount  `json:"by_agent"`
	Agents      int64         `json:"agents"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// AgentView is one agent's summary of their own leads.
type AgentView struct {
	AgentID     string        `json:"agent_id"`
	Total       int64         `json:"total"`
	ByStatus    []StatusCount `json:"by_status"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Service computes lead counts and caches them until the next write
// invalidates cache.StatsPattern.
type Service struct {
	Leads *leadstore.Store
	Users *userstore.Store
	Cache cache.Cache
	TTL   time.Duration

	now func() time.Time
}

// New returns a Service caching views for ttl (DefaultTTL when ttl <= 0).
func New(leads *leadstore.Store, users *userstore.Store, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{Leads: leads, Users: users, Cache: c, TTL: ttl, now: time.Now}
}

// Admin returns the all-leads view. cached reports whether it came from
// the cache.
func (s *Service) Admin(ctx context.Context) (view AdminView, cached bool, err error) {
	cached, err = cache.Fetch(ctx, s.Cache, cache.AdminStatsKey, s.TTL, &view, s.loadAdmin)
	if err == nil {
		metrics.ObserveCache("admin_stats", cached)
	}
	return view, cached, err
}

// Agent returns agentID's view.
func (s *Service) Agent(ctx context.Context, agentID primitive.ObjectID) (view AgentView, cached bool, err error) {
	load := func(ctx context.Context) (AgentView, error) {
		byStatus, err := s.Leads.CountByStatus(ctx, leadstore.Filter{AssignedTo: &agentID})
		if err != nil {
			return AgentView{}, err
		}
		counts, total := statusCounts(byStatus)
		return AgentView{
			AgentID:     agentID.Hex(),
			Total:       total,
			ByStatus:    counts,
			GeneratedAt: s.now().UTC(),
		}, nil
	}
	cached, err = cache.Fetch(ctx, s.Cache, cache.AgentStatsKey(agentID.Hex()), s.TTL, &view, load)
	if err == nil {
		metrics.ObserveCache("agent_stats", cached)
	}
	return view, cached, err
}

func (s *Service) loadAdmin(ctx context.Context) (AdminView, error) {
	byStatus, err := s.Leads.CountByStatus(ctx, leadstore.Filter{})
	if err != nil {
		return AdminView{}, err
	}
	byAgent, err := s.Leads.CountByAgent(ctx)
	if err != nil {
		return AdminView{}, err
	}
	agents, err := s.Users.List(ctx, models.RoleUser)
	if err != nil {
		return AdminView{}, err
	}

	counts, total := statusCounts(byStatus)
	view := AdminView{
		Total:       total,
		ByStatus:    counts,
		ByAgent:     make([]AgentCount, 0, len(agents)),
		Agents:      int64(len(agents)),
		GeneratedAt: s.now().UTC(),
	}
	for _, a := range agents {
		view.ByAgent = append(view.ByAgent, AgentCount{AgentID: a.ID.Hex(), Name: a.FullName, Count: byAgent[a.ID]})
	}
	sort.SliceStable(view.ByAgent, func(i, j int) bool {
		return view.ByAgent[i].Count > view.ByAgent[j].Count
	})
	return view, nil
}

// statusCounts lists every pipeline status in order, including empty ones,
// followed by any unknown statuses found in storage.
func statusCounts(m map[string]int64) ([]StatusCount, int64) {
	var total int64
	out := make([]StatusCount, 0, len(m))
	known := make(map[string]bool)
	for _, st := range models.LeadStatuses() {
		known[st] = true
		out = append(out, StatusCount{Status: st, Count: m[st]})
		total += m[st]
	}
	var extra []string
	for st := range m {
		if !known[st] {
			extra = append(extra, st)
		}
	}
	sort.Strings(extra)
	for _, st := range extra {
		out = append(out, StatusCount{Status: st, Count: m[st]})
		total += m[st]
	}
	return out, total
}
