package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	e      *Engine
	fx     *testutil.Fixtures
	cache  *cache.Memory
	admin  models.User
	agentA models.User
	agentB models.User
	by     models.UpdatedBy
}

func setup(t *testing.T) (*env, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	fx := testutil.NewFixtures(t, db)
	v := &env{fx: fx, cache: cache.NewMemory()}
	v.admin = fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	v.agentA = fx.CreateAgent(ctx, "Asha", "asha@example.com")
	v.agentB = fx.CreateAgent(ctx, "Bilal", "bilal@example.com")
	v.by = models.UpdatedBy{UserID: v.admin.ID, Role: models.RoleAdmin}
	v.e = New(leadstore.New(db), userstore.New(db), v.cache, zap.NewNop())
	return v, ctx
}

func (v *env) leads(ctx context.Context, n int, owner primitive.ObjectID) []models.Lead {
	out := make([]models.Lead, n)
	for i := range out {
		out[i] = v.fx.CreateLead(ctx, fmt.Sprintf("Lead %d", i), fmt.Sprintf("l%d-%s@example.com", i, owner.Hex()[18:]), "", owner, v.admin.ID)
	}
	return out
}

func hexIDs(leads []models.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID.Hex()
	}
	return out
}

func TestParseIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := ParseIDs([]string{a.Hex(), " ", b.Hex(), a.Hex()})
	if err != nil {
		t.Fatalf("ParseIDs: %v", err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("got %v", got)
	}
	if _, err := ParseIDs(nil); !errors.Is(err, ErrEmptyIDs) {
		t.Errorf("nil: err = %v", err)
	}
	if _, err := ParseIDs([]string{"", "  "}); !errors.Is(err, ErrEmptyIDs) {
		t.Errorf("blanks: err = %v", err)
	}
	if _, err := ParseIDs([]string{"xyz"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("malformed: err = %v", err)
	}
}

func TestUpdateStatus_MissingIDsAreNotErrors(t *testing.T) {
	v, ctx := setup(t)
	leads := v.leads(ctx, 3, v.agentA.ID)
	ids := append(hexIDs(leads), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())

	if err := v.cache.Set(ctx, cache.AdminStatsKey, []byte("{}"), time.Minute); err != nil {
		t.Fatal(err)
	}

	res, err := v.e.UpdateStatus(ctx, ids, "counselled", v.by)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if res.Requested != 5 || res.Modified != 3 {
		t.Errorf("requested %d modified %d; want 5/3", res.Requested, res.Modified)
	}
	if _, ok, _ := v.cache.Get(ctx, cache.AdminStatsKey); ok {
		t.Error("stats cache should be invalidated")
	}
	for _, l := range leads {
		got := v.fx.GetLead(ctx, l.ID)
		if got.Status != models.StatusCounselled || len(got.StatusHistory) != 2 {
			t.Errorf("lead %s: status %q history %d", l.ID.Hex(), got.Status, len(got.StatusHistory))
		}
	}

	res, err = v.e.UpdateStatus(ctx, ids, models.StatusCounselled, v.by)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if res.Modified != 0 {
		t.Errorf("repeat modified %d, want 0", res.Modified)
	}
	if n := len(v.fx.GetLead(ctx, leads[0].ID).StatusHistory); n != 2 {
		t.Errorf("history grew on a no-op: %d", n)
	}

	if _, err := v.e.UpdateStatus(ctx, ids, "Maybe later", v.by); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status: err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	v, ctx := setup(t)
	leads := v.leads(ctx, 2, v.agentA.ID)

	res, err := v.e.Delete(ctx, append(hexIDs(leads), primitive.NewObjectID().Hex()))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Modified != 2 || res.Requested != 3 {
		t.Errorf("deleted %d of %d; want 2 of 3", res.Modified, res.Requested)
	}
	if _, err := v.e.Delete(ctx, nil); !errors.Is(err, ErrEmptyIDs) {
		t.Errorf("empty: err = %v", err)
	}
}

func TestTransfer(t *testing.T) {
	v, ctx := setup(t)
	fromA := v.leads(ctx, 2, v.agentA.ID)
	alreadyB := v.leads(ctx, 1, v.agentB.ID)

	res, err := v.e.Transfer(ctx, append(hexIDs(fromA), hexIDs(alreadyB)...), v.agentB.ID.Hex(), v.by)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if res.Modified != 2 || res.Skipped != 1 || res.Found != 3 {
		t.Errorf("modified %d skipped %d found %d; want 2/1/3", res.Modified, res.Skipped, res.Found)
	}

	for _, l := range fromA {
		got := v.fx.GetLead(ctx, l.ID)
		last := got.AssignmentHistory[len(got.AssignmentHistory)-1]
		if got.AssignedTo != v.agentB.ID || last.Action != models.ActionTransferred ||
			last.FromUser == nil || *last.FromUser != v.agentA.ID || last.ToUser != v.agentB.ID {
			t.Errorf("lead %s: owner %s last %+v", l.ID.Hex(), got.AssignedTo.Hex(), last)
		}
	}
	if n := len(v.fx.GetLead(ctx, alreadyB[0].ID).AssignmentHistory); n != 1 {
		t.Errorf("lead already owned by target got %d history entries, want 1", n)
	}

	if _, err := v.e.Transfer(ctx, hexIDs(fromA), v.admin.ID.Hex(), v.by); !errors.Is(err, ErrInvalidAgent) {
		t.Errorf("transfer to admin: err = %v", err)
	}
}

func TestDistribute_RoundRobinByID(t *testing.T) {
	v, ctx := setup(t)
	agentC := v.fx.CreateAgent(ctx, "Chen", "chen@example.com")
	leads := v.leads(ctx, 7, agentC.ID)

	// Reverse the request order; distribution follows _id order regardless.
	ids := hexIDs(leads)
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	res, err := v.e.Distribute(ctx, ids, []string{v.agentA.ID.Hex(), v.agentB.ID.Hex()}, "buffer fresh", v.by)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if res.Modified != 7 {
		t.Errorf("modified = %d, want 7", res.Modified)
	}
	if res.Breakdown[v.agentA.Label()] != 4 || res.Breakdown[v.agentB.Label()] != 3 {
		t.Errorf("breakdown = %v, want Asha 4 Bilal 3", res.Breakdown)
	}

	for i, l := range leads {
		want := v.agentA.ID
		if i%2 == 1 {
			want = v.agentB.ID
		}
		got := v.fx.GetLead(ctx, l.ID)
		if got.AssignedTo != want {
			t.Errorf("lead %d went to %s, want %s", i, got.AssignedTo.Hex(), want.Hex())
		}
		last := got.AssignmentHistory[len(got.AssignmentHistory)-1]
		if last.Action != models.ActionDistributed || *last.FromUser != agentC.ID {
			t.Errorf("lead %d last assignment = %+v", i, last)
		}
		if got.Status != models.StatusBufferFresh || len(got.StatusHistory) != 2 {
			t.Errorf("lead %d status %q history %d", i, got.Status, len(got.StatusHistory))
		}
	}
}

func TestDistribute_SkipsUnchangedParts(t *testing.T) {
	v, ctx := setup(t)
	l := v.fx.CreateLead(ctx, "Lead", "only@example.com", "", v.agentA.ID, v.admin.ID)

	res, err := v.e.Distribute(ctx, []string{l.ID.Hex()}, []string{v.agentA.ID.Hex()}, models.StatusFresh, v.by)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if res.Modified != 0 || res.Skipped != 1 {
		t.Errorf("modified %d skipped %d; want 0/1", res.Modified, res.Skipped)
	}
	got := v.fx.GetLead(ctx, l.ID)
	if len(got.AssignmentHistory) != 1 || len(got.StatusHistory) != 1 {
		t.Errorf("history grew on a no-op: %d/%d", len(got.AssignmentHistory), len(got.StatusHistory))
	}
}

func TestUpdate_Combined(t *testing.T) {
	v, ctx := setup(t)
	leads := v.leads(ctx, 2, v.agentA.ID)

	if _, err := v.e.Update(ctx, hexIDs(leads), UpdateRequest{}, v.by); !errors.Is(err, ErrNothingToUpdate) {
		t.Errorf("empty update: err = %v", err)
	}

	res, err := v.e.Update(ctx, hexIDs(leads), UpdateRequest{Status: models.StatusEnrolled, AgentID: v.agentB.ID.Hex()}, v.by)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Modified != 2 {
		t.Errorf("modified = %d, want 2", res.Modified)
	}
	for _, l := range leads {
		got := v.fx.GetLead(ctx, l.ID)
		if got.AssignedTo != v.agentB.ID || got.Status != models.StatusEnrolled {
			t.Errorf("lead %s: owner %s status %q", l.ID.Hex(), got.AssignedTo.Hex(), got.Status)
		}
		if len(got.AssignmentHistory) != 2 || len(got.StatusHistory) != 2 {
			t.Errorf("lead %s history %d/%d, want 2/2", l.ID.Hex(), len(got.AssignmentHistory), len(got.StatusHistory))
		}
	}

	// Status only: no assignment entries are added.
	res, err = v.e.Update(ctx, hexIDs(leads), UpdateRequest{Status: models.StatusJunk}, v.by)
	if err != nil {
		t.Fatalf("status-only Update: %v", err)
	}
	if res.Modified != 2 {
		t.Errorf("modified = %d, want 2", res.Modified)
	}
	if got := v.fx.GetLead(ctx, leads[0].ID); len(got.AssignmentHistory) != 2 || len(got.StatusHistory) != 3 {
		t.Errorf("history %d/%d, want 2/3", len(got.AssignmentHistory), len(got.StatusHistory))
	}
}

// Two agents with the same name stay apart in the breakdown.
func TestDistribute_SameNameAgents(t *testing.T) {
	v, ctx := setup(t)
	twin := v.fx.CreateAgent(ctx, "Asha", "asha.k@example.com")
	leads := v.leads(ctx, 3, v.agentB.ID)

	res, err := v.e.Distribute(ctx, hexIDs(leads), []string{v.agentA.ID.Hex(), twin.ID.Hex()}, "", v.by)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	want := map[string]int64{
		"Asha <asha@example.com>":   2,
		"Asha <asha.k@example.com>": 1,
	}
	if len(res.Breakdown) != len(want) {
		t.Fatalf("breakdown = %v, want %v", res.Breakdown, want)
	}
	for k, n := range want {
		if res.Breakdown[k] != n {
			t.Errorf("breakdown[%q] = %d, want %d", k, res.Breakdown[k], n)
		}
	}
}

func TestDistribute_RepeatedAgentRejected(t *testing.T) {
	v, ctx := setup(t)
	leads := v.leads(ctx, 2, v.agentB.ID)

	a := v.agentA.ID.Hex()
	_, err := v.e.Distribute(ctx, hexIDs(leads), []string{a, v.agentB.ID.Hex(), " " + a}, "", v.by)
	if !errors.Is(err, ErrInvalidAgent) {
		t.Fatalf("err = %v, want ErrInvalidAgent", err)
	}
	if got := err.Error(); got != "invalid agent: "+a+" listed more than once" {
		t.Errorf("message = %q", got)
	}
	for _, l := range leads {
		if got := v.fx.GetLead(ctx, l.ID); got.AssignedTo != v.agentB.ID {
			t.Errorf("lead %s moved despite rejection", l.ID.Hex())
		}
	}
}

func TestCapErrors(t *testing.T) {
	if got := capErrors(nil); got == nil || len(got) != 0 {
		t.Errorf("capErrors(nil) = %#v, want empty slice", got)
	}
	few := []string{"lead a: conflict", "lead b: conflict"}
	if got := capErrors(few); len(got) != 2 {
		t.Errorf("capErrors(2) kept %d", len(got))
	}
	many := make([]string, 3*MaxErrorSamples)
	for i := range many {
		many[i] = fmt.Sprintf("lead %d: write conflict", i)
	}
	got := capErrors(many)
	if len(got) != MaxErrorSamples || got[0] != many[0] || got[MaxErrorSamples-1] != many[MaxErrorSamples-1] {
		t.Errorf("capErrors kept %d, want the first %d", len(got), MaxErrorSamples)
	}
}
