// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /admin/audit: recorded events, newest first,
// filtered by category, event_type, user_id (affected account), actor_id,
// start_date and end_date (YYYY-MM-DD, both inclusive) and paged with
// page/limit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(strings.TrimSpace(query.Get(r, "category")))
	eventType := strings.ToLower(strings.TrimSpace(query.Get(r, "event_type")))

	known := eventTypesForCategory(category)
	if known == nil {
		uierrors.BadRequest(w, "unknown category")
		return
	}
	if eventType != "" && !slices.Contains(known, eventType) {
		uierrors.BadRequest(w, "unknown event_type")
		return
	}

	p := paging.Parse(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     p.Limit64(),
		Offset:    p.Skip(),
	}

	for _, f := range []struct {
		param string
		dst   **primitive.ObjectID
	}{
		{"user_id", &filter.UserID},
		{"actor_id", &filter.ActorID},
	} {
		s := strings.TrimSpace(query.Get(r, f.param))
		if s == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			uierrors.BadRequest(w, f.param+" is not a valid id")
			return
		}
		*f.dst = &id
	}

	if s := strings.TrimSpace(query.Get(r, "start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			uierrors.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(query.Get(r, "end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			uierrors.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	if filter.StartTime != nil && filter.EndTime != nil && filter.EndTime.Before(*filter.StartTime) {
		uierrors.BadRequest(w, "end_date is before start_date")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "Something went wrong. Please try again.")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "Something went wrong. Please try again.")
		return
	}

	items := h.items(ctx, events)
	uierrors.JSON(w, http.StatusOK, listResponse{Events: items, Page: paging.NewMeta(p, total)})
}

// items converts events for the response, resolving actor and target
// names in one lookup.
func (h *Handler) items(ctx context.Context, events []audit.Event) []listItem {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}

	// Names are cosmetic; a lookup failure still returns the events.
	names, err := h.Users.Names(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		names = map[primitive.ObjectID]string{}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = names[*e.UserID]
		}
		items = append(items, item)
	}
	return items
}
