// internal/app/features/auditlog/failedlogins.go
package auditlog

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const (
	defaultFailedHours = 24
	maxFailedHours     = 30 * 24
	// failedLoginScan caps how many recent failures one request reads.
	failedLoginScan = 500
)

type failedAccount struct {
	Email       string    `json:"email"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
}

type failedIP struct {
	IP       string `json:"ip"`
	Attempts int    `json:"attempts"`
}

type failedLoginsResponse struct {
	Since     time.Time       `json:"since"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated"`
	Accounts  []failedAccount `json:"accounts"`
	IPs       []failedIP      `json:"ips"`
	Events    []listItem      `json:"events"`
}

// ServeFailedLogins handles GET /admin/audit/failed-logins?hours=N: refused
// sign-ins over the last N hours (default 24, at most 720), grouped by the
// email that was tried and by client IP, busiest first.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	hours := defaultFailedHours
	if s := strings.TrimSpace(query.Get(r, "hours")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxFailedHours {
			uierrors.BadRequest(w, "hours must be between 1 and "+strconv.Itoa(maxFailedHours))
			return
		}
		hours = n
	}
	since := h.now().Add(-time.Duration(hours) * time.Hour)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	events, err := h.Events.FailedLogins(ctx, since, failedLoginScan)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query failed logins", err, "Something went wrong. Please try again.")
		return
	}

	uierrors.JSON(w, http.StatusOK, failedLoginsResponse{
		Since:     since,
		Total:     len(events),
		Truncated: len(events) == failedLoginScan,
		Accounts:  groupByAccount(events),
		IPs:       groupByIP(events),
		Events:    h.items(ctx, events),
	})
}

// attemptedEmail is the address a failed sign-in used; unknown accounts
// record it as attempted_email.
func attemptedEmail(e audit.Event) string {
	if v := e.Details["attempted_email"]; v != "" {
		return normalize.Email(v)
	}
	return normalize.Email(e.Details["email"])
}

// groupByAccount expects events newest first.
func groupByAccount(events []audit.Event) []failedAccount {
	idx := map[string]int{}
	out := []failedAccount{}
	for _, e := range events {
		email := attemptedEmail(e)
		if email == "" {
			continue
		}
		i, ok := idx[email]
		if !ok {
			idx[email] = len(out)
			out = append(out, failedAccount{Email: email, LastAttempt: e.Timestamp})
			i = len(out) - 1
		}
		out[i].Attempts++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Attempts > out[b].Attempts })
	return out
}

func groupByIP(events []audit.Event) []failedIP {
	idx := map[string]int{}
	out := []failedIP{}
	for _, e := range events {
		if e.IP == "" {
			continue
		}
		i, ok := idx[e.IP]
		if !ok {
			idx[e.IP] = len(out)
			out = append(out, failedIP{IP: e.IP})
			i = len(out) - 1
		}
		out[i].Attempts++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Attempts > out[b].Attempts })
	return out
}
