// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
)

// listItem is one audit event with actor and target names resolved.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	TargetName string            `json:"target_name,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events []listItem  `json:"events"`
	Page   paging.Meta `json:"page"`
}

var authEvents = []string{
	audit.EventLoginSuccess,
	audit.EventLoginFailedUserNotFound,
	audit.EventLoginFailedWrongPassword,
	audit.EventLoginFailedRateLimit,
	audit.EventLogout,
}

var adminEvents = []string{
	audit.EventAgentCreated,
	audit.EventAgentDeleted,
	audit.EventAgentDeleteBlocked,
	audit.EventAdminBootstrapped,
}

var leadEvents = []string{
	audit.EventLeadsUploaded,
	audit.EventLeadsBulkDeleted,
	audit.EventLeadsBulkStatus,
	audit.EventLeadsBulkTransfer,
	audit.EventLeadsDistributed,
	audit.EventLeadsBulkUpdated,
	audit.EventLeadDeleted,
	audit.EventLeadsExported,
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types; an unknown category
// returns nil.
func eventTypesForCategory(category string) []string {
	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryLeads:
		return leadEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(leadEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, leadEvents...)
		return all
	default:
		return nil
	}
}
