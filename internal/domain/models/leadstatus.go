// internal/domain/models/leadstatus.go
package models

import "strings"

// Lead statuses, in pipeline order.
const (
	StatusFresh               = "Fresh"
	StatusBufferFresh         = "Buffer fresh"
	StatusDidNotPick          = "Did not pick"
	StatusRequestCallBack     = "Request call back"
	StatusFollowUp            = "Follow up"
	StatusCounselled          = "Counselled"
	StatusInterestedNextBatch = "Interested in next batch"
	StatusRegistrationPaid    = "Registration fees paid"
	StatusEnrolled            = "Enrolled"
	StatusJunk                = "Junk/not interested"
)

// DefaultStatus is given to every newly created lead.
const DefaultStatus = StatusFresh

var leadStatuses = []string{
	StatusFresh,
	StatusBufferFresh,
	StatusDidNotPick,
	StatusRequestCallBack,
	StatusFollowUp,
	StatusCounselled,
	StatusInterestedNextBatch,
	StatusRegistrationPaid,
	StatusEnrolled,
	StatusJunk,
}

// LeadStatuses returns the allowed statuses in pipeline order.
func LeadStatuses() []string {
	out := make([]string, len(leadStatuses))
	copy(out, leadStatuses)
	return out
}

// IsValidStatus reports whether s is one of the allowed statuses (exact match).
func IsValidStatus(s string) bool {
	for _, v := range leadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanonicalStatus resolves s case-insensitively to an allowed status.
// It returns "" if s is not recognized.
func CanonicalStatus(s string) string {
	s = strings.TrimSpace(s)
	for _, v := range leadStatuses {
		if strings.EqualFold(v, s) {
			return v
		}
	}
	return ""
}
