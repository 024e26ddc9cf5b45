// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Placeholders stored when an input row leaves a field blank.
const (
	UnknownName   = "Unknown"
	NotApplicable = "N/A"
)

// Assignment actions recorded in a lead's assignment history.
const (
	ActionAssigned    = "assigned"
	ActionTransferred = "transferred"
	ActionDistributed = "distributed"
)

// Lead is a prospective-student record tracked through the sales pipeline.
//
// Status always equals the status of the last StatusHistory entry, and
// AssignedTo always equals the ToUser of the last AssignmentHistory entry.
// The lead stores keep both halves in one document update so the pair
// cannot drift apart.
type Lead struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name    string `bson:"name" json:"name"`
	Contact string `bson:"contact" json:"contact"` // digits only
	Email   string `bson:"email" json:"email"`     // lower-cased

	City       string `bson:"city" json:"city"`
	University string `bson:"university" json:"university"`
	Course     string `bson:"course" json:"course"`
	Profession string `bson:"profession" json:"profession"`
	Source     string `bson:"source" json:"source"`

	Status        string        `bson:"status" json:"status"`
	StatusHistory []StatusEntry `bson:"status_history" json:"status_history"`

	AssignedTo        primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`
	AssignmentHistory []AssignmentEntry  `bson:"assignment_history" json:"assignment_history"`

	Notes []Note `bson:"notes" json:"notes"`

	LastContactDate *time.Time `bson:"last_contact_date,omitempty" json:"last_contact_date,omitempty"`
	NextCallAt      *time.Time `bson:"next_call_at,omitempty" json:"next_call_at,omitempty"`

	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
	LastUpdatedBy UpdatedBy `bson:"last_updated_by" json:"last_updated_by"`
}

// StatusEntry is one immutable record in Lead.StatusHistory.
type StatusEntry struct {
	Status    string             `bson:"status" json:"status"`
	ChangedBy primitive.ObjectID `bson:"changed_by" json:"changed_by"`
	ChangedAt time.Time          `bson:"changed_at" json:"changed_at"`
}

// AssignmentEntry is one immutable record in Lead.AssignmentHistory.
// FromUser is nil only for the initial assignment.
type AssignmentEntry struct {
	Action    string              `bson:"action" json:"action"` // assigned | transferred | distributed
	FromUser  *primitive.ObjectID `bson:"from_user" json:"from_user"`
	ToUser    primitive.ObjectID  `bson:"to_user" json:"to_user"`
	ChangedBy primitive.ObjectID  `bson:"changed_by" json:"changed_by"`
	ChangedAt time.Time           `bson:"changed_at" json:"changed_at"`
}

// Note is an append-only comment on a lead.
type Note struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Content   string             `bson:"content" json:"content"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// UpdatedBy attributes the most recent mutation. Role lets the polling
// endpoint tell admin-driven changes apart from agent-driven ones.
type UpdatedBy struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role   string             `bson:"role" json:"role"`
}
