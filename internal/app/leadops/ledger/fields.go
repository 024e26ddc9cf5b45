// internal/app/leadops/ledger/fields.go
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/dedup"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fields is a partial edit of a lead's descriptive data. Nil pointers are
// left unchanged. Status and owner are changed only through SetStatus and
// Transfer so their history stays complete.
type Fields struct {
	Name            *string    `json:"name,omitempty"`
	Contact         *string    `json:"contact,omitempty"`
	Email           *string    `json:"email,omitempty"`
	City            *string    `json:"city,omitempty"`
	University      *string    `json:"university,omitempty"`
	Course          *string    `json:"course,omitempty"`
	Profession      *string    `json:"profession,omitempty"`
	Source          *string    `json:"source,omitempty"`
	LastContactDate *time.Time `json:"last_contact_date,omitempty"`
	NextCallAt      *time.Time `json:"next_call_at,omitempty"`
}

func (f Fields) set() bson.M {
	m := bson.M{}
	if f.Name != nil {
		m["name"] = orDefault(*f.Name, models.UnknownName)
	}
	if f.Contact != nil {
		m["contact"] = dedup.NormalizeContact(*f.Contact)
	}
	if f.Email != nil {
		m["email"] = dedup.NormalizeEmail(*f.Email)
	}
	for key, v := range map[string]*string{
		"city":       f.City,
		"university": f.University,
		"course":     f.Course,
		"profession": f.Profession,
		"source":     f.Source,
	} {
		if v != nil {
			m[key] = orDefault(*v, models.NotApplicable)
		}
	}
	if f.LastContactDate != nil {
		m["last_contact_date"] = f.LastContactDate.UTC()
	}
	if f.NextCallAt != nil {
		m["next_call_at"] = f.NextCallAt.UTC()
	}
	return m
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// UpdateFields edits descriptive fields and contact dates. A new email or
// contact that another lead already uses is rejected.
func (l *Ledger) UpdateFields(ctx context.Context, id primitive.ObjectID, f Fields, by models.UpdatedBy) error {
	set := f.set()
	if len(set) == 0 {
		return ErrNothingToUpdate
	}
	if _, err := l.Get(ctx, id, by); err != nil {
		return err
	}
	if f.Email != nil || f.Contact != nil {
		email, _ := set["email"].(string)
		contact, _ := set["contact"].(string)
		taken, err := l.Leads.KeyTaken(ctx, email, contact, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateLead
		}
	}
	if err := l.Leads.UpdateFields(ctx, id, set, by, l.clock()); err != nil {
		return err
	}
	l.invalidate(ctx)
	return nil
}

// NewLead is a lead entered by hand.
type NewLead struct {
	Fields
	AssignedTo primitive.ObjectID
	Status     string // blank means Fresh
}

// Create inserts one lead with initialized history, applying the same
// defaults and duplicate rules as an upload.
func (l *Ledger) Create(ctx context.Context, in NewLead, by models.UpdatedBy) (models.Lead, error) {
	status := models.DefaultStatus
	if strings.TrimSpace(in.Status) != "" {
		if status = models.CanonicalStatus(in.Status); status == "" {
			return models.Lead{}, ErrInvalidStatus
		}
	}
	if err := l.checkAgent(ctx, in.AssignedTo); err != nil {
		return models.Lead{}, err
	}

	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	now := l.clock()
	lead := models.Lead{
		ID:         primitive.NewObjectID(),
		Name:       orDefault(str(in.Name), models.UnknownName),
		Contact:    dedup.NormalizeContact(str(in.Contact)),
		Email:      dedup.NormalizeEmail(str(in.Email)),
		City:       orDefault(str(in.City), models.NotApplicable),
		University: orDefault(str(in.University), models.NotApplicable),
		Course:     orDefault(str(in.Course), models.NotApplicable),
		Profession: orDefault(str(in.Profession), models.NotApplicable),
		Source:     orDefault(str(in.Source), models.NotApplicable),
		Status:     status,
		StatusHistory: []models.StatusEntry{{
			Status:    status,
			ChangedBy: by.UserID,
			ChangedAt: now,
		}},
		AssignedTo: in.AssignedTo,
		AssignmentHistory: []models.AssignmentEntry{{
			Action:    models.ActionAssigned,
			ToUser:    in.AssignedTo,
			ChangedBy: by.UserID,
			ChangedAt: now,
		}},
		LastContactDate: in.LastContactDate,
		NextCallAt:      in.NextCallAt,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastUpdatedBy:   by,
	}

	taken, err := l.Leads.KeyTaken(ctx, lead.Email, lead.Contact, primitive.NilObjectID)
	if err != nil {
		return models.Lead{}, err
	}
	if taken {
		return models.Lead{}, ErrDuplicateLead
	}

	created, err := l.Leads.Create(ctx, lead)
	if err != nil {
		return models.Lead{}, err
	}
	l.invalidate(ctx)
	return created, nil
}
