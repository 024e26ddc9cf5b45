// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. Agents carry RoleUser.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents admins and sales agents.
//
// Leads reference agents by ID through Lead.AssignedTo; an agent cannot be
// removed while any lead still points at them.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // admin | user

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsAgent reports whether leads may be assigned to u.
func (u User) IsAgent() bool { return u.Role == RoleUser }

// Label names u uniquely in summaries; two agents may share a full name
// but never an email.
func (u User) Label() string { return u.FullName + " <" + u.Email + ">" }
