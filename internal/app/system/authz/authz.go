// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session: fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor returns the signed-in user as the attribution stamped on lead
// mutations.
func Actor(r *http.Request) (models.UpdatedBy, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return models.UpdatedBy{}, false
	}
	return models.UpdatedBy{UserID: id, Role: role}, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsAgent reports whether the current request's user is a sales agent.
func IsAgent(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleUser
}

// CanTouchLead reports whether the caller may read or change a lead
// assigned to owner. Admins see everything; agents only their own leads.
func CanTouchLead(r *http.Request, owner primitive.ObjectID) bool {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return false
	}
	return role == models.RoleAdmin || id == owner
}
