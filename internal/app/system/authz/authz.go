// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's global role, name, Mongo ObjectID, and a
// found flag. If no user is present or the snapshot ID is malformed it
// returns "visitor", "", NilObjectID, false, so ok=true always means a
// valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	snap, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(snap.ID)
	if err != nil {
		// Malformed id in the snapshot - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return snap.GlobalRole, snap.FullName, userID, true
}

// IsAdmin reports whether the current request's user holds admin
// power, including a temporary admin grant.
func IsAdmin(r *http.Request) bool {
	snap, ok := auth.CurrentUser(r)
	return ok && snap.IsGlobalAdmin
}

// IsSuperAdmin reports whether the current request's user is a
// superadmin.
func IsSuperAdmin(r *http.Request) bool {
	snap, ok := auth.CurrentUser(r)
	return ok && snap.IsSuperAdmin
}

// HubRole returns the user's role in the given hub, "" if they are not
// a member of it. Read from the snapshot: staleness is bounded by the
// access-token TTL.
func HubRole(r *http.Request, hubID string) string {
	snap, ok := auth.CurrentUser(r)
	if !ok {
		return ""
	}
	for _, m := range snap.HubMemberships {
		if m.HubID == hubID {
			return m.Role
		}
	}
	return ""
}

// IsHubLead reports whether the user leads the given hub.
func IsHubLead(r *http.Request, hubID string) bool {
	return HubRole(r, hubID) == "lead"
}
