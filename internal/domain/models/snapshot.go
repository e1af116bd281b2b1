// internal/domain/models/snapshot.go
package models

import "time"

// HubMembershipSummary is the slice of a hub membership that travels
// inside a UserSnapshot.
type HubMembershipSummary struct {
	HubID   string `bson:"hub_id" json:"hubId"`
	Role    string `bson:"role" json:"role"` // member | lead
	HubName string `bson:"hub_name" json:"hubName"`
}

// UserSnapshot is the denormalized projection of a user that is
// mirrored into the user_data cookie so routing decisions never need a
// database round trip.
//
// It is a cache, never a source of truth: it must always be
// re-derivable from the authoritative User record and is refreshed at
// least once per access-token lifetime.
type UserSnapshot struct {
	ID                string                 `json:"id"`
	Email             string                 `json:"email"`
	FullName          string                 `json:"fullName"`
	GlobalRole        string                 `json:"globalRole"`
	IsGlobalAdmin     bool                   `json:"isGlobalAdmin"`
	IsSuperAdmin      bool                   `json:"isSuperAdmin"`
	HasTemporaryAdmin bool                   `json:"hasTemporaryAdmin"`
	HubMemberships    []HubMembershipSummary `json:"hubMemberships,omitempty"`
}

// NewUserSnapshot derives a snapshot from the authoritative user record
// and their hub memberships, evaluated at time t.
func NewUserSnapshot(u *User, memberships []HubMembershipSummary, t time.Time) UserSnapshot {
	return UserSnapshot{
		ID:                u.ID.Hex(),
		Email:             u.Email,
		FullName:          u.FullName,
		GlobalRole:        u.Role,
		IsGlobalAdmin:     u.IsAdminAt(t),
		IsSuperAdmin:      u.Role == RoleSuperAdmin,
		HasTemporaryAdmin: u.HasTemporaryAdmin(t),
		HubMemberships:    memberships,
	}
}
