// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Global roles. Hub-level roles live on HubMembership.
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User represents members, admins, and superadmins of the network.
//
// NOTE:
//   - Hub membership is not embedded on User.
//     Use the hub_memberships collection to discover a user's hubs.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	Role         string             `bson:"role" json:"role"`                                   // member | admin | superadmin
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`           // active | disabled

	// Temporary admin elevation, granted by a superadmin with an expiry.
	TemporaryAdminUntil *time.Time `bson:"temporary_admin_until,omitempty" json:"temporary_admin_until,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasTemporaryAdmin reports whether a temporary admin grant is active at t.
func (u *User) HasTemporaryAdmin(t time.Time) bool {
	return u.TemporaryAdminUntil != nil && t.Before(*u.TemporaryAdminUntil)
}

// IsAdminAt reports whether the user holds any admin power at t,
// through role or an unexpired temporary grant.
func (u *User) IsAdminAt(t time.Time) bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin || u.HasTemporaryAdmin(t)
}
