package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberSnapshot returns a snapshot for a plain member.
func MemberSnapshot() models.UserSnapshot {
	return models.UserSnapshot{
		ID:         primitive.NewObjectID().Hex(),
		Email:      "member@test.com",
		FullName:   "Test Member",
		GlobalRole: models.RoleMember,
	}
}

// AdminSnapshot returns a snapshot for a global admin.
func AdminSnapshot() models.UserSnapshot {
	return models.UserSnapshot{
		ID:            primitive.NewObjectID().Hex(),
		Email:         "admin@test.com",
		FullName:      "Test Admin",
		GlobalRole:    models.RoleAdmin,
		IsGlobalAdmin: true,
	}
}

// SuperAdminSnapshot returns a snapshot for a superadmin.
func SuperAdminSnapshot() models.UserSnapshot {
	return models.UserSnapshot{
		ID:            primitive.NewObjectID().Hex(),
		Email:         "super@test.com",
		FullName:      "Test SuperAdmin",
		GlobalRole:    models.RoleSuperAdmin,
		IsGlobalAdmin: true,
		IsSuperAdmin:  true,
	}
}

// HubLeadSnapshot returns a member snapshot that leads the given hub.
func HubLeadSnapshot(hubID primitive.ObjectID, hubName string) models.UserSnapshot {
	snap := MemberSnapshot()
	snap.HubMemberships = []models.HubMembershipSummary{
		{HubID: hubID.Hex(), Role: models.HubRoleLead, HubName: hubName},
	}
	return snap
}

// WithUser injects a snapshot into the request context for testing
// authenticated handlers, bypassing the cookie middleware.
func WithUser(r *http.Request, snap models.UserSnapshot) *http.Request {
	return auth.WithTestUser(r, &snap)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
