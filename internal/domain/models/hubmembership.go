// internal/domain/models/hubmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub-level roles.
const (
	HubRoleMember = "member"
	HubRoleLead   = "lead"
)

// HubMembership links a user to a hub with a role. One row per
// (hub, user); created when a hub application is approved.
type HubMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HubID    primitive.ObjectID `bson:"hub_id" json:"hub_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     string             `bson:"role" json:"role"` // member | lead
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}
