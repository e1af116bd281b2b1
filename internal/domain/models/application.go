// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application review statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Submitter identifies who filed a submission. UserID is nil for
// anonymous submitters (membership applicants are not yet users).
type Submitter struct {
	UserID   *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Email    string              `bson:"email" json:"email"`
	FullName string              `bson:"full_name" json:"full_name"`
}

// Application is a membership or hub-membership application submitted
// against the live form definition of its kind. The definition is
// frozen into Snapshot at submission time.
//
// Status transitions exactly once: pending -> approved | rejected.
// A second review attempt is rejected, never silently accepted, so
// decision emails cannot be sent twice.
type Application struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind      string              `bson:"kind" json:"kind"` // membership | hub
	HubID     *primitive.ObjectID `bson:"hub_id,omitempty" json:"hub_id,omitempty"`
	Submitter Submitter           `bson:"submitter" json:"submitter"`

	Answers  map[string]any `bson:"answers" json:"answers"` // keyed by field id
	Snapshot FormSnapshot   `bson:"form_snapshot" json:"form_snapshot"`

	Status      string              `bson:"status" json:"status"`
	SubmittedAt time.Time           `bson:"submitted_at" json:"submitted_at"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
}
