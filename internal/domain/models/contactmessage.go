// internal/domain/models/contactmessage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact message statuses. Unlike application review, read is not
// terminal: a read message can still become replied.
const (
	StatusUnread  = "unread"
	StatusRead    = "read"
	StatusReplied = "replied"
)

// ContactMessage is a submission against the contact form. Same
// snapshot rules as Application, different lifecycle.
type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Submitter Submitter          `bson:"submitter" json:"submitter"`

	Answers  map[string]any `bson:"answers" json:"answers"`
	Snapshot FormSnapshot   `bson:"form_snapshot" json:"form_snapshot"`

	Status      string              `bson:"status" json:"status"` // unread | read | replied
	SubmittedAt time.Time           `bson:"submitted_at" json:"submitted_at"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
}
