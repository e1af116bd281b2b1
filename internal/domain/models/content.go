// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content kinds for the public marketing pages.
const (
	ContentEvent       = "event"
	ContentProject     = "project"
	ContentPublication = "publication"
	ContentCareer      = "career"
)

// ContentItem is a published marketing entry: an event, a project, a
// publication, or a career posting. Body is stored as sanitized HTML.
type ContentItem struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind    string             `bson:"kind" json:"kind"`
	Slug    string             `bson:"slug" json:"slug"`
	Title   string             `bson:"title" json:"title"`
	Summary string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Body    string             `bson:"body,omitempty" json:"body,omitempty"`

	// Events only.
	StartsAt *time.Time `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	Location string     `bson:"location,omitempty" json:"location,omitempty"`

	Status      string     `bson:"status" json:"status"` // draft | published
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
