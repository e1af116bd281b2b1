// internal/domain/models/reportrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report-access request states. Granted and denied are terminal.
const (
	StatusGranted = "granted"
	StatusDenied  = "denied"
)

// ReportAccessTTL is how long a granted access link stays valid.
const ReportAccessTTL = 30 * 24 * time.Hour

// ReportAccessRequest is a request to read a restricted technical
// report (a publication whose full body is not public). An admin
// grants or denies it; a grant mints a link-bearing access token.
type ReportAccessRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID    primitive.ObjectID `bson:"report_id" json:"report_id"`
	ReportTitle string             `bson:"report_title" json:"report_title"`
	Requester   Submitter          `bson:"requester" json:"requester"`

	Status      string              `bson:"status" json:"status"` // pending | granted | denied
	SubmittedAt time.Time           `bson:"submitted_at" json:"submitted_at"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Reason      string              `bson:"reason,omitempty" json:"reason,omitempty"`

	// Granted requests only.
	AccessToken     string     `bson:"access_token,omitempty" json:"-"`
	AccessExpiresAt *time.Time `bson:"access_expires_at,omitempty" json:"access_expires_at,omitempty"`
}
