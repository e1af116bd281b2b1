// internal/domain/models/formfile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission types for FormFile linkage.
const (
	SubmissionTypeMembership = "membership"
	SubmissionTypeHub        = "hub"
	SubmissionTypeContact    = "contact"
)

// FormFile is an uploaded file attached to a submission. Linkage to
// the submission is by the compound key (SubmissionID, SubmissionType,
// FieldName), not by a foreign key on the submission record; a field
// may carry several files when its constraints allow multiple.
type FormFile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubmissionID   primitive.ObjectID `bson:"submission_id" json:"submission_id"`
	SubmissionType string             `bson:"submission_type" json:"submission_type"`
	FieldName      string             `bson:"field_name" json:"field_name"`

	Path        string    `bson:"path" json:"path"` // storage key
	FileName    string    `bson:"file_name" json:"file_name"`
	Size        int64     `bson:"size" json:"size"`
	ContentType string    `bson:"content_type,omitempty" json:"content_type,omitempty"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}
