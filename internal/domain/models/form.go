// internal/domain/models/form.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType is the closed set of dynamic form field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldTel      FieldType = "tel"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"
)

// Form kinds. Each kind has exactly one live definition.
const (
	FormKindMembership = "membership"
	FormKindHub        = "hub"
	FormKindContact    = "contact"
)

// FileConstraints restricts uploads for a file field. Enforced
// client-side for feedback and re-validated server-side at accept
// time, since client checks are bypassable.
type FileConstraints struct {
	FileTypes   []string `bson:"file_types,omitempty" json:"fileTypes,omitempty"` // MIME types or extensions
	MaxFileSize int64    `bson:"max_file_size,omitempty" json:"maxFileSize,omitempty"`
	Multiple    bool     `bson:"multiple,omitempty" json:"multiple,omitempty"`
}

// FormField is one field of a dynamic form definition.
type FormField struct {
	ID          string    `bson:"id" json:"id"` // unique within the definition
	Label       string    `bson:"label" json:"label"`
	Type        FieldType `bson:"type" json:"type"`
	Required    bool      `bson:"required" json:"required"`
	Placeholder string    `bson:"placeholder,omitempty" json:"placeholder,omitempty"`
	Options     []string  `bson:"options,omitempty" json:"options,omitempty"` // select | radio | checkbox

	// Validation constraints.
	MinLength int      `bson:"min_length,omitempty" json:"minLength,omitempty"`
	MaxLength int      `bson:"max_length,omitempty" json:"maxLength,omitempty"`
	Pattern   string   `bson:"pattern,omitempty" json:"pattern,omitempty"`
	Min       *float64 `bson:"min,omitempty" json:"min,omitempty"` // number fields
	Max       *float64 `bson:"max,omitempty" json:"max,omitempty"`

	File *FileConstraints `bson:"file,omitempty" json:"file,omitempty"`
}

// FormDefinition is the live, mutable definition of a form. Prior
// definitions are retained only through snapshots frozen into
// submissions; the definition itself carries no history.
type FormDefinition struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind      string             `bson:"kind" json:"kind"` // membership | hub | contact
	Fields    []FormField        `bson:"fields" json:"fields"`
	UpdatedBy primitive.ObjectID `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// FormSnapshot is the point-in-time copy of a definition's fields
// frozen into a submission, so later edits to the live definition
// never change how past submissions are interpreted.
type FormSnapshot struct {
	FormID  primitive.ObjectID `bson:"form_id" json:"form_id"`
	Kind    string             `bson:"kind" json:"kind"`
	Fields  []FormField        `bson:"fields" json:"fields"`
	TakenAt time.Time          `bson:"taken_at" json:"taken_at"`
}
