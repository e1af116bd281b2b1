// Package formdefstore manages the live form definitions. Each form
// kind has exactly one live definition; saving replaces it in place.
// Past versions survive only as snapshots frozen into submissions.
package formdefstore

import (
	"context"
	"errors"
	"time"

	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadKind = errors.New(`form kind must be "membership"|"hub"|"contact"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("form_definitions")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}},
			Options: options.Index().SetName("idx_formdefs_kind").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Get returns the live definition for the kind.
// Returns mongo.ErrNoDocuments if none has been saved yet.
func (s *Store) Get(ctx context.Context, kind string) (*models.FormDefinition, error) {
	var def models.FormDefinition
	if err := s.c.FindOne(ctx, bson.M{"kind": kind}).Decode(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Save validates and upserts the live definition for its kind.
// Structural problems (duplicate ids, unknown types, enumerated fields
// without options) are rejected before anything is written.
func (s *Store) Save(ctx context.Context, def models.FormDefinition, updatedBy primitive.ObjectID) (*models.FormDefinition, error) {
	switch def.Kind {
	case models.FormKindMembership, models.FormKindHub, models.FormKindContact:
	default:
		return nil, errBadKind
	}
	if err := formschema.ValidateDefinition(def.Fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"fields":     def.Fields,
			"updated_by": updatedBy,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"kind":       def.Kind,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved models.FormDefinition
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"kind": def.Kind}, update, opts).Decode(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// EnsureDefaults inserts a minimal starter definition for any kind
// that has none, so public forms render on a fresh database.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	defaults := map[string][]models.FormField{
		models.FormKindMembership: {
			{ID: "full_name", Label: "Full name", Type: models.FieldText, Required: true},
			{ID: "email", Label: "Email", Type: models.FieldEmail, Required: true},
			{ID: "motivation", Label: "Why do you want to join?", Type: models.FieldTextarea, Required: true},
		},
		models.FormKindHub: {
			{ID: "motivation", Label: "Why this hub?", Type: models.FieldTextarea, Required: true},
		},
		models.FormKindContact: {
			{ID: "full_name", Label: "Full name", Type: models.FieldText, Required: true},
			{ID: "email", Label: "Email", Type: models.FieldEmail, Required: true},
			{ID: "message", Label: "Message", Type: models.FieldTextarea, Required: true},
		},
	}

	now := time.Now().UTC()
	for kind, fields := range defaults {
		update := bson.M{
			"$setOnInsert": bson.M{
				"kind":       kind,
				"fields":     fields,
				"created_at": now,
				"updated_at": now,
			},
		}
		opts := options.Update().SetUpsert(true)
		if _, err := s.c.UpdateOne(ctx, bson.M{"kind": kind}, update, opts); err != nil {
			return err
		}
	}
	return nil
}
