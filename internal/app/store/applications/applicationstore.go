// Package applicationstore persists membership and hub applications.
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyReviewed is returned when a decision races with or
	// repeats another. The store transitions pending -> decided exactly
	// once; the losing reviewer gets this error, never a silent accept.
	ErrAlreadyReviewed = errors.New("application has already been reviewed")

	// ErrPendingExists prevents a submitter from stacking duplicate
	// pending applications of the same kind.
	ErrPendingExists = errors.New("a pending application already exists for this submitter")

	errBadKind    = errors.New(`application kind must be "membership" or "hub"`)
	errBadVerdict = errors.New(`verdict must be "approved" or "rejected"`)
	errHubNeeded  = errors.New("hub applications must reference a hub")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Review queues: pending first, newest first within a status.
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_applications_queue"),
		},
		{
			Keys:    bson.D{{Key: "submitter.email", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetName("idx_applications_submitter"),
		},
		{
			Keys:    bson.D{{Key: "hub_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_applications_hub"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create files a new application in pending status. The caller has
// already validated the answers against the live definition; Create
// freezes the snapshot it is given.
func (s *Store) Create(ctx context.Context, app models.Application) (models.Application, error) {
	switch app.Kind {
	case models.FormKindMembership:
	case models.FormKindHub:
		if app.HubID == nil {
			return models.Application{}, errHubNeeded
		}
	default:
		return models.Application{}, errBadKind
	}

	app.Submitter.Email = normalize.Email(app.Submitter.Email)
	app.Submitter.FullName = normalize.Name(app.Submitter.FullName)

	dupFilter := bson.M{
		"submitter.email": app.Submitter.Email,
		"kind":            app.Kind,
		"status":          models.StatusPending,
	}
	if app.Kind == models.FormKindHub {
		dupFilter["hub_id"] = app.HubID
	}
	n, err := s.c.CountDocuments(ctx, dupFilter)
	if err != nil {
		return models.Application{}, err
	}
	if n > 0 {
		return models.Application{}, ErrPendingExists
	}

	app.ID = primitive.NewObjectID()
	app.Status = models.StatusPending
	app.SubmittedAt = time.Now().UTC()
	app.ReviewedBy = nil
	app.ReviewedAt = nil
	app.Notes = ""

	if _, err := s.c.InsertOne(ctx, app); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

// GetByID loads an application.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var app models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Review transitions a pending application to approved or rejected.
// The filter matches only pending documents, so exactly one reviewer
// wins; everyone else gets ErrAlreadyReviewed.
func (s *Store) Review(ctx context.Context, id, reviewerID primitive.ObjectID, verdict, notes string) (*models.Application, error) {
	if verdict != models.StatusApproved && verdict != models.StatusRejected {
		return nil, errBadVerdict
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":      verdict,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
		"notes":       notes,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var app models.Application
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.StatusPending}, update, opts).Decode(&app)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish "already decided" from "no such application".
			if exists, exErr := s.exists(ctx, id); exErr == nil && exists {
				return nil, ErrAlreadyReviewed
			}
			return nil, mongo.ErrNoDocuments
		}
		return nil, err
	}
	return &app, nil
}

func (s *Store) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// QueuePage returns one page of applications of a kind filtered by
// status ("" means all), newest first.
func (s *Store) QueuePage(ctx context.Context, kind, status string, page, perPage int64) ([]models.Application, int64, error) {
	if page < 1 {
		page = 1
	}
	filter := bson.M{"kind": kind}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetSkip((page - 1) * perPage).
		SetLimit(perPage)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// PendingCount returns the number of pending applications of a kind,
// for the dashboard badge.
func (s *Store) PendingCount(ctx context.Context, kind string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"kind": kind, "status": models.StatusPending})
}

// ListForSubmitter returns the applications a signed-in member filed,
// newest first, for the member portal status view.
func (s *Store) ListForSubmitter(ctx context.Context, email string) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"submitter.email": normalize.Email(email)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
