// Package reportstore persists technical-report access requests. The
// decision transition mirrors application review: pending -> decided
// happens exactly once, and a grant mints the access token inside the
// same update.
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyDecided is returned when a decision races with or
	// repeats another; the losing reviewer never silently overwrites
	// the first verdict.
	ErrAlreadyDecided = errors.New("report access request has already been decided")

	// ErrPendingExists prevents a requester from stacking duplicate
	// pending requests for the same report.
	ErrPendingExists = errors.New("a pending request already exists for this report")

	// ErrAccessNotFound covers unknown, denied, and expired access
	// tokens alike.
	ErrAccessNotFound = errors.New("access link invalid or expired")

	errBadVerdict = errors.New(`verdict must be "granted" or "denied"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("report_access_requests")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_reports_queue"),
		},
		{
			Keys:    bson.D{{Key: "access_token", Value: 1}},
			Options: options.Index().SetName("idx_reports_access_token").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "report_id", Value: 1}, {Key: "requester.email", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_reports_requester"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create files a new access request in pending status.
func (s *Store) Create(ctx context.Context, req models.ReportAccessRequest) (models.ReportAccessRequest, error) {
	req.Requester.Email = normalize.Email(req.Requester.Email)
	req.Requester.FullName = normalize.Name(req.Requester.FullName)

	n, err := s.c.CountDocuments(ctx, bson.M{
		"report_id":       req.ReportID,
		"requester.email": req.Requester.Email,
		"status":          models.StatusPending,
	})
	if err != nil {
		return models.ReportAccessRequest{}, err
	}
	if n > 0 {
		return models.ReportAccessRequest{}, ErrPendingExists
	}

	req.ID = primitive.NewObjectID()
	req.Status = models.StatusPending
	req.SubmittedAt = time.Now().UTC()
	req.ReviewedBy = nil
	req.ReviewedAt = nil
	req.Reason = ""
	req.AccessToken = ""
	req.AccessExpiresAt = nil

	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.ReportAccessRequest{}, err
	}
	return req, nil
}

// GetByID loads a request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ReportAccessRequest, error) {
	var req models.ReportAccessRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Decide transitions a pending request to granted or denied. The
// filter matches pending only, so exactly one decision wins; everyone
// else gets ErrAlreadyDecided. A grant mints the access token atomically
// with the transition.
func (s *Store) Decide(ctx context.Context, id, reviewerID primitive.ObjectID, verdict, reason string) (*models.ReportAccessRequest, error) {
	if verdict != models.StatusGranted && verdict != models.StatusDenied {
		return nil, errBadVerdict
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":      verdict,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
		"reason":      reason,
	}
	if verdict == models.StatusGranted {
		expires := now.Add(models.ReportAccessTTL)
		set["access_token"] = uuid.NewString()
		set["access_expires_at"] = expires
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req models.ReportAccessRequest
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.StatusPending}, bson.M{"$set": set}, opts).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish "already decided" from "no such request".
			n, cErr := s.c.CountDocuments(ctx, bson.M{"_id": id})
			if cErr == nil && n > 0 {
				return nil, ErrAlreadyDecided
			}
			return nil, mongo.ErrNoDocuments
		}
		return nil, err
	}
	return &req, nil
}

// GetByAccessToken resolves a granted, unexpired access token.
// Anything else fails with ErrAccessNotFound.
func (s *Store) GetByAccessToken(ctx context.Context, token string) (*models.ReportAccessRequest, error) {
	if token == "" {
		return nil, ErrAccessNotFound
	}
	var req models.ReportAccessRequest
	err := s.c.FindOne(ctx, bson.M{
		"access_token":      token,
		"status":            models.StatusGranted,
		"access_expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAccessNotFound
		}
		return nil, err
	}
	return &req, nil
}

// QueuePage returns one page of requests, optionally filtered by
// status, newest first.
func (s *Store) QueuePage(ctx context.Context, status string, page, perPage int64) ([]models.ReportAccessRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	filter := bson.M{}
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

	var reqs []models.ReportAccessRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// PendingCount feeds the dashboard badge.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.StatusPending})
}
