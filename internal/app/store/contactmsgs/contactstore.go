// Package contactstore persists contact-form submissions. The
// lifecycle is unread -> read -> replied; unread and read are
// re-enterable, replied is terminal.
package contactstore

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

var errBadStatus = errors.New(`status must be "unread"|"read"|"replied"`)

// ErrAlreadyReplied is returned when a status change targets a message
// that has already been replied to. Replied is terminal.
var ErrAlreadyReplied = errors.New("contact message has already been replied to")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contact_messages")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_contact_inbox"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create files a new contact message as unread.
func (s *Store) Create(ctx context.Context, msg models.ContactMessage) (models.ContactMessage, error) {
	msg.ID = primitive.NewObjectID()
	msg.Submitter.Email = normalize.Email(msg.Submitter.Email)
	msg.Submitter.FullName = normalize.Name(msg.Submitter.FullName)
	msg.Status = models.StatusUnread
	msg.SubmittedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, msg); err != nil {
		return models.ContactMessage{}, err
	}
	return msg, nil
}

// GetByID loads a contact message.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetStatus moves a message between lifecycle states and records who
// touched it. Notes replace any previous notes. Unread and read are
// re-enterable; replied is terminal, so the update matches only
// messages that have not been replied to yet.
func (s *Store) SetStatus(ctx context.Context, id, adminID primitive.ObjectID, status, notes string) error {
	switch status {
	case models.StatusUnread, models.StatusRead, models.StatusReplied:
	default:
		return errBadStatus
	}

	now := time.Now().UTC()
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []string{models.StatusUnread, models.StatusRead}},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":      status,
		"reviewed_by": adminID,
		"reviewed_at": now,
		"notes":       notes,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "already replied" from "no such message".
		n, cErr := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if cErr == nil && n > 0 {
			return ErrAlreadyReplied
		}
		return mongo.ErrNoDocuments
	}
	return nil
}

// InboxPage returns one page of messages, optionally filtered by
// status, newest first.
func (s *Store) InboxPage(ctx context.Context, status string, page, perPage int64) ([]models.ContactMessage, int64, error) {
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

	var msgs []models.ContactMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// UnreadCount feeds the dashboard badge.
func (s *Store) UnreadCount(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.StatusUnread})
}
