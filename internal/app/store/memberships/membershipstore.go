// Package membershipstore links users to hubs. One document per
// (hub, user); rows are created when a hub application is approved or
// when an admin adds a member directly.
package membershipstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateMembership is returned when the user already belongs to the hub.
	ErrDuplicateMembership = errors.New("user is already a member of this hub")
	errBadRole             = errors.New(`role must be "member" or "lead"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hub_memberships")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "hub_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_memberships_hub_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_memberships_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Add creates a membership with the given hub role.
func (s *Store) Add(ctx context.Context, hubID, userID primitive.ObjectID, role string) error {
	if role != models.HubRoleMember && role != models.HubRoleLead {
		return errBadRole
	}

	m := models.HubMembership{
		ID:       primitive.NewObjectID(),
		HubID:    hubID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership for (hubID, userID).
func (s *Store) Remove(ctx context.Context, hubID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"hub_id": hubID, "user_id": userID})
	return err
}

// SetRole promotes or demotes a member within a hub.
func (s *Store) SetRole(ctx context.Context, hubID, userID primitive.ObjectID, role string) error {
	if role != models.HubRoleMember && role != models.HubRoleLead {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"hub_id": hubID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListForHub returns the memberships of a hub.
func (s *Store) ListForHub(ctx context.Context, hubID primitive.ObjectID) ([]models.HubMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"hub_id": hubID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.HubMembership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForUser returns the memberships of a user.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.HubMembership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.HubMembership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountForHub returns the member count shown on hub cards.
func (s *Store) CountForHub(ctx context.Context, hubID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"hub_id": hubID})
}
