package userstore

import (
	"context"
	"time"

	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Snapshot builds the denormalized projection of a user that rides in
// the user_data cookie. It joins hub memberships and hub names so that
// routing decisions never need a database round trip afterwards.
func (s *Store) Snapshot(ctx context.Context, userID primitive.ObjectID) (models.UserSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return models.UserSnapshot{}, err
	}
	if u.Status == "disabled" {
		return models.UserSnapshot{}, mongo.ErrNoDocuments
	}

	memberships, err := s.hubMemberships(ctx, userID)
	if err != nil {
		return models.UserSnapshot{}, err
	}

	return models.NewUserSnapshot(&u, memberships, time.Now().UTC()), nil
}

func (s *Store) hubMemberships(ctx context.Context, userID primitive.ObjectID) ([]models.HubMembershipSummary, error) {
	db := s.c.Database()

	cur, err := db.Collection("hub_memberships").Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.HubMembership
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// One name lookup per distinct hub. Membership counts per user are
	// small, so N lookups beat an aggregation pipeline here.
	hubs := db.Collection("hubs")
	proj := options.FindOne().SetProjection(bson.M{"name": 1})

	summaries := make([]models.HubMembershipSummary, 0, len(rows))
	for _, m := range rows {
		var hub models.Hub
		if err := hubs.FindOne(ctx, bson.M{"_id": m.HubID}, proj).Decode(&hub); err != nil {
			// Hub deleted out from under the membership; skip it.
			continue
		}
		summaries = append(summaries, models.HubMembershipSummary{
			HubID:   m.HubID.Hex(),
			Role:    m.Role,
			HubName: hub.Name,
		})
	}
	return summaries, nil
}
