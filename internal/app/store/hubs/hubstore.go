package hubstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateName is returned when a hub with the same folded name exists.
	ErrDuplicateName = errors.New("a hub with this name already exists")
	errBadStatus     = errors.New(`status must be "active"|"archived"`)
	errEmptyName     = errors.New("hub name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hubs")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_hubs_name_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_hubs_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new hub.
func (s *Store) Create(ctx context.Context, h models.Hub) (models.Hub, error) {
	h.Name = normalize.Name(h.Name)
	if h.Name == "" {
		return models.Hub{}, errEmptyName
	}
	h.ID = primitive.NewObjectID()
	h.NameCI = text.Fold(h.Name)
	if h.Status == "" {
		h.Status = "active"
	}
	if h.Status != "active" && h.Status != "archived" {
		return models.Hub{}, errBadStatus
	}

	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, h); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Hub{}, ErrDuplicateName
		}
		return models.Hub{}, err
	}
	return h, nil
}

// GetByID loads a hub.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hub, error) {
	var h models.Hub
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Update edits a hub's descriptive fields.
type Update struct {
	Name        string
	Description string
	City        string
	Country     string
	Status      string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	name := normalize.Name(upd.Name)
	if name == "" {
		return errEmptyName
	}
	if upd.Status != "active" && upd.Status != "archived" {
		return errBadStatus
	}

	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": upd.Description,
		"city":        upd.City,
		"country":     upd.Country,
		"status":      upd.Status,
		"updated_at":  time.Now().UTC(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// ListActive returns active hubs ordered by name, for the public hub
// directory and the application form's hub picker.
func (s *Store) ListActive(ctx context.Context) ([]models.Hub, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": "active"}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var hubs []models.Hub
	if err := cur.All(ctx, &hubs); err != nil {
		return nil, err
	}
	return hubs, nil
}

// ListAll returns every hub ordered by name, for the admin dashboard.
func (s *Store) ListAll(ctx context.Context) ([]models.Hub, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var hubs []models.Hub
	if err := cur.All(ctx, &hubs); err != nil {
		return nil, err
	}
	return hubs, nil
}
