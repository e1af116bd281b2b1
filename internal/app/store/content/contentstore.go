// Package contentstore persists the marketing-site entries: events,
// projects, publications, and career postings.
package contentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/junctionhq/junction/internal/app/system/htmlsanitize"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSlug is returned when the slug is taken within the kind.
	ErrDuplicateSlug = errors.New("an entry with this slug already exists")
	errBadKind       = errors.New(`kind must be "event"|"project"|"publication"|"career"`)
	errEmptyTitle    = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("content_items")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_content_slug").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName("idx_content_published"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func validKind(kind string) bool {
	switch kind {
	case models.ContentEvent, models.ContentProject, models.ContentPublication, models.ContentCareer:
		return true
	}
	return false
}

// Slugify derives a URL slug from a title.
func Slugify(title string) string {
	folded := text.Fold(title)
	var b strings.Builder
	prevDash := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Create inserts a draft entry. Body HTML is sanitized before storage.
func (s *Store) Create(ctx context.Context, item models.ContentItem) (models.ContentItem, error) {
	if !validKind(item.Kind) {
		return models.ContentItem{}, errBadKind
	}
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return models.ContentItem{}, errEmptyTitle
	}
	if item.Slug == "" {
		item.Slug = Slugify(item.Title)
	}

	item.ID = primitive.NewObjectID()
	item.Summary = htmlsanitize.Strict(item.Summary)
	item.Body = htmlsanitize.Rich(item.Body)
	if item.Status == "" {
		item.Status = "draft"
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, item); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ContentItem{}, ErrDuplicateSlug
		}
		return models.ContentItem{}, err
	}
	return item, nil
}

// Update edits an entry in place, re-sanitizing HTML.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, item models.ContentItem) error {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return errEmptyTitle
	}

	set := bson.M{
		"title":      item.Title,
		"summary":    htmlsanitize.Strict(item.Summary),
		"body":       htmlsanitize.Rich(item.Body),
		"starts_at":  item.StartsAt,
		"location":   item.Location,
		"updated_at": time.Now().UTC(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// Publish makes a draft visible on the public site.
func (s *Store) Publish(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":       "published",
		"published_at": now,
		"updated_at":   now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Unpublish pulls an entry back to draft.
func (s *Store) Unpublish(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"status": "draft", "updated_at": time.Now().UTC()},
		"$unset": bson.M{"published_at": ""},
	})
	return err
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// GetBySlug loads a published entry for the public site.
func (s *Store) GetBySlug(ctx context.Context, kind, slug string) (*models.ContentItem, error) {
	var item models.ContentItem
	err := s.c.FindOne(ctx, bson.M{"kind": kind, "slug": slug, "status": "published"}).Decode(&item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByID loads any entry, draft or published, for the dashboard.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListPublished returns published entries of a kind, newest first.
// Events sort by start time instead so upcoming ones lead.
func (s *Store) ListPublished(ctx context.Context, kind string, limit int64) ([]models.ContentItem, error) {
	if !validKind(kind) {
		return nil, errBadKind
	}
	sort := bson.D{{Key: "published_at", Value: -1}}
	if kind == models.ContentEvent {
		sort = bson.D{{Key: "starts_at", Value: -1}}
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"kind": kind, "status": "published"}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []models.ContentItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListAll returns every entry of a kind for the dashboard editor.
func (s *Store) ListAll(ctx context.Context, kind string) ([]models.ContentItem, error) {
	if !validKind(kind) {
		return nil, errBadKind
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []models.ContentItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
