package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "password",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateHub inserts an active test hub with the given name.
func (f *Fixtures) CreateHub(ctx context.Context, name string) models.Hub {
	f.t.Helper()

	now := time.Now().UTC()
	hub := models.Hub{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		City:      "Test City",
		Country:   "Testland",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("hubs").InsertOne(ctx, hub); err != nil {
		f.t.Fatalf("failed to create test hub: %v", err)
	}
	return hub
}

// CreateMembership links a user to a hub with the given hub role.
func (f *Fixtures) CreateMembership(ctx context.Context, hubID, userID primitive.ObjectID, role string) models.HubMembership {
	f.t.Helper()

	m := models.HubMembership{
		ID:       primitive.NewObjectID(),
		HubID:    hubID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("hub_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateFormDefinition inserts a live definition for the given kind.
func (f *Fixtures) CreateFormDefinition(ctx context.Context, kind string, fields []models.FormField) models.FormDefinition {
	f.t.Helper()

	now := time.Now().UTC()
	def := models.FormDefinition{
		ID:        primitive.NewObjectID(),
		Kind:      kind,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("form_definitions").InsertOne(ctx, def); err != nil {
		f.t.Fatalf("failed to create test form definition: %v", err)
	}
	return def
}

// SimpleFields returns a minimal valid field list for form tests.
func SimpleFields() []models.FormField {
	return []models.FormField{
		{ID: "full_name", Label: "Full name", Type: models.FieldText, Required: true},
		{ID: "email", Label: "Email", Type: models.FieldEmail, Required: true},
	}
}
