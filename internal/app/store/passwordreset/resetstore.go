// Package resetstore persists single-use password-reset tokens.
// Tokens are stored hashed and expire after 30 minutes.
package resetstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenTTL is how long a reset link stays valid.
const TokenTTL = 30 * time.Minute

// ErrNotFound is returned for unknown, used, or expired tokens.
var ErrNotFound = errors.New("reset token not found")

type record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TokenHash string             `bson:"token_hash"`
	UserID    primitive.ObjectID `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("password_reset_tokens")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetName("idx_reset_hash").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_reset_ttl").SetExpireAfterSeconds(0),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create issues a reset token for the user, replacing any outstanding
// one so only the most recent emailed link works.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID) (string, error) {
	if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	rec := record{
		ID:        primitive.NewObjectID(),
		TokenHash: hashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(TokenTTL),
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return token, nil
}

// Consume validates and deletes the token in one operation, so a reset
// link can never be used twice.
func (s *Store) Consume(ctx context.Context, token string) (primitive.ObjectID, error) {
	var rec record
	err := s.c.FindOneAndDelete(ctx, bson.M{"token_hash": hashToken(token)}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return primitive.NilObjectID, ErrNotFound
	}
	return rec.UserID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
