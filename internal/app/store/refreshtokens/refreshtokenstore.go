// Package refreshtokenstore persists opaque refresh tokens.
//
// Only the SHA-256 digest of a token is stored, so a database leak
// never yields usable tokens. Consume deletes the document in the same
// operation that reads it, which makes rotation one-shot: a superseded
// token simply finds no document and fails cleanly.
package refreshtokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a token digest matches no live document.
var ErrNotFound = errors.New("refresh token not found")

type record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TokenHash string             `bson:"token_hash"`
	UserID    primitive.ObjectID `bson:"user_id"`
	UserAgent string             `bson:"user_agent,omitempty"`
	IP        string             `bson:"ip,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("refresh_tokens")}
}

// EnsureIndexes creates the unique digest index and a TTL index so
// Mongo reaps expired tokens without an application sweep.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetName("idx_refresh_hash").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_refresh_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_refresh_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Mint creates a fresh opaque token for the user and returns the
// cleartext token. Device info is advisory metadata only.
func (s *Store) Mint(ctx context.Context, userID primitive.ObjectID, device auth.DeviceInfo, expiresAt time.Time) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	rec := record{
		ID:        primitive.NewObjectID(),
		TokenHash: hashToken(token),
		UserID:    userID,
		UserAgent: device.UserAgent,
		IP:        device.IP,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return token, nil
}

// Consume atomically looks up and deletes the token, returning the
// owning user. Expired-but-unreaped documents are rejected the same as
// missing ones.
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

// Revoke deletes the token if it exists. Unknown tokens are not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token_hash": hashToken(token)})
	return err
}

// RevokeAllForUser removes every live token for the user. Used when an
// account is disabled or its password is reset.
func (s *Store) RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
