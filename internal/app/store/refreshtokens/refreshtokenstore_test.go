package refreshtokenstore_test

import (
	"testing"
	"time"

	refreshtokenstore "github.com/junctionhq/junction/internal/app/store/refreshtokens"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_MintAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	device := auth.DeviceInfo{UserAgent: "test-agent", IP: "127.0.0.1"}

	token, err := store.Mint(ctx, userID, device, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if got != userID {
		t.Errorf("Consume returned user %s, want %s", got.Hex(), userID.Hex())
	}
}

func TestStore_Consume_IsOneShot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Mint(ctx, primitive.NewObjectID(), auth.DeviceInfo{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := store.Consume(ctx, token); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if _, err := store.Consume(ctx, token); err != refreshtokenstore.ErrNotFound {
		t.Errorf("second Consume: expected ErrNotFound, got %v", err)
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Mint(ctx, primitive.NewObjectID(), auth.DeviceInfo{}, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := store.Consume(ctx, token); err != refreshtokenstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestStore_TokensAreStoredHashed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Mint(ctx, primitive.NewObjectID(), auth.DeviceInfo{}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	n, err := db.Collection("refresh_tokens").CountDocuments(ctx, bson.M{"token_hash": token})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Error("cleartext token found in database")
	}
}

func TestStore_RevokeAllForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	t1, _ := store.Mint(ctx, userID, auth.DeviceInfo{}, time.Now().Add(time.Hour))
	t2, _ := store.Mint(ctx, userID, auth.DeviceInfo{}, time.Now().Add(time.Hour))

	if err := store.RevokeAllForUser(ctx, userID); err != nil {
		t.Fatalf("RevokeAllForUser failed: %v", err)
	}

	for _, token := range []string{t1, t2} {
		if _, err := store.Consume(ctx, token); err != refreshtokenstore.ErrNotFound {
			t.Errorf("expected ErrNotFound after revoke-all, got %v", err)
		}
	}
}

func TestStore_Revoke_UnknownTokenIsNotAnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := refreshtokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Revoke(ctx, "no-such-token"); err != nil {
		t.Errorf("Revoke of unknown token failed: %v", err)
	}
}
