package contactstore_test

import (
	"errors"
	"testing"
	"time"

	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func contactMessage(email string) models.ContactMessage {
	return models.ContactMessage{
		Submitter: models.Submitter{Email: email, FullName: "Ada Lovelace"},
		Answers:   map[string]any{"message": "hello"},
		Snapshot: models.FormSnapshot{
			FormID:  primitive.NewObjectID(),
			Kind:    models.FormKindContact,
			Fields:  testutil.SimpleFields(),
			TakenAt: time.Now().UTC(),
		},
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, contactMessage("Ada@Example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.StatusUnread {
		t.Errorf("status = %q, want unread", created.Status)
	}
	if created.Submitter.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %q", created.Submitter.Email)
	}
}

func TestStore_StatusLifecycleIsReenterable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, contactMessage("ada@example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin := primitive.NewObjectID()

	// Read, then replied: unlike application review, the second
	// transition succeeds.
	if err := store.SetStatus(ctx, created.ID, admin, models.StatusRead, ""); err != nil {
		t.Fatalf("SetStatus read failed: %v", err)
	}
	if err := store.SetStatus(ctx, created.ID, admin, models.StatusReplied, "answered by email"); err != nil {
		t.Fatalf("SetStatus replied failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusReplied {
		t.Errorf("status = %q, want replied", got.Status)
	}
	if got.Notes != "answered by email" {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestStore_SetStatus_RepliedIsTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, contactMessage("ada@example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin := primitive.NewObjectID()
	if err := store.SetStatus(ctx, created.ID, admin, models.StatusReplied, "answered"); err != nil {
		t.Fatalf("SetStatus replied failed: %v", err)
	}

	// No transition leaves replied, including replied itself.
	for _, target := range []string{models.StatusRead, models.StatusUnread, models.StatusReplied} {
		err := store.SetStatus(ctx, created.ID, admin, target, "late edit")
		if !errors.Is(err, contactstore.ErrAlreadyReplied) {
			t.Errorf("SetStatus(%s) err = %v, want ErrAlreadyReplied", target, err)
		}
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusReplied || got.Notes != "answered" {
		t.Errorf("message = %q/%q, replied state must stand", got.Status, got.Notes)
	}
}

func TestStore_SetStatus_UnknownMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetStatus(ctx, primitive.NewObjectID(), primitive.NewObjectID(), models.StatusRead, "")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("err = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_SetStatus_BadStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, contactMessage("ada@example.com"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetStatus(ctx, created.ID, primitive.NewObjectID(), "archived", ""); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStore_InboxPageAndUnreadCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var lastID primitive.ObjectID
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		msg, err := store.Create(ctx, contactMessage(email))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		lastID = msg.ID
	}
	if err := store.SetStatus(ctx, lastID, primitive.NewObjectID(), models.StatusRead, ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	unreadOnly, total, err := store.InboxPage(ctx, models.StatusUnread, 1, 10)
	if err != nil {
		t.Fatalf("InboxPage failed: %v", err)
	}
	if total != 2 || len(unreadOnly) != 2 {
		t.Errorf("unread page: total=%d len=%d, want 2/2", total, len(unreadOnly))
	}

	n, err := store.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("UnreadCount = %d, want 2", n)
	}
}
