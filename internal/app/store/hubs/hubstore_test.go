package hubstore_test

import (
	"testing"

	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
)

func TestStore_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hubstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Hub{Name: "  Berlin Hub ", City: "Berlin", Country: "Germany"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Berlin Hub" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Status != "active" {
		t.Errorf("status = %q, want active", created.Status)
	}

	if _, err := store.Create(ctx, models.Hub{Name: "Tokyo Hub", Status: "archived"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Berlin Hub" {
		t.Errorf("unexpected active hubs: %+v", active)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 hubs, got %d", len(all))
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hubstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	if _, err := store.Create(ctx, models.Hub{Name: "Berlin Hub"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Folded names collide even when casing differs.
	if _, err := store.Create(ctx, models.Hub{Name: "BERLIN HUB"}); err != hubstore.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := hubstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Hub{Name: "Berlin Hub"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = store.Update(ctx, created.ID, hubstore.Update{
		Name:        "Berlin Chapter",
		Description: "The Berlin chapter",
		City:        "Berlin",
		Country:     "Germany",
		Status:      "archived",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Berlin Chapter" || got.Status != "archived" {
		t.Errorf("unexpected hub after update: %+v", got)
	}
}
