package contact_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/junctionhq/junction/internal/app/features/contact"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*contact.Handler, *contactstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"})
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	logger := zap.NewNop()
	defs := formdefstore.New(db)
	messages := contactstore.New(db)
	files := formfilestore.New(db, local)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := defs.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}

	if err := flash.Init("0123456789abcdef0123456789abcdef", "", false, logger); err != nil {
		t.Fatalf("flash.Init: %v", err)
	}

	h := contact.NewHandler(defs, messages, files, uierrors.NewErrorLogger(logger), logger)
	return h, messages
}

func postForm(t *testing.T, h *contact.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	// Validation failures re-render the form, which panics without the
	// template engine booted. The redirect path never renders.
	func() {
		defer func() { _ = recover() }()
		h.HandleSubmit(rec, req)
	}()
	return rec
}

func TestHandleSubmit_StoresMessage(t *testing.T) {
	h, messages := newTestHandler(t)

	rec := postForm(t, h, url.Values{
		"full_name": {"Ada Lovelace"},
		"email":     {"ADA@Example.org"},
		"message":   {"Interested in the Zurich hub."},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	page, total, err := messages.InboxPage(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("InboxPage: %v", err)
	}
	if total != 1 || len(page) != 1 {
		t.Fatalf("stored messages = %d, want 1", total)
	}
	msg := page[0]
	if msg.Submitter.Email != "ada@example.org" {
		t.Errorf("submitter email = %q, want normalized", msg.Submitter.Email)
	}
	if msg.Status != "unread" {
		t.Errorf("status = %q, want unread", msg.Status)
	}
	if len(msg.Snapshot.Fields) == 0 {
		t.Error("form snapshot should be frozen into the message")
	}
}

func TestHandleSubmit_MissingRequiredIsNotStored(t *testing.T) {
	h, messages := newTestHandler(t)

	postForm(t, h, url.Values{"full_name": {"Ada Lovelace"}})

	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, total, err := messages.InboxPage(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("InboxPage: %v", err)
	}
	if total != 0 {
		t.Fatalf("stored messages = %d, want 0 after validation failure", total)
	}
}
