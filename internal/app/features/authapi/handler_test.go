package authapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/junctionhq/junction/internal/app/features/authapi"
	resetstore "github.com/junctionhq/junction/internal/app/store/passwordreset"
	refreshtokenstore "github.com/junctionhq/junction/internal/app/store/refreshtokens"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	handler  *authapi.Handler
	sessions *auth.Manager
	users    *userstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cookies, err := auth.NewCookies(testKey, "", false, logger)
	if err != nil {
		t.Fatalf("auth.NewCookies: %v", err)
	}
	users := userstore.New(db)
	mgr := auth.NewManager(testKey, users, refreshtokenstore.New(db), resetstore.New(db), nil, cookies, logger)
	return &testEnv{handler: authapi.NewHandler(mgr, logger), sessions: mgr, users: users}
}

func (env *testEnv) signedInUser(t *testing.T) (*auth.SessionResult, models.User) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := env.users.Create(ctx, models.User{
		FullName: "Test Member",
		Email:    "member@example.org",
		Role:     models.RoleMember,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	res, err := env.sessions.StartSession(ctx, u.ID, auth.DeviceInfo{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return res, u
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestHandleSetCookies_WritesAllThree(t *testing.T) {
	env := newTestEnv(t)
	res, _ := env.signedInUser(t)

	payload, _ := json.Marshal(map[string]any{
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
		"user":         res.User,
	})
	req := httptest.NewRequest("POST", "/auth/set-cookies", strings.NewReader(string(payload)))
	rec := httptest.NewRecorder()
	env.handler.HandleSetCookies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	set := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	for _, name := range []string{"auth_token", "refresh_token", "user_data"} {
		if !strings.Contains(set, name+"=") {
			t.Errorf("missing %s cookie", name)
		}
	}
	if !strings.Contains(set, "HttpOnly") {
		t.Error("session cookies must be httpOnly")
	}
}

func TestHandleSetCookies_RejectsPartialBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/auth/set-cookies", strings.NewReader(`{"accessToken":"x"}`))
	rec := httptest.NewRecorder()
	env.handler.HandleSetCookies(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCurrentUser_RoundTripsIdentity(t *testing.T) {
	env := newTestEnv(t)
	res, u := env.signedInUser(t)

	req := httptest.NewRequest("GET", "/auth/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: res.Tokens.AccessToken})
	rec := httptest.NewRecorder()
	env.handler.HandleCurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %v, want object", body["user"])
	}
	if user["id"] != u.ID.Hex() {
		t.Errorf("user id = %v, want %s", user["id"], u.ID.Hex())
	}
	if body["token"] != res.Tokens.AccessToken {
		t.Error("token should round-trip")
	}
}

func TestHandleCurrentUser_SignedOutIsNullNotError(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"no cookie", ""},
		{"garbage token", "not-a-jwt"},
	} {
		req := httptest.NewRequest("GET", "/auth/current-user", nil)
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: "auth_token", Value: tc.token})
		}
		rec := httptest.NewRecorder()
		env.handler.HandleCurrentUser(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", tc.name, rec.Code)
		}
		if body := decodeBody(t, rec); body["user"] != nil || body["token"] != nil {
			t.Errorf("%s: body = %v, want null user and token", tc.name, body)
		}
	}
}

func TestHandleGetRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	res, _ := env.signedInUser(t)

	req := httptest.NewRequest("GET", "/auth/get-refresh-token", nil)
	rec := httptest.NewRecorder()
	env.handler.HandleGetRefreshToken(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("without cookie: status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest("GET", "/auth/get-refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: res.Tokens.RefreshToken})
	rec = httptest.NewRecorder()
	env.handler.HandleGetRefreshToken(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with cookie: status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["refreshToken"] != res.Tokens.RefreshToken {
		t.Error("refresh token should round-trip")
	}
}

func TestHandleGetIntendedDestination_SingleRead(t *testing.T) {
	env := newTestEnv(t)

	// Stash through the cookie layer so the encoding matches.
	stash := httptest.NewRecorder()
	env.sessions.Cookies().StashIntendedDestination(stash, "/dashboard/projects/42")
	stashed := stash.Result().Cookies()
	if len(stashed) == 0 {
		t.Fatal("no intended_destination cookie written")
	}

	req := httptest.NewRequest("GET", "/auth/get-intended-destination", nil)
	for _, c := range stashed {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.handler.HandleGetIntendedDestination(rec, req)

	if body := decodeBody(t, rec); body["destination"] != "/dashboard/projects/42" {
		t.Fatalf("destination = %v, want /dashboard/projects/42", body["destination"])
	}

	// The read must clear the cookie.
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "intended_destination" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("intended_destination should be cleared on read")
	}

	// A repeat read without the cookie answers null.
	req = httptest.NewRequest("GET", "/auth/get-intended-destination", nil)
	rec = httptest.NewRecorder()
	env.handler.HandleGetIntendedDestination(rec, req)
	if body := decodeBody(t, rec); body["destination"] != nil {
		t.Errorf("repeat destination = %v, want null", body["destination"])
	}
}

func TestHandleClearCookies_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	res, _ := env.signedInUser(t)

	req := httptest.NewRequest("POST", "/auth/clear-cookies", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: res.Tokens.RefreshToken})
	rec := httptest.NewRecorder()
	env.handler.HandleClearCookies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}

	// The revoked token can no longer be exchanged.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := env.sessions.Refresh(ctx, res.Tokens.RefreshToken, auth.DeviceInfo{}); err == nil {
		t.Error("refresh token should be dead after clear-cookies")
	}
}
