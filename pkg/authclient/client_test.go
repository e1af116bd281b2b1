package authclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu           sync.Mutex
	refreshCalls int
	refreshGate  chan struct{} // when non-nil, Refresh blocks until closed
	refreshBusy  chan struct{} // signalled when Refresh is entered
	refreshErr   error
	seq          int
}

func (f *fakeBackend) session() *auth.SessionResult {
	f.seq++
	return &auth.SessionResult{
		Tokens: auth.TokenPair{
			AccessToken:  fmt.Sprintf("access-%d", f.seq),
			RefreshToken: fmt.Sprintf("refresh-%d", f.seq),
		},
		User: models.UserSnapshot{ID: "64b0c0ffee0000000000aaaa", Email: "member@test.com"},
	}
}

func (f *fakeBackend) SignIn(_ context.Context, email, password string, _ auth.DeviceInfo) (*auth.SessionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if password != "correct" {
		return nil, auth.ErrInvalidCredentials
	}
	return f.session(), nil
}

func (f *fakeBackend) CurrentUser(_ context.Context, accessToken string) (*models.UserSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Only the most recently minted access token is valid.
	if accessToken != fmt.Sprintf("access-%d", f.seq) {
		return nil, auth.ErrTokenExpired
	}
	return &models.UserSnapshot{ID: "64b0c0ffee0000000000aaaa", Email: "member@test.com"}, nil
}

func (f *fakeBackend) Refresh(_ context.Context, refreshToken string, _ auth.DeviceInfo) (*auth.SessionResult, error) {
	f.mu.Lock()
	f.refreshCalls++
	gate := f.refreshGate
	busy := f.refreshBusy
	f.mu.Unlock()

	if busy != nil {
		busy <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if refreshToken != fmt.Sprintf("refresh-%d", f.seq) {
		return nil, auth.ErrInvalidRefreshToken
	}
	return f.session(), nil
}

func (f *fakeBackend) SignOut(context.Context, string) {}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type recordingSink struct {
	mu      sync.Mutex
	sets    int
	clears  int
	setErr  error
	lastTok auth.TokenPair
}

func (s *recordingSink) SetCookies(_ context.Context, tokens auth.TokenPair, _ models.UserSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.lastTok = tokens
	return s.setErr
}

func (s *recordingSink) RefreshUserData(context.Context, models.UserSnapshot) error { return nil }

func (s *recordingSink) ClearCookies(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	return nil
}

func signedInClient(t *testing.T, backend *fakeBackend, sink CookieSink) *Client {
	t.Helper()
	c := New(backend, sink, auth.DeviceInfo{UserAgent: "test"}, zap.NewNop())
	if _, err := c.SignIn(context.Background(), "member@test.com", "correct"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return c
}

func TestSignIn_InstallsSessionAndMirrorsCookies(t *testing.T) {
	backend := &fakeBackend{}
	sink := &recordingSink{}
	c := signedInClient(t, backend, sink)

	if c.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", c.State())
	}
	if c.AccessToken() == "" {
		t.Error("access token should be installed")
	}
	if sink.sets != 1 {
		t.Errorf("cookie sets = %d, want 1", sink.sets)
	}
}

func TestSignIn_SinkFailureIsBestEffort(t *testing.T) {
	backend := &fakeBackend{}
	sink := &recordingSink{setErr: errors.New("endpoint unreachable")}
	c := New(backend, sink, auth.DeviceInfo{}, zap.NewNop())

	snap, err := c.SignIn(context.Background(), "member@test.com", "correct")
	if err != nil {
		t.Fatalf("SignIn must not fail on a sink error: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot missing")
	}
	if c.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", c.State())
	}
}

func TestRefresh_SingleFlightPerExpiryEvent(t *testing.T) {
	backend := &fakeBackend{
		refreshGate: make(chan struct{}),
		refreshBusy: make(chan struct{}, 1),
	}
	c := signedInClient(t, backend, &recordingSink{})

	errs := make(chan error, 2)
	go func() { errs <- c.Refresh(context.Background()) }()
	<-backend.refreshBusy // first refresh is in flight
	go func() { errs <- c.Refresh(context.Background()) }()

	// Give the second caller time to reach the coalescing path, then
	// let the backend respond.
	time.Sleep(20 * time.Millisecond)
	close(backend.refreshGate)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Errorf("refresh %d: %v", i, err)
		}
	}
	if got := backend.calls(); got != 1 {
		t.Errorf("backend refresh calls = %d, want 1", got)
	}
	if c.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", c.State())
	}
}

func TestSignOut_DiscardsStaleRefreshResponse(t *testing.T) {
	backend := &fakeBackend{
		refreshGate: make(chan struct{}),
		refreshBusy: make(chan struct{}, 1),
	}
	sink := &recordingSink{}
	c := signedInClient(t, backend, sink)

	errs := make(chan error, 1)
	go func() { errs <- c.Refresh(context.Background()) }()
	<-backend.refreshBusy

	c.SignOut(context.Background())
	close(backend.refreshGate) // backend now answers the orphaned refresh

	if err := <-errs; !errors.Is(err, ErrSignedOut) {
		t.Errorf("orphaned refresh error = %v, want ErrSignedOut", err)
	}
	if c.State() != StateUnauthenticated {
		t.Errorf("state = %v, a stale response must not revive the session", c.State())
	}
	if c.AccessToken() != "" {
		t.Error("access token survived sign-out")
	}
	if _, ok := c.User(); ok {
		t.Error("snapshot survived sign-out")
	}
}

func TestCurrentUser_RefreshesOnceOnExpiry(t *testing.T) {
	backend := &fakeBackend{}
	c := signedInClient(t, backend, &recordingSink{})

	// Expire the installed access token by rotating the backend's idea
	// of the current session out from under the client.
	backend.mu.Lock()
	backend.seq++
	backend.mu.Unlock()
	// Keep the client's refresh token valid for the rotated session.
	c.mu.Lock()
	c.tokens.RefreshToken = fmt.Sprintf("refresh-%d", backend.seq)
	c.mu.Unlock()

	snap, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if snap.Email != "member@test.com" {
		t.Errorf("email = %q", snap.Email)
	}
	if got := backend.calls(); got != 1 {
		t.Errorf("backend refresh calls = %d, want exactly 1 per expiry event", got)
	}
}

func TestRefreshFailure_ForcesReauthentication(t *testing.T) {
	backend := &fakeBackend{refreshErr: auth.ErrInvalidRefreshToken}
	sink := &recordingSink{}
	c := signedInClient(t, backend, sink)

	if err := c.Refresh(context.Background()); !errors.Is(err, ErrSignedOut) {
		t.Errorf("refresh error = %v, want ErrSignedOut", err)
	}
	if c.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", c.State())
	}
	if sink.clears != 1 {
		t.Errorf("cookie clears = %d, want 1", sink.clears)
	}
}

func TestRun_RefreshesOnSchedule(t *testing.T) {
	backend := &fakeBackend{}
	c := signedInClient(t, backend, &recordingSink{})
	c.SetRefreshInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for backend.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduled refresh never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if c.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated after scheduled refreshes", c.State())
	}
}
