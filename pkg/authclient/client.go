// Package authclient drives a session against the auth backend: sign
// in, proactive token refresh on a timer, reactive refresh when the
// authority check fails, and sign-out. The refresh timer and the
// reactive path share one mutex and a generation counter, so a refresh
// response that arrives after sign-out cannot revive the cleared
// session.
package authclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultRefreshInterval runs strictly before the 60-minute access
// token expiry, leaving a margin for clock skew and request latency.
const DefaultRefreshInterval = 55 * time.Minute

// ErrSignedOut reports that no session is active. Callers resolve it
// by re-authenticating.
var ErrSignedOut = errors.New("not signed in")

// State is the client-side session state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Backend is the session contract the client drives. *auth.Manager
// satisfies it.
type Backend interface {
	SignIn(ctx context.Context, email, password string, device auth.DeviceInfo) (*auth.SessionResult, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.UserSnapshot, error)
	Refresh(ctx context.Context, refreshToken string, device auth.DeviceInfo) (*auth.SessionResult, error)
	SignOut(ctx context.Context, refreshToken string)
}

// CookieSink mirrors session state into the browser cookie endpoints.
// All calls are best effort: the in-memory state is authoritative for
// the current session, so sink failures are logged and swallowed.
type CookieSink interface {
	SetCookies(ctx context.Context, tokens auth.TokenPair, user models.UserSnapshot) error
	RefreshUserData(ctx context.Context, user models.UserSnapshot) error
	ClearCookies(ctx context.Context) error
}

// Client holds one logical session. All state lives behind a single
// mutex; there are no ambient package-level sessions.
type Client struct {
	backend  Backend
	sink     CookieSink
	device   auth.DeviceInfo
	log      *zap.Logger
	interval time.Duration

	mu       sync.Mutex
	state    State
	gen      uint64 // bumped on sign-in, sign-out, and forced re-auth
	tokens   auth.TokenPair
	user     *models.UserSnapshot
	inflight chan struct{} // non-nil while a refresh is running
}

// New builds a client. sink may be nil when no cookie mirroring is
// wanted (tests, CLI callers).
func New(backend Backend, sink CookieSink, device auth.DeviceInfo, logger *zap.Logger) *Client {
	return &Client{
		backend:  backend,
		sink:     sink,
		device:   device,
		log:      logger,
		interval: DefaultRefreshInterval,
	}
}

// SetRefreshInterval overrides the proactive refresh cadence. Call
// before Run.
func (c *Client) SetRefreshInterval(d time.Duration) { c.interval = d }

// State reports the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AccessToken returns the current access token, empty when signed out.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken
}

// User returns the cached snapshot. It is a cache of the authoritative
// record; CurrentUser re-derives it from the backend.
func (c *Client) User() (*models.UserSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, false
	}
	snap := *c.user
	return &snap, true
}

// SignIn authenticates and installs the session. The cookie sink is
// updated best effort.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.UserSnapshot, error) {
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()

	res, err := c.backend.SignIn(ctx, email, password, c.device)

	c.mu.Lock()
	if err != nil {
		c.state = StateUnauthenticated
		c.mu.Unlock()
		return nil, err
	}
	c.gen++
	c.state = StateAuthenticated
	c.tokens = res.Tokens
	snap := res.User
	c.user = &snap
	c.mu.Unlock()

	c.pushCookies(ctx, res.Tokens, res.User)
	return &snap, nil
}

// SignOut clears the session. The generation bump guarantees an
// orphaned in-flight refresh response is discarded rather than
// resurrecting the session.
func (c *Client) SignOut(ctx context.Context) {
	c.mu.Lock()
	refreshToken := c.tokens.RefreshToken
	c.gen++
	c.state = StateUnauthenticated
	c.tokens = auth.TokenPair{}
	c.user = nil
	c.mu.Unlock()

	c.backend.SignOut(ctx, refreshToken)
	if c.sink != nil {
		if err := c.sink.ClearCookies(ctx); err != nil {
			c.log.Warn("clear cookies failed", zap.Error(err))
		}
	}
}

// CurrentUser asks the backend for the authoritative snapshot. An
// error from the authority check is treated as access-token expiry:
// refresh once, then retry once. A failed refresh is fatal for the
// session.
func (c *Client) CurrentUser(ctx context.Context) (*models.UserSnapshot, error) {
	c.mu.Lock()
	token := c.tokens.AccessToken
	c.mu.Unlock()
	if token == "" {
		return nil, ErrSignedOut
	}

	snap, err := c.backend.CurrentUser(ctx, token)
	if err == nil {
		c.adoptSnapshot(ctx, snap)
		return snap, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	token = c.tokens.AccessToken
	c.mu.Unlock()
	snap, err = c.backend.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	c.adoptSnapshot(ctx, snap)
	return snap, nil
}

// Refresh rotates the token pair. Concurrent callers coalesce onto one
// backend call per expiry event; latecomers wait for its outcome.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateUnauthenticated || c.tokens.RefreshToken == "" {
		c.mu.Unlock()
		return ErrSignedOut
	}
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateAuthenticated {
			return ErrSignedOut
		}
		return nil
	}

	done := make(chan struct{})
	c.inflight = done
	gen := c.gen
	refreshToken := c.tokens.RefreshToken
	c.state = StateRefreshing
	c.mu.Unlock()

	res, err := c.backend.Refresh(ctx, refreshToken, c.device)

	c.mu.Lock()
	c.inflight = nil
	close(done)

	if c.gen != gen {
		// Signed out while the refresh was in flight; the response is
		// stale and must not revive the session.
		c.mu.Unlock()
		return ErrSignedOut
	}
	if err != nil {
		// Invalid or superseded refresh token: fatal, force re-auth.
		c.gen++
		c.state = StateUnauthenticated
		c.tokens = auth.TokenPair{}
		c.user = nil
		c.mu.Unlock()
		if c.sink != nil {
			if serr := c.sink.ClearCookies(ctx); serr != nil {
				c.log.Warn("clear cookies failed", zap.Error(serr))
			}
		}
		return ErrSignedOut
	}

	c.state = StateAuthenticated
	c.tokens = res.Tokens
	snap := res.User
	c.user = &snap
	c.mu.Unlock()

	c.pushCookies(ctx, res.Tokens, res.User)
	return nil
}

// Run refreshes the session proactively until ctx is cancelled. Ticks
// while signed out are ignored.
func (c *Client) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			active := c.state == StateAuthenticated
			c.mu.Unlock()
			if !active {
				continue
			}
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSignedOut) {
				c.log.Warn("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// adoptSnapshot stores a fresh snapshot and mirrors it to user_data.
func (c *Client) adoptSnapshot(ctx context.Context, snap *models.UserSnapshot) {
	c.mu.Lock()
	copied := *snap
	c.user = &copied
	c.mu.Unlock()

	if c.sink != nil {
		if err := c.sink.RefreshUserData(ctx, *snap); err != nil {
			c.log.Warn("refresh user_data cookie failed", zap.Error(err))
		}
	}
}

func (c *Client) pushCookies(ctx context.Context, tokens auth.TokenPair, user models.UserSnapshot) {
	if c.sink == nil {
		return
	}
	if err := c.sink.SetCookies(ctx, tokens, user); err != nil {
		c.log.Warn("set cookies failed", zap.Error(err))
	}
}
