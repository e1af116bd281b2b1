// internal/app/system/auth/manager.go
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Errors                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	// ErrInvalidCredentials covers unknown email and wrong password
	// alike; the sign-in form shows it verbatim.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrAccountDisabled is returned for disabled accounts with valid
	// credentials.
	ErrAccountDisabled = errors.New("this account is disabled")

	// ErrInvalidRefreshToken is fatal for the session: the caller must
	// force re-authentication. A superseded (already-rotated) token
	// fails with this error cleanly, never corrupting state.
	ErrInvalidRefreshToken = errors.New("refresh token invalid or expired")

	// ErrInvalidResetToken reports an expired, used, or unknown
	// password-reset token.
	ErrInvalidResetToken = errors.New("reset link invalid or expired")
)

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborator contracts                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// DeviceInfo is advisory metadata recorded with a refresh token. It is
// not used for token binding or validation.
type DeviceInfo struct {
	UserAgent string
	IP        string
}

// UserSource is the slice of the user store the manager needs.
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Snapshot(ctx context.Context, userID primitive.ObjectID) (models.UserSnapshot, error)
	SetPassword(ctx context.Context, userID primitive.ObjectID, passwordHash string) error
}

// RefreshTokenSource mints and consumes opaque refresh tokens.
// Consume is one-shot: rotation happens by consuming then minting.
type RefreshTokenSource interface {
	Mint(ctx context.Context, userID primitive.ObjectID, device DeviceInfo, expiresAt time.Time) (string, error)
	Consume(ctx context.Context, token string) (primitive.ObjectID, error)
	Revoke(ctx context.Context, token string) error
}

// ResetTokenSource mints and consumes single-use password-reset tokens.
type ResetTokenSource interface {
	Create(ctx context.Context, userID primitive.ObjectID) (string, error)
	Consume(ctx context.Context, token string) (primitive.ObjectID, error)
}

// ResetMailer sends the password-reset email.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionResult is what sign-in and refresh hand back to the HTTP
// layer, which persists it as cookies.
type SessionResult struct {
	Tokens TokenPair
	User   models.UserSnapshot
}

// Manager owns the session/token lifecycle. It is constructed once in
// bootstrap and injected into handlers; there is no package-level
// session state.
type Manager struct {
	secret  []byte
	users   UserSource
	refresh RefreshTokenSource
	resets  ResetTokenSource
	mail    ResetMailer
	cookies *Cookies
	log     *zap.Logger

	// Cookie-driven refreshes share one result per refresh token so
	// parallel requests carrying the same expired session do not race
	// the one-shot rotation. See sharedRefresh.
	inflightMu sync.Mutex
	inflight   map[string]*refreshEntry

	now func() time.Time // test seam
}

// NewManager wires the session manager. mail may be nil in tests;
// password-reset requests then skip the send.
func NewManager(secret string, users UserSource, refresh RefreshTokenSource, resets ResetTokenSource, mail ResetMailer, cookies *Cookies, logger *zap.Logger) *Manager {
	return &Manager{
		secret:   []byte(secret),
		users:    users,
		refresh:  refresh,
		resets:   resets,
		mail:     mail,
		cookies:  cookies,
		log:      logger,
		inflight: make(map[string]*refreshEntry),
		now:      time.Now,
	}
}

// Cookies exposes the cookie codec for handlers and middleware.
func (m *Manager) Cookies() *Cookies { return m.cookies }

// SignIn validates credentials and mints a token pair plus snapshot.
// Unknown email and wrong password are indistinguishable to the caller.
func (m *Manager) SignIn(ctx context.Context, email, password string, device DeviceInfo) (*SessionResult, error) {
	u, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt comparison so response timing does not reveal
		// whether the account exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if u.Status == "disabled" {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return m.startSession(ctx, u.ID, device)
}

// StartSession mints a session for an already-authenticated user
// (OAuth sign-in, post-reset sign-in).
func (m *Manager) StartSession(ctx context.Context, userID primitive.ObjectID, device DeviceInfo) (*SessionResult, error) {
	return m.startSession(ctx, userID, device)
}

func (m *Manager) startSession(ctx context.Context, userID primitive.ObjectID, device DeviceInfo) (*SessionResult, error) {
	now := m.now()

	snap, err := m.users.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, accessExp, err := mintAccessToken(m.secret, snap.ID, snap.GlobalRole, now)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(RefreshTokenTTL)
	refresh, err := m.refresh.Mint(ctx, userID, device, refreshExp)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		Tokens: TokenPair{
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
		User: snap,
	}, nil
}

// CurrentUser resolves the live, authoritative snapshot for an access
// token. Used to hydrate client state and to detect token expiry.
func (m *Manager) CurrentUser(ctx context.Context, accessToken string) (*models.UserSnapshot, error) {
	claims, err := ParseAccessToken(m.secret, accessToken)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	snap, err := m.users.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the
// refresh token. A stale or superseded token fails with
// ErrInvalidRefreshToken and leaves nothing changed.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, device DeviceInfo) (*SessionResult, error) {
	userID, err := m.refresh.Consume(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	return m.startSession(ctx, userID, device)
}

// refreshGrace is how long a completed cookie-driven rotation stays
// visible to followers presenting the same superseded token. A
// multi-request page load spans well under this.
const refreshGrace = 30 * time.Second

type refreshEntry struct {
	done chan struct{}
	res  *SessionResult
	err  error
}

// sharedRefresh rotates a refresh token at most once. The first caller
// for a given token performs the rotation; concurrent callers wait for
// its result, and callers arriving within refreshGrace after completion
// reuse it. Without this, parallel requests from one browser would each
// consume the same one-shot token and the losers would be signed out.
func (m *Manager) sharedRefresh(ctx context.Context, token string, device DeviceInfo) (*SessionResult, error) {
	m.inflightMu.Lock()
	if e, ok := m.inflight[token]; ok {
		m.inflightMu.Unlock()
		select {
		case <-e.done:
			return e.res, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &refreshEntry{done: make(chan struct{})}
	m.inflight[token] = e
	m.inflightMu.Unlock()

	e.res, e.err = m.Refresh(ctx, token, device)
	close(e.done)

	time.AfterFunc(refreshGrace, func() {
		m.inflightMu.Lock()
		delete(m.inflight, token)
		m.inflightMu.Unlock()
	})
	return e.res, e.err
}

// SignOut revokes the refresh token server-side. Best effort: callers
// clear cookies unconditionally even when this fails, so the client is
// never stranded in a signed-in UI state without a valid token.
func (m *Manager) SignOut(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := m.refresh.Revoke(ctx, refreshToken); err != nil {
		m.log.Warn("refresh token revoke failed", zap.Error(err))
	}
}

// RequestPasswordReset issues a reset token and emails it. The outcome
// is identical whether or not the email maps to an account, to avoid
// account enumeration.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) {
	u, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return
	}
	token, err := m.resets.Create(ctx, u.ID)
	if err != nil {
		m.log.Error("create reset token failed", zap.Error(err))
		return
	}
	if m.mail == nil {
		return
	}
	if err := m.mail.SendPasswordReset(ctx, u.Email, token); err != nil {
		m.log.Error("send reset email failed", zap.Error(err), zap.String("email", u.Email))
	}
}

// ResetPassword consumes a reset token and stores the new password
// hash. The token is single-use.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := m.resets.Consume(ctx, token)
	if err != nil {
		return ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return m.users.SetPassword(ctx, userID, string(hash))
}
