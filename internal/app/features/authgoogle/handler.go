// internal/app/features/authgoogle/handler.go
//
// Google OAuth sign-in. OAuth only authenticates; it never creates
// accounts. A Google identity signs in if and only if a user with that
// email already exists.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute

	userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type Handler struct {
	Sessions *auth.Manager
	Users    *userstore.Store
	OAuth    *oauth2.Config
	Secure   bool
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(sessions *auth.Manager, users *userstore.Store, oauthCfg *oauth2.Config, secure bool, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Users: users, OAuth: oauthCfg, Secure: secure, ErrLog: errLog, Log: logger}
}

// HandleStart handles GET /auth/google: stash a state nonce and hand
// off to Google's consent page.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		h.ErrLog.LogServerError(w, r, "generate oauth state failed", err, "Sign-in is unavailable right now.", "/signin")
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusSeeOther)
}

// HandleCallback handles GET /auth/google/callback.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ck, err := r.Cookie(stateCookie)
	if err != nil || ck.Value == "" || ck.Value != r.URL.Query().Get("state") {
		h.failSignIn(w, r, "Sign-in with Google failed. Please try again.")
		return
	}
	// The nonce is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.Secure, SameSite: http.SameSiteLaxMode})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.failSignIn(w, r, "Sign-in with Google was cancelled.")
		return
	}

	token, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("oauth code exchange failed", zap.Error(err))
		h.failSignIn(w, r, "Sign-in with Google failed. Please try again.")
		return
	}

	email, err := h.fetchEmail(ctx, token)
	if err != nil {
		h.Log.Warn("fetch google userinfo failed", zap.Error(err))
		h.failSignIn(w, r, "Sign-in with Google failed. Please try again.")
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.failSignIn(w, r, "No account exists for that Google email. Apply for membership first.")
			return
		}
		h.ErrLog.LogServerError(w, r, "lookup user by google email failed", err, "Sign-in is unavailable right now.", "/signin")
		return
	}

	res, err := h.Sessions.StartSession(ctx, u.ID, auth.DeviceInfo{
		UserAgent: r.UserAgent(),
		IP:        r.RemoteAddr,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.failSignIn(w, r, "This account is disabled.")
			return
		}
		h.ErrLog.LogServerError(w, r, "start oauth session failed", err, "Sign-in is unavailable right now.", "/signin")
		return
	}

	sc := h.Sessions.Cookies()
	if err := sc.SetSession(w, res.Tokens, res.User); err != nil {
		h.ErrLog.LogServerError(w, r, "set session cookies failed", err, "Sign-in is unavailable right now.", "/signin")
		return
	}

	dest := sc.TakeIntendedDestination(w, r)
	if dest == "" {
		if res.User.IsGlobalAdmin {
			dest = "/dashboard"
		} else {
			dest = "/member-portal"
		}
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) failSignIn(w http.ResponseWriter, r *http.Request, msg string) {
	flash.Error(w, r, msg)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// fetchEmail resolves the verified email behind an access token.
func (h *Handler) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := h.OAuth.Client(ctx, token)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Email == "" || !info.VerifiedEmail {
		return "", errors.New("google account has no verified email")
	}
	return normalize.Email(info.Email), nil
}
