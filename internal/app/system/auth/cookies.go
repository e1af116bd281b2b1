// internal/app/system/auth/cookies.go
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Cookie contract                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Cookie names. All cookies are httpOnly, path "/", SameSite=Lax, and
// Secure in production.
const (
	CookieAuthToken           = "auth_token"           // opaque access token, 1h
	CookieRefreshToken        = "refresh_token"        // opaque refresh token, 7d
	CookieUserData            = "user_data"            // JSON UserSnapshot, 1h
	CookieIntendedDestination = "intended_destination" // path string, 10m, single-read
)

// UserDataTTL bounds snapshot staleness to the access-token lifetime.
const UserDataTTL = AccessTokenTTL

// IntendedDestinationTTL is deliberately short; the value survives one
// sign-in round trip and nothing more.
const IntendedDestinationTTL = 10 * time.Minute

// Cookies writes and reads the four-cookie session contract. The
// user_data and intended_destination values are authenticated with
// securecookie so the route guard can trust them without a backend
// round trip.
type Cookies struct {
	codec  *securecookie.SecureCookie
	domain string
	secure bool
	log    *zap.Logger
}

// NewCookies builds the cookie codec. The key must be ≥32 random
// chars; short keys are accepted with a warning for local dev.
func NewCookies(key, domain string, secure bool, logger *zap.Logger) (*Cookies, error) {
	if key == "" {
		return nil, fmt.Errorf("cookie key is empty; provide ≥32 random chars")
	}
	if len(key) < 32 {
		logger.Warn("cookie key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}
	codec := securecookie.New([]byte(key), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Cookies{codec: codec, domain: domain, secure: secure, log: logger}, nil
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession writes the token pair and user snapshot. The three writes
// are not transactional; readers treat a partial cookie set as "no
// session", never as an error.
func (c *Cookies) SetSession(w http.ResponseWriter, pair TokenPair, snap models.UserSnapshot) error {
	c.set(w, CookieAuthToken, pair.AccessToken, AccessTokenTTL)
	c.set(w, CookieRefreshToken, pair.RefreshToken, RefreshTokenTTL)
	return c.SetUserData(w, snap)
}

// SetUserData re-writes the snapshot cookie without touching tokens.
// Called when roles or memberships change so the next authorization
// decision sees fresh data.
func (c *Cookies) SetUserData(w http.ResponseWriter, snap models.UserSnapshot) error {
	encoded, err := c.codec.Encode(CookieUserData, snap)
	if err != nil {
		return fmt.Errorf("encode user_data: %w", err)
	}
	c.set(w, CookieUserData, encoded, UserDataTTL)
	return nil
}

// ClearSession removes all session cookies.
func (c *Cookies) ClearSession(w http.ResponseWriter) {
	c.clear(w, CookieAuthToken)
	c.clear(w, CookieRefreshToken)
	c.clear(w, CookieUserData)
}

// AccessToken reads the raw access token, "" if absent.
func (c *Cookies) AccessToken(r *http.Request) string {
	return cookieValue(r, CookieAuthToken)
}

// RefreshToken reads the raw refresh token, "" if absent.
func (c *Cookies) RefreshToken(r *http.Request) string {
	return cookieValue(r, CookieRefreshToken)
}

// Snapshot decodes the user_data cookie. A missing, malformed, or
// tampered cookie returns (nil, false): "no session", never a failure
// that could crash route resolution.
func (c *Cookies) Snapshot(r *http.Request) (*models.UserSnapshot, bool) {
	raw := cookieValue(r, CookieUserData)
	if raw == "" {
		return nil, false
	}
	var snap models.UserSnapshot
	if err := c.codec.Decode(CookieUserData, raw, &snap); err != nil {
		c.log.Debug("malformed user_data cookie treated as signed out", zap.Error(err))
		return nil, false
	}
	if snap.ID == "" {
		return nil, false
	}
	return &snap, true
}

// StashIntendedDestination records the path a visitor tried to reach
// before being sent to sign-in. Only relative paths are accepted, so
// the cookie can never redirect off-site.
func (c *Cookies) StashIntendedDestination(w http.ResponseWriter, path string) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return
	}
	encoded, err := c.codec.Encode(CookieIntendedDestination, path)
	if err != nil {
		c.log.Debug("encode intended_destination failed", zap.Error(err))
		return
	}
	c.set(w, CookieIntendedDestination, encoded, IntendedDestinationTTL)
}

// TakeIntendedDestination reads the stashed destination and clears it:
// single-read semantics, so a repeat read returns "".
func (c *Cookies) TakeIntendedDestination(w http.ResponseWriter, r *http.Request) string {
	raw := cookieValue(r, CookieIntendedDestination)
	if raw == "" {
		return ""
	}
	c.clear(w, CookieIntendedDestination)

	var path string
	if err := c.codec.Decode(CookieIntendedDestination, raw, &path); err != nil {
		return ""
	}
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return ""
	}
	return path
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
