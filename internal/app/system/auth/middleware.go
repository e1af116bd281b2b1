// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"net/http"

	"github.com/junctionhq/junction/internal/app/system/gates"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the snapshot loaded by LoadSnapshot and a
// found flag.
func CurrentUser(r *http.Request) (*models.UserSnapshot, bool) {
	snap, ok := r.Context().Value(currentUserKey).(*models.UserSnapshot)
	return snap, ok
}

func withUser(r *http.Request, snap *models.UserSnapshot) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, snap))
}

// WithTestUser injects a snapshot directly into the request context,
// bypassing cookie middleware. For handler tests only.
func WithTestUser(r *http.Request, snap *models.UserSnapshot) *http.Request {
	return withUser(r, snap)
}

// LoadSnapshot injects the user snapshot from the user_data cookie
// into the request context. It reads cookies only; the authoritative
// record is consulted by token refresh, not per request.
//
// When the access token is missing or expired but a refresh token is
// present, the session is silently rotated inside the request: new
// cookies are written and the fresh snapshot is used. Failure to
// refresh degrades to "signed out", never to an error page.
func (m *Manager) LoadSnapshot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck := m.cookies

		snap, ok := ck.Snapshot(r)
		if ok && m.accessTokenValid(r) {
			next.ServeHTTP(w, withUser(r, snap))
			return
		}

		// Reactive refresh: access token absent/expired.
		refreshToken := ck.RefreshToken(r)
		if refreshToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		res, err := m.sharedRefresh(r.Context(), refreshToken, DeviceInfo{
			UserAgent: r.UserAgent(),
			IP:        r.RemoteAddr,
		})
		if err != nil {
			// Invalid refresh token is fatal for the session.
			ck.ClearSession(w)
			next.ServeHTTP(w, r)
			return
		}
		if err := ck.SetSession(w, res.Tokens, res.User); err != nil {
			m.log.Error("set session cookies after refresh failed", zap.Error(err))
		}
		next.ServeHTTP(w, withUser(r, &res.User))
	})
}

func (m *Manager) accessTokenValid(r *http.Request) bool {
	token := m.cookies.AccessToken(r)
	if token == "" {
		return false
	}
	_, err := ParseAccessToken(m.secret, token)
	return err == nil
}

// Guard enforces the gates decision table on every request. Mount it
// after LoadSnapshot. Authorization failures resolve to redirects,
// never error pages.
func (m *Manager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, _ := CurrentUser(r)

		d := gates.Decide(gates.Classify(r.URL.Path), snap)
		if d.Action == gates.Pass {
			next.ServeHTTP(w, r)
			return
		}
		if d.StashDestination {
			m.cookies.StashIntendedDestination(w, r.URL.RequestURI())
		}
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
	})
}

// RequireAdmin allows only admins through; everyone else receives the
// guard redirect. Used for API routes that sit outside the /dashboard
// prefix.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := CurrentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !snap.IsGlobalAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
