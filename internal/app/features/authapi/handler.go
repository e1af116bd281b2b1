// internal/app/features/authapi/handler.go
//
// JSON cookie-sync endpoints under /auth. Browser-side code cannot
// read httpOnly cookies, so these endpoints are how the session client
// writes, reads, and clears them. Failures are values: every response
// is JSON, never an error page.
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions *auth.Manager
	Log      *zap.Logger
}

func NewHandler(sessions *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleSetCookies handles POST /auth/set-cookies.
func (h *Handler) HandleSetCookies(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessToken  string              `json:"accessToken"`
		RefreshToken string              `json:"refreshToken"`
		User         models.UserSnapshot `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "malformed body"})
		return
	}
	if body.AccessToken == "" || body.RefreshToken == "" || body.User.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "accessToken, refreshToken, and user are required"})
		return
	}

	pair := auth.TokenPair{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}
	if err := h.Sessions.Cookies().SetSession(w, pair, body.User); err != nil {
		h.Log.Error("set session cookies failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "could not set cookies"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleCurrentUser handles GET /auth/current-user. An absent or
// invalid token answers {user: null, token: null} with 200; the
// signed-out state is a value, not an error.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := h.Sessions.Cookies().AccessToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil, "token": nil})
		return
	}

	snap, err := h.Sessions.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenInvalid) {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil, "token": nil})
			return
		}
		h.Log.Error("resolve current user failed", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{"user": nil, "token": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": snap, "token": token})
}

// HandleRefreshUserData handles POST /auth/refresh-user-data: re-write
// user_data without touching tokens.
func (h *Handler) HandleRefreshUserData(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User models.UserSnapshot `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.User.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "user is required"})
		return
	}
	if err := h.Sessions.Cookies().SetUserData(w, body.User); err != nil {
		h.Log.Error("refresh user_data cookie failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "could not set cookie"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleGetRefreshToken handles GET /auth/get-refresh-token.
func (h *Handler) HandleGetRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := h.Sessions.Cookies().RefreshToken(r)
	if token == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no refresh token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshToken": token})
}

// HandleGetIntendedDestination handles GET /auth/get-intended-destination.
// Reading clears the cookie: a repeat read answers null.
func (h *Handler) HandleGetIntendedDestination(w http.ResponseWriter, r *http.Request) {
	dest := h.Sessions.Cookies().TakeIntendedDestination(w, r)
	if dest == "" {
		writeJSON(w, http.StatusOK, map[string]any{"destination": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"destination": dest})
}

// HandleClearCookies handles POST /auth/clear-cookies: revoke the
// refresh token server-side and expire every session cookie.
func (h *Handler) HandleClearCookies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ck := h.Sessions.Cookies()
	if token := ck.RefreshToken(r); token != "" {
		h.Sessions.SignOut(ctx, token)
	}
	ck.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
