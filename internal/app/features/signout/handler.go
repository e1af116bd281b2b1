// internal/app/features/signout/handler.go
package signout

import (
	"context"
	"net/http"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions *auth.Manager
	Log      *zap.Logger
}

func NewHandler(sessions *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// HandleSignOut handles POST /signout: the refresh token is revoked
// server-side and every session cookie is cleared.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ck := h.Sessions.Cookies()
	if token := ck.RefreshToken(r); token != "" {
		h.Sessions.SignOut(ctx, token)
	}
	ck.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
