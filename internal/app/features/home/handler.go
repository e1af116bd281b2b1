// internal/app/features/home/handler.go
package home

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/junctionhq/junction/internal/app/features/shared"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type pageData struct {
	shared.BaseVM
	Events   []models.ContentItem
	Projects []models.ContentItem
}

type Handler struct {
	Content *contentstore.Store
	Log     *zap.Logger
}

func NewHandler(content *contentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Content: content, Log: logger}
}

// ServeHome renders the landing page with a preview of upcoming events
// and recent projects. Content failures degrade to an empty section
// rather than an error page.
func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	events, err := h.Content.ListPublished(ctx, models.ContentEvent, 3)
	if err != nil {
		h.Log.Warn("home: list events failed", zap.Error(err))
	}
	projects, err := h.Content.ListPublished(ctx, models.ContentProject, 3)
	if err != nil {
		h.Log.Warn("home: list projects failed", zap.Error(err))
	}

	templates.Render(w, r, "home", pageData{
		BaseVM:   shared.Base(w, r, "A network for professionals"),
		Events:   events,
		Projects: projects,
	})
}
