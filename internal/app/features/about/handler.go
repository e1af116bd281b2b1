// internal/app/features/about/handler.go
package about

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/junctionhq/junction/internal/app/features/shared"
	"go.uber.org/zap"
)

type pageData struct {
	shared.BaseVM
}

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "about", pageData{
		BaseVM: shared.Base(w, r, "About Junction"),
	})
}
