// internal/app/features/dashboard/files.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleFileDownload handles GET /dashboard/files/{fileID}. Local
// files are served directly; remote backends answer with a redirect to
// a presigned URL.
func (h *Handler) HandleFileDownload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fileID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "fileID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	f, err := h.Files.GetByID(ctx, fileID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	localPath, signedURL, err := h.Files.DownloadURL(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve file download failed", err, "The file is unavailable.", "/dashboard")
		return
	}
	if localPath != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName+`"`)
		http.ServeFile(w, r, localPath)
		return
	}
	http.Redirect(w, r, signedURL, http.StatusTemporaryRedirect)
}
