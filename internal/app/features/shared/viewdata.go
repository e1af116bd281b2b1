// Package shared holds the view-model base embedded by every page
// template and the shared layout partials (under views/).
package shared

import (
	"net/http"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
)

// BaseVM carries what the layout partials need on every page.
type BaseVM struct {
	Title      string
	IsLoggedIn bool
	IsAdmin    bool
	UserName   string
	Flash      []flash.Message
}

// Base builds the layout view model for the current request, draining
// any queued flash notices.
func Base(w http.ResponseWriter, r *http.Request, title string) BaseVM {
	vm := BaseVM{Title: title, Flash: flash.Take(w, r)}
	if snap, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.IsAdmin = snap.IsGlobalAdmin
		vm.UserName = snap.FullName
	}
	return vm
}
