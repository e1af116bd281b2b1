// Package htmlsanitize strips dangerous markup from user-supplied
// text before it is stored or rendered.
//
// Two policies cover the app's needs: Strict for plain-text inputs
// (contact bodies, reviewer notes, form answers) and Rich for admin-
// authored content (publication and project bodies) where basic
// formatting is allowed.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	strict = bluemonday.StrictPolicy()
	rich   = bluemonday.UGCPolicy()
)

// Strict removes all HTML, returning plain text.
func Strict(s string) string {
	return strict.Sanitize(s)
}

// Rich allows user-generated-content markup (headings, lists, links)
// and strips everything else.
func Rich(s string) string {
	return rich.Sanitize(s)
}
