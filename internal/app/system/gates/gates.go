// Package gates classifies request paths into access categories and
// decides what to do with a request before any page logic runs.
//
// Classify and Decide are pure functions over the path and the user
// snapshot from the user_data cookie; they never touch the backend, so
// the guard adds no network latency to navigation. The HTTP middleware
// that enforces the decision lives in the auth package.
package gates

import (
	"strings"

	"github.com/junctionhq/junction/internal/domain/models"
)

// RouteClass is the access category of a path. Every path maps to
// exactly one class.
type RouteClass int

const (
	Public RouteClass = iota
	AuthPage
	Member
	Admin
	SuperAdmin
)

func (c RouteClass) String() string {
	switch c {
	case AuthPage:
		return "auth-page"
	case Member:
		return "member"
	case Admin:
		return "admin"
	case SuperAdmin:
		return "superadmin"
	default:
		return "public"
	}
}

// Route prefixes, most specific first.
var (
	superAdminPrefixes = []string{"/dashboard/system"}
	adminPrefixes      = []string{"/dashboard"}
	memberPrefixes     = []string{"/member-portal"}
	authPagePrefixes   = []string{"/signin", "/forgot-password", "/reset-password"}
)

// Classify maps a request path to its access category by prefix
// matching. It is total: unknown paths are Public.
func Classify(path string) RouteClass {
	switch {
	case hasPrefix(path, superAdminPrefixes):
		return SuperAdmin
	case hasPrefix(path, adminPrefixes):
		return Admin
	case hasPrefix(path, memberPrefixes):
		return Member
	case hasPrefix(path, authPagePrefixes):
		return AuthPage
	default:
		return Public
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Action is what the guard should do with the request.
type Action int

const (
	Pass Action = iota
	Redirect
)

// Decision is the outcome of the access table for one request.
type Decision struct {
	Action Action
	Target string // redirect target when Action == Redirect

	// StashDestination asks the guard to record the original path so
	// the user returns there after signing in.
	StashDestination bool
}

// homeFor returns the landing page for an authenticated snapshot.
func homeFor(snap *models.UserSnapshot) string {
	if snap.IsGlobalAdmin {
		return "/dashboard"
	}
	return "/member-portal"
}

// Decide applies the access decision table. snap is nil when the
// request carries no usable user_data cookie.
//
//	authenticated + auth page            -> redirect to role home
//	unauthenticated + gated route        -> redirect to /signin, stash path
//	authenticated non-admin + admin      -> redirect to /member-portal
//	non-superadmin + superadmin route    -> redirect to /dashboard
//	otherwise                            -> pass
func Decide(class RouteClass, snap *models.UserSnapshot) Decision {
	signedIn := snap != nil

	switch class {
	case AuthPage:
		if signedIn {
			return Decision{Action: Redirect, Target: homeFor(snap)}
		}
		return Decision{Action: Pass}

	case Member:
		if !signedIn {
			return Decision{Action: Redirect, Target: "/signin", StashDestination: true}
		}
		return Decision{Action: Pass}

	case Admin:
		if !signedIn {
			return Decision{Action: Redirect, Target: "/signin", StashDestination: true}
		}
		if !snap.IsGlobalAdmin {
			return Decision{Action: Redirect, Target: "/member-portal"}
		}
		return Decision{Action: Pass}

	case SuperAdmin:
		if !signedIn {
			return Decision{Action: Redirect, Target: "/signin", StashDestination: true}
		}
		if !snap.IsSuperAdmin {
			if !snap.IsGlobalAdmin {
				return Decision{Action: Redirect, Target: "/member-portal"}
			}
			return Decision{Action: Redirect, Target: "/dashboard"}
		}
		return Decision{Action: Pass}

	default:
		return Decision{Action: Pass}
	}
}
