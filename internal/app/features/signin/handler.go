// internal/app/features/signin/handler.go
//
// Email/password sign-in plus the password-reset flow. Sign-in and
// reset requests are rate limited per client address; credential
// failures never reveal whether the email exists.
package signin

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/ratelimit"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type signInData struct {
	shared.BaseVM
	Email        string
	ErrorMessage string
	GoogleSignIn bool
}

type forgotData struct {
	shared.BaseVM
}

type resetData struct {
	shared.BaseVM
	Token        string
	ErrorMessage string
}

type Handler struct {
	Sessions *auth.Manager
	Attempts *ratelimit.Limiter

	// GoogleSignIn toggles the "sign in with Google" button; the OAuth
	// routes are mounted only when configured.
	GoogleSignIn bool

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(sessions *auth.Manager, attempts *ratelimit.Limiter, googleSignIn bool, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Attempts: attempts, GoogleSignIn: googleSignIn, ErrLog: errLog, Log: logger}
}

// ServeSignIn handles GET /signin.
func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "signin", signInData{
		BaseVM:       shared.Base(w, r, "Sign in"),
		GoogleSignIn: h.GoogleSignIn,
	})
}

// HandleSignIn handles POST /signin.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.Attempts.Allow(ratelimit.ClientIP(r)) {
		h.renderSignInError(w, r, "", "Too many attempts. Please wait a minute and try again.")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse signin form failed", err, "We could not read the form.", "/signin")
		return
	}
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderSignInError(w, r, email, "Enter your email and password.")
		return
	}

	res, err := h.Sessions.SignIn(ctx, email, password, auth.DeviceInfo{
		UserAgent: r.UserAgent(),
		IP:        r.RemoteAddr,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.renderSignInError(w, r, email, err.Error())
		case errors.Is(err, auth.ErrAccountDisabled):
			h.renderSignInError(w, r, email, err.Error())
		default:
			h.ErrLog.LogServerError(w, r, "signin failed", err, "Sign-in is unavailable right now.", "/signin")
		}
		return
	}

	ck := h.Sessions.Cookies()
	if err := ck.SetSession(w, res.Tokens, res.User); err != nil {
		h.ErrLog.LogServerError(w, r, "set session cookies failed", err, "Sign-in is unavailable right now.", "/signin")
		return
	}

	dest := ck.TakeIntendedDestination(w, r)
	if dest == "" {
		dest = homeFor(res.User)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderSignInError(w http.ResponseWriter, r *http.Request, email, msg string) {
	templates.Render(w, r, "signin", signInData{
		BaseVM:       shared.Base(w, r, "Sign in"),
		Email:        email,
		ErrorMessage: msg,
		GoogleSignIn: h.GoogleSignIn,
	})
}

func homeFor(snap models.UserSnapshot) string {
	if snap.IsGlobalAdmin {
		return "/dashboard"
	}
	return "/member-portal"
}

// ServeForgotPassword handles GET /forgot-password.
func (h *Handler) ServeForgotPassword(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "forgot_password", forgotData{
		BaseVM: shared.Base(w, r, "Forgot password"),
	})
}

// HandleForgotPassword handles POST /forgot-password. The outcome is
// identical whether or not the email exists.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.Attempts.Allow(ratelimit.ClientIP(r)) {
		flash.Error(w, r, "Too many requests. Please wait a minute and try again.")
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse forgot-password form failed", err, "We could not read the form.", "/forgot-password")
		return
	}
	if email := normalize.Email(r.FormValue("email")); email != "" {
		h.Sessions.RequestPasswordReset(ctx, email)
	}

	flash.Info(w, r, "If that email belongs to an account, a reset link is on its way.")
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// ServeResetPassword handles GET /reset-password/{token}.
func (h *Handler) ServeResetPassword(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "reset_password", resetData{
		BaseVM: shared.Base(w, r, "Reset password"),
		Token:  chi.URLParam(r, "token"),
	})
}

// HandleResetPassword handles POST /reset-password/{token}.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse reset form failed", err, "We could not read the form.", "/signin")
		return
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	fail := func(msg string) {
		templates.Render(w, r, "reset_password", resetData{
			BaseVM:       shared.Base(w, r, "Reset password"),
			Token:        token,
			ErrorMessage: msg,
		})
	}

	if len(password) < 8 {
		fail("Password must be at least 8 characters.")
		return
	}
	if password != confirm {
		fail("Passwords do not match.")
		return
	}

	if err := h.Sessions.ResetPassword(ctx, token, password); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			fail("That reset link is invalid or has expired. Request a new one.")
			return
		}
		h.ErrLog.LogServerError(w, r, "reset password failed", err, "Password reset is unavailable right now.", "/signin")
		return
	}

	flash.Success(w, r, "Password updated. Sign in with your new password.")
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}
