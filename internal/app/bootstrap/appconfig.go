// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings (ports, TLS, logging); AppConfig is
// everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session configuration. SessionKey signs access tokens and
	// encodes the session cookies; it must be strong in production.
	SessionKey    string
	SessionDomain string // Cookie domain (blank means current host)

	// Site identity, used in page titles and transactional email.
	SiteName string
	BaseURL  string // e.g., "https://junctionhq.org" or "http://localhost:3000"

	// File storage for dynamic-form uploads.
	StorageLocalPath string // e.g., "./uploads/submissions"
	StorageLocalURL  string // URL prefix for serving stored files

	// Transactional email (Resend).
	ResendAPIKey string
	MailFrom     string // From address, e.g. "Junction <no-reply@junctionhq.org>"

	// Google OAuth sign-in. Both must be set to enable the flow.
	GoogleClientID     string
	GoogleClientSecret string

	// Sign-in rate limiting, keyed by client IP.
	SignInAttempts int
	SignInWindow   time.Duration

	// SuperAdmin bootstrap: promotes or creates this account on startup.
	SuperAdminEmail string
}

// GoogleSignInEnabled reports whether the OAuth flow is configured.
func (c AppConfig) GoogleSignInEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
