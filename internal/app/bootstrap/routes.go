// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	aboutfeature "github.com/junctionhq/junction/internal/app/features/about"
	applyfeature "github.com/junctionhq/junction/internal/app/features/apply"
	authapifeature "github.com/junctionhq/junction/internal/app/features/authapi"
	authgooglefeature "github.com/junctionhq/junction/internal/app/features/authgoogle"
	contactfeature "github.com/junctionhq/junction/internal/app/features/contact"
	contentfeature "github.com/junctionhq/junction/internal/app/features/content"
	dashboardfeature "github.com/junctionhq/junction/internal/app/features/dashboard"
	errorsfeature "github.com/junctionhq/junction/internal/app/features/errors"
	healthfeature "github.com/junctionhq/junction/internal/app/features/health"
	homefeature "github.com/junctionhq/junction/internal/app/features/home"
	hubsfeature "github.com/junctionhq/junction/internal/app/features/hubs"
	memberportalfeature "github.com/junctionhq/junction/internal/app/features/memberportal"
	signinfeature "github.com/junctionhq/junction/internal/app/features/signin"
	signoutfeature "github.com/junctionhq/junction/internal/app/features/signout"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	resetstore "github.com/junctionhq/junction/internal/app/store/passwordreset"
	refreshtokenstore "github.com/junctionhq/junction/internal/app/store/refreshtokens"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/mailer"
	"github.com/junctionhq/junction/internal/app/system/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	// Feature view packages register their template sets in init().
	_ "github.com/junctionhq/junction/internal/app/features/about/views"
	_ "github.com/junctionhq/junction/internal/app/features/apply/views"
	_ "github.com/junctionhq/junction/internal/app/features/contact/views"
	_ "github.com/junctionhq/junction/internal/app/features/content/views"
	_ "github.com/junctionhq/junction/internal/app/features/dashboard/views"
	_ "github.com/junctionhq/junction/internal/app/features/home/views"
	_ "github.com/junctionhq/junction/internal/app/features/hubs/views"
	_ "github.com/junctionhq/junction/internal/app/features/memberportal/views"
	_ "github.com/junctionhq/junction/internal/app/features/shared/views"
	_ "github.com/junctionhq/junction/internal/app/features/signin/views"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. It wires the session manager,
// stores, and feature routers, and applies the route guard that
// enforces the public/member/admin/superadmin access classes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	db := deps.MongoDatabase

	// Session cookies and the flash cookie share the signing key.
	cookies, err := auth.NewCookies(appCfg.SessionKey, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("cookie codec init failed", zap.Error(err))
		return nil, err
	}
	if err := flash.Init(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("flash init failed", zap.Error(err))
		return nil, err
	}

	// Transactional email. Left nil when no API key is configured;
	// senders treat a nil mailer as "log and skip".
	var sender mailer.Sender
	var resetMail auth.ResetMailer
	if appCfg.ResendAPIKey != "" {
		m := mailer.New(appCfg.ResendAPIKey, appCfg.MailFrom, appCfg.SiteName, appCfg.BaseURL, logger)
		sender = m
		resetMail = m
	} else {
		logger.Warn("resend_api_key not set; transactional email disabled")
	}

	local, err := storage.NewLocal(storage.LocalConfig{BasePath: appCfg.StorageLocalPath, BaseURL: appCfg.StorageLocalURL})
	if err != nil {
		logger.Error("local storage init failed", zap.Error(err))
		return nil, err
	}

	// Stores.
	users := userstore.New(db)
	refreshTokens := refreshtokenstore.New(db)
	resets := resetstore.New(db)
	defs := formdefstore.New(db)
	apps := applicationstore.New(db)
	messages := contactstore.New(db)
	files := formfilestore.New(db, local)
	hubs := hubstore.New(db)
	memberships := membershipstore.New(db)
	content := contentstore.New(db)
	reports := reportstore.New(db)

	sessions := auth.NewManager(appCfg.SessionKey, users, refreshTokens, resets, resetMail, cookies, logger)

	// Boot the template engine once; dev mode reloads templates.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	attempts := ratelimit.New(appCfg.SignInAttempts, appCfg.SignInWindow)

	r := chi.NewRouter()

	// Session snapshot into context, then the route access guard.
	r.Use(sessions.LoadSnapshot)
	r.Use(sessions.Guard)

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Static assets with pre-compressed file support (gzip/brotli).
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public marketing pages.
	r.Mount("/", homefeature.Routes(homefeature.NewHandler(content, logger)))
	r.Mount("/about", aboutfeature.Routes(aboutfeature.NewHandler(logger)))

	contentHandler := contentfeature.NewHandler(content, reports, errLog, logger)
	for _, section := range []string{"events", "projects", "publications", "careers"} {
		r.Mount("/"+section, contentfeature.Routes(contentHandler, section))
	}
	r.Mount("/reports/access", contentfeature.AccessRoutes(contentHandler))

	// Hub directory plus the hub application form.
	hubsHandler := hubsfeature.NewHandler(hubs, memberships, errLog, logger)
	r.Mount("/hubs", hubsfeature.Routes(hubsHandler))

	applyHandler := applyfeature.NewHandler(defs, apps, hubs, files, cookies, errLog, logger)
	r.Mount("/apply", applyfeature.Routes(applyHandler))
	r.Mount("/hubs/{hubID}/apply", applyfeature.HubRoutes(applyHandler))

	// Contact form.
	contactHandler := contactfeature.NewHandler(defs, messages, files, errLog, logger)
	r.Mount("/contact", contactfeature.Routes(contactHandler))

	// Authentication surfaces.
	signinHandler := signinfeature.NewHandler(sessions, attempts, appCfg.GoogleSignInEnabled(), errLog, logger)
	r.Mount("/signin", signinfeature.Routes(signinHandler))
	r.Group(signinfeature.ResetRoutes(signinHandler))

	r.Mount("/signout", signoutfeature.Routes(signoutfeature.NewHandler(sessions, logger)))

	if appCfg.GoogleSignInEnabled() {
		oauthCfg := &oauth2.Config{
			ClientID:     appCfg.GoogleClientID,
			ClientSecret: appCfg.GoogleClientSecret,
			RedirectURL:  appCfg.BaseURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
		googleHandler := authgooglefeature.NewHandler(sessions, users, oauthCfg, secure, errLog, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	// Cookie endpoints consumed by the session client.
	r.Mount("/auth", authapifeature.Routes(authapifeature.NewHandler(sessions, logger)))

	// Member portal.
	portalHandler := memberportalfeature.NewHandler(users, hubs, memberships, apps, sessions, errLog, logger)
	r.Mount("/member-portal", memberportalfeature.Routes(portalHandler))

	// Admin dashboard.
	dashboardHandler := &dashboardfeature.Handler{
		Users:        users,
		Hubs:         hubs,
		Memberships:  memberships,
		Applications: apps,
		Messages:     messages,
		Defs:         defs,
		Files:        files,
		Content:      content,
		Reports:      reports,
		Mail:         sender,
		SiteName:     appCfg.SiteName,
		BaseURL:      appCfg.BaseURL,
		ErrLog:       errLog,
		Log:          logger,
	}
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	// Error pages.
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
