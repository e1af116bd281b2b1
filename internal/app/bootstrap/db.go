// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dalemusser/waffle/config"
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
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ConnectDB establishes the MongoDB connection used by all stores.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return DBDeps{}, fmt.Errorf("mongodb ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates indexes, seeds the default form definitions,
// and bootstraps the superadmin account.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexed := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"refresh_tokens", refreshtokenstore.New(db).EnsureIndexes},
		{"password_resets", resetstore.New(db).EnsureIndexes},
		{"form_definitions", formdefstore.New(db).EnsureIndexes},
		{"applications", applicationstore.New(db).EnsureIndexes},
		{"contact_messages", contactstore.New(db).EnsureIndexes},
		{"form_files", formfilestore.New(db, nil).EnsureIndexes},
		{"hubs", hubstore.New(db).EnsureIndexes},
		{"hub_memberships", membershipstore.New(db).EnsureIndexes},
		{"content", contentstore.New(db).EnsureIndexes},
		{"report_access_requests", reportstore.New(db).EnsureIndexes},
	}
	for _, c := range indexed {
		if err := c.fn(ctx); err != nil {
			return fmt.Errorf("ensure indexes for %s: %w", c.name, err)
		}
	}

	if err := formdefstore.New(db).EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed default form definitions: %w", err)
	}

	if err := ensureSuperAdmin(ctx, userstore.New(db), appCfg.SuperAdminEmail, logger); err != nil {
		return fmt.Errorf("bootstrap superadmin: %w", err)
	}

	return nil
}

// ensureSuperAdmin promotes an existing account to superadmin, or
// creates one with an unguessable password when none exists. The
// operator signs in through the password-reset flow.
func ensureSuperAdmin(ctx context.Context, users *userstore.Store, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}

	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		if u.Role == models.RoleSuperAdmin {
			return nil
		}
		if err := users.SetRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing account to superadmin", zap.String("email", u.Email))
		return nil
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(buf)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	created, err := users.Create(ctx, models.User{
		FullName:     "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		AuthMethod:   "password",
		Role:         models.RoleSuperAdmin,
	})
	if err != nil {
		return err
	}
	logger.Info("created superadmin account; use the password-reset flow to set a password",
		zap.String("email", created.Email))
	return nil
}
