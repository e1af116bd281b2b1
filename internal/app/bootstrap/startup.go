// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"os"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB
// connections and schema setup are complete, but before the HTTP
// handler is built. Feature view packages register their template
// sets in init(); the engine that compiles them boots in BuildHandler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := os.MkdirAll(appCfg.StorageLocalPath, 0o755); err != nil {
		logger.Error("create upload directory failed", zap.Error(err), zap.String("path", appCfg.StorageLocalPath))
		return err
	}
	return nil
}
