// @title Anatomy Assessment API
// @version 1.0
// @description Backend server for the anatomy learning platform's assessment engine.

// @contact.name API Support
// @contact.email support@example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"anatomy_edu_backend/internal/app"
	"anatomy_edu_backend/internal/config"
	"anatomy_edu_backend/pkg/configwatcher"
	"anatomy_edu_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	migrate := flag.Bool("migrate", false, "force database migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration completed, exiting")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if c, ok := newCfg.(*config.Config); ok {
			application.ApplyConfig(c)
		}
	})

	application.Run()
}
