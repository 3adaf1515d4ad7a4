package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"rebelinux-site/core/config"
	"rebelinux-site/core/loader"
	"rebelinux-site/core/logger"
	"rebelinux-site/core/middleware/rayid"
	"rebelinux-site/core/storage"

	"rebelinux-site/feature/integrity"
	"rebelinux-site/feature/site"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "rebelinux-site/docs/swagger"
)

// @title RebelInuX Site API
// @version 1.0
// @description Serves assembled pages, shared fragments and storage integrity checks.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the site server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Initialize Feature Loader
		mgr := loader.NewManager()

		siteFeature, err := site.NewFeature(store, cfg.Storage.Bucket, logg, cfg.Loader)
		if err != nil {
			logg.Fatal("Failed to create site feature", zap.Error(err))
		}

		// Integrity registers first so /integrity is not captured by /:page
		mgr.Register(integrity.NewFeature(store, cfg.Storage.Bucket, logg, cfg.Server.ApiKey))
		mgr.Register(siteFeature)

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		if !cfg.Server.IsProtected() {
			logg.Warn("API key not set, integrity endpoints are public")
		}

		// 6. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("addr", cfg.Server.Addr()),
				zap.String("fragment_origin", cfg.Loader.Origin))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
