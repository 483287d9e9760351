package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roleboard/core/loader"
	"roleboard/core/logger"
	"roleboard/core/middleware/auth"
	"roleboard/core/middleware/rayid"
	"roleboard/feature/holdrate"
	"roleboard/feature/integrity"
	"roleboard/feature/ranking"
	"roleboard/feature/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "roleboard/docs/swagger"
)

// @title Roleboard API
// @version 1.0
// @description Character snapshot refresh, leaderboards and hold rates.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roleboard server",
	Long:  `Starts the HTTP server, the hold-rate schedule and every enabled feature.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())
		logg := a.logger

		// 1. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 2. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(snapshot.NewFeature(a.snapshots, a.cfg.Refresh.UIDLength))
		mgr.Register(ranking.NewFeature(a.ranking, logg))
		mgr.Register(holdrate.NewFeature(a.holdRate))
		mgr.Register(integrity.NewFeature(integrity.NewService(a.integrityDeps())))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id attached
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("took", time.Since(start)),
			}
			if err != nil {
				l.Error("Request error", append(fields, zap.Error(err))...)
				return err
			}
			l.Info("Request finished", fields...)
			return nil
		})

		// 3. Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/metrics"}}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 6. Daily hold-rate schedule
		if err := a.holdRate.Start(); err != nil {
			return err
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", a.cfg.Server.Port),
				zap.Strings("features", mgr.Names()),
			)
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.holdRate.Stop(ctx)
		return app.ShutdownWithContext(ctx)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
