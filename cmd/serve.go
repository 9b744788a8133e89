package cmd

import (
	"file-hasher/core/loader"
	"file-hasher/core/logger"
	"file-hasher/core/middleware/auth"
	"file-hasher/core/middleware/rayid"
	"file-hasher/core/reconcile"
	"file-hasher/feature/review"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort       string
	serveVerifyRoot string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [source] [destination]",
	Short: "Serve the reconciliation plan over HTTP for review",
	Long: `Starts a read-only HTTP server exposing the plan, duplicate groups and the
rendered script of the configured manifests. Manifests are reloaded on every
request. Arguments override SERVER_SOURCE and SERVER_DESTINATION.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, logg, err := setup()
		if err != nil {
			return err
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// Arguments and flags override configuration
		if len(args) > 0 {
			cfg.Server.Source = args[0]
		}
		if len(args) > 1 {
			cfg.Server.Destination = args[1]
		}
		if servePort != "" {
			cfg.Server.Port = servePort
		}
		if err := cfg.Server.Validate(); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		// Resolve manifest references
		env, err := sourceEnv(ctx, cfg, logg, cfg.Server.Source, cfg.Server.Destination)
		if err != nil {
			return err
		}
		spec, err := buildSpec(env, cfg.Server.Source, cfg.Server.Destination, serveVerifyRoot)
		if err != nil {
			return err
		}

		// Create app
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// Register features
		mgr := loader.NewManager()
		mgr.Register(review.NewFeature(spec, reconcile.Options{AllowAlgorithmMismatch: allowAlgorithmMismatch}, logg))

		// RayID first so every later log line carries it
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

		// Auth middleware
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		if cfg.Server.ApiKey == "" {
			logg.Warn("SERVER_API_KEY is empty, the review API is unauthenticated")
		}

		// Load features
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// Start server
		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server",
				zap.String("port", cfg.Server.Port),
				zap.String("source", cfg.Server.Source),
				zap.String("destination", cfg.Server.Destination),
			)
			errCh <- app.Listen(":" + cfg.Server.Port)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	// Add flags
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default SERVER_PORT)")
	serveCmd.Flags().StringVar(&serveVerifyRoot, "verify-root", "", "Skip destination records whose file is missing under this directory")
	serveCmd.Flags().BoolVar(&allowAlgorithmMismatch, "allow-algorithm-mismatch", false, "Compare manifests built with different algorithms")

	RootCmd.AddCommand(serveCmd)
}
