package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"file-hasher/core/catalog"
	"file-hasher/core/config"
	"file-hasher/core/database"
	"file-hasher/core/logger"
	"file-hasher/core/manifest"
	"file-hasher/core/reconcile"
	"file-hasher/core/storage"

	"go.uber.org/zap"
)

// setup loads the configuration and the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// connectCatalog connects to the catalog database.
func connectCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return catalog.New(db), nil
}

// openCatalog connects to the catalog database and migrates its schema.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := connectCatalog(cfg)
	if err != nil {
		return nil, err
	}
	if err := cat.Migrate(ctx); err != nil {
		return nil, err
	}
	return cat, nil
}

// sourceEnv connects only the collaborators the given references need.
func sourceEnv(ctx context.Context, cfg *config.Config, l *zap.Logger, refs ...string) (reconcile.Env, error) {
	env := reconcile.Env{
		Bucket:        cfg.Storage.Bucket,
		StoragePrefix: cfg.Storage.Prefix,
		Logger:        l,
	}

	for _, ref := range refs {
		switch {
		case strings.HasPrefix(ref, reconcile.StoragePrefix) && env.Storage == nil:
			client, err := storage.NewClient(cfg.Storage)
			if err != nil {
				return env, fmt.Errorf("failed to create storage client: %w", err)
			}
			env.Storage = client
		case strings.HasPrefix(ref, reconcile.CatalogPrefix) && env.Catalog == nil:
			cat, err := openCatalog(ctx, cfg)
			if err != nil {
				return env, err
			}
			env.Catalog = cat
		}
	}
	return env, nil
}

// buildSpec resolves the manifest references of a compare or dedup run.
// verifyRoot, when set, drops destination records whose file is gone.
func buildSpec(env reconcile.Env, source, destination, verifyRoot string) (*reconcile.Spec, error) {
	src, err := reconcile.ParseSource(source, env)
	if err != nil {
		return nil, err
	}
	spec := &reconcile.Spec{Source: src}

	if destination != "" {
		dst, err := reconcile.ParseSource(destination, env)
		if err != nil {
			return nil, err
		}
		spec.Destination = dst
	}

	if verifyRoot != "" {
		if spec.Destination != nil {
			spec.Destination = &reconcile.VerifiedSource{Source: spec.Destination, Root: verifyRoot, Logger: env.Logger}
		} else {
			spec.Source = &reconcile.VerifiedSource{Source: spec.Source, Root: verifyRoot, Logger: env.Logger}
		}
	}
	return spec, nil
}

// loadManifestFile reads a local manifest and logs skipped lines.
func loadManifestFile(l *zap.Logger, path string) (*manifest.Manifest, error) {
	m, warnings, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		l.Warn("Skipping malformed manifest line",
			zap.String("manifest", path),
			zap.Int("line", w.Line),
			zap.String("reason", w.Reason),
		)
	}
	return m, nil
}
