package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"file-hasher/core/builder"
	"file-hasher/core/manifest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// hashFlags are shared by the hash subcommands.
type hashFlags struct {
	root                 string
	manifest             string
	algorithm            string
	workers              int
	exclude              []string
	allowAlgorithmChange bool
}

var hashOpts hashFlags

// hashCmd is the parent command for building manifests.
var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Build the manifest of a directory tree",
	Long: `Walks a directory tree and records the digest, size, inode and mtime of
every regular file. Symbolic links are never followed.

The manifest is written next to the tree (default .hashes) and replaced
atomically, so an interrupted run leaves the previous manifest intact.`,
}

func newHashModeCmd(mode builder.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(cmd, mode)
		},
	}
}

func init() {
	// Add one subcommand per mode
	hashCmd.AddCommand(newHashModeCmd(builder.ModeGenerate, "Hash every file, ignoring any existing manifest"))
	hashCmd.AddCommand(newHashModeCmd(builder.ModeAppend, "Hash every file and add to the existing manifest"))
	hashCmd.AddCommand(newHashModeCmd(builder.ModeUpdate, "Rehash only files whose size or mtime changed"))

	// Add flags
	f := hashCmd.PersistentFlags()
	f.StringVarP(&hashOpts.root, "root", "r", ".", "Directory tree to hash")
	f.StringVarP(&hashOpts.manifest, "manifest", "m", "", "Manifest file (default <root>/<HASHER_MANIFEST>)")
	f.StringVarP(&hashOpts.algorithm, "algorithm", "a", "", "Hash algorithm (default HASHER_ALGORITHM)")
	f.IntVarP(&hashOpts.workers, "workers", "w", -1, "Number of hashing workers (default HASHER_WORKERS, 0 = all CPUs)")
	f.StringSliceVarP(&hashOpts.exclude, "exclude", "x", nil, "Glob patterns to skip, relative to the root")
	f.BoolVar(&hashOpts.allowAlgorithmChange, "allow-algorithm-change", false, "Discard an existing manifest built with another algorithm")

	// Add hash to root
	RootCmd.AddCommand(hashCmd)
}

func runHash(cmd *cobra.Command, mode builder.Mode) error {
	// Load configuration and logger
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// Flags override configuration
	algorithm := hashOpts.algorithm
	if algorithm == "" {
		algorithm = cfg.Hasher.Algorithm
	}
	workers := hashOpts.workers
	if workers < 0 {
		workers = cfg.Hasher.Workers
	}
	exclude := append(cfg.Hasher.ExcludePatterns(), hashOpts.exclude...)
	manifestPath := hashOpts.manifest
	if manifestPath == "" {
		manifestPath = filepath.Join(hashOpts.root, cfg.Hasher.Manifest)
	}

	// Create builder
	b, err := builder.New(builder.Options{
		Root:                 hashOpts.root,
		Algorithm:            algorithm,
		Mode:                 mode,
		Workers:              workers,
		Exclude:              exclude,
		ManifestPath:         manifestPath,
		AllowAlgorithmChange: hashOpts.allowAlgorithmChange,
		Progress:             progressLogger(l),
	}, l)
	if err != nil {
		return err
	}

	// Load the previous manifest unless regenerating
	var existing *manifest.Manifest
	if mode != builder.ModeGenerate {
		existing, err = loadManifestFile(l, manifestPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.Info("No existing manifest, hashing everything", zap.String("manifest", manifestPath))
		case err != nil:
			return err
		}
	}

	l.Info("Building manifest",
		zap.String("root", hashOpts.root),
		zap.String("mode", string(mode)),
		zap.String("algorithm", algorithm),
	)
	start := time.Now()

	// Build
	m, report, err := b.Build(ctx, existing)
	if err != nil {
		var mismatch *manifest.AlgorithmMismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("%w (use --allow-algorithm-change to rebuild)", err)
		}
		return fmt.Errorf("build aborted, %s left untouched: %w", manifestPath, err)
	}

	// Report skipped files
	for _, s := range report.Skipped {
		l.Warn("Skipped unavailable file", zap.String("path", s.Path), zap.Error(s.Err))
	}
	for _, p := range report.Unrepresentable {
		l.Warn("Skipped file name that cannot be stored in a manifest", zap.String("path", p))
	}

	// Replace the manifest atomically
	if err := manifest.Save(manifestPath, m); err != nil {
		return err
	}

	l.Info("Manifest written",
		zap.String("manifest", manifestPath),
		zap.Int("records", m.Len()),
		zap.Int("hashed", report.Hashed),
		zap.Int("reused", report.Reused),
		zap.Int("dropped", len(report.Dropped)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// progressLogger reports each worker's progress at debug level and its
// completion at info level.
func progressLogger(l *zap.Logger) builder.ProgressFunc {
	return func(e builder.Event) {
		if e.Completed == e.Total {
			l.Info("Worker finished", zap.Int("worker", e.WorkerID), zap.Int("files", e.Total))
			return
		}
		l.Debug("Hashed",
			zap.Int("worker", e.WorkerID),
			zap.Int("completed", e.Completed),
			zap.Int("total", e.Total),
			zap.String("path", e.Path),
		)
	}
}
