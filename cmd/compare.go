package cmd

import (
	"errors"
	"fmt"
	"os"

	"file-hasher/core/manifest"
	"file-hasher/core/reconcile"
	"file-hasher/core/script"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for compare and dedup
	scriptPath             string
	dryRunCompare          bool
	verifyRoot             string
	allowAlgorithmMismatch bool
)

// compareCmd plans the reconciliation of two manifests.
var compareCmd = &cobra.Command{
	Use:   "compare <source> [destination]",
	Short: "Plan the commands that rearrange the destination tree like the source",
	Long: `Compares two manifests by content and writes a shell script that creates
directories, moves files and lists possibly empty directories so the
destination tree matches the source layout. Duplicates and files only present
on one side are reported as comments; nothing is ever deleted automatically.

Manifests are local files, published manifests (s3://<name>) or catalog
snapshots (catalog://<name>). Without a destination the source is compared
against itself and only duplicates are reported.

Examples:
  # Plan in the destination tree using the manifest brought from the source machine
  filehasher compare laptop.hashes .hashes

  # Print the script instead of writing it
  filehasher compare s3://laptop .hashes --dry-run

  # Drop records of files that vanished since the destination was hashed
  filehasher compare laptop.hashes .hashes --verify-root .`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		destination := ""
		if len(args) == 2 {
			destination = args[1]
		}
		return runCompare(cmd, args[0], destination)
	},
}

func init() {
	// Add flags
	compareCmd.Flags().StringVarP(&scriptPath, "script", "o", "", "Script output file (default HASHER_SCRIPT)")
	compareCmd.Flags().BoolVar(&dryRunCompare, "dry-run", false, "Print the script to stdout instead of writing it")
	compareCmd.Flags().StringVar(&verifyRoot, "verify-root", "", "Skip destination records whose file is missing under this directory")
	compareCmd.Flags().BoolVar(&allowAlgorithmMismatch, "allow-algorithm-mismatch", false, "Compare manifests built with different algorithms")

	// Add compare to root
	RootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, source, destination string) error {
	// Load configuration and logger
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// Resolve both manifest references
	env, err := sourceEnv(ctx, cfg, l, source, destination)
	if err != nil {
		return err
	}
	spec, err := buildSpec(env, source, destination, verifyRoot)
	if err != nil {
		return err
	}

	// Reconcile
	plan, err := reconcile.ReconcileWithPlan(ctx, spec, reconcile.Options{AllowAlgorithmMismatch: allowAlgorithmMismatch})
	if err != nil {
		var mismatch *manifest.AlgorithmMismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("%w (use --allow-algorithm-mismatch to compare anyway)", err)
		}
		return err
	}
	printPlanReport(l, plan)

	// Render the script
	opts := script.Options{Source: spec.Source.Name()}
	if spec.Destination != nil {
		opts.Destination = spec.Destination.Name()
	}

	if dryRunCompare {
		return script.Write(os.Stdout, plan, opts)
	}

	out := scriptPath
	if out == "" {
		out = cfg.Hasher.Script
	}
	if err := script.Save(out, plan, opts); err != nil {
		return err
	}
	l.Info("Script written, review it before running", zap.String("script", out))
	return nil
}

// printPlanReport logs the plan summary and the conflicts that need a human.
func printPlanReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.Int("source_files", s.SourceFiles),
		zap.Int("destination_files", s.DestinationFiles),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("changed", s.Changed),
		zap.Int("missing", s.Missing),
		zap.Int("extra", s.Extra),
	)

	if len(plan.Actions) > 0 {
		l.Info("Planned actions",
			zap.Int("mkdir", s.MakeDirectories),
			zap.Int("move", s.Moves),
			zap.Int("rmdir", s.RemoveDirectories),
			zap.Int("remove_candidates", s.RemoveCandidates),
			zap.Int("duplicate_groups", s.DuplicateGroups),
		)
	}

	for _, c := range plan.Conflicts {
		l.Warn("Move not scripted",
			zap.String("from", c.From),
			zap.String("to", c.To),
			zap.String("reason", c.Reason),
		)
	}
	if s.Shortfalls > 0 {
		l.Warn("Destination holds fewer copies than the source", zap.Int("keys", s.Shortfalls))
	}
}
