package cmd

import (
	"file-hasher/core/builder"
	"file-hasher/core/manifest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrateRoot   string
	dryRunMigrate bool
)

// migrateCmd upgrades manifests written without mtime and inode.
var migrateCmd = &cobra.Command{
	Use:   "migrate <manifest>",
	Short: "Fill in missing mtime and inode of a legacy manifest",
	Long: `Older manifests only record digest and size. For every record without a
plausible mtime, the file is looked up under the root; when it still exists
with the recorded size its mtime and inode are added without rehashing, so the
next "hash update" can reuse the digest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		_, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		m, err := loadManifestFile(l, args[0])
		if err != nil {
			return err
		}

		// Fill in mtime and inode
		out, report, err := builder.Migrate(ctx, migrateRoot, m)
		if err != nil {
			return err
		}

		// Report
		for _, p := range report.Missing {
			l.Warn("File no longer exists", zap.String("path", p))
		}
		for _, p := range report.SizeChanged {
			l.Warn("Size changed, record left for the next update", zap.String("path", p))
		}
		l.Info("Migration report",
			zap.Int("candidates", report.Candidates),
			zap.Int("updated", report.Updated),
			zap.Int("missing", len(report.Missing)),
			zap.Int("size_changed", len(report.SizeChanged)),
		)

		// Write unless dry-run or unchanged
		if dryRunMigrate {
			l.Info("Dry-run mode: manifest not written")
			return nil
		}
		if report.Updated == 0 {
			l.Info("Nothing to migrate")
			return nil
		}
		if err := manifest.Save(args[0], out); err != nil {
			return err
		}
		l.Info("Manifest written", zap.String("manifest", args[0]))
		return nil
	},
}

func init() {
	// Add flags
	migrateCmd.Flags().StringVarP(&migrateRoot, "root", "r", ".", "Directory tree the manifest describes")
	migrateCmd.Flags().BoolVar(&dryRunMigrate, "dry-run", false, "Report without rewriting the manifest")

	RootCmd.AddCommand(migrateCmd)
}
