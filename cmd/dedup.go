package cmd

import (
	"os"

	"file-hasher/core/reconcile"
	"file-hasher/core/script"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dedupScript bool

// dedupCmd reports duplicate content inside one manifest.
var dedupCmd = &cobra.Command{
	Use:   "dedup <manifest>",
	Short: "List files with identical content inside one tree",
	Long: `Groups the records of a single manifest by digest and size. The first path of
each group (in path order) is kept; the others are listed as removal
candidates. Hard links share an inode, so removing them frees no space.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		// Resolve the manifest reference
		env, err := sourceEnv(ctx, cfg, l, args[0])
		if err != nil {
			return err
		}
		spec, err := buildSpec(env, args[0], "", verifyRoot)
		if err != nil {
			return err
		}

		// Compare the manifest against itself
		plan, err := reconcile.ReconcileWithPlan(ctx, spec, reconcile.Options{})
		if err != nil {
			return err
		}

		if dedupScript {
			return script.Write(os.Stdout, plan, script.Options{Source: spec.Source.Name()})
		}

		// Report each group and the reclaimable space
		var wasted int64
		for _, g := range plan.Groups {
			l.Info("Duplicate group",
				zap.String("digest", g.Key.Digest),
				zap.Int64("size", g.Key.Size),
				zap.String("keep", g.Members[0].Path),
				zap.Int("copies", len(g.Members)),
			)
		}
		for _, a := range plan.Section(reconcile.ActionRemoveFile) {
			wasted += a.Size
		}
		l.Info("Duplicate report",
			zap.Int("groups", plan.Summary.DuplicateGroups),
			zap.Int("removal_candidates", plan.Summary.RemoveCandidates),
			zap.Int64("reclaimable_bytes_upper_bound", wasted),
		)
		return nil
	},
}

func init() {
	// Add flags
	dedupCmd.Flags().BoolVar(&dedupScript, "script", false, "Print the commented removal script instead of the report")
	dedupCmd.Flags().StringVar(&verifyRoot, "verify-root", "", "Skip records whose file is missing under this directory")

	// Add dedup to root
	RootCmd.AddCommand(dedupCmd)
}
