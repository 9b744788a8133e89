package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// catalogCmd is the parent command for manifest snapshots stored in SQL.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Store and query manifest snapshots in a database",
	Long: `Keeps named manifest snapshots in SQLite (default) or MySQL so they can be
queried and compared later with catalog://<name>.`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <manifest> <name>",
	Short: "Import a manifest as a named snapshot, replacing any previous one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		m, err := loadManifestFile(l, args[0])
		if err != nil {
			return err
		}
		cat, err := openCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		n, err := cat.Import(cmd.Context(), args[1], m)
		if err != nil {
			return err
		}
		l.Info("Snapshot imported", zap.String("snapshot", args[1]), zap.Int("records", n))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		cat, err := openCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		snaps, err := cat.Snapshots(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tALGORITHM\tFILES\tBYTES")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Name, s.Algorithm, s.Files, s.Bytes)
		}
		return w.Flush()
	},
}

var catalogDuplicatesCmd = &cobra.Command{
	Use:   "duplicates <name>",
	Short: "List content stored at more than one path of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		cat, err := openCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		sets, err := cat.Duplicates(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, s := range sets {
			fmt.Printf("# Key: %s - Size: %d\n", s.Key.Digest, s.Key.Size)
			for _, p := range s.Paths {
				fmt.Println(p)
			}
		}
		l.Info("Duplicate sets", zap.String("snapshot", args[0]), zap.Int("count", len(sets)))
		return nil
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		cat, err := openCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		n, err := cat.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			l.Warn("Snapshot not found", zap.String("snapshot", args[0]))
			return nil
		}
		l.Info("Snapshot deleted", zap.String("snapshot", args[0]), zap.Int64("records", n))
		return nil
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the catalog table has every expected column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		cat, err := connectCatalog(cfg)
		if err != nil {
			return err
		}
		missing, err := cat.CheckSchema(cmd.Context())
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("catalog schema is missing columns: %v", missing)
		}
		l.Info("Catalog schema is complete", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

func init() {
	// Add catalog subcommands
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogDuplicatesCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	catalogCmd.AddCommand(catalogCheckCmd)

	// Add catalog to root
	RootCmd.AddCommand(catalogCmd)
}
