package cmd

import (
	"fmt"
	"strings"

	"file-hasher/core/manifest"
	"file-hasher/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// publishCmd uploads a manifest so another machine can compare against it.
var publishCmd = &cobra.Command{
	Use:   "publish <manifest> <name>",
	Short: "Upload a manifest to object storage",
	Long: `Uploads a manifest under <STORAGE_PREFIX><name>. Only the manifest travels;
file contents never leave the machine. Compare against it from the other
machine with "filehasher compare s3://<name> .hashes".`,
	Args: cobra.ExactArgs(2),
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

		// Create storage client
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		key := storage.ObjectKey(cfg.Storage.Prefix, args[1])
		if err := storage.PutManifest(cmd.Context(), client, cfg.Storage.Bucket, key, m); err != nil {
			return err
		}
		l.Info("Manifest published",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("key", key),
			zap.Int("records", m.Len()),
		)
		return nil
	},
}

// fetchCmd downloads a published manifest to a local file.
var fetchCmd = &cobra.Command{
	Use:   "fetch <name> <manifest>",
	Short: "Download a published manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		// Create storage client
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		key := storage.ObjectKey(cfg.Storage.Prefix, args[0])
		m, warnings, err := storage.GetManifest(cmd.Context(), client, cfg.Storage.Bucket, key)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			l.Warn("Skipping malformed manifest line", zap.String("key", key), zap.Int("line", w.Line), zap.String("reason", w.Reason))
		}

		if err := manifest.Save(args[1], m); err != nil {
			return err
		}
		l.Info("Manifest fetched", zap.String("key", key), zap.String("manifest", args[1]), zap.Int("records", m.Len()))
		return nil
	},
}

// remoteCmd groups management of published manifests.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage published manifests",
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published manifests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		// Create storage client
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		keys, err := storage.ListManifests(cmd.Context(), client, cfg.Storage.Bucket, cfg.Storage.Prefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(strings.TrimPrefix(k, cfg.Storage.Prefix))
		}
		l.Debug("Listed manifests", zap.Int("count", len(keys)))
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a published manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration and logger
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		// Create storage client
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		key := storage.ObjectKey(cfg.Storage.Prefix, args[0])
		if err := storage.DeleteManifest(cmd.Context(), client, cfg.Storage.Bucket, key); err != nil {
			return err
		}
		l.Info("Manifest deleted", zap.String("key", key))
		return nil
	},
}

func init() {
	// Add remote subcommands
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)

	// Add to root
	RootCmd.AddCommand(publishCmd)
	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(remoteCmd)
}
