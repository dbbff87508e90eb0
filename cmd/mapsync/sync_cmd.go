package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Svengali/UE4Scripts/internal/config"
	"github.com/Svengali/UE4Scripts/internal/lfs"
	"github.com/Svengali/UE4Scripts/internal/store"
	"github.com/Svengali/UE4Scripts/internal/sync"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = filepath.Join(home, ".mapsync", "config.yaml")

	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

func newSyncCmd(direction sync.Direction) *cobra.Command {
	short := "Push local built-data artifacts to the sync root"
	if direction == sync.Pull {
		short = "Pull built-data artifacts from the sync root"
	}

	cmd := &cobra.Command{
		Use:   string(direction),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, direction)
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("sync-root", "r", "", "shared store location: directory or s3://bucket/prefix (required)")
	cmd.Flags().StringP("source-dir", "s", ".", "project checkout to sync")
	cmd.Flags().StringP("project", "p", "", "project name under the sync root (default: source dir name)")
	cmd.Flags().Bool("prune", false, "delete superseded remote versions after the transfer pass")
	cmd.Flags().BoolP("force", "f", false, "transfer even when local and remote look equivalent")
	cmd.Flags().BoolP("dry-run", "n", false, "report decisions without mutating anything")
	cmd.Flags().Bool("verify-hash", false, "compare content hashes instead of size and mtime")
	cmd.Flags().Bool("allow-dirty", false, "proceed despite modified tracked binaries")
	cmd.Flags().StringSlice("include", nil, "glob patterns of assets to sync (default: all)")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of assets to skip")
	cmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "mapsync config file")

	return cmd
}

func runSync(cmd *cobra.Command, direction sync.Direction) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	lock := sync.NewRunLock(cfg.SourceDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("failed to release run lock", "error", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", cyan("mapsync "+string(direction)), cfg.SourceDir, cfg.SyncRoot)

	tracker := lfs.NewGitClient(cfg.SourceDir)
	orch := sync.NewOrchestrator(cfg, tracker, st)

	report, err := orch.Run(cmd.Context(), direction)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), green(report.Summary()))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		v.SetConfigFile(configFilePath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".mapsync"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("%w: config read %q: %v", sync.ErrConfig, v.ConfigFileUsed(), err)
		}
	}

	v.BindPFlag("sync_root", cmd.Flags().Lookup("sync-root"))
	v.BindPFlag("source_dir", cmd.Flags().Lookup("source-dir"))
	v.BindPFlag("project", cmd.Flags().Lookup("project"))
	v.BindPFlag("prune", cmd.Flags().Lookup("prune"))
	v.BindPFlag("force", cmd.Flags().Lookup("force"))
	v.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	v.BindPFlag("verify_hash", cmd.Flags().Lookup("verify-hash"))
	v.BindPFlag("allow_dirty", cmd.Flags().Lookup("allow-dirty"))
	v.BindPFlag("include", cmd.Flags().Lookup("include"))
	v.BindPFlag("exclude", cmd.Flags().Lookup("exclude"))

	v.SetEnvPrefix("MAPSYNC")
	v.AutomaticEnv()

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrConfig, err)
	}

	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingSyncRoot) {
			return nil, fmt.Errorf("%w: %v", sync.ErrSyncRoot, err)
		}
		return nil, fmt.Errorf("%w: %v", sync.ErrConfig, err)
	}
	return &cfg, nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (store.Store, error) {
	if cfg.IsS3Root() {
		bucket, prefix, err := store.ParseS3URL(cfg.SyncRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sync.ErrSyncRoot, err)
		}
		s3Store, err := store.NewS3Store(cmd.Context(), &store.S3Config{
			Bucket:    bucket,
			Prefix:    prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sync.ErrSyncRoot, err)
		}
		return s3Store, nil
	}

	localStore, err := store.NewLocalStore(cfg.SyncRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrSyncRoot, err)
	}
	return localStore, nil
}
