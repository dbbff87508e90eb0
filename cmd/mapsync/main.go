package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Svengali/UE4Scripts/internal/sync"
	"github.com/Svengali/UE4Scripts/internal/version"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "mapsync",
	Short:   "Synchronize map built-data artifacts with a shared store",
	Long: `mapsync keeps the generated _BuiltData artifacts of lfs-tracked map assets
in sync with a shared store (a network share or an S3 bucket).

Each pushed artifact is addressed by its map's lfs content id, so pushes of
different versions never collide. Superseded versions can be pruned once the
current one is confirmed present in the store.`,
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(newSyncCmd(sync.Push))
	rootCmd.AddCommand(newSyncCmd(sync.Pull))
	rootCmd.AddCommand(newVersionCmd())

	// Flag and usage mistakes are configuration errors, not runtime failures.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", sync.ErrConfig, err)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(sync.ExitCode(err))
	}
}

func setupLogger() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print mapsync version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
			return err
		},
	}
}
