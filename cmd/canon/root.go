package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/internal/platform"
	"github.com/aretw0/canon/pkg/world"
)

var (
	verbose  bool
	rootDir  string
	adapter  string
	dsn      string
	gitless  bool
	readOnly bool

	fileConfig *platform.FileConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canon",
	Short: "A versioned document store for fictional world canons",
	Long: `Canon keeps the design documents of a fictional world (metadata, setting,
domains and open questions) in a pluggable store and seals whole-world
snapshots that can be listed, inspected and restored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if rootDir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			rootDir = cwd
			if found, err := platform.FindRoot(cwd); err == nil {
				rootDir = found
			}
		}

		cfg, err := platform.LoadConfig(rootDir)
		if err != nil {
			return err
		}
		fileConfig = cfg
		slog.Debug("world root resolved", "root", rootDir, "adapter", worldAdapter(cmd))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&rootDir, "root", "", "World root (defaults to the nearest directory with canon.yaml, .canon or meta.yaml)")
	flags.StringVar(&adapter, "adapter", "fs", "Storage adapter: fs, memory, sqlite, badger, postgres or s3")
	flags.StringVar(&dsn, "dsn", "", "Postgres connection string")
	flags.BoolVar(&gitless, "gitless", false, "Disable git versioning of the fs adapter")
	flags.BoolVar(&readOnly, "read-only", false, "Reject every write")
}

func worldAdapter(cmd *cobra.Command) string {
	if cmd.Flags().Changed("adapter") || fileConfig == nil || fileConfig.Adapter == "" {
		return adapter
	}
	return fileConfig.Adapter
}

// worldURI returns the adapter-specific location of the world. canon.yaml
// may name it; otherwise it is derived from the root directory.
func worldURI(cmd *cobra.Command) string {
	if fileConfig != nil && fileConfig.URI != "" && !cmd.Flags().Changed("root") {
		return fileConfig.URI
	}
	switch worldAdapter(cmd) {
	case "sqlite":
		return filepath.Join(rootDir, "canon.db")
	case "badger":
		return filepath.Join(rootDir, ".canon", "badger")
	case "fs":
		return rootDir
	default:
		return ""
	}
}

// worldOptions merges canon.yaml with the flags. Flags set explicitly win.
func worldOptions(cmd *cobra.Command, extra ...platform.Option) []platform.Option {
	var opts []platform.Option
	if fileConfig != nil {
		opts = append(opts, fileConfig.Options()...)
	}
	opts = append(opts, platform.WithLogger(slog.Default()), platform.WithDevSafety(false))
	if cmd.Flags().Changed("adapter") {
		opts = append(opts, platform.WithAdapter(adapter))
	}
	if dsn != "" {
		opts = append(opts, platform.WithDSN(dsn))
	}
	if cmd.Flags().Changed("gitless") {
		opts = append(opts, platform.WithVersioning(!gitless))
	}
	if readOnly {
		opts = append(opts, platform.WithReadOnly(true))
	}
	return append(opts, extra...)
}

// openWorld builds the world service for the current invocation.
func openWorld(cmd *cobra.Command, extra ...platform.Option) *world.Service {
	opts := worldOptions(cmd, extra...)
	if fileConfig != nil {
		archive, err := fileConfig.OpenArchive(platform.WithLogger(slog.Default()), platform.WithDevSafety(false))
		if err != nil {
			fatal("Failed to open snapshot storage", err)
		}
		if archive != nil {
			opts = append(opts, platform.WithSnapshotStorage(archive))
		}
	}

	svc, err := platform.New(worldURI(cmd), opts...)
	if err != nil {
		fatal("Failed to open world", err)
	}
	return svc
}
