// Package cli holds the studio command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/logging"
	"github.com/kittclouds/studiocore/internal/store"
)

// Version is set at build time.
var Version = "dev"

// global flags shared by every command
var (
	configPath string
	debug      bool
)

var (
	okText   = color.New(color.FgGreen).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
	failText = color.New(color.FgRed).SprintFunc()
	boldText = color.New(color.Bold).SprintFunc()
)

// RootCmd returns the studio command with every subcommand attached.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "studio",
		Short:   "Studio project store: populate, migrate, sync and inspect",
		Version: Version,
		Long: `studio manages the local project store of the creative studio app.

It populates a fresh store with sample projects, migrates the legacy box
store into SQLite, moves project factories in and out as JSON and keeps
projects in step with the remote API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "path to the configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(InitCmd())
	root.AddCommand(MigrateCmd())
	root.AddCommand(ExportCmd())
	root.AddCommand(ImportCmd())
	root.AddCommand(SyncCmd())
	root.AddCommand(StatsCmd())
	root.AddCommand(DoctorCmd())
	return root
}

// env is what most commands need: the configuration and a logger.
type env struct {
	cfg *config.Config
	log *logrus.Logger
	out io.Writer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Flags.EnableDebugLogging = true
	}
	return &env{
		cfg: cfg,
		log: logging.NewWithOutput(cfg.Flags, cmd.ErrOrStderr()),
		out: cmd.OutOrStdout(),
	}, nil
}

// openStore opens the primary store the flags select.
func (e *env) openStore() (*store.Store, error) {
	s, err := store.Open(e.cfg, e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}
