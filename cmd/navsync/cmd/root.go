// Package cmd implements the navsync CLI commands.
package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-drift/navsync/cmd/navsync/internal/config"
	"github.com/go-drift/navsync/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	configDir string
	logLevel  string
	verbose   bool

	// resolved is filled in by the root PersistentPreRunE.
	resolved *config.Resolved
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "navsync",
		Short: "Replay presentation scenarios against navsync surfaces",
		Long: `navsync replays scripted state changes and user actions against a
modal host or a navigation stack and prints every transition the surface
performed. Use it to check presentation ordering, dismissal write-back and
deep-link behavior without a UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides "+config.FileName)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "attach stack traces to reported errors")

	root.AddCommand(newRunCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

func setup(stderr io.Writer) error {
	cfg, err := config.Resolve(configDir, Version)
	if err != nil {
		return err
	}
	if logLevel != "" {
		level, err := config.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if verbose {
		cfg.Verbose = true
	}
	resolved = cfg

	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.Verbose})
	return nil
}

func newLogger(w io.Writer, cfg *config.Resolved) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
