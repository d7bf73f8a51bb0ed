package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/idlesnap/internal/config"
	"github.com/fakeyudi/idlesnap/internal/export"
	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/storage"
)

// Version is stamped into every export's metadata.
var Version = "dev"

// source holds the live configuration, populated in PersistentPreRunE.
var source config.Source = config.Static(config.Defaults())

var (
	logLevel  = new(slog.LevelVar)
	logger    = slog.Default()
	character string
)

var rootCmd = &cobra.Command{
	Use:   "idlesnap",
	Short: "Snapshot, diff and rate-track an idle game character",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

		if cmd.Name() == "setup" {
			return nil
		}

		// First run: no global config yet. Only prompt on an interactive
		// terminal; pipes and tests continue with defaults.
		if !config.GlobalExists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout(), "\n  Welcome to idlesnap! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		global, err := config.GlobalPath()
		if err != nil {
			return fmt.Errorf("locating global config: %w", err)
		}
		src, err := config.NewFileSource(global, config.ProjectPath, logger)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		source = src
		if src.Current().Debug {
			logLevel.Set(slog.LevelDebug)
		}
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the current configuration for use by subcommands.
func GetConfig() config.Config {
	return source.Current()
}

// openStore opens the configured storage backend. The returned close
// function is never nil.
func openStore(cfg config.Config) (storage.Store, func() error, error) {
	nop := func() error { return nil }
	dir := cfg.Storage.Dir
	if dir == "" && cfg.Storage.Backend != "memory" {
		d, err := storage.DataDir()
		if err != nil {
			return nil, nop, err
		}
		dir = d
	}

	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nop, nil
	case "sqlite":
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nop, err
		}
		s, err := storage.OpenSQLite(filepath.Join(dir, "idlesnap.db"))
		if err != nil {
			return nil, nop, err
		}
		return s, s.Close, nil
	case "file", "":
		s, err := storage.NewFileStore(dir)
		if err != nil {
			return nil, nop, err
		}
		return s, nop, nil
	default:
		return nil, nop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// loadState reads the host dump named by the current configuration.
func loadState(context.Context) (*host.State, error) {
	return host.Load(GetConfig().StatePath)
}

// newExporter builds an Exporter over the configured store and selects the
// character given by --character, or else the one in the current dump.
func newExporter(n export.Notifier) (*export.Exporter, func() error, error) {
	cfg := GetConfig()
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, closeStore, fmt.Errorf("opening storage: %w", err)
	}
	notifier := export.Notifiers{export.LogNotifier{Log: logger}}
	if n != nil {
		notifier = append(notifier, n)
	}
	exp := export.New(export.Options{
		Config:   source,
		Store:    store,
		Load:     loadState,
		Notifier: notifier,
		Logger:   logger,
		Version:  Version,
	})

	name := character
	if name == "" {
		if s, err := host.Load(cfg.StatePath); err == nil {
			name = s.Character().Name
		}
	}
	exp.Select(name)
	return exp, closeStore, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&character, "character", "", "character whose stored data to use (default: the one in the state dump)")
}
