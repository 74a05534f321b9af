package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazyadmin/internal/app"
	"github.com/rebeliceyang/lazyadmin/internal/bookmarks"
	"github.com/rebeliceyang/lazyadmin/internal/config"
	"github.com/rebeliceyang/lazyadmin/internal/demo"
	"github.com/rebeliceyang/lazyadmin/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lazyadmin",
	Short: "A terminal admin panel for lists of records",
	Long: `lazyadmin browses, filters and edits entities from a memory, HTTP, SQLite
or PostgreSQL data source. Every list view has a shareable location that
can be copied in the TUI and opened again with --open.

Examples:
  # Start the TUI on the configured data source
  lazyadmin

  # Open a copied location
  lazyadmin --open '/users?searchtext=ada'

  # Print one page without the TUI
  lazyadmin list users --filter age.gte=30 --format csv`,
	SilenceUsage: true,
	RunE:         runTUI,
}

var (
	configFile string
	openAt     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/lazyadmin/config.yaml)")
	rootCmd.Flags().StringVar(&openAt, "open", "", "Location to open, as copied with 'y'")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// cliLogger returns a console logger for subcommands
func cliLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	return logging.New(cfg.Log, os.Stderr)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the TUI
	logCfg := cfg.Log
	if logCfg.File == "" && cfg.State.Dir != "" {
		logCfg.File = filepath.Join(cfg.State.Dir, "lazyadmin.log")
	}
	logger, closer, err := logging.New(logCfg, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	d, err := demo.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close data source")
		}
	}()

	opts := []app.Option{app.WithLogger(logger)}
	if marks, err := bookmarks.NewManager(cfg.State.Dir); err != nil {
		logger.Warn().Err(err).Msg("Bookmarks disabled")
	} else {
		opts = append(opts, app.WithBookmarks(marks))
	}

	a := app.New(cfg, d.Registry, opts...)
	if openAt != "" {
		if err := a.Open(openAt); err != nil {
			return fmt.Errorf("cannot open %q: %w", openAt, err)
		}
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	logger.Info().Str("location", a.Location()).Msg("Starting")
	p := tea.NewProgram(a, programOpts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
