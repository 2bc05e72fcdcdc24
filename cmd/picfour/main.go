package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/manash/picfour/internal/config"
	"github.com/manash/picfour/internal/display"
	"github.com/manash/picfour/internal/history"
	"github.com/manash/picfour/internal/image"
	"github.com/manash/picfour/internal/keys"
	"github.com/manash/picfour/internal/provider"
	"github.com/manash/picfour/internal/provider/gemini"
	"github.com/manash/picfour/internal/quota"
	"github.com/manash/picfour/internal/storage"
	"github.com/manash/picfour/internal/wizard"
	"github.com/manash/picfour/internal/workflow"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagAPIKey  string
	flagModel   string
	flagBaseURL string
	flagDataDir string
	flagConfig  string
	flagVerbose bool
)

type App struct {
	In           io.Reader
	Out          io.Writer
	Err          io.Writer
	GetEnv       func(string) string
	LoadSettings func(path string) (config.Settings, error)
	NewStore     func(path string) (storage.Store, error)
	NewProvider  func(cfg *provider.Config) (provider.Provider, error)
}

func DefaultApp() *App {
	return &App{
		In:           os.Stdin,
		Out:          os.Stdout,
		Err:          os.Stderr,
		GetEnv:       os.Getenv,
		LoadSettings: config.Load,
		NewStore: func(path string) (storage.Store, error) {
			return storage.NewSQLiteStoreWithPath(path)
		},
		NewProvider: func(cfg *provider.Config) (provider.Provider, error) {
			return gemini.New(cfg)
		},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picfour",
		Short: "Turn one screenshot into four photographic variants",
		Long: `picfour is an interactive tool that takes a screenshot and a plain-language
instruction, and asks the Gemini image model for four photographic variants:
the edit alone, a shifted viewpoint, a new scene, and both combined.

Usage is capped at a daily balance that resets every calendar day, and the
last ten generations are kept in a local history.

Example session:
  picfour
  > open screenshot.png
  > prompt make the sky orange
  > generate
  > save all`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWizard(cmd.Context(), app)
		},
	}

	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key or GEMINI_API_KEY)")
	cmd.Flags().StringVarP(&flagModel, "model", "m", "", "generation model to use")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "API base URL override")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "directory for local state")
	cmd.Flags().StringVar(&flagConfig, "config", "", "settings file path")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "dump API requests and responses")

	cmd.AddCommand(newKeysCmd(app))

	return cmd
}

func runWizard(parent context.Context, app *App) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings, err := loadSettings(app)
	if err != nil {
		return err
	}

	apiKey, source, err := keys.GetAPIKey(flagAPIKey, app.GetEnv)
	if err != nil {
		return err
	}
	if flagVerbose {
		fmt.Fprintf(app.Err, "Using API key from %s\n", source)
	}

	dataDir := settings.DataDir
	if flagDataDir != "" {
		dataDir = flagDataDir
	}
	dbPath, err := statePath(dataDir)
	if err != nil {
		return err
	}

	store, err := app.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open local state: %w", err)
	}
	defer store.Close()

	prov, err := app.NewProvider(&provider.Config{
		APIKey:     apiKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		TimeoutSec: settings.TimeoutSec,
		Verbose:    flagVerbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	ctrl := workflow.New(&workflow.Config{
		Provider: prov,
		Quota:    quota.NewTracker(store, settings.DailyLimit),
		History:  history.NewStoreWithLimit(store, settings.HistorySize),
		Cooldown: time.Duration(settings.CooldownSec) * time.Second,
	})

	wiz := wizard.New(&wizard.Config{
		In:         app.In,
		Out:        app.Out,
		Err:        app.Err,
		Controller: ctrl,
		Loader:     image.NewLoader(),
		Saver:      image.NewSaver(),
		Displayer:  display.New(app.Out),
		Preview:    settings.Preview,
	})

	return wiz.Run(ctx)
}

func loadSettings(app *App) (config.Settings, error) {
	path := flagConfig
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return config.Settings{}, err
		}
		path = defaultPath
	}

	settings, err := app.LoadSettings(path)
	if err != nil {
		return config.Settings{}, err
	}

	if flagModel != "" {
		settings.Model = flagModel
	}
	if flagBaseURL != "" {
		settings.BaseURL = flagBaseURL
	}
	return settings, nil
}

func statePath(dataDir string) (string, error) {
	if dataDir != "" {
		return filepath.Join(dataDir, "state.db"), nil
	}
	return storage.DefaultDBPath()
}
