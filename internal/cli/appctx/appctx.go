// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, flag overrides, logger setup and
// catalog opening to reduce boilerplate across commands.
package appctx

import (
	"fmt"

	"github.com/lherron/taxomobile/internal/build"
	"github.com/lherron/taxomobile/internal/config"
	"github.com/lherron/taxomobile/internal/db"
	"github.com/lherron/taxomobile/internal/logging"
	"github.com/lherron/taxomobile/internal/specimen"
	"github.com/lherron/taxomobile/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration with flag overrides applied
	Config *config.Config

	// Log is the command's logger
	Log *zap.Logger

	// DB is the opened catalog (nil unless the command needs it)
	DB *db.DB

	// Store wraps DB (nil when DB is nil)
	Store *store.Store
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
		a.Store = nil
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}

// Loader returns a record loader for dir, or for the configured data
// directory when dir is empty.
func (a *App) Loader(dir string) *specimen.Loader {
	if dir == "" {
		dir = a.Config.DataDir
	}
	return &specimen.Loader{
		Dir:       dir,
		ImageBase: a.Config.ImageBase,
		ImageExt:  a.Config.ImageExt,
		Workers:   a.Config.LoadWorkers,
		Log:       a.Log,
	}
}

// Builder returns a tree builder reading from the catalog when one is open,
// otherwise from the data directory.
func (a *App) Builder() *build.Builder {
	b := &build.Builder{
		Rule:      a.Config.Rule(),
		Strict:    a.Config.Strict,
		RootFront: a.Config.RootFrontImage,
		RootBack:  a.Config.RootBackImage,
		Log:       a.Log,
	}
	if a.Store != nil {
		b.Catalog = a.Store.Specimens
	} else {
		b.Loader = a.Loader("")
	}
	return b
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDB opens the catalog unconditionally.
	NeedsDB bool

	// CatalogFlag names a bool flag that opens the catalog when set.
	CatalogFlag string

	// SkipMigrationCheck opens the catalog even when migrations are pending.
	SkipMigrationCheck bool
}

// DefaultOptions returns default options (files only, catalog via --catalog).
func DefaultOptions() Options {
	return Options{CatalogFlag: "catalog"}
}

// WithCatalog returns options that always open the catalog.
func WithCatalog() Options {
	return Options{NeedsDB: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The catalog is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	app := &App{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app.Config = cfg

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app.Log = log

	if opts.NeedsDB || flagBool(cmd, opts.CatalogFlag) {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if !opts.SkipMigrationCheck {
			if err := database.RequiresMigrationError(); err != nil {
				database.Close()
				return nil, err
			}
		}
		app.DB = database
		app.Store = store.New(database)
	}

	return app, nil
}

// applyFlags overrides config values with any global flags that were set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"db", &cfg.DBPath},
		{"data", &cfg.DataDir},
		{"leaf-rule", &cfg.LeafRule},
		{"log-level", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if f := cmd.Flag(o.flag); f != nil && f.Value.String() != "" {
			*o.dst = f.Value.String()
		}
	}
	if flagBool(cmd, "strict") {
		cfg.Strict = true
	}
}

func flagBool(cmd *cobra.Command, name string) bool {
	if name == "" {
		return false
	}
	f := cmd.Flag(name)
	return f != nil && f.Value.String() == "true"
}
