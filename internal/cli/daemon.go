package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/config"
	"github.com/lherron/taxomobile/internal/db"
	"github.com/lherron/taxomobile/internal/logging"
	"github.com/lherron/taxomobile/internal/server"
	"github.com/lherron/taxomobile/internal/store"
	"github.com/lherron/taxomobile/internal/watch"
	"go.uber.org/zap"
)

// DaemonOptions configures the tree server. Empty fields fall back to config.
type DaemonOptions struct {
	Addr     string
	Token    string
	DBPath   string
	DataDir  string
	LeafRule string
	LogLevel string
	Strict   bool
	// Catalog serves records from the catalog instead of the data directory.
	Catalog bool
	// Watch rebuilds when files in the data directory change.
	Watch    bool
	Debounce time.Duration
}

// ServeDaemon builds the tree and serves it until ctx is cancelled.
func ServeDaemon(ctx context.Context, opts DaemonOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrides := []struct {
		val string
		dst *string
	}{
		{opts.Addr, &cfg.Addr},
		{opts.Token, &cfg.Token},
		{opts.DBPath, &cfg.DBPath},
		{opts.DataDir, &cfg.DataDir},
		{opts.LeafRule, &cfg.LeafRule},
		{opts.LogLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if o.val != "" {
			*o.dst = o.val
		}
	}
	if opts.Strict {
		cfg.Strict = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	app := &appctx.App{Config: cfg, Log: log}
	defer app.Close()

	if opts.Catalog {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.RequiresMigrationError(); err != nil {
			database.Close()
			return err
		}
		app.DB = database
		app.Store = store.New(database)
	}

	builder := app.Builder()
	srv := server.New(builder, log, cfg.Token)
	if _, err := srv.Reload(ctx); err != nil {
		log.Warn("initial build failed, serving 503 until a reload succeeds", zap.Error(err))
	}

	if opts.Watch {
		if opts.Catalog {
			log.Warn("--watch ignored when serving from the catalog")
		} else {
			w, err := watch.New(cfg.DataDir, opts.Debounce, func(ctx context.Context, changed []string) error {
				log.Info("data directory changed", zap.Strings("files", changed))
				_, err := srv.Reload(ctx)
				return err
			}, log)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("failed to watch %s: %w", cfg.DataDir, err)
			}
			defer w.Stop()
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("source", builder.Source()), zap.Bool("auth", cfg.Token != ""))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
