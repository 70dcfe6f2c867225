// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/adapters/converter"
	"github.com/artpar/resttree/adapters/memory"
	"github.com/artpar/resttree/adapters/metrics"
	"github.com/artpar/resttree/adapters/tracing"
	"github.com/artpar/resttree/app"
	"github.com/artpar/resttree/config"
	"github.com/artpar/resttree/core/channel/cli"
	httpchan "github.com/artpar/resttree/core/channel/http"
	"github.com/artpar/resttree/core/convention"
	"github.com/artpar/resttree/core/events"
	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/core/storage"
	"github.com/artpar/resttree/domain/publication"
)

// App represents the assembled application.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Events   *events.Bus
	Metrics  *metrics.Collector
	Registry *registry.Registry
	Store    *storage.SQLiteStore
	Channel  *httpchan.Channel
	CLI      *cli.Channel

	// Reports holds one registration report per service.
	Reports []registry.Report

	holder          *config.Holder
	shutdownTracing func(context.Context) error
}

// New assembles the resource tree described by cfg and builds the HTTP
// and CLI channels over it. Nothing listens until Run.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Logger: logger,
		Config: cfg,
		Events: events.NewBus(logger),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Metrics.Subscribe(a.Events)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	assemblers := convention.Default()
	if len(cfg.Tree.Assemblers) > 0 {
		var err error
		if assemblers, err = convention.ByName(cfg.Tree.Assemblers...); err != nil {
			return nil, fmt.Errorf("tree.assemblers: %w", err)
		}
	}

	reg, err := registry.New(registry.Config{
		Assemblers: assemblers,
		Logger:     logger,
		Events:     a.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}
	a.Registry = reg

	if err := a.registerModels(context.Background()); err != nil {
		a.close()
		return nil, err
	}
	if cfg.Demo.Enabled {
		if err := a.registerDemo(); err != nil {
			a.close()
			return nil, err
		}
	}

	reg.Seal()

	conv := converter.New(cfg.Converter.Lowercase)
	chcfg := httpchan.Config{
		Tree:         reg,
		Converter:    conv,
		Logger:       logger,
		Events:       a.Events,
		Addr:         cfg.Server.Addr(),
		BasePath:     cfg.Server.BasePath,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Hints:        cfg.Server.Hints,
	}
	if a.Metrics != nil {
		chcfg.Metrics = a.Metrics.Handler()
		chcfg.MetricsPath = cfg.Metrics.Path
	}
	a.Channel = httpchan.New(chcfg)
	a.CLI = cli.New(cli.Config{
		Tree:      reg,
		Converter: conv,
		Logger:    logger,
		Events:    a.Events,
	})

	return a, nil
}

// registerModels creates a table and a store backed service for every
// model definition under the models directory.
func (a *App) registerModels(ctx context.Context) error {
	dir := a.Config.Models.Dir
	if dir == "" {
		return nil
	}

	defs, err := schema.ParseDir(dir)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	if len(defs) == 0 {
		a.Logger.Warn().Str("dir", dir).Msg("no model definitions found")
		return nil
	}

	store, err := storage.NewSQLiteStore(a.Config.Database.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.Store = store

	for _, def := range defs {
		model, err := def.Build()
		if err != nil {
			return fmt.Errorf("build model %s: %w", def.Model, err)
		}
		if err := store.CreateTable(ctx, model); err != nil {
			return err
		}
		invokers, err := storage.Invokers(store, model)
		if err != nil {
			return fmt.Errorf("model %s: %w", model.Name(), err)
		}
		report, err := a.Registry.RegisterInvokers(storage.ServiceName(model), invokers...)
		if err != nil {
			return fmt.Errorf("register model %s: %w", model.Name(), err)
		}
		a.Reports = append(a.Reports, report)
	}

	a.Logger.Info().Int("models", len(defs)).Str("dsn", a.Config.Database.DSN).Msg("models registered")
	return nil
}

// registerDemo registers the in-memory publications service.
func (a *App) registerDemo() error {
	model, err := app.PublicationModel()
	if err != nil {
		return err
	}

	svc := app.NewPublicationService(memory.NewPublicationStore(
		publication.Publication{Name: "The Daily Planet", Language: "en", Issues: 1938},
		publication.Publication{Name: "Le Monde", Language: "fr", Issues: 24000},
	), a.Logger)

	decl, err := svc.Declare(model)
	if err != nil {
		return err
	}
	report, err := a.Registry.Register(decl, svc)
	if err != nil {
		return fmt.Errorf("register demo: %w", err)
	}
	a.Reports = append(a.Reports, report)
	return nil
}

// Watch applies reloads from h: the log level changes live and reload
// outcomes are counted.
func (a *App) Watch(h *config.Holder) {
	a.holder = h

	h.OnChange(func(cfg *config.Config) {
		if err := ApplyLogLevel(cfg.Logging.Level); err != nil {
			a.Logger.Error().Err(err).Msg("apply log level")
		}
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
		}
	})
	h.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})
}

// Run starts tracing and the HTTP channel and blocks until ctx is done or
// the process receives SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    a.Config.Tracing.Endpoint,
		Service:     a.Config.Tracing.Service,
		Insecure:    a.Config.Tracing.Insecure,
		SampleRatio: a.Config.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	a.shutdownTracing = shutdown

	if err := a.Channel.Start(ctx); err != nil {
		return fmt.Errorf("start http channel: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	a.Logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the channel and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.holder != nil {
		a.holder.Stop()
	}
	if a.Channel != nil {
		if err := a.Channel.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http channel: %w", err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	if err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
