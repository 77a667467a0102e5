package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/catalog"
	"github.com/aretw0/formwork/internal/config"
	"github.com/aretw0/formwork/internal/domains"
	"github.com/aretw0/formwork/internal/domains/compute"
	"github.com/aretw0/formwork/internal/domains/definitions"
	"github.com/aretw0/formwork/internal/domains/pipeline"
	"github.com/aretw0/formwork/internal/domains/spawned"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/internal/metrics"
	"github.com/aretw0/formwork/pkg/adapters/aws"
	"github.com/aretw0/formwork/pkg/adapters/blob"
	httpAdapter "github.com/aretw0/formwork/pkg/adapters/http"
	loamAdapter "github.com/aretw0/formwork/pkg/adapters/loam"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/adapters/redis"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/tools"
)

// App is a fully wired engine together with the collaborators the
// transports need.
type App struct {
	Engine  *formwork.Engine
	Metrics *metrics.Metrics
	Streams *httpAdapter.StreamManager
	Tools   *tools.Controller

	definitions *definitions.Domain
	defSource   *loamAdapter.Loader
	closers     []io.Closer
	logger      *slog.Logger
}

// NewLogger builds the logger described by cfg, writing to stderr.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}

// Build wires every domain enabled by cfg into a new engine.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	app := &App{logger: logger}
	reg := registry.NewRegistry()
	shared := domains.NewShared()
	invalidates := []string{spawned.Scope, catalog.FeatureScope(spawned.FeatureList, "")}

	toolConfigs, err := tools.LoadConfig(cfg.ToolsFile)
	if err != nil {
		return nil, err
	}
	app.Tools = tools.NewController(
		tools.WithRegistry(toolConfigs),
		tools.WithBaseDir(filepath.Dir(cfg.ToolsFile)),
		tools.WithLogger(logger),
	)
	app.closers = append(app.closers, app.Tools)
	if err := spawned.Register(reg, shared, app.Tools); err != nil {
		return nil, app.fail(err)
	}

	var resources pipeline.Resources
	if cfg.AWSEnabled {
		clients, err := aws.Load(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, app.fail(err)
		}
		if err := compute.New[*aws.Instance, *aws.Image](clients.Instances, clients.Images).Register(reg, shared); err != nil {
			return nil, app.fail(err)
		}
		invalidates = append(invalidates, compute.Scope, catalog.FeatureScope(compute.FeatureListInstances, ""))
		resources = pipeline.Resources{
			Buckets:      domains.List[*aws.Bucket](clients.Buckets),
			Roles:        domains.List[*aws.Role](clients.Roles),
			Users:        domains.List[*aws.User](clients.Users),
			Repositories: domains.List[*aws.Repository](clients.Repositories),
		}
		logger.Info("AWS domains enabled", "region", cfg.AWSRegion)
	}

	if cfg.TemplatesURL != "" {
		src, err := blob.Open(ctx, cfg.TemplatesURL, cfg.TemplatesPrefix)
		if err != nil {
			return nil, app.fail(err)
		}
		app.closers = append(app.closers, src)

		templates, err := pipeline.LoadTemplates(ctx, src, logger)
		if err != nil {
			return nil, app.fail(err)
		}
		d := pipeline.New(templates, app.Tools,
			pipeline.WithCommand(cfg.SAMCommand),
			pipeline.WithResources(resources),
		)
		if err := d.Register(reg); err != nil {
			return nil, app.fail(err)
		}
		logger.Info("Pipeline templates loaded", "count", templates.Len(), "url", cfg.TemplatesURL)
	}

	if cfg.DefinitionsDir != "" {
		src, err := loamAdapter.Open(cfg.DefinitionsDir)
		if err != nil {
			return nil, app.fail(err)
		}
		app.defSource = src
		app.definitions = definitions.New(src, app.Tools, definitions.WithLogger(logger))
		if err := app.definitions.Register(ctx, reg); err != nil {
			return nil, app.fail(err)
		}
	}

	if err := shared.Register(reg, invalidates...); err != nil {
		return nil, app.fail(err)
	}

	cache, err := app.openCache(cfg)
	if err != nil {
		return nil, app.fail(err)
	}

	app.Metrics = metrics.New()
	app.Streams = httpAdapter.NewStreamManager(logger)

	opts := []formwork.Option{
		formwork.WithLogger(logger),
		formwork.WithHooks(app.Metrics.Hooks(), app.Streams.Hooks()),
		formwork.WithMaxInputSize(cfg.MaxInputSize),
	}
	if cache != nil {
		opts = append(opts, formwork.WithCache(cache, cfg.Cache.TTL))
	}
	app.Engine = formwork.New(reg, opts...)
	return app, nil
}

func (a *App) openCache(cfg *config.Config) (ports.ResourceCache, error) {
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return memory.NewCache(), nil
	case config.CacheRedis:
		c := redis.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB,
			redis.WithPrefix(cfg.Cache.RedisPrefix),
			redis.WithTTL(cfg.Cache.TTL),
		)
		a.closers = append(a.closers, c)
		return c, nil
	default:
		return nil, nil
	}
}

// Handler serves the engine over HTTP with event streams, tool sockets
// and metrics.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(a.Engine,
		httpAdapter.WithStreams(a.Streams),
		httpAdapter.WithTools(a.Tools),
		httpAdapter.WithMetrics(a.Metrics.Handler()),
		httpAdapter.WithLogger(a.logger),
	)
}

// WatchDefinitions reloads static definitions when their documents change.
// It is a no-op when no definitions directory is configured.
func (a *App) WatchDefinitions(ctx context.Context) error {
	if a.definitions == nil {
		return nil
	}
	return a.definitions.Watch(ctx, a.Engine.Registry(), a.defSource)
}

// Close releases every resource opened by Build. Running tools are killed.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (a *App) fail(err error) error {
	if cerr := a.Close(); cerr != nil {
		a.logger.Warn("Cleanup after failed build", "err", cerr)
	}
	return err
}
