package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/vk/widgetgrid/internal/config"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *config.Model
	health   int

	addrOnce sync.Once
	ready    chan struct{}
	addr     string
}

// NewApp is the constructor for the main application. It loads and
// validates the configuration and registers the node kinds; modules default
// to the core set. Configuration failures are fatal and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel := &config.Model{}
	if loader != nil && len(appConfig.ConfigPaths) > 0 {
		var err error
		cfgModel, err = loader.Load(ctx, appConfig.ConfigPaths...)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
	}
	appConfig.apply(cfgModel)
	logger.Debug("Configuration loaded.", "listen", cfgModel.Server.Listen, "store", cfgModel.Store.Backend, "seeds", len(cfgModel.Seeds))

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.NewWithModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Kinds())

	if err := reg.ValidateSeeds(ctx, cfgModel); err != nil {
		panic(err)
	}
	if cfgModel.Store.Backend == "redis" && cfgModel.Store.RedisURL == "" {
		panic(errors.New("store backend 'redis' requires a redis url"))
	}
	logger.Debug("Configuration validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfgModel,
		health:   appConfig.HealthcheckPort,
		ready:    make(chan struct{}),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the effective configuration.
func (a *App) Config() *config.Model {
	return a.config
}

// Addr waits until Run is listening and returns the bound address.
func (a *App) Addr(ctx context.Context) (string, error) {
	select {
	case <-a.ready:
		return a.addr, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *App) setAddr(addr string) {
	a.addrOnce.Do(func() {
		a.addr = addr
		close(a.ready)
	})
}
