package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scripthost/internal/app"
	"github.com/zeusync/scripthost/internal/config"
	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/models"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/script"
	"github.com/zeusync/scripthost/internal/core/storage"
	"github.com/zeusync/scripthost/internal/server"
)

var ProviderSet = wire.NewSet(
	config.Load,
	ProvideLogger,
	ProvideEngine,
	ProvideEventBus,
	ProvideManager,
	ProvideConsole,
	ProvideStore,
	app.New,
)

// ProvideLogger builds the process logger; the cleanup flushes it.
func ProvideLogger(cfg config.Config) (log.Log, func()) {
	logger := log.New(cfg.Level(),
		log.WithEncoding(cfg.Log.Encoding),
		log.WithDevelopment(cfg.Log.Development),
		log.WithOutputs(cfg.Log.Outputs...),
	)
	return logger, func() { _ = logger.Sync() }
}

// ProvideEngine returns the in-process engine the host runs against.
func ProvideEngine() native.Engine {
	return native.NewMemory()
}

// ProvideEventBus returns the bus with delivery logging and metrics enabled.
func ProvideEventBus(logger log.Log) bus.EventBus {
	events := bus.New()
	events.AddObserver(bus.NewLogObserver(logger))
	return events
}

func ProvideManager(cfg config.Config, engine native.Engine, events bus.EventBus, logger log.Log) *script.Manager {
	return script.NewManager(
		script.Options{DefaultRoot: cfg.Scripts.Root},
		script.NewLoaderFactory(models.Builtin),
		engine, events, logger,
	)
}

func ProvideConsole(cfg config.Config, manager *script.Manager, events bus.EventBus, logger log.Log) *server.Console {
	return server.NewConsole(server.Options{
		Addr:           cfg.Console.Addr,
		Token:          cfg.Console.Token,
		WriteTimeout:   cfg.Console.WriteTimeout,
		MaxMessageSize: cfg.Console.MaxMessageSize,
		RateLimit:      cfg.Console.RateLimit,
	}, manager, events, logger)
}

// ProvideStore returns the snapshot store, or nil when persistence is off.
func ProvideStore(cfg config.Config) (storage.Store, error) {
	if cfg.Scripts.SnapshotDir == "" {
		return nil, nil
	}
	return storage.NewFileStore(cfg.Scripts.SnapshotDir)
}
