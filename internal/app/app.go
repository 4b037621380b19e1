// Package app wires the script manager and the console into one runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/scripthost/internal/config"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/script"
	"github.com/zeusync/scripthost/internal/core/storage"
	"github.com/zeusync/scripthost/internal/server"
)

const (
	shutdownTimeout = 5 * time.Second
	snapshotKey     = "domain"
)

type App struct {
	cfg     config.Config
	logger  log.Log
	manager *script.Manager
	console *server.Console
	store   storage.Store
}

// New assembles the app. store may be nil, in which case nothing survives a restart.
func New(cfg config.Config, logger log.Log, manager *script.Manager, console *server.Console, store storage.Store) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.Named("app"),
		manager: manager,
		console: console,
		store:   store,
	}
}

func (a *App) Manager() *script.Manager { return a.manager }

// Run initializes the first script generation, serves the console when enabled and
// reloads the domain on every value received from reloads. It returns after ctx is
// cancelled, the snapshot is persisted and the domain is unloaded.
func (a *App) Run(ctx context.Context, reloads <-chan os.Signal) error {
	if err := a.manager.InitializeFrom("", a.loadSnapshot(ctx)); err != nil {
		return fmt.Errorf("initialize scripts: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if a.console != nil && a.cfg.Console.Enabled {
		if err := a.console.Start(ctx); err != nil {
			return errors.Join(err, a.manager.Unload())
		}
		g.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.console.Stop(stopCtx)
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig, ok := <-reloads:
				if !ok {
					reloads = nil
					continue
				}
				a.reload(sig)
			}
		}
	})

	err := g.Wait()
	a.saveSnapshot()
	if uerr := a.manager.Unload(); uerr != nil && !errors.Is(uerr, script.ErrNotActive) {
		err = errors.Join(err, uerr)
	}
	a.logger.Info("stopped")
	return err
}

// reload keeps serving after a failed reload; the manager is left unloaded and the
// next signal starts from scratch.
func (a *App) reload(sig os.Signal) {
	a.logger.Info("reloading scripts", log.String("signal", sig.String()))
	if a.manager.State() == script.StateUnloaded {
		if err := a.manager.Initialize(""); err != nil {
			a.logger.Error("script initialize failed", log.Error(err))
		}
		return
	}
	if err := a.manager.Reload(); err != nil {
		a.logger.Error("script reload failed", log.Error(err))
	}
}

func (a *App) loadSnapshot(ctx context.Context) []byte {
	if a.store == nil {
		return nil
	}
	data, err := a.store.Load(ctx, snapshotKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		a.logger.Warn("snapshot load failed", log.Error(err))
		return nil
	}
	a.logger.Info("restoring persisted snapshot", log.Int("bytes", len(data)))
	return data
}

func (a *App) saveSnapshot() {
	if a.store == nil || a.manager.State() != script.StateActive {
		return
	}
	data, err := a.manager.Snapshot()
	if err != nil {
		a.logger.Error("snapshot failed", log.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = a.store.Save(ctx, snapshotKey, data); err != nil {
		a.logger.Error("snapshot save failed", log.Error(err))
	}
}
