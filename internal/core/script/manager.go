package script

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
)

// Loader lives inside one Domain. It registers the entity types of the generation
// and produces the snapshot handed to the next generation on reload.
type Loader interface {
	Register() error
	Initialize() error
	Serialize() ([]byte, error)
}

// Restorer is implemented by loaders that can consume the previous generation's snapshot.
type Restorer interface {
	Restore(snapshot []byte) error
}

// LoaderFactory builds the loader of a freshly created domain.
type LoaderFactory func(d *Domain) (Loader, error)

// Options configures a Manager.
type Options struct {
	// DefaultRoot is used when Initialize gets an empty root and on every reload.
	DefaultRoot string
}

// Manager owns the single active Domain and drives its lifecycle.
// Every operation holds the manager lock, so a reload stops the world.
type Manager struct {
	mu sync.Mutex

	opts    Options
	factory LoaderFactory
	engine  native.Engine
	events  bus.EventBus
	logger  log.Log

	state   State
	counter uint64
	domain  *Domain
	loader  Loader
}

func NewManager(opts Options, factory LoaderFactory, engine native.Engine, events bus.EventBus, logger log.Log) *Manager {
	return &Manager{
		opts:    opts,
		factory: factory,
		engine:  engine,
		events:  events,
		logger:  logger.Named("script"),
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Generation is the number of the current (or last) domain generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// Domain returns the active domain, or nil.
func (m *Manager) Domain() *Domain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.domain
}

// Do runs fn against the active domain while holding the manager lock.
func (m *Manager) Do(fn func(d *Domain) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive || m.domain == nil {
		return ErrNotActive
	}
	return fn(m.domain)
}

// Initialize builds the first generation rooted at root, or at the default root when empty.
func (m *Manager) Initialize(root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnloaded {
		return fmt.Errorf("%w: state %s", ErrAlreadyInitialized, m.state)
	}
	m.state = StateLoading
	return m.initialize(root, nil)
}

// InitializeFrom is Initialize followed by a restore of snapshot, typically one
// persisted by a previous process. A snapshot the loader cannot restore is logged.
func (m *Manager) InitializeFrom(root string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnloaded {
		return fmt.Errorf("%w: state %s", ErrAlreadyInitialized, m.state)
	}
	m.state = StateLoading
	return m.initialize(root, snapshot)
}

// Reload captures a snapshot, destroys the active domain and builds the next generation
// from the default root. It returns once the new generation is active.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return ErrNotActive
	}

	snapshot, err := m.loader.Serialize()
	if err != nil {
		return fmt.Errorf("serialize domain %s: %w", m.domain.Name(), err)
	}

	previous := m.counter
	m.state = StateReloading
	m.destroy()

	if err = m.initialize("", snapshot); err != nil {
		return err
	}
	m.logger.Info("script domain reloaded",
		log.Uint64("previous", previous),
		log.Generation(m.counter),
	)
	m.publish(bus.DomainReloaded, m.counter, previous)
	return nil
}

// Unload destroys the active domain.
func (m *Manager) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return ErrNotActive
	}
	m.destroy()
	m.state = StateUnloaded
	return nil
}

// Snapshot serializes the active loader without reloading.
func (m *Manager) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return nil, ErrNotActive
	}
	return m.loader.Serialize()
}

func (m *Manager) initialize(root string, snapshot []byte) (err error) {
	if root == "" {
		root = m.opts.DefaultRoot
	}
	m.counter++
	d := newDomain(m.counter, root, m.engine, m.events, m.logger)

	defer func() {
		if err != nil {
			d.Destroy()
			m.domain, m.loader = nil, nil
			m.state = StateUnloaded
			m.logger.Error("script domain setup failed", log.Generation(d.Generation()), log.Error(err))
		}
	}()

	loader, err := m.newLoader(d)
	if err != nil {
		return err
	}
	m.publish(bus.DomainCreated, d.Generation(), d.Name())

	if err = loader.Register(); err != nil {
		return fmt.Errorf("register types in %s: %w", d.Name(), err)
	}
	if err = loader.Initialize(); err != nil {
		return fmt.Errorf("initialize types in %s: %w", d.Name(), err)
	}
	if r, ok := loader.(Restorer); ok && snapshot != nil {
		if rerr := r.Restore(snapshot); rerr != nil {
			d.Logger().Warn("snapshot restore incomplete", log.Error(rerr))
		}
	}

	m.domain, m.loader = d, loader
	m.state = StateActive
	d.Logger().Info("script domain active", log.String("root", d.Root()))
	return nil
}

func (m *Manager) newLoader(d *Domain) (Loader, error) {
	if m.factory == nil {
		return nil, fmt.Errorf("%w: no loader factory", ErrLoaderSetup)
	}
	loader, err := m.factory(d)
	if err != nil {
		return nil, errors.Join(ErrLoaderSetup, err)
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: factory returned nil", ErrLoaderSetup)
	}
	return loader, nil
}

func (m *Manager) destroy() {
	if m.domain == nil {
		return
	}
	d := m.domain
	d.Destroy()
	m.domain, m.loader = nil, nil
	m.publish(bus.DomainUnloaded, d.Generation(), d.Name())
}

func (m *Manager) publish(eventType string, generation uint64, data any) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(bus.NewEvent(eventType, eventSource, generation, data)); err != nil {
		m.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
