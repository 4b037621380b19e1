package script

import (
	"fmt"
	"slices"

	"github.com/Shopify/go-lua"
	"github.com/google/uuid"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

const eventSource = "script"

// Domain is one generation of the scripting environment. Every type, cached config,
// live entity and the Lua state belong to exactly one Domain and are dropped with it.
//
// A Domain is not safe for concurrent use; the Manager serializes access.
type Domain struct {
	name       string
	generation uint64
	id         uuid.UUID
	root       string

	engine native.Engine
	events bus.EventBus
	logger log.Log

	types  map[string]*metadata.TypeDescriptor
	order  []string
	cache  *metadata.Cache
	index  *entity.Index
	staged map[native.EntityID]*entity.Entity
	lua    *lua.State

	destroyed bool
}

func newDomain(generation uint64, root string, engine native.Engine, events bus.EventBus, logger log.Log) *Domain {
	name := fmt.Sprintf("ScriptDomain_%d", generation)
	state := lua.NewState()
	lua.OpenLibraries(state)

	return &Domain{
		name:       name,
		generation: generation,
		id:         uuid.New(),
		root:       root,
		engine:     engine,
		events:     events,
		logger:     logger.With(log.String("domain", name), log.Generation(generation)),
		types:      make(map[string]*metadata.TypeDescriptor),
		cache:      metadata.NewCache(generation),
		index:      entity.NewIndex(generation),
		staged:     make(map[native.EntityID]*entity.Entity),
		lua:        state,
	}
}

func (d *Domain) Name() string       { return d.name }
func (d *Domain) Generation() uint64 { return d.generation }
func (d *Domain) ID() uuid.UUID      { return d.id }
func (d *Domain) Root() string       { return d.root }

func (d *Domain) Engine() native.Engine { return d.engine }
func (d *Domain) Logger() log.Log       { return d.logger }

// Destroy drops every type, config, entity and the Lua state.
func (d *Domain) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	d.cache.Purge()
	d.index.Close()
	d.types = nil
	d.order = nil
	d.staged = nil
	d.lua = nil
}

func (d *Domain) check() error {
	if d.destroyed {
		return fmt.Errorf("%w: %s", ErrDomainUnloaded, d.name)
	}
	return nil
}

// RegisterType adds desc to the type registry of this generation.
func (d *Domain) RegisterType(desc *metadata.TypeDescriptor) error {
	if err := d.check(); err != nil {
		return err
	}
	if desc == nil || desc.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidType)
	}
	if _, ok := d.types[desc.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, desc.Name)
	}
	d.types[desc.Name] = desc
	d.order = append(d.order, desc.Name)

	d.logger.Debug("type registered", log.String("type", desc.Name))
	d.publish(bus.TypeRegistered, desc.Name)
	return nil
}

// Types returns the registered types in registration order.
func (d *Domain) Types() ([]*metadata.TypeDescriptor, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	out := make([]*metadata.TypeDescriptor, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.types[name])
	}
	return out, nil
}

func (d *Domain) Type(name string) (*metadata.TypeDescriptor, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, ok := d.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return desc, nil
}

// ExtractConfig returns the cached editor configuration of a type.
func (d *Domain) ExtractConfig(typeName string) (metadata.EntityConfig, error) {
	desc, err := d.Type(typeName)
	if err != nil {
		return metadata.EntityConfig{}, err
	}
	return d.cache.Config(desc)
}

// Create stages a new, unspawned instance of typeName under id.
// Properties set before Spawn are deferred by the instance.
func (d *Domain) Create(typeName string, id native.EntityID, name string) (*entity.Entity, error) {
	desc, err := d.Type(typeName)
	if err != nil {
		return nil, err
	}
	if _, err = d.cache.Config(desc); err != nil {
		return nil, err
	}
	if _, ok := d.staged[id]; ok {
		return nil, fmt.Errorf("%w: %d", entity.ErrDuplicateEntity, id)
	}
	if err = d.index.Reserve(id); err != nil {
		return nil, err
	}

	e := entity.New(desc, d.engine, d.logger)
	e.Attach(d.index)
	e.SetName(name)
	d.staged[id] = e
	return e, nil
}

// SetPropertyValue routes a property assignment to a staged or live entity.
func (d *Domain) SetPropertyValue(id native.EntityID, name string, kind property.Kind, text string) error {
	e, err := d.Entity(id)
	if err != nil {
		return err
	}
	return e.SetPropertyValue(name, kind, text)
}

// Spawn runs the spawn pipeline of a staged entity and reports whether it is a flow node.
// A failed spawn discards the staged instance.
func (d *Domain) Spawn(id native.EntityID) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	e, ok := d.staged[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotStaged, id)
	}
	delete(d.staged, id)

	flow, err := e.Spawn(id, d.index)
	if err != nil {
		d.logger.Warn("spawn failed", log.Entity(uint32(id)), log.Error(err))
		return false, err
	}
	d.publish(bus.EntitySpawned, EntityEvent{ID: id, Type: e.Type().Name, Name: e.Name()})
	return flow, nil
}

// Remove removes a live entity, or drops a staged one.
func (d *Domain) Remove(id native.EntityID, force bool) error {
	if err := d.check(); err != nil {
		return err
	}
	if e, ok := d.staged[id]; ok {
		if force && e.IsActor() {
			return fmt.Errorf("%w: %d", entity.ErrForcedActorRemoval, id)
		}
		delete(d.staged, id)
		d.logger.Debug("staged entity dropped", log.Entity(uint32(id)), log.String("type", e.Type().Name))
		return nil
	}

	e, err := d.index.Lookup(id)
	if err != nil {
		return err
	}
	if err = e.Remove(d.index, force); err != nil {
		return err
	}
	d.publish(bus.EntityRemoved, EntityEvent{ID: id, Type: e.Type().Name, Name: e.Name()})
	return nil
}

// Entity looks up a live or staged entity.
func (d *Domain) Entity(id native.EntityID) (*entity.Entity, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if e, ok := d.staged[id]; ok {
		return e, nil
	}
	return d.index.Lookup(id)
}

// Entities returns the live entities ordered by id.
func (d *Domain) Entities() ([]*entity.Entity, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	return d.index.All()
}

// Staged returns the ids of created but unspawned entities.
func (d *Domain) Staged() []native.EntityID {
	ids := make([]native.EntityID, 0, len(d.staged))
	for id := range d.staged {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// EntityEvent is the payload of entity.spawned and entity.removed.
type EntityEvent struct {
	ID   native.EntityID `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name,omitempty"`
}

func (d *Domain) publish(eventType string, data any) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(bus.NewEvent(eventType, eventSource, d.generation, data)); err != nil {
		d.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
