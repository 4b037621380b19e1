package entity

import (
	"fmt"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

// Flags are the engine entity flags carried through for the editor.
type Flags uint32

// pendingProperty is a value received before spawn. Entries are never merged:
// the same name may appear several times and every entry is replayed in order.
type pendingProperty struct {
	name string
	text string
	kind property.Kind
}

// Entity is the managed side of one scripted entity.
// It is AwaitingSpawn until Spawn succeeds and Spawned afterwards.
type Entity struct {
	id      native.EntityID
	name    string
	flags   Flags
	spawned bool
	managed bool

	typ    *metadata.TypeDescriptor
	object any
	engine native.Engine
	logger log.Log

	pending []pendingProperty
	actor   *Actor

	// index is the generation that owns the entity; nil until attached or spawned.
	index *Index
}

// New creates an unspawned instance of typ.
func New(typ *metadata.TypeDescriptor, engine native.Engine, logger log.Log) *Entity {
	var obj any
	if typ.New != nil {
		obj = typ.New()
	}
	return &Entity{
		typ:    typ,
		object: obj,
		engine: engine,
		logger: logger.With(log.String("type", typ.Name)),
	}
}

func (e *Entity) ID() native.EntityID { return e.id }

// Attach ties the entity to the generation owning index. Once that generation is
// destroyed every property access fails with ErrIndexClosed.
func (e *Entity) Attach(index *Index) { e.index = index }

func (e *Entity) live() error {
	if e.index != nil && e.index.Closed() {
		return e.index.closedError()
	}
	return nil
}

func (e *Entity) Name() string        { return e.name }
func (e *Entity) SetName(name string) { e.name = name }

func (e *Entity) Flags() Flags         { return e.flags }
func (e *Entity) SetFlags(flags Flags) { e.flags = flags }

// IsSpawned reports whether the spawn pipeline completed.
func (e *Entity) IsSpawned() bool { return e.spawned }

// IsManaged reports whether the entity is backed by a script type.
func (e *Entity) IsManaged() bool { return e.managed }

func (e *Entity) Type() *metadata.TypeDescriptor { return e.typ }

// Object is the script object holding the entity's member values.
func (e *Entity) Object() any { return e.object }

// Actor returns the actor capability, nil for plain entities.
func (e *Entity) Actor() *Actor { return e.actor }

func (e *Entity) IsActor() bool { return e.typ.IsActor() }

// Equal compares entities by identity.
func (e *Entity) Equal(other *Entity) bool {
	return other != nil && e.id == other.id
}

// PendingCount is the number of values waiting for spawn.
func (e *Entity) PendingCount() int { return len(e.pending) }

// SetPropertyValue assigns a property from its wire text.
//
// Unknown names are ignored so stale level data cannot fail a load. Empty text is
// ignored for every kind but String. Before spawn the value is queued; after spawn it
// is converted and assigned immediately.
func (e *Entity) SetPropertyValue(name string, kind property.Kind, text string) error {
	if err := e.live(); err != nil {
		return err
	}
	m, ok := e.typ.Member(name)
	if !ok {
		return nil
	}
	if text == "" && kind != property.KindString {
		return nil
	}
	if !e.spawned {
		e.pending = append(e.pending, pendingProperty{name: name, text: text, kind: kind})
		return nil
	}
	return e.apply(m, kind, text)
}

// PropertyText formats the current value of a member as wire text.
func (e *Entity) PropertyText(name string, kind property.Kind) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	m, ok := e.typ.Member(name)
	if !ok {
		return "", fmt.Errorf("%s has no member %q", e.typ.Name, name)
	}
	return property.Format(kind, m.Get(e.object))
}

// PropertyValue returns the in-memory value of a member. It reports false for
// unknown members and for entities of a destroyed generation.
func (e *Entity) PropertyValue(name string) (any, bool) {
	if e.live() != nil {
		return nil, false
	}
	m, ok := e.typ.Member(name)
	if !ok {
		return nil, false
	}
	return m.Get(e.object), true
}

func (e *Entity) apply(m *metadata.Member, kind property.Kind, text string) error {
	v, ok, err := property.Parse(kind, text)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", e.typ.Name, m.Name, err)
	}
	if !ok {
		return nil
	}
	return e.assign(m, v)
}

func (e *Entity) assign(m *metadata.Member, v any) error {
	if m.Set == nil {
		return fmt.Errorf("%w: %s.%s", metadata.ErrReadOnly, e.typ.Name, m.Name)
	}
	return safeCall(func() error { return m.Set(e.object, v) })
}
