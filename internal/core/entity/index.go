package entity

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scripthost/internal/core/native"
)

// Index is the live-entity index of one script domain generation.
type Index struct {
	mu         sync.RWMutex
	generation uint64
	entities   map[native.EntityID]*Entity
	closed     bool
}

func NewIndex(generation uint64) *Index {
	return &Index{
		generation: generation,
		entities:   make(map[native.EntityID]*Entity),
	}
}

func (x *Index) Generation() uint64 { return x.generation }

// Reserve checks that id can be registered.
func (x *Index) Reserve(id native.EntityID) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return x.closedError()
	}
	if _, ok := x.entities[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEntity, id)
	}
	return nil
}

func (x *Index) Register(e *Entity) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return x.closedError()
	}
	if _, ok := x.entities[e.id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEntity, e.id)
	}
	x.entities[e.id] = e
	return nil
}

func (x *Index) Unregister(id native.EntityID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return x.closedError()
	}
	if _, ok := x.entities[id]; !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}
	delete(x.entities, id)
	return nil
}

func (x *Index) Lookup(id native.EntityID) (*Entity, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, x.closedError()
	}
	e, ok := x.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}
	return e, nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entities)
}

// All returns the live entities ordered by id.
func (x *Index) All() ([]*Entity, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, x.closedError()
	}
	out := make([]*Entity, 0, len(x.entities))
	for _, e := range x.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entity) int { return cmp.Compare(a.id, b.id) })
	return out, nil
}

// Close drops every entry; any later access fails with ErrIndexClosed.
func (x *Index) Close() {
	x.mu.Lock()
	x.entities = nil
	x.closed = true
	x.mu.Unlock()
}

// Closed reports whether the owning generation was destroyed.
func (x *Index) Closed() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.closed
}

func (x *Index) closedError() error {
	return fmt.Errorf("%w: generation %d", ErrIndexClosed, x.generation)
}
