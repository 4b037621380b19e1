package entity

import (
	"fmt"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

// Spawn binds the entity to id and materializes its configuration.
// It reports whether the type is a flow node so the caller can register it as one.
func (e *Entity) Spawn(id native.EntityID, index *Index) (bool, error) {
	if e.spawned {
		return false, fmt.Errorf("%w: %d", ErrAlreadySpawned, e.id)
	}
	if err := e.live(); err != nil {
		return false, err
	}
	if err := index.Reserve(id); err != nil {
		return false, err
	}
	e.index = index

	e.id = id
	e.managed = true
	e.logger = e.logger.With(log.Entity(uint32(id)))
	if b, ok := e.object.(Binder); ok {
		b.Bind(e)
	}

	physics := e.typ.Physics
	if e.typ.IsActor() {
		info, ok := e.engine.ActorInfo(id)
		if !ok {
			return false, fmt.Errorf("%w: %d", ErrNoActor, id)
		}
		e.actor = &Actor{entity: e, handle: info.Handle, channel: info.ChannelID}
		// actors must have physics
		physics = metadata.PhysicsRigid
	}

	if err := e.engine.Physicalize(id, physics); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPhysics, err)
	}

	if e.typ.CanContainEditorProperties() {
		e.applyDefaults()
	}
	e.flushPending()

	if err := index.Register(e); err != nil {
		return false, err
	}
	e.spawned = true

	if h, ok := e.object.(SpawnHandler); ok {
		if err := safeCall(func() error { return h.OnSpawn(e) }); err != nil {
			e.logger.Error("spawn callback failed", log.Error(err))
		}
	}

	return e.typ.IsFlowNode(), nil
}

// applyDefaults assigns every declared default. A failing setter is logged and skipped.
func (e *Entity) applyDefaults() {
	for _, kind := range [...]metadata.MemberKind{metadata.MemberProperty, metadata.MemberField} {
		for i := range e.typ.Members {
			m := &e.typ.Members[i]
			if m.Kind != kind || m.Editor == nil || m.Editor.Default == nil {
				continue
			}
			if err := e.assign(m, m.Editor.Default); err != nil {
				e.logger.Warn("default value rejected",
					log.String("member", m.Name),
					log.Error(err),
				)
			}
		}
	}
}

// flushPending replays the deferred values in arrival order and drops the buffer.
func (e *Entity) flushPending() {
	pending := e.pending
	e.pending = nil
	if len(pending) == 0 {
		return
	}
	if !e.typ.CanContainEditorProperties() {
		e.logger.Debug("discarding deferred values", log.Int("count", len(pending)))
		return
	}

	for _, p := range pending {
		if p.text == "" && p.kind != property.KindString {
			continue
		}
		m, ok := e.typ.Member(p.name)
		if !ok {
			continue
		}
		if err := e.apply(m, p.kind, p.text); err != nil {
			e.logger.Warn("deferred value rejected",
				log.String("member", p.name),
				log.String("kind", p.kind.String()),
				log.Error(err),
			)
		}
	}
}

// Remove runs the removal callback and unregisters the entity.
// Actors reject forced immediate removal.
func (e *Entity) Remove(index *Index, force bool) error {
	if !e.spawned {
		return fmt.Errorf("%w: %s", ErrNotSpawned, e.typ.Name)
	}
	if force && e.actor != nil {
		return fmt.Errorf("%w: %d", ErrForcedActorRemoval, e.id)
	}
	if _, err := index.Lookup(e.id); err != nil {
		return err
	}

	if h, ok := e.object.(RemoveHandler); ok {
		allowed := true
		if err := safeCall(func() error { allowed = h.OnRemove(e); return nil }); err != nil {
			e.logger.Error("remove callback failed", log.Error(err))
		}
		if !allowed {
			e.logger.Debug("remove callback declined, removing anyway")
		}
	}

	if err := index.Unregister(e.id); err != nil {
		return err
	}
	e.spawned = false
	return nil
}
