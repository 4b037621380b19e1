package native

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var _ Engine = (*Memory)(nil)

type slot struct {
	object    string
	character string
	flags     SlotFlags
	bounds    BoundingBox
}

type record struct {
	pos        Vec3
	rot        Quat
	worldTM    Matrix34
	localTM    Matrix34
	velocity   Vec3
	material   string
	slots      map[int]*slot
	properties map[string]string
	physics    PhysicsType
}

type actor struct {
	entity    EntityID
	channel   int
	health    float32
	maxHealth float32
}

// Memory is an in-process engine used when the host runs without a native simulation.
type Memory struct {
	mu          sync.RWMutex
	entities    map[EntityID]*record
	actors      map[ActorHandle]*actor
	byEntity    map[EntityID]ActorHandle
	nextHandle  ActorHandle
	physicsFail map[EntityID]error
}

func NewMemory() *Memory {
	return &Memory{
		entities:    make(map[EntityID]*record),
		actors:      make(map[ActorHandle]*actor),
		byEntity:    make(map[EntityID]ActorHandle),
		nextHandle:  0x1000,
		physicsFail: make(map[EntityID]error),
	}
}

// AddActor registers an actor for id and returns its new handle.
func (m *Memory) AddActor(id EntityID, channel int, maxHealth float32) (ActorHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEntity[id]; ok {
		return 0, fmt.Errorf("%w: entity %d", ErrActorExists, id)
	}
	m.nextHandle += 0x10
	h := m.nextHandle
	m.actors[h] = &actor{entity: id, channel: channel, health: maxHealth, maxHealth: maxHealth}
	m.byEntity[id] = h
	return h, nil
}

// RebindActor gives the actor of id a fresh handle, as the engine does across a script reload.
func (m *Memory) RebindActor(id EntityID) (ActorHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byEntity[id]
	if !ok {
		return 0, false
	}
	m.nextHandle += 0x10
	h := m.nextHandle
	m.actors[h] = m.actors[old]
	delete(m.actors, old)
	m.byEntity[id] = h
	return h, true
}

// FailPhysics makes the next physicalization requests for id fail with err (nil clears it).
func (m *Memory) FailPhysics(id EntityID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.physicsFail, id)
		return
	}
	m.physicsFail[id] = err
}

// Physics reports the physicalization applied to id.
func (m *Memory) Physics(id EntityID) PhysicsType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.physics
	}
	return 0
}

// SetBoundingBox seeds the bounds reported for a slot.
func (m *Memory) SetBoundingBox(id EntityID, slot int, box BoundingBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id, slot).bounds = box
}

func (m *Memory) WorldPos(id EntityID) Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.pos
	}
	return Vec3{}
}

func (m *Memory) SetWorldPos(id EntityID, pos Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).pos = pos
}

func (m *Memory) Rotation(id EntityID) Quat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.rot
	}
	return mgl64.QuatIdent()
}

func (m *Memory) SetRotation(id EntityID, rot Quat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).rot = rot
}

func (m *Memory) WorldTM(id EntityID) Matrix34 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.worldTM
	}
	return Matrix34{}
}

func (m *Memory) SetWorldTM(id EntityID, tm Matrix34) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).worldTM = tm
}

func (m *Memory) LocalTM(id EntityID) Matrix34 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.localTM
	}
	return Matrix34{}
}

func (m *Memory) SetLocalTM(id EntityID, tm Matrix34) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).localTM = tm
}

func (m *Memory) Velocity(id EntityID) Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.velocity
	}
	return Vec3{}
}

func (m *Memory) SetVelocity(id EntityID, v Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).velocity = v
}

func (m *Memory) Material(id EntityID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.material
	}
	return ""
}

func (m *Memory) SetMaterial(id EntityID, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).material = path
}

func (m *Memory) BoundingBox(id EntityID, slot int) BoundingBox {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		if s, ok := r.slots[slot]; ok {
			return s.bounds
		}
	}
	return BoundingBox{}
}

func (m *Memory) SlotFlags(id EntityID, slot int) SlotFlags {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		if s, ok := r.slots[slot]; ok {
			return s.flags
		}
	}
	return 0
}

func (m *Memory) SetSlotFlags(id EntityID, slot int, flags SlotFlags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id, slot).flags = flags
}

func (m *Memory) LoadObject(id EntityID, path string, slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slot(id, slot)
	s.object, s.character = path, ""
	s.flags |= SlotRender
}

func (m *Memory) LoadCharacter(id EntityID, path string, slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slot(id, slot)
	s.character, s.object = path, ""
	s.flags |= SlotRender
}

// CharacterFilePath returns the character loaded into slot, if any.
func (m *Memory) CharacterFilePath(id EntityID, slot int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		if s, ok := r.slots[slot]; ok {
			return s.character
		}
	}
	return ""
}

func (m *Memory) StaticObjectFilePath(id EntityID, slot int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		if s, ok := r.slots[slot]; ok {
			return s.object
		}
	}
	return ""
}

func (m *Memory) PropertyValue(id EntityID, name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.entities[id]; ok {
		return r.properties[name]
	}
	return ""
}

func (m *Memory) SetPropertyValue(id EntityID, name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(id).properties[name] = value
}

func (m *Memory) Physicalize(id EntityID, kind PhysicsType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.physicsFail[id]; ok {
		return fmt.Errorf("%w: entity %d: %w", ErrPhysicsRejected, id, err)
	}
	m.record(id).physics = kind
	return nil
}

func (m *Memory) ActorInfo(id EntityID) (ActorInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byEntity[id]
	if !ok {
		return ActorInfo{}, false
	}
	return ActorInfo{Handle: h, ChannelID: m.actors[h].channel}, true
}

func (m *Memory) Health(h ActorHandle) float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.actors[h]; ok {
		return a.health
	}
	return 0
}

func (m *Memory) SetHealth(h ActorHandle, v float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.actors[h]; ok {
		a.health = v
	}
}

func (m *Memory) MaxHealth(h ActorHandle) float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.actors[h]; ok {
		return a.maxHealth
	}
	return 0
}

func (m *Memory) SetMaxHealth(h ActorHandle, v float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.actors[h]; ok {
		a.maxHealth = v
	}
}

// record returns the state of id, creating it. Callers hold the write lock.
func (m *Memory) record(id EntityID) *record {
	r, ok := m.entities[id]
	if !ok {
		r = &record{
			rot:        mgl64.QuatIdent(),
			slots:      make(map[int]*slot),
			properties: make(map[string]string),
		}
		m.entities[id] = r
	}
	return r
}

func (m *Memory) slot(id EntityID, index int) *slot {
	r := m.record(id)
	s, ok := r.slots[index]
	if !ok {
		s = &slot{}
		r.slots[index] = s
	}
	return s
}
