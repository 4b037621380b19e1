package native

// Entities is the identity-keyed slice of the engine entity system used by scripts.
type Entities interface {
	WorldPos(id EntityID) Vec3
	SetWorldPos(id EntityID, pos Vec3)
	Rotation(id EntityID) Quat
	SetRotation(id EntityID, rot Quat)
	WorldTM(id EntityID) Matrix34
	SetWorldTM(id EntityID, tm Matrix34)
	LocalTM(id EntityID) Matrix34
	SetLocalTM(id EntityID, tm Matrix34)
	Velocity(id EntityID) Vec3
	SetVelocity(id EntityID, v Vec3)
	Material(id EntityID) string
	SetMaterial(id EntityID, path string)
	BoundingBox(id EntityID, slot int) BoundingBox
	SlotFlags(id EntityID, slot int) SlotFlags
	SetSlotFlags(id EntityID, slot int, flags SlotFlags)

	LoadObject(id EntityID, path string, slot int)
	LoadCharacter(id EntityID, path string, slot int)
	StaticObjectFilePath(id EntityID, slot int) string

	// PropertyValue and SetPropertyValue are the legacy editor text protocol.
	PropertyValue(id EntityID, name string) string
	SetPropertyValue(id EntityID, name, value string)

	Physicalize(id EntityID, kind PhysicsType) error
}

// Actors exposes actor specific state keyed by the native actor handle.
type Actors interface {
	ActorInfo(id EntityID) (ActorInfo, bool)
	Health(h ActorHandle) float32
	SetHealth(h ActorHandle, v float32)
	MaxHealth(h ActorHandle) float32
	SetMaxHealth(h ActorHandle, v float32)
}

// Engine is everything the script host consumes from the native side.
type Engine interface {
	Entities
	Actors
}
