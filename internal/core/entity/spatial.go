package entity

import (
	"path/filepath"
	"strings"

	"github.com/zeusync/scripthost/internal/core/native"
)

func (e *Entity) Position() native.Vec3       { return e.engine.WorldPos(e.id) }
func (e *Entity) SetPosition(pos native.Vec3) { e.engine.SetWorldPos(e.id, pos) }

func (e *Entity) Rotation() native.Quat       { return e.engine.Rotation(e.id) }
func (e *Entity) SetRotation(rot native.Quat) { e.engine.SetRotation(e.id, rot) }

func (e *Entity) WorldTM() native.Matrix34      { return e.engine.WorldTM(e.id) }
func (e *Entity) SetWorldTM(tm native.Matrix34) { e.engine.SetWorldTM(e.id, tm) }
func (e *Entity) LocalTM() native.Matrix34      { return e.engine.LocalTM(e.id) }
func (e *Entity) SetLocalTM(tm native.Matrix34) { e.engine.SetLocalTM(e.id, tm) }

func (e *Entity) Velocity() native.Vec3     { return e.engine.Velocity(e.id) }
func (e *Entity) SetVelocity(v native.Vec3) { e.engine.SetVelocity(e.id, v) }

func (e *Entity) Material() string        { return e.engine.Material(e.id) }
func (e *Entity) SetMaterial(path string) { e.engine.SetMaterial(e.id, path) }
func (e *Entity) BoundingBox() native.BoundingBox {
	return e.engine.BoundingBox(e.id, 0)
}

func (e *Entity) SlotFlags(slot int) native.SlotFlags {
	return e.engine.SlotFlags(e.id, slot)
}

func (e *Entity) SetSlotFlags(slot int, flags native.SlotFlags) {
	e.engine.SetSlotFlags(e.id, slot, flags)
}

// LoadObject loads a mesh into slot. Static geometry (.cgf) and characters
// (.cdf, .cga, .chr) are supported; any other extension is refused.
func (e *Entity) LoadObject(path string, slot int) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cgf":
		e.engine.LoadObject(e.id, path, slot)
	case ".cdf", ".cga", ".chr":
		e.engine.LoadCharacter(e.id, path, slot)
	default:
		return false
	}
	return true
}

// ObjectFilePath returns the static object loaded into slot.
func (e *Entity) ObjectFilePath(slot int) string {
	return e.engine.StaticObjectFilePath(e.id, slot)
}

// NativePropertyValue reads a property through the legacy editor text protocol.
func (e *Entity) NativePropertyValue(name string) string {
	return e.engine.PropertyValue(e.id, name)
}

func (e *Entity) SetNativePropertyValue(name, value string) {
	e.engine.SetPropertyValue(e.id, name, value)
}
