package native

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/property"
)

// EntityID is the engine handle of one live entity.
type EntityID uint32

// ActorHandle is the engine pointer of an actor, distinct from its entity id.
type ActorHandle uintptr

type (
	Vec3     = property.Vec3
	Quat     = mgl64.Quat
	Matrix34 = mgl64.Mat3x4
)

// BoundingBox is an axis aligned box in entity space.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Center returns the middle of the box.
func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SlotFlags controls how one entity slot is rendered.
type SlotFlags uint32

const (
	SlotRender                    SlotFlags = 0x0001
	SlotRenderNearest             SlotFlags = 0x0002
	SlotRenderWithCustomCamera    SlotFlags = 0x0004
	SlotIgnorePhysics             SlotFlags = 0x0010
	SlotBreakAsEntity             SlotFlags = 0x0020
	SlotRenderInCameraSpace       SlotFlags = 0x0040
	SlotRenderAfterPostProcessing SlotFlags = 0x0080
	SlotBreakAsEntityMP           SlotFlags = 0x0100
)

// PhysicsType mirrors the metadata physicalization request at the engine boundary.
type PhysicsType = metadata.PhysicsType

// ActorInfo is what the engine knows about an actor entity.
type ActorInfo struct {
	Handle    ActorHandle
	ChannelID int
}
