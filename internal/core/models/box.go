package models

import (
	"errors"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/property"
)

var ErrNegativeMass = errors.New("mass must not be negative")

// Box is a physicalized prop with an optional mesh.
type Box struct {
	Size    property.Vec3
	Model   string
	Visible bool
	mass    float32
}

func (b *Box) Mass() float32 { return b.mass }

func (b *Box) SetMass(v float32) error {
	if v < 0 {
		return ErrNegativeMass
	}
	b.mass = v
	return nil
}

// OnSpawn loads the configured mesh into slot 0.
func (b *Box) OnSpawn(e *entity.Entity) error {
	if b.Model == "" {
		return nil
	}
	if !e.LoadObject(b.Model, 0) {
		return errors.New("unsupported model " + b.Model)
	}
	return nil
}

func BoxType() *metadata.TypeDescriptor {
	return &metadata.TypeDescriptor{
		Name:         "Box",
		Entity:       &metadata.EntityAnnotation{Category: "Props", Icon: "box.bmp"},
		Capabilities: metadata.CapEditorProperties,
		Physics:      metadata.PhysicsRigid,
		Members: []metadata.Member{
			metadata.Property("Mass", (*Box).Mass, (*Box).SetMass,
				&metadata.EditorProperty{Description: "mass in kg", Min: 0, Max: 1000, Default: 10.0}),
			metadata.Field("Size", func(b *Box) *property.Vec3 { return &b.Size },
				&metadata.EditorProperty{Default: property.Vec3{1, 1, 1}}),
			metadata.Field("Model", func(b *Box) *string { return &b.Model },
				&metadata.EditorProperty{Type: property.KindFile}),
			metadata.Field("Visible", func(b *Box) *bool { return &b.Visible },
				&metadata.EditorProperty{Default: true}),
		},
		New: func() any { return &Box{} },
	}
}
