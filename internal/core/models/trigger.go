package models

import (
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/property"
)

// Trigger is an invisible volume exposing flow-graph ports.
type Trigger struct {
	Radius  float64
	Enabled bool
	Sound   string
}

func TriggerType() *metadata.TypeDescriptor {
	return &metadata.TypeDescriptor{
		Name: "ProximityTrigger",
		Entity: &metadata.EntityAnnotation{
			Name:         "Proximity Trigger",
			Category:     "Triggers",
			EditorHelper: "editor/objects/t.cgf",
			Flags:        metadata.ClassInvisible,
		},
		Capabilities: metadata.CapEditorProperties,
		Physics:      metadata.PhysicsNone,
		Ports:        []string{"Enter", "Leave", "Enable", "Disable"},
		Members: []metadata.Member{
			metadata.Field("Radius", func(t *Trigger) *float64 { return &t.Radius },
				&metadata.EditorProperty{Min: 0, Max: 100, Default: 5.0}),
			metadata.Field("Enabled", func(t *Trigger) *bool { return &t.Enabled },
				&metadata.EditorProperty{Default: true}),
			metadata.Field("Sound", func(t *Trigger) *string { return &t.Sound },
				&metadata.EditorProperty{Type: property.KindSound}),
		},
		New: func() any { return &Trigger{} },
	}
}
