package models

import (
	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/property"
)

// Player is the built-in actor type.
type Player struct {
	Team      string
	MaxHealth float32
}

// OnSpawn pushes the configured health to the native actor.
func (p *Player) OnSpawn(e *entity.Entity) error {
	a := e.Actor()
	if a == nil || p.MaxHealth <= 0 {
		return nil
	}
	a.SetMaxHealth(p.MaxHealth)
	a.SetHealth(p.MaxHealth)
	return nil
}

func PlayerType() *metadata.TypeDescriptor {
	return &metadata.TypeDescriptor{
		Name:         "Player",
		Entity:       &metadata.EntityAnnotation{Category: "Actors"},
		Capabilities: metadata.CapEditorProperties | metadata.CapActor,
		Members: []metadata.Member{
			// team names keep their authored order in the editor list
			metadata.Field("Team", func(p *Player) *string { return &p.Team },
				&metadata.EditorProperty{Flags: property.FlagUnsorted}),
			metadata.Field("MaxHealth", func(p *Player) *float32 { return &p.MaxHealth },
				&metadata.EditorProperty{Min: 1, Max: 1000, Default: 100.0}),
		},
		New: func() any { return &Player{} },
	}
}
