// Package models holds the entity types built into the host.
package models

import "github.com/zeusync/scripthost/internal/core/metadata"

// Builtin returns fresh descriptors of every built-in type.
func Builtin() []*metadata.TypeDescriptor {
	return []*metadata.TypeDescriptor{
		BoxType(),
		TriggerType(),
		PlayerType(),
	}
}
