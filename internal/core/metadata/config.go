package metadata

import (
	"slices"

	"github.com/zeusync/scripthost/internal/core/property"
)

// PropertyDescriptor describes one editor-exposed member of an entity type.
type PropertyDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        property.Kind   `json:"type"`
	Limits      property.Limits `json:"limits"`
	Flags       property.Flags  `json:"flags,omitempty"`
}

// RegistrationRecord is the class registration handed to the native editor.
type RegistrationRecord struct {
	DisplayName      string     `json:"display_name"`
	Category         string     `json:"category,omitempty"`
	EditorHelperPath string     `json:"editor_helper,omitempty"`
	IconPath         string     `json:"icon,omitempty"`
	Flags            ClassFlags `json:"flags,omitempty"`
}

// EntityConfig is the complete static description of an entity type.
type EntityConfig struct {
	Registration RegistrationRecord   `json:"registration"`
	Properties   []PropertyDescriptor `json:"properties"`
}

// Property returns the descriptor with the given name.
func (c EntityConfig) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// Equal compares two configs structurally.
func (c EntityConfig) Equal(other EntityConfig) bool {
	return c.Registration == other.Registration && slices.Equal(c.Properties, other.Properties)
}
