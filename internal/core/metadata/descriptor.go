package metadata

import (
	"github.com/zeusync/scripthost/internal/core/property"
)

// ValueType is the in-memory type backing a member, independent of its editor kind.
type ValueType uint8

const (
	ValueOther ValueType = iota
	ValueString
	ValueInt
	ValueFloat32
	ValueFloat64
	ValueBool
	ValueVec3
)

func (v ValueType) String() string {
	switch v {
	case ValueString:
		return "string"
	case ValueInt:
		return "int"
	case ValueFloat32:
		return "float32"
	case ValueFloat64:
		return "float64"
	case ValueBool:
		return "bool"
	case ValueVec3:
		return "vec3"
	default:
		return "other"
	}
}

// MemberKind distinguishes plain fields from properties with custom accessors.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberProperty
)

func (k MemberKind) String() string {
	if k == MemberProperty {
		return "property"
	}
	return "field"
}

// EditorProperty annotates a member as editor-exposed.
type EditorProperty struct {
	// Type forces a kind; KindUnset infers it from the member's value type.
	Type        property.Kind
	Description string
	Min         float64
	Max         float64
	Flags       property.Flags
	// Default is assigned on spawn when non-nil.
	Default any
}

// EntityAnnotation carries the type-level registration settings.
type EntityAnnotation struct {
	Name         string
	Category     string
	EditorHelper string
	Icon         string
	Flags        ClassFlags
}

// ClassFlags are the entity class registration flags handed to the native editor.
type ClassFlags uint32

const (
	ClassDefault       ClassFlags = 0x0000
	ClassInvisible     ClassFlags = 0x0001
	ClassScriptDefined ClassFlags = 0x0002
)

// Capabilities replaces the Entity/Actor class hierarchy with explicit flags.
type Capabilities uint8

const (
	CapEditorProperties Capabilities = 1 << iota
	CapActor
)

func (c Capabilities) Has(flag Capabilities) bool {
	return c&flag == flag
}

// PhysicsType is the physicalization requested for new instances of a type.
type PhysicsType uint8

const (
	PhysicsNone PhysicsType = iota
	PhysicsStatic
	PhysicsRigid
	PhysicsLiving
)

// Member is one field or property of an entity type.
type Member struct {
	Name   string
	Kind   MemberKind
	Value  ValueType
	Editor *EditorProperty
	Get    func(target any) any
	Set    func(target any, value any) error
}

// TypeDescriptor is the static description of an entity type.
type TypeDescriptor struct {
	Name         string
	Entity       *EntityAnnotation
	Capabilities Capabilities
	Physics      PhysicsType
	Members      []Member
	Ports        []string
	// New builds the script object backing one instance.
	New func() any
	// Init runs once per generation after the type is registered.
	Init func() error
}

// Member looks a member up by name.
func (d *TypeDescriptor) Member(name string) (*Member, bool) {
	for i := range d.Members {
		if d.Members[i].Name == name {
			return &d.Members[i], true
		}
	}
	return nil, false
}

// IsFlowNode reports whether the type exposes any flow-graph ports.
func (d *TypeDescriptor) IsFlowNode() bool {
	return len(d.Ports) > 0
}

// IsActor reports whether instances carry the actor capability.
func (d *TypeDescriptor) IsActor() bool {
	return d.Capabilities.Has(CapActor)
}

// CanContainEditorProperties reports whether spawn applies defaults and deferred values.
func (d *TypeDescriptor) CanContainEditorProperties() bool {
	return d.Capabilities.Has(CapEditorProperties)
}
