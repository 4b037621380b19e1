package metadata

import (
	"fmt"

	"github.com/zeusync/scripthost/internal/core/property"
)

// Extract builds the entity config of a type from its editor-annotated members.
//
// Properties come first, then fields, each in declaration order. The first invalid
// member aborts extraction for the whole type.
func Extract(desc *TypeDescriptor) (EntityConfig, error) {
	props := make([]PropertyDescriptor, 0, len(desc.Members))
	seen := make(map[string]struct{}, len(desc.Members))

	for _, kind := range [...]MemberKind{MemberProperty, MemberField} {
		for i := range desc.Members {
			m := &desc.Members[i]
			if m.Kind != kind || m.Editor == nil {
				continue
			}
			if _, dup := seen[m.Name]; dup {
				return EntityConfig{}, fmt.Errorf("%w: %s.%s", ErrDuplicateMember, desc.Name, m.Name)
			}
			seen[m.Name] = struct{}{}

			k, err := EditorKind(m.Value, m.Editor.Type)
			if err != nil {
				return EntityConfig{}, fmt.Errorf("%s.%s: %w", desc.Name, m.Name, err)
			}
			props = append(props, PropertyDescriptor{
				Name:        m.Name,
				Description: m.Editor.Description,
				Type:        k,
				Limits:      property.Limits{Min: m.Editor.Min, Max: m.Editor.Max},
				Flags:       m.Editor.Flags,
			})
		}
	}

	return EntityConfig{
		Registration: Registration(desc),
		Properties:   props,
	}, nil
}

// EditorKind resolves the declared kind of a member against its value type.
func EditorKind(value ValueType, declared property.Kind) (property.Kind, error) {
	switch {
	case declared.IsReference():
		if value != ValueString {
			return property.KindUnset, fmt.Errorf("%w: %s selector on a %s member", ErrTypeMismatch, declared, value)
		}
		return declared, nil
	case declared == property.KindColor:
		if value != ValueVec3 {
			return property.KindUnset, fmt.Errorf("%w: color on a %s member", ErrTypeMismatch, value)
		}
		return declared, nil
	}

	switch value {
	case ValueString:
		return property.KindString, nil
	case ValueInt:
		return property.KindInt, nil
	case ValueFloat32, ValueFloat64:
		return property.KindFloat, nil
	case ValueBool:
		return property.KindBool, nil
	case ValueVec3:
		return property.KindVec3, nil
	default:
		return property.KindUnset, fmt.Errorf("%w: %s", ErrUnsupportedType, value)
	}
}

// Registration derives the registration record, defaulting the display name to the type name.
func Registration(desc *TypeDescriptor) RegistrationRecord {
	ann := EntityAnnotation{}
	if desc.Entity != nil {
		ann = *desc.Entity
	}
	name := ann.Name
	if name == "" {
		name = desc.Name
	}
	return RegistrationRecord{
		DisplayName:      name,
		Category:         ann.Category,
		EditorHelperPath: ann.EditorHelper,
		IconPath:         ann.Icon,
		Flags:            ann.Flags,
	}
}
