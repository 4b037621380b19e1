package property

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of an editor-exposed entity property.
type Kind uint8

const (
	// KindUnset means the kind is inferred from the member's value type.
	KindUnset Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindVec3
	KindColor
	KindObject
	KindTexture
	KindFile
	KindSound
	KindDialogue
	KindSequence
)

var kindNames = [...]string{
	KindUnset:    "unset",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindVec3:     "vec3",
	KindColor:    "color",
	KindObject:   "object",
	KindTexture:  "texture",
	KindFile:     "file",
	KindSound:    "sound",
	KindDialogue: "dialogue",
	KindSequence: "sequence",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind by its lower-case name as used by scripts and the console.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindNames {
		if s == n && Kind(k) != KindUnset {
			return Kind(k), nil
		}
	}
	return KindUnset, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// IsReference reports whether the kind is a file/asset selector that must be backed by a string.
func (k Kind) IsReference() bool {
	switch k {
	case KindObject, KindTexture, KindFile, KindSound, KindDialogue, KindSequence:
		return true
	default:
		return false
	}
}

// IsVector reports whether the kind is backed by a 3-component vector.
func (k Kind) IsVector() bool {
	return k == KindVec3 || k == KindColor
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
