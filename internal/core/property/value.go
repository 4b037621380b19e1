package property

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is the in-memory form of Vec3 and Color properties.
type Vec3 = mgl64.Vec3

// Limits bound numeric properties in the editor. They are carried as metadata only.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Flags is the editor property flag bitset passed through to the native editor untouched.
type Flags uint32

const (
	FlagNone     Flags = 0
	FlagReadOnly Flags = 0x1
	FlagHidden   Flags = 0x2
	FlagUnsorted Flags = 0x4
)

func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}
