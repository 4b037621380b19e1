package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the root of every developer-time type declaration error.
	ErrConfiguration   = errors.New("entity configuration error")
	ErrTypeMismatch    = fmt.Errorf("%w: property kind does not match value type", ErrConfiguration)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported property value type", ErrConfiguration)
	ErrDuplicateMember = fmt.Errorf("%w: duplicate editor property", ErrConfiguration)

	ErrTargetType  = errors.New("script object has the wrong type")
	ErrValueType   = errors.New("value does not fit member type")
	ErrReadOnly    = errors.New("member has no setter")
	ErrCachePurged = errors.New("config cache belongs to an unloaded generation")
)
