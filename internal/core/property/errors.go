package property

import "errors"

var (
	ErrConversion  = errors.New("property conversion failed")
	ErrUnknownKind = errors.New("unknown property kind")
)
