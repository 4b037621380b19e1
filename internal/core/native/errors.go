package native

import "errors"

var (
	ErrPhysicsRejected = errors.New("engine rejected physicalization")
	ErrActorExists     = errors.New("actor already registered")
)
