package entity

import "fmt"

// Binder is implemented by script objects that need their entity before any value
// is assigned during spawn.
type Binder interface {
	Bind(e *Entity)
}

// SpawnHandler is implemented by script objects that want to run code once spawned.
type SpawnHandler interface {
	OnSpawn(e *Entity) error
}

// RemoveHandler is implemented by script objects that observe removal.
// The result is advisory: false is logged but does not block removal.
type RemoveHandler interface {
	OnRemove(e *Entity) bool
}

// safeCall runs fn and turns a panic into ErrCallbackPanic.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, r)
		}
	}()
	return fn()
}
