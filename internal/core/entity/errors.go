package entity

import "errors"

var (
	ErrAlreadySpawned     = errors.New("entity already spawned")
	ErrNotSpawned         = errors.New("entity not spawned")
	ErrPhysics            = errors.New("entity physics initialization failed")
	ErrNoActor            = errors.New("engine has no actor for entity")
	ErrForcedActorRemoval = errors.New("forced immediate removal is not supported for actors")
	ErrCallbackPanic      = errors.New("script callback panicked")

	ErrIndexClosed     = errors.New("entity index belongs to an unloaded generation")
	ErrEntityNotFound  = errors.New("entity not found")
	ErrDuplicateEntity = errors.New("entity id already registered")
)
