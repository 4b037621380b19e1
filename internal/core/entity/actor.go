package entity

import (
	"fmt"

	"github.com/zeusync/scripthost/internal/core/native"
)

// Actor is the capability attached to entities of actor types.
type Actor struct {
	entity  *Entity
	handle  native.ActorHandle
	channel int
}

func (a *Actor) Handle() native.ActorHandle { return a.handle }

// ChannelID is the net channel the actor is bound to.
func (a *Actor) ChannelID() int { return a.channel }

func (a *Actor) Health() float32 {
	return a.entity.engine.Health(a.handle)
}

func (a *Actor) SetHealth(v float32) {
	a.entity.engine.SetHealth(a.handle, v)
}

func (a *Actor) MaxHealth() float32 {
	return a.entity.engine.MaxHealth(a.handle)
}

func (a *Actor) SetMaxHealth(v float32) {
	a.entity.engine.SetMaxHealth(a.handle, v)
}

// IsDead reports whether health dropped to zero or below.
func (a *Actor) IsDead() bool {
	return a.Health() <= 0
}

// Refresh re-resolves the native actor handle, which changes across a script reload.
func (a *Actor) Refresh() error {
	info, ok := a.entity.engine.ActorInfo(a.entity.id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoActor, a.entity.id)
	}
	a.handle = info.Handle
	a.channel = info.ChannelID
	return nil
}
