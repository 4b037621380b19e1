package server

import (
	"errors"
	"fmt"

	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/property"
	"github.com/zeusync/scripthost/internal/core/script"
)

// Console commands
const (
	CmdStatus      = "status"
	CmdReload      = "reload"
	CmdTypes       = "types"
	CmdConfig      = "config"
	CmdSpawn       = "spawn"
	CmdSetProperty = "set_property"
	CmdRemove      = "remove"
	CmdPosition    = "position"
)

type handlerFunc func(c *Console, cmd Command) (any, error)

var handlers = map[string]handlerFunc{
	CmdStatus:      (*Console).status,
	CmdReload:      (*Console).reload,
	CmdTypes:       (*Console).types,
	CmdConfig:      (*Console).config,
	CmdSpawn:       (*Console).spawn,
	CmdSetProperty: (*Console).setProperty,
	CmdRemove:      (*Console).remove,
	CmdPosition:    (*Console).position,
}

func (c *Console) dispatch(cmd Command) Reply {
	h, ok := handlers[cmd.Command]
	if !ok {
		return Reply{Ref: cmd.Ref, Error: fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command).Error()}
	}
	data, err := h(c, cmd)
	if err != nil {
		return Reply{Ref: cmd.Ref, Error: err.Error()}
	}
	return Reply{Ref: cmd.Ref, OK: true, Data: data}
}

func (c *Console) status(Command) (any, error) {
	data := StatusData{
		State:      c.manager.State().String(),
		Generation: c.manager.Generation(),
		Clients:    c.Clients(),
		Commands:   c.metrics.Snapshot(),
	}
	if c.events != nil {
		data.Events = c.events.GetMetrics()
	}
	err := c.manager.Do(func(d *script.Domain) error {
		types, err := d.Types()
		if err != nil {
			return err
		}
		live, err := d.Entities()
		if err != nil {
			return err
		}
		data.Domain = d.Name()
		data.Root = d.Root()
		data.Types = len(types)
		data.Entities = len(live)
		data.Staged = len(d.Staged())
		return nil
	})
	if err != nil && !errors.Is(err, script.ErrNotActive) {
		return nil, err
	}
	return data, nil
}

func (c *Console) reload(Command) (any, error) {
	if err := c.manager.Reload(); err != nil {
		return nil, err
	}
	return c.status(Command{})
}

func (c *Console) types(Command) (any, error) {
	var out []TypeData
	err := c.manager.Do(func(d *script.Domain) error {
		types, err := d.Types()
		if err != nil {
			return err
		}
		out = make([]TypeData, 0, len(types))
		for _, t := range types {
			td := TypeData{
				Name:       t.Name,
				Actor:      t.IsActor(),
				FlowNode:   t.IsFlowNode(),
				Properties: len(t.Members),
			}
			if t.Entity != nil {
				td.Category = t.Entity.Category
			}
			out = append(out, td)
		}
		return nil
	})
	return out, err
}

func (c *Console) config(cmd Command) (any, error) {
	var out any
	err := c.manager.Do(func(d *script.Domain) error {
		cfg, err := d.ExtractConfig(cmd.Type)
		out = cfg
		return err
	})
	return out, err
}

// spawn stages an entity, queues the given properties and spawns it. A staged
// entity that cannot be spawned is dropped.
func (c *Console) spawn(cmd Command) (any, error) {
	var out SpawnData
	err := c.manager.Do(func(d *script.Domain) error {
		id := native.EntityID(cmd.ID)
		if _, err := d.Create(cmd.Type, id, cmd.Name); err != nil {
			return err
		}
		for _, p := range cmd.Properties {
			if err := setProperty(d, id, p.Name, p.Kind, p.Value); err != nil {
				_ = d.Remove(id, false)
				return err
			}
		}
		flow, err := d.Spawn(id)
		if err != nil {
			return err
		}
		out = SpawnData{ID: cmd.ID, FlowNode: flow}
		return nil
	})
	return out, err
}

func (c *Console) setProperty(cmd Command) (any, error) {
	return nil, c.manager.Do(func(d *script.Domain) error {
		return setProperty(d, native.EntityID(cmd.ID), cmd.Name, cmd.Kind, cmd.Value)
	})
}

func setProperty(d *script.Domain, id native.EntityID, name, kind, value string) error {
	k, err := property.ParseKind(kind)
	if err != nil {
		return fmt.Errorf("%w: property %s: %w", ErrInvalidMessage, name, err)
	}
	return d.SetPropertyValue(id, name, k, value)
}

func (c *Console) remove(cmd Command) (any, error) {
	return nil, c.manager.Do(func(d *script.Domain) error {
		return d.Remove(native.EntityID(cmd.ID), cmd.Force)
	})
}

func (c *Console) position(cmd Command) (any, error) {
	var out PositionData
	err := c.manager.Do(func(d *script.Domain) error {
		e, err := d.Entity(native.EntityID(cmd.ID))
		if err != nil {
			return err
		}
		rot := e.Rotation()
		out = PositionData{
			ID:       cmd.ID,
			Position: [3]float64(e.Position()),
			Rotation: [4]float64{rot.V[0], rot.V[1], rot.V[2], rot.W},
		}
		return nil
	})
	return out, err
}
