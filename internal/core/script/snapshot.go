package script

import (
	"errors"
	"fmt"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
	"github.com/zeusync/scripthost/pkg/encoding"
)

type snapshot struct {
	Generation uint64
	Entities   []savedEntity
}

type savedEntity struct {
	ID         uint32
	Type       string
	Name       string
	Flags      uint32
	Properties []savedProperty
}

type savedProperty struct {
	Name string
	Kind property.Kind
	Text string
}

// Serialize captures the live entities with their editor property values.
func (l *ScriptLoader) Serialize() ([]byte, error) {
	live, err := l.domain.Entities()
	if err != nil {
		return nil, err
	}

	snap := snapshot{Generation: l.domain.Generation(), Entities: make([]savedEntity, 0, len(live))}
	for _, e := range live {
		saved := savedEntity{
			ID:    uint32(e.ID()),
			Type:  e.Type().Name,
			Name:  e.Name(),
			Flags: uint32(e.Flags()),
		}
		cfg, err := l.domain.ExtractConfig(saved.Type)
		if err != nil {
			return nil, err
		}
		for _, p := range cfg.Properties {
			text, err := e.PropertyText(p.Name, p.Type)
			if err != nil {
				l.logger.Warn("property not saved",
					log.Entity(saved.ID),
					log.String("property", p.Name),
					log.Error(err),
				)
				continue
			}
			saved.Properties = append(saved.Properties, savedProperty{Name: p.Name, Kind: p.Type, Text: text})
		}
		snap.Entities = append(snap.Entities, saved)
	}

	payload, err := encoding.Gob(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return encoding.Seal(payload)
}

// Restore re-creates the entities of a previous generation. Properties are replayed
// through the deferred path before spawn, so the new defaults are overridden.
// Entities whose type disappeared are skipped.
func (l *ScriptLoader) Restore(data []byte) error {
	payload, err := encoding.Open(data)
	if err != nil {
		return errors.Join(ErrSnapshot, err)
	}
	snap, err := encoding.Ungob[snapshot](payload)
	if err != nil {
		return errors.Join(ErrSnapshot, err)
	}

	var all error
	restored := 0
	for _, saved := range snap.Entities {
		if err := l.restore(saved); err != nil {
			all = errors.Join(all, err)
			continue
		}
		restored++
	}
	l.logger.Info("entities restored",
		log.Uint64("from", snap.Generation),
		log.Int("restored", restored),
		log.Int("saved", len(snap.Entities)),
	)
	return all
}

func (l *ScriptLoader) restore(saved savedEntity) error {
	id := native.EntityID(saved.ID)
	e, err := l.domain.Create(saved.Type, id, saved.Name)
	if err != nil {
		return fmt.Errorf("restore entity %d: %w", saved.ID, err)
	}
	e.SetFlags(entity.Flags(saved.Flags))
	for _, p := range saved.Properties {
		if err = e.SetPropertyValue(p.Name, p.Kind, p.Text); err != nil {
			return fmt.Errorf("restore entity %d: %w", saved.ID, err)
		}
	}
	if _, err = l.domain.Spawn(id); err != nil {
		return fmt.Errorf("restore entity %d: %w", saved.ID, err)
	}
	if a := e.Actor(); a != nil {
		if err = a.Refresh(); err != nil {
			return fmt.Errorf("restore actor %d: %w", saved.ID, err)
		}
	}
	return nil
}
