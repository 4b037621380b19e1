package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

func TestBuiltinConfigsExtract(t *testing.T) {
	for _, desc := range Builtin() {
		cfg, err := metadata.Extract(desc)
		require.NoError(t, err, desc.Name)
		assert.NotEmpty(t, cfg.Properties, desc.Name)
	}

	cfg, err := metadata.Extract(TriggerType())
	require.NoError(t, err)
	assert.Equal(t, "Proximity Trigger", cfg.Registration.DisplayName)
	sound, ok := cfg.Property("Sound")
	require.True(t, ok)
	assert.Equal(t, property.KindSound, sound.Type)

	cfg, err = metadata.Extract(PlayerType())
	require.NoError(t, err)
	team, ok := cfg.Property("Team")
	require.True(t, ok)
	assert.True(t, team.Flags.Has(property.FlagUnsorted))
	assert.False(t, team.Flags.Has(property.FlagHidden))
}

func TestBuiltinReturnsFreshDescriptors(t *testing.T) {
	a, b := Builtin(), Builtin()
	require.Len(t, a, len(b))
	for i := range a {
		assert.NotSame(t, a[i], b[i])
	}
}

func TestBoxSpawn(t *testing.T) {
	engine := native.NewMemory()
	e := entity.New(BoxType(), engine, log.Nop())
	require.NoError(t, e.SetPropertyValue("Model", property.KindFile, "objects/crate.cgf"))
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "-3"))

	flow, err := e.Spawn(1, entity.NewIndex(1))
	require.NoError(t, err)
	assert.False(t, flow)

	box := e.Object().(*Box)
	assert.Equal(t, float32(10), box.Mass())
	assert.Equal(t, property.Vec3{1, 1, 1}, box.Size)
	assert.True(t, box.Visible)
	assert.Equal(t, "objects/crate.cgf", engine.StaticObjectFilePath(1, 0))
	assert.Equal(t, metadata.PhysicsRigid, engine.Physics(1))

	err = e.SetPropertyValue("Mass", property.KindFloat, "-1")
	assert.ErrorIs(t, err, ErrNegativeMass)
}

func TestTriggerIsFlowNode(t *testing.T) {
	e := entity.New(TriggerType(), native.NewMemory(), log.Nop())
	flow, err := e.Spawn(2, entity.NewIndex(1))
	require.NoError(t, err)
	assert.True(t, flow)
	assert.Equal(t, 5.0, e.Object().(*Trigger).Radius)
}

func TestPlayerSpawnSetsHealth(t *testing.T) {
	engine := native.NewMemory()
	_, err := engine.AddActor(3, 0, 50)
	require.NoError(t, err)

	e := entity.New(PlayerType(), engine, log.Nop())
	require.NoError(t, e.SetPropertyValue("MaxHealth", property.KindFloat, "250"))
	_, err = e.Spawn(3, entity.NewIndex(1))
	require.NoError(t, err)

	a := e.Actor()
	require.NotNil(t, a)
	assert.Equal(t, float32(250), a.MaxHealth())
	assert.Equal(t, float32(250), a.Health())
	assert.False(t, a.IsDead())
}
