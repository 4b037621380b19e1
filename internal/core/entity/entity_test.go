package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

var errHeavy = errors.New("too heavy")

type box struct {
	Size    property.Vec3
	Label   string
	Model   string
	Visible bool
	Count   int
	mass    float32

	massWrites []float32
	spawned    int
	removed    int
	keep       bool
}

func (b *box) OnSpawn(e *Entity) error {
	b.spawned++
	return nil
}

func (b *box) OnRemove(e *Entity) bool {
	b.removed++
	return !b.keep
}

func boxType() *metadata.TypeDescriptor {
	return &metadata.TypeDescriptor{
		Name:         "Box",
		Capabilities: metadata.CapEditorProperties,
		Physics:      metadata.PhysicsStatic,
		Members: []metadata.Member{
			metadata.Field("Size", func(b *box) *property.Vec3 { return &b.Size },
				&metadata.EditorProperty{Default: property.Vec3{1, 1, 1}}),
			metadata.Field("Label", func(b *box) *string { return &b.Label }, &metadata.EditorProperty{}),
			metadata.Field("Visible", func(b *box) *bool { return &b.Visible },
				&metadata.EditorProperty{Default: true}),
			metadata.Field("Count", func(b *box) *int { return &b.Count }, nil),
			metadata.Property("Model", func(b *box) string { return b.Model },
				func(b *box, v string) error { b.Model = v; return nil },
				&metadata.EditorProperty{Type: property.KindFile}),
			metadata.Property("Mass", func(b *box) float32 { return b.mass },
				func(b *box, v float32) error {
					if v > 1000 {
						return errHeavy
					}
					b.mass = v
					b.massWrites = append(b.massWrites, v)
					return nil
				},
				&metadata.EditorProperty{Min: 0, Max: 1000, Default: 10.0}),
		},
		New: func() any { return &box{} },
	}
}

func newBox(t *testing.T) (*Entity, *box, *native.Memory) {
	t.Helper()
	engine := native.NewMemory()
	e := New(boxType(), engine, log.Nop())
	return e, e.Object().(*box), engine
}

func TestSetPropertyValueBeforeSpawnDefers(t *testing.T) {
	e, b, _ := newBox(t)

	require.NoError(t, e.SetPropertyValue("Label", property.KindString, "crate"))
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "25"))
	require.NoError(t, e.SetPropertyValue("Size", property.KindVec3, "2,3,4"))

	assert.Equal(t, "", b.Label)
	assert.Equal(t, float32(0), b.mass)
	assert.Equal(t, property.Vec3{}, b.Size)
	assert.Equal(t, 3, e.PendingCount())
	assert.False(t, e.IsSpawned())
}

func TestSpawnAppliesDefaultsThenDeferredValues(t *testing.T) {
	e, b, engine := newBox(t)
	index := NewIndex(1)

	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "25"))
	require.NoError(t, e.SetPropertyValue("Size", property.KindVec3, "2,3,4"))
	require.NoError(t, e.SetPropertyValue("Count", property.KindInt, "3"))

	flow, err := e.Spawn(42, index)
	require.NoError(t, err)
	assert.False(t, flow)

	assert.True(t, e.IsSpawned())
	assert.True(t, e.IsManaged())
	assert.Equal(t, native.EntityID(42), e.ID())
	assert.Equal(t, 0, e.PendingCount())

	// default first, deferred value second
	assert.Equal(t, []float32{10, 25}, b.massWrites)
	assert.Equal(t, property.Vec3{2, 3, 4}, b.Size)
	assert.True(t, b.Visible)
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 1, b.spawned)
	assert.Equal(t, metadata.PhysicsStatic, engine.Physics(42))

	got, err := index.Lookup(42)
	require.NoError(t, err)
	assert.Same(t, e, got)
}

func TestSpawnWithNoDeferredValues(t *testing.T) {
	e, b, _ := newBox(t)
	_, err := e.Spawn(1, NewIndex(1))
	require.NoError(t, err)
	assert.Equal(t, 0, e.PendingCount())
	assert.Equal(t, []float32{10}, b.massWrites)
	assert.Equal(t, property.Vec3{1, 1, 1}, b.Size)
}

func TestDuplicateDeferredValuesAreAllReplayed(t *testing.T) {
	e, b, _ := newBox(t)

	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "20"))
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "30"))
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "20"))
	assert.Equal(t, 3, e.PendingCount())

	_, err := e.Spawn(5, NewIndex(1))
	require.NoError(t, err)

	assert.Equal(t, []float32{10, 20, 30, 20}, b.massWrites)
	assert.Equal(t, float32(20), b.mass)
}

func TestSpawnSurvivesBrokenSettersAndBadText(t *testing.T) {
	typ := boxType()
	m, _ := typ.Member("Mass")
	m.Editor.Default = 5000.0 // rejected by the setter
	label, _ := typ.Member("Label")
	label.Set = func(any, any) error { panic("script bug") }
	label.Editor.Default = "boom"

	e := New(typ, native.NewMemory(), log.Nop())
	b := e.Object().(*box)
	require.NoError(t, e.SetPropertyValue("Size", property.KindVec3, "not,a,vector"))
	require.NoError(t, e.SetPropertyValue("Count", property.KindInt, "7"))

	_, err := e.Spawn(9, NewIndex(1))
	require.NoError(t, err)

	assert.Empty(t, b.massWrites)
	assert.Equal(t, property.Vec3{1, 1, 1}, b.Size)
	assert.Equal(t, 7, b.Count)
	assert.True(t, b.Visible)
	assert.Equal(t, 1, b.spawned)
}

func TestSetPropertyValueAfterSpawnAppliesImmediately(t *testing.T) {
	e, b, _ := newBox(t)
	_, err := e.Spawn(3, NewIndex(1))
	require.NoError(t, err)

	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "12.5"))
	assert.Equal(t, float32(12.5), b.mass)

	require.NoError(t, e.SetPropertyValue("Model", property.KindFile, "objects/crate.cgf"))
	assert.Equal(t, "objects/crate.cgf", b.Model)

	err = e.SetPropertyValue("Mass", property.KindFloat, "heavy")
	assert.ErrorIs(t, err, property.ErrConversion)
	assert.Equal(t, float32(12.5), b.mass)

	err = e.SetPropertyValue("Mass", property.KindFloat, "2000")
	assert.ErrorIs(t, err, errHeavy)
	assert.Equal(t, 0, e.PendingCount())

	text, err := e.PropertyText("Mass", property.KindFloat)
	require.NoError(t, err)
	assert.Equal(t, "12.5", text)
}

func TestEmptyTextRules(t *testing.T) {
	e, b, _ := newBox(t)
	_, err := e.Spawn(3, NewIndex(1))
	require.NoError(t, err)

	b.Label = "before"
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, ""))
	assert.Equal(t, float32(10), b.mass)

	require.NoError(t, e.SetPropertyValue("Label", property.KindString, ""))
	assert.Equal(t, "", b.Label)

	pre, pb, _ := newBox(t)
	require.NoError(t, pre.SetPropertyValue("Mass", property.KindFloat, ""))
	require.NoError(t, pre.SetPropertyValue("Label", property.KindString, ""))
	assert.Equal(t, 1, pre.PendingCount())
	pb.Label = "preset"
	_, err = pre.Spawn(4, NewIndex(1))
	require.NoError(t, err)
	assert.Equal(t, "", pb.Label)
}

func TestUnknownPropertyIsIgnored(t *testing.T) {
	e, b, _ := newBox(t)
	require.NoError(t, e.SetPropertyValue("Foo", property.KindString, "x"))
	assert.Equal(t, 0, e.PendingCount())

	_, err := e.Spawn(8, NewIndex(1))
	require.NoError(t, err)
	before := *b
	require.NoError(t, e.SetPropertyValue("Foo", property.KindString, "x"))
	assert.Equal(t, before.Label, b.Label)
	assert.Equal(t, before.massWrites, b.massWrites)
}

func TestSpawnTwiceAndDuplicateIDs(t *testing.T) {
	index := NewIndex(1)
	e, _, _ := newBox(t)
	_, err := e.Spawn(1, index)
	require.NoError(t, err)

	_, err = e.Spawn(2, index)
	assert.ErrorIs(t, err, ErrAlreadySpawned)

	other, _, _ := newBox(t)
	_, err = other.Spawn(1, index)
	assert.ErrorIs(t, err, ErrDuplicateEntity)
	assert.False(t, other.IsSpawned())
}

func TestPhysicsFailurePropagates(t *testing.T) {
	engine := native.NewMemory()
	engine.FailPhysics(6, errors.New("no proxy"))
	e := New(boxType(), engine, log.Nop())
	index := NewIndex(1)

	_, err := e.Spawn(6, index)
	assert.ErrorIs(t, err, ErrPhysics)
	assert.ErrorIs(t, err, native.ErrPhysicsRejected)
	assert.False(t, e.IsSpawned())
	assert.Equal(t, 0, index.Len())
}

func TestFlowNodeCapability(t *testing.T) {
	typ := boxType()
	typ.Ports = []string{"Open", "Close"}
	e := New(typ, native.NewMemory(), log.Nop())
	flow, err := e.Spawn(11, NewIndex(1))
	require.NoError(t, err)
	assert.True(t, flow)
}

func TestTypesWithoutEditorPropertiesSkipDefaults(t *testing.T) {
	typ := boxType()
	typ.Capabilities = 0
	e := New(typ, native.NewMemory(), log.Nop())
	b := e.Object().(*box)
	require.NoError(t, e.SetPropertyValue("Mass", property.KindFloat, "3"))

	_, err := e.Spawn(12, NewIndex(1))
	require.NoError(t, err)
	assert.Empty(t, b.massWrites)
	assert.Equal(t, 0, e.PendingCount())
}

func TestRemove(t *testing.T) {
	index := NewIndex(1)
	e, b, _ := newBox(t)

	assert.ErrorIs(t, e.Remove(index, false), ErrNotSpawned)

	_, err := e.Spawn(20, index)
	require.NoError(t, err)

	b.keep = true
	require.NoError(t, e.Remove(index, true))
	assert.Equal(t, 1, b.removed)
	_, err = index.Lookup(20)
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.False(t, e.IsSpawned())

	// a second removal neither calls back nor touches the index
	assert.ErrorIs(t, e.Remove(index, false), ErrNotSpawned)
	assert.Equal(t, 1, b.removed)
}

func TestRemoveChecksIndexBeforeCallback(t *testing.T) {
	index := NewIndex(1)
	e, b, _ := newBox(t)
	_, err := e.Spawn(21, index)
	require.NoError(t, err)
	require.NoError(t, index.Unregister(21))

	assert.ErrorIs(t, e.Remove(index, false), ErrEntityNotFound)
	assert.Equal(t, 0, b.removed)
}

func playerType() *metadata.TypeDescriptor {
	return &metadata.TypeDescriptor{
		Name:         "Player",
		Capabilities: metadata.CapEditorProperties | metadata.CapActor,
		Members: []metadata.Member{
			metadata.Field("Label", func(b *box) *string { return &b.Label }, &metadata.EditorProperty{}),
		},
		New: func() any { return &box{} },
	}
}

func TestActorSpawnAndRemoval(t *testing.T) {
	engine := native.NewMemory()
	h, err := engine.AddActor(30, 2, 100)
	require.NoError(t, err)

	index := NewIndex(1)
	e := New(playerType(), engine, log.Nop())
	_, err = e.Spawn(30, index)
	require.NoError(t, err)

	a := e.Actor()
	require.NotNil(t, a)
	assert.True(t, e.IsActor())
	assert.Equal(t, h, a.Handle())
	assert.Equal(t, 2, a.ChannelID())
	assert.Equal(t, metadata.PhysicsRigid, engine.Physics(30))

	a.SetHealth(0)
	assert.True(t, a.IsDead())
	a.SetMaxHealth(150)
	assert.Equal(t, float32(150), a.MaxHealth())

	nh, _ := engine.RebindActor(30)
	require.NoError(t, a.Refresh())
	assert.Equal(t, nh, a.Handle())

	err = e.Remove(index, true)
	assert.ErrorIs(t, err, ErrForcedActorRemoval)
	_, err = index.Lookup(30)
	require.NoError(t, err, "forced removal must not remove the actor")
	assert.Equal(t, 0, e.Object().(*box).removed)

	require.NoError(t, e.Remove(index, false))
	assert.Equal(t, 0, index.Len())
}

func TestActorWithoutNativeActorFails(t *testing.T) {
	e := New(playerType(), native.NewMemory(), log.Nop())
	_, err := e.Spawn(31, NewIndex(1))
	assert.ErrorIs(t, err, ErrNoActor)
}

func TestSpatialForwarding(t *testing.T) {
	e, _, engine := newBox(t)
	_, err := e.Spawn(50, NewIndex(1))
	require.NoError(t, err)

	e.SetPosition(native.Vec3{4, 5, 6})
	assert.Equal(t, native.Vec3{4, 5, 6}, engine.WorldPos(50))
	e.SetVelocity(native.Vec3{1, 0, 0})
	assert.Equal(t, native.Vec3{1, 0, 0}, e.Velocity())
	e.SetMaterial("materials/metal.mtl")
	assert.Equal(t, "materials/metal.mtl", e.Material())
	e.SetSlotFlags(0, native.SlotRenderNearest)
	assert.Equal(t, native.SlotRenderNearest, e.SlotFlags(0))
	e.SetNativePropertyValue("fMass", "12")
	assert.Equal(t, "12", e.NativePropertyValue("fMass"))

	assert.True(t, e.LoadObject("objects/crate.cgf", 0))
	assert.Equal(t, "objects/crate.cgf", e.ObjectFilePath(0))
	assert.True(t, e.LoadObject("objects/guy.CDF", 1))
	assert.Equal(t, "objects/guy.CDF", engine.CharacterFilePath(50, 1))
	assert.True(t, e.LoadObject("objects/anim.cga", 1))
	assert.False(t, e.LoadObject("textures/wood.dds", 2))
	assert.Equal(t, "", e.ObjectFilePath(2))

	bounds := native.BoundingBox{Min: native.Vec3{-1, -1, 0}, Max: native.Vec3{1, 1, 2}}
	engine.SetBoundingBox(50, 0, bounds)
	assert.Equal(t, bounds, e.BoundingBox())
	assert.Equal(t, native.Vec3{0, 0, 1}, e.BoundingBox().Center())
}

func TestEqualByIdentity(t *testing.T) {
	a, _, _ := newBox(t)
	b, _, _ := newBox(t)
	_, err := a.Spawn(1, NewIndex(1))
	require.NoError(t, err)
	_, err = b.Spawn(1, NewIndex(2))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

func TestIndexClose(t *testing.T) {
	index := NewIndex(4)
	e, _, _ := newBox(t)
	_, err := e.Spawn(1, index)
	require.NoError(t, err)

	index.Close()
	_, err = index.Lookup(1)
	assert.ErrorIs(t, err, ErrIndexClosed)
	_, err = index.All()
	assert.ErrorIs(t, err, ErrIndexClosed)
	assert.ErrorIs(t, e.Remove(index, false), ErrIndexClosed)

	late, _, _ := newBox(t)
	_, err = late.Spawn(2, index)
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestClosedGenerationRejectsPropertyAccess(t *testing.T) {
	index := NewIndex(5)
	live, b, _ := newBox(t)
	_, err := live.Spawn(1, index)
	require.NoError(t, err)
	require.NoError(t, live.SetPropertyValue("Label", property.KindString, "before"))

	staged, _, _ := newBox(t)
	staged.Attach(index)

	index.Close()

	assert.ErrorIs(t, live.SetPropertyValue("Label", property.KindString, "stale"), ErrIndexClosed)
	assert.Equal(t, "before", b.Label)
	_, ok := live.PropertyValue("Label")
	assert.False(t, ok)
	_, err = live.PropertyText("Label", property.KindString)
	assert.ErrorIs(t, err, ErrIndexClosed)

	assert.ErrorIs(t, staged.SetPropertyValue("Label", property.KindString, "x"), ErrIndexClosed)
	assert.Equal(t, 0, staged.PendingCount())
	_, err = staged.Spawn(2, NewIndex(6))
	assert.ErrorIs(t, err, ErrIndexClosed)
}
