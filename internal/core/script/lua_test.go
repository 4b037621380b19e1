package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Shopify/go-lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

const doorScript = `
inits = 0
spawned = {}
removed = {}
last_property = ""

entity.register{
  name = "Door",
  label = "Sliding Door",
  category = "Doors",
  icon = "door.bmp",
  helper = "editor/door.cgf",
  ports = {"Open", "Close"},
  physics = "rigid",
  properties = {
    {name = "Speed", kind = "float", default = 2.5, min = 0, max = 10, description = "units per second"},
    {name = "Model", kind = "file", default = "objects/door.cgf"},
    {name = "Locked", default = false},
    {name = "Offset", default = {0, 0, 3}},
    {name = "Code", kind = "int", value = 1234},
    {name = "Note"},
  },
  on_init = function() inits = inits + 1 end,
  on_spawn = function(id) spawned[#spawned + 1] = id end,
  on_property = function(id, name, value)
    if name == "Speed" and value > 5 then
      error("too fast")
    end
    last_property = name
  end,
  on_remove = function(id)
    removed[#removed + 1] = id
    return false
  end,
}
`

const guardScript = `
actor.register{
  name = "Guard",
  category = "AI",
  properties = {
    {name = "Alertness", kind = "float", default = 0.5},
  },
}
log.info("guard registered in " .. domain.name)
`

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func luaManager(t *testing.T, root string) (*Manager, *native.Memory) {
	t.Helper()
	engine := native.NewMemory()
	m := NewManager(Options{DefaultRoot: root}, NewLoaderFactory(nil), engine, bus.New(), log.Nop())
	return m, engine
}

func luaNumber(t *testing.T, d *Domain, chunk string) float64 {
	t.Helper()
	state := d.lua
	top := state.Top()
	defer state.SetTop(top)
	require.NoError(t, lua.LoadString(state, chunk))
	require.NoError(t, state.ProtectedCall(0, 1, 0))
	n, ok := state.ToNumber(-1)
	require.True(t, ok, chunk)
	return n
}

func luaString(t *testing.T, d *Domain, chunk string) string {
	t.Helper()
	state := d.lua
	top := state.Top()
	defer state.SetTop(top)
	require.NoError(t, lua.LoadString(state, chunk))
	require.NoError(t, state.ProtectedCall(0, 1, 0))
	s, _ := state.ToString(-1)
	return s
}

func TestLuaTypesRegister(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "10_door.lua", doorScript)
	writeScript(t, root, "20_guard.lua", guardScript)
	writeScript(t, root, "README.txt", "not a script")

	m, _ := luaManager(t, root)
	require.NoError(t, m.Initialize(""))
	d := m.Domain()

	types, err := d.Types()
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Door", types[0].Name)
	assert.Equal(t, "Guard", types[1].Name)

	door := types[0]
	assert.True(t, door.IsFlowNode())
	assert.False(t, door.IsActor())
	assert.Equal(t, metadata.PhysicsRigid, door.Physics)
	assert.True(t, types[1].IsActor())

	cfg, err := d.ExtractConfig("Door")
	require.NoError(t, err)
	assert.Equal(t, metadata.RegistrationRecord{
		DisplayName:      "Sliding Door",
		Category:         "Doors",
		EditorHelperPath: "editor/door.cgf",
		IconPath:         "door.bmp",
		Flags:            metadata.ClassScriptDefined,
	}, cfg.Registration)

	require.Len(t, cfg.Properties, 6)
	kinds := map[string]property.Kind{}
	for _, p := range cfg.Properties {
		kinds[p.Name] = p.Type
	}
	assert.Equal(t, map[string]property.Kind{
		"Speed":  property.KindFloat,
		"Model":  property.KindFile,
		"Locked": property.KindBool,
		"Offset": property.KindVec3,
		"Code":   property.KindInt,
		"Note":   property.KindString,
	}, kinds)

	speed, _ := cfg.Property("Speed")
	assert.Equal(t, property.Limits{Min: 0, Max: 10}, speed.Limits)
	assert.Equal(t, "units per second", speed.Description)

	assert.Equal(t, 1.0, luaNumber(t, d, "return inits"))
}

func TestLuaEntityCallbacks(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "door.lua", doorScript)
	m, _ := luaManager(t, root)
	require.NoError(t, m.Initialize(""))
	d := m.Domain()

	e, err := d.Create("Door", 21, "door_a")
	require.NoError(t, err)
	require.NoError(t, e.SetPropertyValue("Speed", property.KindFloat, "4"))
	require.NoError(t, e.SetPropertyValue("Speed", property.KindFloat, "9"))

	flow, err := d.Spawn(21)
	require.NoError(t, err)
	assert.True(t, flow)

	// default 2.5 then 4 applied, 9 rejected by the script
	v, _ := e.PropertyValue("Speed")
	assert.Equal(t, 4.0, v)
	v, _ = e.PropertyValue("Model")
	assert.Equal(t, "objects/door.cgf", v)
	v, _ = e.PropertyValue("Offset")
	assert.Equal(t, property.Vec3{0, 0, 3}, v)
	v, _ = e.PropertyValue("Code")
	assert.Equal(t, 1234, v)
	v, _ = e.PropertyValue("Locked")
	assert.Equal(t, false, v)

	assert.Equal(t, 21.0, luaNumber(t, d, "return spawned[1]"))

	err = e.SetPropertyValue("Speed", property.KindFloat, "7")
	assert.ErrorIs(t, err, ErrScriptCallback)
	v, _ = e.PropertyValue("Speed")
	assert.Equal(t, 4.0, v)

	require.NoError(t, e.SetPropertyValue("Note", property.KindString, "north wing"))
	assert.Equal(t, "Note", luaString(t, d, "return last_property"))

	// on_remove returning false is advisory
	require.NoError(t, d.Remove(21, false))
	assert.Equal(t, 21.0, luaNumber(t, d, "return removed[1]"))
	_, err = d.Entity(21)
	assert.ErrorIs(t, err, entity.ErrEntityNotFound)
}

func TestLuaActor(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "guard.lua", guardScript)
	m, engine := luaManager(t, root)
	require.NoError(t, m.Initialize(""))
	d := m.Domain()

	_, err := d.Create("Guard", 5, "")
	require.NoError(t, err)
	_, err = d.Spawn(5)
	assert.ErrorIs(t, err, entity.ErrNoActor)

	h, err := engine.AddActor(6, 1, 80)
	require.NoError(t, err)
	e, err := d.Create("Guard", 6, "guard_1")
	require.NoError(t, err)
	_, err = d.Spawn(6)
	require.NoError(t, err)
	assert.Equal(t, h, e.Actor().Handle())
	assert.Equal(t, float32(80), e.Actor().Health())
	assert.Equal(t, metadata.PhysicsRigid, engine.Physics(6))

	assert.ErrorIs(t, d.Remove(6, true), entity.ErrForcedActorRemoval)

	rebound, ok := engine.RebindActor(6)
	require.True(t, ok)
	require.NoError(t, m.Reload())

	require.NoError(t, m.Do(func(d *Domain) error {
		e, err := d.Entity(6)
		require.NoError(t, err)
		assert.Equal(t, rebound, e.Actor().Handle())
		v, _ := e.PropertyValue("Alertness")
		assert.Equal(t, 0.5, v)
		return nil
	}))
}

func TestLuaScriptErrorsFailSetup(t *testing.T) {
	cases := map[string]string{
		"syntax":        "entity.register{ name = ",
		"runtime":       "error('broken')",
		"missing name":  "entity.register{ category = 'x' }",
		"bad kind":      "entity.register{ name = 'X', properties = {{name = 'A', kind = 'banana'}} }",
		"bad physics":   "entity.register{ name = 'X', physics = 'jelly' }",
		"bad vector":    "entity.register{ name = 'X', properties = {{name = 'A', default = {1, 2}}} }",
		"bad default":   "entity.register{ name = 'X', properties = {{name = 'A', kind = 'int', default = 'many'}} }",
		"duplicate":     "entity.register{ name = 'X' } entity.register{ name = 'X' }",
		"not a table":   "entity.register('X')",
		"bad port list": "entity.register{ name = 'X', ports = 'Open' }",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeScript(t, root, "broken.lua", body)
			m, _ := luaManager(t, root)
			err := m.Initialize("")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrScript)
			assert.Equal(t, StateUnloaded, m.State())
		})
	}
}

func TestLuaMissingRootIsEmpty(t *testing.T) {
	m, _ := luaManager(t, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, m.Initialize(""))
	types, err := m.Domain().Types()
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestLuaStateDroppedWithDomain(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "door.lua", doorScript)
	m, _ := luaManager(t, root)
	require.NoError(t, m.Initialize(""))

	d := m.Domain()
	e, err := d.Create("Door", 1, "")
	require.NoError(t, err)
	_, err = d.Spawn(1)
	require.NoError(t, err)

	require.NoError(t, m.Reload())
	assert.Nil(t, d.lua)

	// the old instance can no longer reach its scripts
	err = e.SetPropertyValue("Speed", property.KindFloat, "1")
	assert.ErrorIs(t, err, entity.ErrIndexClosed)
	obj := e.Object().(*luaObject)
	_, err = obj.typ.runtime.call("Door", "on_property", nil, nil)
	assert.ErrorIs(t, err, ErrDomainUnloaded)
}
