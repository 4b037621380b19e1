package script

import (
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/zeusync/scripthost/internal/core/entity"
	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

// luaObject is the script object behind an instance of a Lua-declared type.
type luaObject struct {
	typ    *luaType
	id     native.EntityID
	values map[string]any
}

type luaType struct {
	name    string
	runtime *luaRuntime
	setters bool
}

func (o *luaObject) Bind(e *entity.Entity) { o.id = e.ID() }

func (o *luaObject) OnSpawn(e *entity.Entity) error {
	_, err := o.typ.runtime.call(o.typ.name, "on_spawn", []any{o.id}, nil)
	return err
}

// OnRemove returns the script's verdict; a callback returning nothing allows removal.
func (o *luaObject) OnRemove(e *entity.Entity) bool {
	allowed := true
	_, err := o.typ.runtime.call(o.typ.name, "on_remove", []any{e.ID()}, func(state *lua.State) {
		if state.TypeOf(-1) == lua.TypeBoolean {
			allowed = state.ToBoolean(-1)
		}
	})
	if err != nil {
		o.typ.runtime.logger.Warn("remove callback failed", log.Entity(uint32(e.ID())), log.Error(err))
	}
	return allowed
}

var physicsNames = map[string]metadata.PhysicsType{
	"none":   metadata.PhysicsNone,
	"static": metadata.PhysicsStatic,
	"rigid":  metadata.PhysicsRigid,
	"living": metadata.PhysicsLiving,
}

// describe turns the definition table at index into a type descriptor.
func (rt *luaRuntime) describe(state *lua.State, index int, caps metadata.Capabilities) (*metadata.TypeDescriptor, error) {
	index = state.AbsIndex(index)
	name, ok := fieldString(state, index, "name")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: definition needs a name", ErrInvalidType)
	}

	lt := &luaType{name: name, runtime: rt, setters: hasFunction(state, index, "on_property")}
	desc := &metadata.TypeDescriptor{
		Name:         name,
		Capabilities: caps,
		Physics:      metadata.PhysicsStatic,
		New: func() any {
			return &luaObject{typ: lt, values: make(map[string]any)}
		},
	}

	ann := &metadata.EntityAnnotation{Flags: metadata.ClassScriptDefined}
	ann.Name, _ = fieldString(state, index, "label")
	ann.Category, _ = fieldString(state, index, "category")
	ann.Icon, _ = fieldString(state, index, "icon")
	ann.EditorHelper, _ = fieldString(state, index, "helper")
	if flags, ok := fieldNumber(state, index, "flags"); ok {
		ann.Flags |= metadata.ClassFlags(flags)
	}
	desc.Entity = ann

	if physics, ok := fieldString(state, index, "physics"); ok {
		kind, known := physicsNames[strings.ToLower(physics)]
		if !known {
			return nil, fmt.Errorf("%w: %s: unknown physics %q", ErrInvalidType, name, physics)
		}
		desc.Physics = kind
	}

	ports, err := stringList(state, index, "ports")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidType, name, err)
	}
	desc.Ports = ports

	if desc.Members, err = rt.members(state, index, lt); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidType, name, err)
	}

	if hasFunction(state, index, "on_init") {
		desc.Init = func() error {
			_, err := rt.call(name, "on_init", nil, nil)
			return err
		}
	}
	return desc, nil
}

func (rt *luaRuntime) members(state *lua.State, index int, lt *luaType) ([]metadata.Member, error) {
	state.Field(index, "properties")
	defer state.Pop(1)
	if state.IsNil(-1) {
		return nil, nil
	}
	if !state.IsTable(-1) {
		return nil, fmt.Errorf("properties must be a list")
	}

	list := state.AbsIndex(-1)
	n := state.RawLength(list)
	members := make([]metadata.Member, 0, n)
	for i := 1; i <= n; i++ {
		state.RawGetInt(list, i)
		m, err := rt.member(state, -1, lt)
		state.Pop(1)
		if err != nil {
			return nil, fmt.Errorf("property %d: %w", i, err)
		}
		members = append(members, m)
	}
	return members, nil
}

func (rt *luaRuntime) member(state *lua.State, index int, lt *luaType) (metadata.Member, error) {
	if !state.IsTable(index) {
		return metadata.Member{}, fmt.Errorf("property must be a table")
	}
	index = state.AbsIndex(index)
	name, ok := fieldString(state, index, "name")
	if !ok || name == "" {
		return metadata.Member{}, fmt.Errorf("property needs a name")
	}

	editor := &metadata.EditorProperty{}
	editor.Description, _ = fieldString(state, index, "description")
	editor.Min, _ = fieldNumber(state, index, "min")
	editor.Max, _ = fieldNumber(state, index, "max")
	if flags, ok := fieldNumber(state, index, "flags"); ok {
		editor.Flags = property.Flags(flags)
	}

	// "default" wins over "value"
	state.Field(index, "default")
	if state.IsNil(-1) {
		state.Pop(1)
		state.Field(index, "value")
	}
	defer state.Pop(1)

	var kind property.Kind
	if text, ok := fieldString(state, index, "kind"); ok {
		k, err := property.ParseKind(text)
		if err != nil {
			return metadata.Member{}, fmt.Errorf("%s: %w", name, err)
		}
		kind = k
	} else {
		kind = inferKind(state, -1)
	}
	editor.Type = kind

	def, err := defaultValue(state, -1, kind)
	if err != nil {
		return metadata.Member{}, fmt.Errorf("%s: %w", name, err)
	}
	editor.Default = def

	switch {
	case kind == property.KindInt:
		return luaMember[int](lt, name, editor), nil
	case kind == property.KindFloat:
		return luaMember[float64](lt, name, editor), nil
	case kind == property.KindBool:
		return luaMember[bool](lt, name, editor), nil
	case kind.IsVector():
		return luaMember[property.Vec3](lt, name, editor), nil
	default:
		return luaMember[string](lt, name, editor), nil
	}
}

func inferKind(state *lua.State, index int) property.Kind {
	switch state.TypeOf(index) {
	case lua.TypeNumber:
		return property.KindFloat
	case lua.TypeBoolean:
		return property.KindBool
	case lua.TypeTable:
		return property.KindVec3
	default:
		return property.KindString
	}
}

// defaultValue converts the Lua default at index. Text defaults go through the converter.
func defaultValue(state *lua.State, index int, kind property.Kind) (any, error) {
	switch state.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		return n, nil
	case lua.TypeBoolean:
		return state.ToBoolean(index), nil
	case lua.TypeTable:
		return toVec3(state, index)
	case lua.TypeString:
		text, _ := state.ToString(index)
		v, ok, err := property.Parse(kind, text)
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported default of type %s", lua.TypeNameOf(state, index))
	}
}

// luaMember declares a property stored on the luaObject. When the type defines
// on_property the script sees every assignment first and may reject it by raising an error.
func luaMember[V any](lt *luaType, name string, editor *metadata.EditorProperty) metadata.Member {
	return metadata.Property(name,
		func(o *luaObject) V {
			v, _ := o.values[name].(V)
			return v
		},
		func(o *luaObject, v V) error {
			if lt.setters {
				if _, err := lt.runtime.call(lt.name, "on_property", []any{o.id, name, v}, nil); err != nil {
					return err
				}
			}
			o.values[name] = v
			return nil
		},
		editor,
	)
}

func stringList(state *lua.State, index int, key string) ([]string, error) {
	state.Field(index, key)
	defer state.Pop(1)
	if state.IsNil(-1) {
		return nil, nil
	}
	if !state.IsTable(-1) {
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}

	list := state.AbsIndex(-1)
	n := state.RawLength(list)
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		state.RawGetInt(list, i)
		s, ok := state.ToString(-1)
		state.Pop(1)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not a string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}
