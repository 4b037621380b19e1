package script

import (
	"errors"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
)

// definitionsGlobal holds every registered definition table keyed by type name.
const definitionsGlobal = "__entity_types"

// luaRuntime exposes the host API to the scripts of one domain and calls back into them.
type luaRuntime struct {
	domain *Domain
	logger log.Log
}

func newLuaRuntime(d *Domain) (*luaRuntime, error) {
	rt := &luaRuntime{domain: d, logger: d.Logger().Named("lua")}
	state, err := rt.state()
	if err != nil {
		return nil, err
	}

	state.NewTable()
	state.SetGlobal(definitionsGlobal)

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "register", Function: rt.register(metadata.CapEditorProperties)},
	}, 0)
	state.SetGlobal("entity")

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "register", Function: rt.register(metadata.CapEditorProperties | metadata.CapActor)},
	}, 0)
	state.SetGlobal("actor")

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "debug", Function: rt.log(rt.logger.Debug)},
		{Name: "info", Function: rt.log(rt.logger.Info)},
		{Name: "warn", Function: rt.log(rt.logger.Warn)},
		{Name: "error", Function: rt.log(rt.logger.Error)},
	}, 0)
	state.SetGlobal("log")

	state.NewTable()
	state.PushString(d.Name())
	state.SetField(-2, "name")
	state.PushInteger(int(d.Generation()))
	state.SetField(-2, "generation")
	state.PushString(d.Root())
	state.SetField(-2, "root")
	state.SetGlobal("domain")

	return rt, nil
}

func (rt *luaRuntime) state() (*lua.State, error) {
	if err := rt.domain.check(); err != nil {
		return nil, err
	}
	return rt.domain.lua, nil
}

// run executes one script file.
func (rt *luaRuntime) run(path string) error {
	state, err := rt.state()
	if err != nil {
		return err
	}
	if err = lua.LoadFile(state, path, ""); err != nil {
		return fmt.Errorf("%w: load %s: %w", ErrScript, path, err)
	}
	if err = state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("%w: run %s: %w", ErrScript, path, err)
	}
	return nil
}

func (rt *luaRuntime) log(write func(string, ...log.Field)) lua.Function {
	return func(state *lua.State) int {
		write(lua.CheckString(state, 1))
		return 0
	}
}

func (rt *luaRuntime) register(caps metadata.Capabilities) lua.Function {
	return func(state *lua.State) int {
		lua.CheckType(state, 1, lua.TypeTable)
		desc, err := rt.describe(state, 1, caps)
		if err != nil {
			lua.Errorf(state, "%s", err.Error())
			return 0
		}

		state.Global(definitionsGlobal)
		state.PushValue(1)
		state.SetField(-2, desc.Name)
		state.Pop(1)

		if err = rt.domain.RegisterType(desc); err != nil {
			lua.Errorf(state, "%s", err.Error())
		}
		return 0
	}
}

// call invokes typeName's callback with args. It reports false when the type
// defines no such callback. read, when set, sees the single result at index -1.
func (rt *luaRuntime) call(typeName, callback string, args []any, read func(*lua.State)) (bool, error) {
	state, err := rt.state()
	if err != nil {
		return false, err
	}
	top := state.Top()
	defer state.SetTop(top)

	state.Global(definitionsGlobal)
	if !state.IsTable(-1) {
		return false, nil
	}
	state.Field(-1, typeName)
	if !state.IsTable(-1) {
		return false, nil
	}
	state.Field(-1, callback)
	if !state.IsFunction(-1) {
		return false, nil
	}
	for _, arg := range args {
		pushValue(state, arg)
	}
	if err = state.ProtectedCall(len(args), 1, 0); err != nil {
		return true, fmt.Errorf("%w: %s.%s: %w", ErrScriptCallback, typeName, callback, err)
	}
	if read != nil {
		read(state)
	}
	return true, nil
}

func pushValue(state *lua.State, v any) {
	switch v := v.(type) {
	case nil:
		state.PushNil()
	case string:
		state.PushString(v)
	case bool:
		state.PushBoolean(v)
	case int:
		state.PushInteger(v)
	case native.EntityID:
		state.PushInteger(int(v))
	case float64:
		state.PushNumber(v)
	case float32:
		state.PushNumber(float64(v))
	case property.Vec3:
		state.CreateTable(3, 0)
		for i, c := range v {
			state.PushNumber(c)
			state.RawSetInt(-2, i+1)
		}
	default:
		state.PushString(fmt.Sprint(v))
	}
}

func fieldString(state *lua.State, index int, key string) (string, bool) {
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeString {
		return "", false
	}
	s, ok := state.ToString(-1)
	return s, ok
}

func fieldNumber(state *lua.State, index int, key string) (float64, bool) {
	state.Field(index, key)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeNumber {
		return 0, false
	}
	return state.ToNumber(-1)
}

func hasFunction(state *lua.State, index int, key string) bool {
	state.Field(index, key)
	defer state.Pop(1)
	return state.IsFunction(-1)
}

// toVec3 reads a {x, y, z} array table.
func toVec3(state *lua.State, index int) (property.Vec3, error) {
	var v property.Vec3
	index = state.AbsIndex(index)
	if state.RawLength(index) != 3 {
		return v, errors.New("vector must have exactly three components")
	}
	for i := range v {
		state.RawGetInt(index, i+1)
		n, ok := state.ToNumber(-1)
		state.Pop(1)
		if !ok {
			return v, fmt.Errorf("vector component %d is not a number", i+1)
		}
		v[i] = n
	}
	return v, nil
}
