package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/models"
	"github.com/zeusync/scripthost/internal/core/native"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/property"
	"github.com/zeusync/scripthost/internal/core/script"
	"github.com/zeusync/scripthost/internal/server"
)

func startConsole(t *testing.T, token string) (string, *native.Memory) {
	t.Helper()
	events := bus.New()
	engine := native.NewMemory()
	manager := script.NewManager(script.Options{DefaultRoot: t.TempDir()},
		script.NewLoaderFactory(models.Builtin), engine, events, log.Nop())
	require.NoError(t, manager.Initialize(""))

	console := server.NewConsole(server.Options{Token: token}, manager, events, log.Nop())
	require.NoError(t, console.Subscribe())
	s := httptest.NewServer(console.Handler())
	t.Cleanup(s.Close)
	return strings.TrimPrefix(s.URL, "http://"), engine
}

func connect(t *testing.T, addr, token string) *Client {
	t.Helper()
	c := NewClient(Config{ServerAddr: addr, Token: token, CommandTimeout: 5 * time.Second})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientCommands(t *testing.T) {
	addr, engine := startConsole(t, "tok")
	c := connect(t, addr, "tok")
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.Generation)

	types, err := c.Types(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 3)

	cfg, err := c.Config(ctx, "Box")
	require.NoError(t, err)
	assert.Equal(t, "Box", cfg.Registration.DisplayName)
	mass, ok := cfg.Property("Mass")
	require.True(t, ok)
	assert.Equal(t, property.KindFloat, mass.Type)

	spawned, err := c.Spawn(ctx, "ProximityTrigger", 5, "door_trigger",
		server.PropertyValue{Name: "Radius", Kind: "float", Value: "4"})
	require.NoError(t, err)
	assert.True(t, spawned.FlowNode)

	require.NoError(t, c.SetProperty(ctx, 5, server.PropertyValue{Name: "Enabled", Kind: "bool", Value: "true"}))

	engine.SetWorldPos(5, property.Vec3{4, 5, 6})
	pos, err := c.Position(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{4, 5, 6}, pos.Position)

	require.NoError(t, c.Remove(ctx, 5, false))
	err = c.Remove(ctx, 5, false)
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestClientReceivesEvents(t *testing.T) {
	addr, _ := startConsole(t, "")
	c := connect(t, addr, "")

	var mu sync.Mutex
	var seen []Event
	reloaded := make(chan struct{}, 1)
	c.On(bus.Wildcard, func(e Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})
	c.On(bus.DomainReloaded, func(Event) { reloaded <- struct{}{} })

	status, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.Generation)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload event not received")
	}
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, bus.DomainUnloaded, seen[0].Type)
	assert.Equal(t, uint64(2), seen[len(seen)-1].Generation)
}

func TestClientLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	c := NewClient(Config{})
	assert.ErrorIs(t, c.Connect(ctx), ErrInvalidConfig)
	assert.ErrorIs(t, c.Call(ctx, server.Command{Command: server.CmdStatus}, nil), ErrNotConnected)

	addr, _ := startConsole(t, "secret")
	denied := NewClient(Config{ServerAddr: addr, Token: "wrong"})
	assert.Error(t, denied.Connect(ctx))

	ok := connect(t, addr, "secret")
	assert.ErrorIs(t, ok.Connect(ctx), ErrAlreadyConnected)
	require.NoError(t, ok.Close())
	require.NoError(t, ok.Close())
	assert.ErrorIs(t, ok.Call(ctx, server.Command{Command: server.CmdStatus}, nil), ErrClientClosed)
	assert.ErrorIs(t, ok.Connect(ctx), ErrClientClosed)
}
