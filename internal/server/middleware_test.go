package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/observability/log"
)

type orderProbe struct {
	name     string
	priority uint16
	seen     *[]string
	veto     error
}

func (p *orderProbe) Name() string     { return p.name }
func (p *orderProbe) Priority() uint16 { return p.priority }

func (p *orderProbe) OnConnect(context.Context, ClientInfo) error {
	*p.seen = append(*p.seen, p.name)
	return p.veto
}

func (p *orderProbe) OnDisconnect(context.Context, ClientInfo, string) {}

func (p *orderProbe) BeforeHandle(context.Context, ClientInfo, *Command) error { return p.veto }

func (p *orderProbe) AfterHandle(context.Context, ClientInfo, *Command, *Reply, time.Duration) {}

func TestChainRunsByPriority(t *testing.T) {
	var seen []string
	c := newChain(
		&orderProbe{name: "low", priority: 1, seen: &seen},
		&orderProbe{name: "high", priority: 10, seen: &seen},
		&orderProbe{name: "mid", priority: 5, seen: &seen, veto: ErrUnauthorized},
	)
	err := c.connect(context.Background(), ClientInfo{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []string{"high", "mid"}, seen)
}

func TestAuthMiddleware(t *testing.T) {
	ctx := context.Background()
	open := NewAuthMiddleware("", log.Nop())
	assert.NoError(t, open.OnConnect(ctx, ClientInfo{}))

	guarded := NewAuthMiddleware("secret", log.Nop())
	assert.ErrorIs(t, guarded.OnConnect(ctx, ClientInfo{Token: "nope"}), ErrUnauthorized)
	assert.ErrorIs(t, guarded.OnConnect(ctx, ClientInfo{}), ErrUnauthorized)
	assert.NoError(t, guarded.OnConnect(ctx, ClientInfo{Token: "secret"}))
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(100, 0)
	m := NewRateLimitMiddleware(2, time.Second)
	m.now = func() time.Time { return now }

	client := ClientInfo{ID: "a"}
	require.NoError(t, m.OnConnect(ctx, client))
	cmd := &Command{Command: CmdStatus}

	assert.NoError(t, m.BeforeHandle(ctx, client, cmd))
	assert.NoError(t, m.BeforeHandle(ctx, client, cmd))
	assert.ErrorIs(t, m.BeforeHandle(ctx, client, cmd), ErrRateLimited)

	// other clients have their own budget
	assert.NoError(t, m.BeforeHandle(ctx, ClientInfo{ID: "b"}, cmd))

	now = now.Add(time.Second)
	assert.NoError(t, m.BeforeHandle(ctx, client, cmd))

	m.OnDisconnect(ctx, client, "closed")
	assert.NotContains(t, m.clients, "a")
}

func TestMetricsMiddleware(t *testing.T) {
	ctx := context.Background()
	m := NewMetricsMiddleware()
	m.AfterHandle(ctx, ClientInfo{}, &Command{Command: CmdSpawn}, &Reply{OK: true}, 2*time.Millisecond)
	m.AfterHandle(ctx, ClientInfo{}, &Command{Command: CmdSpawn}, &Reply{}, 3*time.Millisecond)
	m.AfterHandle(ctx, ClientInfo{}, &Command{Command: CmdStatus}, &Reply{OK: true}, time.Millisecond)

	stats := m.Snapshot()
	require.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[CmdSpawn].Count)
	assert.Equal(t, int64(1), stats[CmdSpawn].Errors)
	assert.Equal(t, 5*time.Millisecond, stats[CmdSpawn].TotalTime)
	assert.Equal(t, int64(0), stats[CmdStatus].Errors)
}
