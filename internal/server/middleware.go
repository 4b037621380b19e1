package server

import (
	"context"
	"crypto/subtle"
	"slices"
	"sync"
	"time"

	"github.com/zeusync/scripthost/internal/core/observability/log"
)

// ClientInfo describes one console connection.
type ClientInfo struct {
	ID            string
	RemoteAddress string
	UserAgent     string
	Token         string
	ConnectedAt   time.Time
}

// Middleware observes and may veto console connections and commands.
// Higher priorities run first.
type Middleware interface {
	Name() string
	Priority() uint16
	OnConnect(ctx context.Context, client ClientInfo) error
	OnDisconnect(ctx context.Context, client ClientInfo, reason string)
	BeforeHandle(ctx context.Context, client ClientInfo, cmd *Command) error
	AfterHandle(ctx context.Context, client ClientInfo, cmd *Command, reply *Reply, elapsed time.Duration)
}

type chain []Middleware

func newChain(mw ...Middleware) chain {
	c := slices.Clone(mw)
	slices.SortStableFunc(c, func(a, b Middleware) int { return int(b.Priority()) - int(a.Priority()) })
	return c
}

func (c chain) connect(ctx context.Context, client ClientInfo) error {
	for _, m := range c {
		if err := m.OnConnect(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) disconnect(ctx context.Context, client ClientInfo, reason string) {
	for _, m := range c {
		m.OnDisconnect(ctx, client, reason)
	}
}

func (c chain) before(ctx context.Context, client ClientInfo, cmd *Command) error {
	for _, m := range c {
		if err := m.BeforeHandle(ctx, client, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c chain) after(ctx context.Context, client ClientInfo, cmd *Command, reply *Reply, elapsed time.Duration) {
	for _, m := range c {
		m.AfterHandle(ctx, client, cmd, reply, elapsed)
	}
}

// LoggingMiddleware logs connections and commands.
type LoggingMiddleware struct {
	logger log.Log
}

func NewLoggingMiddleware(logger log.Log) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Name() string     { return "logging" }
func (m *LoggingMiddleware) Priority() uint16 { return 1000 }

func (m *LoggingMiddleware) OnConnect(_ context.Context, client ClientInfo) error {
	m.logger.Info("console client connected",
		log.String("client_id", client.ID),
		log.String("remote_addr", client.RemoteAddress),
		log.String("user_agent", client.UserAgent),
	)
	return nil
}

func (m *LoggingMiddleware) OnDisconnect(_ context.Context, client ClientInfo, reason string) {
	m.logger.Info("console client disconnected",
		log.String("client_id", client.ID),
		log.String("reason", reason),
		log.Duration("duration", time.Since(client.ConnectedAt)),
	)
}

func (m *LoggingMiddleware) BeforeHandle(_ context.Context, client ClientInfo, cmd *Command) error {
	m.logger.Debug("console command",
		log.String("client_id", client.ID),
		log.String("command", cmd.Command),
		log.String("ref", cmd.Ref),
	)
	return nil
}

func (m *LoggingMiddleware) AfterHandle(_ context.Context, client ClientInfo, cmd *Command, reply *Reply, elapsed time.Duration) {
	fields := []log.Field{
		log.String("client_id", client.ID),
		log.String("command", cmd.Command),
		log.Duration("elapsed", elapsed),
	}
	if !reply.OK {
		m.logger.Warn("console command failed", append(fields, log.String("error", reply.Error))...)
		return
	}
	m.logger.Debug("console command handled", fields...)
}

// AuthMiddleware rejects connections without the shared token. An empty token allows everyone.
type AuthMiddleware struct {
	token  string
	logger log.Log
}

func NewAuthMiddleware(token string, logger log.Log) *AuthMiddleware {
	return &AuthMiddleware{token: token, logger: logger}
}

func (m *AuthMiddleware) Name() string     { return "auth" }
func (m *AuthMiddleware) Priority() uint16 { return 900 }

func (m *AuthMiddleware) OnConnect(_ context.Context, client ClientInfo) error {
	if m.token == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(client.Token), []byte(m.token)) != 1 {
		m.logger.Warn("console connection rejected",
			log.String("client_id", client.ID),
			log.String("remote_addr", client.RemoteAddress),
		)
		return ErrUnauthorized
	}
	return nil
}

func (m *AuthMiddleware) OnDisconnect(context.Context, ClientInfo, string) {}

func (m *AuthMiddleware) BeforeHandle(context.Context, ClientInfo, *Command) error { return nil }

func (m *AuthMiddleware) AfterHandle(context.Context, ClientInfo, *Command, *Reply, time.Duration) {}

// RateLimitMiddleware allows at most limit commands per client in each window.
type RateLimitMiddleware struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientRateLimit
}

type clientRateLimit struct {
	count int
	start time.Time
}

func NewRateLimitMiddleware(limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientRateLimit),
	}
}

func (m *RateLimitMiddleware) Name() string     { return "rate_limit" }
func (m *RateLimitMiddleware) Priority() uint16 { return 800 }

func (m *RateLimitMiddleware) OnConnect(_ context.Context, client ClientInfo) error {
	m.mu.Lock()
	m.clients[client.ID] = &clientRateLimit{start: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *RateLimitMiddleware) OnDisconnect(_ context.Context, client ClientInfo, _ string) {
	m.mu.Lock()
	delete(m.clients, client.ID)
	m.mu.Unlock()
}

func (m *RateLimitMiddleware) BeforeHandle(_ context.Context, client ClientInfo, _ *Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	limit, ok := m.clients[client.ID]
	if !ok {
		limit = &clientRateLimit{start: now}
		m.clients[client.ID] = limit
	}
	if now.Sub(limit.start) >= m.window {
		limit.count = 0
		limit.start = now
	}
	if limit.count >= m.limit {
		return ErrRateLimited
	}
	limit.count++
	return nil
}

func (m *RateLimitMiddleware) AfterHandle(context.Context, ClientInfo, *Command, *Reply, time.Duration) {}

// CommandStats aggregates the outcome of one console command.
type CommandStats struct {
	Count     int64         `json:"count"`
	Errors    int64         `json:"errors"`
	TotalTime time.Duration `json:"total_time"`
	LastSeen  time.Time     `json:"last_seen"`
}

// MetricsMiddleware counts commands by name.
type MetricsMiddleware struct {
	mu       sync.Mutex
	commands map[string]*CommandStats
}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{commands: make(map[string]*CommandStats)}
}

func (m *MetricsMiddleware) Name() string     { return "metrics" }
func (m *MetricsMiddleware) Priority() uint16 { return 100 }

func (m *MetricsMiddleware) OnConnect(context.Context, ClientInfo) error { return nil }

func (m *MetricsMiddleware) OnDisconnect(context.Context, ClientInfo, string) {}

func (m *MetricsMiddleware) BeforeHandle(context.Context, ClientInfo, *Command) error { return nil }

func (m *MetricsMiddleware) AfterHandle(_ context.Context, _ ClientInfo, cmd *Command, reply *Reply, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.commands[cmd.Command]
	if !ok {
		stats = &CommandStats{}
		m.commands[cmd.Command] = stats
	}
	stats.Count++
	stats.TotalTime += elapsed
	stats.LastSeen = time.Now()
	if !reply.OK {
		stats.Errors++
	}
}

// Snapshot copies the collected stats.
func (m *MetricsMiddleware) Snapshot() map[string]CommandStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]CommandStats, len(m.commands))
	for name, stats := range m.commands {
		out[name] = *stats
	}
	return out
}
