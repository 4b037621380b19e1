package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/core/script"
)

// Path is where the console websocket is mounted.
const Path = "/console"

const clientQueue = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options configures the console.
type Options struct {
	Addr           string
	Token          string
	WriteTimeout   time.Duration
	MaxMessageSize int64
	// RateLimit caps commands per client per second; zero disables the limit.
	RateLimit int
}

// DefaultOptions returns the console defaults.
func DefaultOptions() Options {
	return Options{
		Addr:           "127.0.0.1:8090",
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 64 << 10,
	}
}

// Console is the developer websocket endpoint. Clients send commands against the
// script manager and receive every domain event as it is published.
type Console struct {
	opts    Options
	manager *script.Manager
	events  bus.EventBus
	logger  log.Log

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	sub     bus.Subscription
	server  *http.Server
	addr    net.Addr

	chain   chain
	metrics *MetricsMiddleware
}

type client struct {
	id   uuid.UUID
	info ClientInfo
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// NewConsole builds a console with the logging, auth and metrics middlewares, a rate
// limiter when configured, and any extra middlewares.
func NewConsole(opts Options, manager *script.Manager, events bus.EventBus, logger log.Log, extra ...Middleware) *Console {
	defaults := DefaultOptions()
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaults.MaxMessageSize
	}
	logger = logger.Named("console")
	metrics := NewMetricsMiddleware()
	mw := []Middleware{NewLoggingMiddleware(logger), NewAuthMiddleware(opts.Token, logger), metrics}
	if opts.RateLimit > 0 {
		mw = append(mw, NewRateLimitMiddleware(opts.RateLimit, time.Second))
	}
	return &Console{
		opts:    opts,
		manager: manager,
		events:  events,
		logger:  logger,
		clients: make(map[uuid.UUID]*client),
		chain:   newChain(append(mw, extra...)...),
		metrics: metrics,
	}
}

// Handler returns the console routes.
func (c *Console) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, c.handleWebSocket)
	return mux
}

// Subscribe starts forwarding bus events to connected clients. Start calls it.
func (c *Console) Subscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil || c.events == nil {
		return nil
	}
	sub, err := c.events.Subscribe(bus.Wildcard, c.forward)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Start listens on the configured address and serves in the background.
func (c *Console) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.server != nil {
		c.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", c.opts.Addr)
	if err != nil {
		c.mu.Unlock()
		return errors.Join(ErrListenerFailed, err)
	}
	c.server = &http.Server{Handler: c.Handler(), ReadHeaderTimeout: c.opts.WriteTimeout}
	c.addr = listener.Addr()
	server := c.server
	c.mu.Unlock()

	if err = c.Subscribe(); err != nil {
		_ = listener.Close()
		return err
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("console server stopped", log.Error(err))
		}
	}()
	c.logger.Info("console listening", log.String("addr", c.addr.String()))
	return nil
}

// Addr is the bound address once started.
func (c *Console) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.addr == nil {
		return ""
	}
	return c.addr.String()
}

// Stop shuts the server down and disconnects every client.
func (c *Console) Stop(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	sub := c.sub
	c.server, c.sub, c.addr = nil, nil, nil
	clients := make([]*client, 0, len(c.clients))
	for _, cl := range c.clients {
		clients = append(clients, cl)
	}
	c.mu.Unlock()

	if sub != nil {
		if err := c.events.Unsubscribe(sub); err != nil {
			c.logger.Warn("console unsubscribe failed", log.Error(err))
		}
	}
	for _, cl := range clients {
		cl.close()
	}
	if server == nil {
		return ErrServerNotRunning
	}
	return server.Shutdown(ctx)
}

// Clients is the number of connected clients.
func (c *Console) Clients() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

func (c *Console) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	info := ClientInfo{
		ID:            id.String(),
		RemoteAddress: r.RemoteAddr,
		UserAgent:     r.UserAgent(),
		Token:         r.URL.Query().Get("token"),
		ConnectedAt:   time.Now(),
	}
	if err := c.chain.connect(r.Context(), info); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Warn("websocket upgrade failed", log.Error(err))
		c.chain.disconnect(r.Context(), info, "upgrade failed")
		return
	}
	conn.SetReadLimit(c.opts.MaxMessageSize)

	cl := &client{
		id:   id,
		info: info,
		conn: conn,
		send: make(chan any, clientQueue),
		done: make(chan struct{}),
	}
	c.mu.Lock()
	c.clients[cl.id] = cl
	c.mu.Unlock()

	go c.writeLoop(cl)
	reason := c.readLoop(r.Context(), cl)

	c.mu.Lock()
	delete(c.clients, cl.id)
	c.mu.Unlock()
	cl.close()
	c.chain.disconnect(r.Context(), info, reason)
}

// readLoop serves commands until the connection fails and returns the reason.
func (c *Console) readLoop(ctx context.Context, cl *client) string {
	for {
		var cmd Command
		err := cl.conn.ReadJSON(&cmd)
		if isDecodeError(err) {
			c.enqueue(cl, Reply{Error: fmt.Errorf("%w: %w", ErrInvalidMessage, err).Error()})
			continue
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "closed"
			}
			return err.Error()
		}
		c.enqueue(cl, c.handle(ctx, cl.info, &cmd))
	}
}

func (c *Console) handle(ctx context.Context, info ClientInfo, cmd *Command) Reply {
	start := time.Now()
	var reply Reply
	if err := c.chain.before(ctx, info, cmd); err != nil {
		reply = Reply{Ref: cmd.Ref, Error: err.Error()}
	} else {
		reply = c.dispatch(*cmd)
	}
	c.chain.after(ctx, info, cmd, &reply, time.Since(start))
	return reply
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (c *Console) writeLoop(cl *client) {
	defer func() { _ = cl.conn.Close() }()
	for {
		select {
		case <-cl.done:
			_ = cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteTimeout))
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := cl.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("console write failed", log.String("client_id", cl.info.ID), log.Error(err))
				cl.close()
				return
			}
		}
	}
}

// enqueue never blocks; a client that cannot keep up loses the message.
func (c *Console) enqueue(cl *client, msg any) {
	select {
	case <-cl.done:
	case cl.send <- msg:
	default:
		c.logger.Warn("console client queue full", log.String("client_id", cl.info.ID))
	}
}

// forward runs synchronously inside the publisher, which may hold the manager
// lock, so it only queues messages.
func (c *Console) forward(e bus.Event) error {
	msg := EventMessage{Event: e.Type(), Generation: e.Generation(), Data: e.Data()}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cl := range c.clients {
		c.enqueue(cl, msg)
	}
	return nil
}
