// Package client provides a Go client for the scripthost developer console.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/internal/core/observability/log"
	"github.com/zeusync/scripthost/internal/server"
)

// Client is one console connection. Commands may be issued concurrently;
// replies are matched by reference.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	nextRef atomic.Uint64

	pendingMu sync.Mutex
	pending   map[string]chan frame

	handlers     map[string][]EventHandler
	handlerMutex sync.RWMutex

	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client.
type Config struct {
	// ServerAddr is host:port of the console.
	ServerAddr     string
	Token          string
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	Logger         log.Log
}

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() Config {
	return Config{
		ServerAddr:     "127.0.0.1:8090",
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 30 * time.Second,
	}
}

// Event is a domain event pushed by the console.
type Event struct {
	Type       string
	Generation uint64
	Data       json.RawMessage
}

// EventHandler receives pushed events on the client's read goroutine.
type EventHandler func(event Event)

type frame struct {
	server.Reply
	Event      string          `json:"event"`
	Generation uint64          `json:"generation"`
	Raw        json.RawMessage `json:"data"`
}

// NewClient creates a client; call Connect before issuing commands.
func NewClient(config Config) *Client {
	defaults := DefaultClientConfig()
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		pending:  make(map[string]chan frame),
		handlers: make(map[string][]EventHandler),
		done:     make(chan struct{}),
		config:   config,
		logger:   logger.With(log.String("component", "console_client")),
	}
}

// Connect dials the console.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.connected.Load() {
		return ErrAlreadyConnected
	}
	if c.config.ServerAddr == "" {
		return fmt.Errorf("%w: empty server address", ErrInvalidConfig)
	}

	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: server.Path}
	if c.config.Token != "" {
		u.RawQuery = url.Values{"token": {c.config.Token}}.Encode()
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		c.logger.Error("Failed to connect to console", log.String("addr", c.config.ServerAddr), log.Error(err))
		return err
	}

	c.conn = conn
	c.connected.Store(true)
	c.workerGroup.Add(1)
	go c.readLoop()

	c.logger.Info("Connected to console", log.String("addr", c.config.ServerAddr))
	return nil
}

// Close closes the connection and fails every pending command.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	var err error
	if c.connected.Load() && c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	}
	c.workerGroup.Wait()
	return err
}

// On registers handler for eventType; bus.Wildcard receives every event.
func (c *Client) On(eventType string, handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// Call sends cmd and waits for its reply. A reply that is not ok becomes an
// error wrapping ErrCommandFailed. out, when set, receives the reply data.
func (c *Client) Call(ctx context.Context, cmd server.Command, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.connected.Load() {
		return ErrNotConnected
	}

	cmd.Ref = strconv.FormatUint(c.nextRef.Add(1), 10)
	wait := make(chan frame, 1)
	c.pendingMu.Lock()
	c.pending[cmd.Ref] = wait
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, cmd.Ref)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(cmd)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", cmd.Command, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.CommandTimeout)
	defer cancel()
	select {
	case f, ok := <-wait:
		if !ok {
			return ErrNotConnected
		}
		if !f.OK {
			return fmt.Errorf("%w: %s: %s", ErrCommandFailed, cmd.Command, f.Error)
		}
		if out != nil && len(f.Raw) > 0 {
			return json.Unmarshal(f.Raw, out)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClientClosed
	}
}

func (c *Client) readLoop() {
	defer c.workerGroup.Done()
	defer c.failPending()
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				c.logger.Warn("Malformed console frame", log.Error(err))
				continue
			}
			c.connected.Store(false)
			if !c.closed.Load() {
				c.logger.Warn("Console connection lost", log.Error(err))
			}
			return
		}
		if f.Event != "" {
			c.emit(Event{Type: f.Event, Generation: f.Generation, Data: f.Raw})
			continue
		}
		c.pendingMu.Lock()
		wait, ok := c.pending[f.Ref]
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Debug("Reply without a pending command", log.String("ref", f.Ref))
			continue
		}
		wait <- f
	}
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for ref, wait := range c.pending {
		close(wait)
		delete(c.pending, ref)
	}
}

func (c *Client) emit(e Event) {
	c.handlerMutex.RLock()
	handlers := append(append([]EventHandler(nil), c.handlers[e.Type]...), c.handlers[bus.Wildcard]...)
	c.handlerMutex.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}
