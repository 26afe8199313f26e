package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/pkg/logger"
)

// ErrNotConnected is returned by Emit when the relay connection is gone.
var ErrNotConnected = errors.New("relay not connected")

const writeWait = 10 * time.Second

// RelayClient is one relay connection. There is no reconnection: once the
// connection drops every Emit fails with ErrNotConnected.
type RelayClient struct {
	logger *logger.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// Dial connects to the relay at url (e.g. ws://localhost:5000/ws).
func Dial(ctx context.Context, url string, log *logger.Logger) (*RelayClient, error) {
	if log == nil {
		log = logger.NewNop()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	return &RelayClient{
		logger: log,
		ws:     ws,
	}, nil
}

// Emit sends a message event.
func (c *RelayClient) Emit(ctx context.Context, ev model.MessageEvent) error {
	data, err := model.NewEnvelope(model.EventMessage, ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.ws.SetWriteDeadline(deadline)

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closed = true
		c.ws.Close()
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Connected reports whether the connection is still open.
func (c *RelayClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Listen reads frames until the connection closes or ctx ends, calling fn
// for every response event. Other frames are skipped.
func (c *RelayClient) Listen(ctx context.Context, fn func(model.ResponseEvent)) error {
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			wasClosed := c.markClosed()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if wasClosed || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read relay frame: %w", err)
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("ignoring malformed frame", zap.Error(err))
			continue
		}
		if env.Event != model.EventResponse {
			continue
		}

		var resp model.ResponseEvent
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			c.logger.Warn("ignoring malformed response", zap.Error(err))
			continue
		}
		fn(resp)
	}
}

// markClosed closes the connection after a read failure and reports whether
// Close had already been called.
func (c *RelayClient) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	c.closed = true
	c.ws.Close()
	return false
}

// Close sends a normal close frame and closes the connection.
func (c *RelayClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
