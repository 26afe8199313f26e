// Package relay serves the real-time chat channel on /ws.
//
// Each frame is a JSON envelope {"event": name, "data": payload}. A "message"
// event is answered with exactly one "response" event on the same connection.
// Message events are handled concurrently, so responses may arrive in a
// different order than the messages that produced them.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/pkg/logger"
	"github.com/sarthi-ai/voicechat/pkg/metrics"
)

const (
	defaultPingInterval = 25 * time.Second
	writeWait           = 10 * time.Second
)

// Replier produces the response for a message event.
type Replier interface {
	Reply(ctx context.Context, in model.MessageEvent) model.ResponseEvent
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, in model.MessageEvent) model.ResponseEvent

// Reply calls f.
func (f ReplierFunc) Reply(ctx context.Context, in model.MessageEvent) model.ResponseEvent {
	return f(ctx, in)
}

// Option configures a Server.
type Option func(*Server)

// WithPingInterval sets how often idle connections are pinged. The read
// deadline is twice the interval.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

// Server upgrades HTTP requests to relay connections.
type Server struct {
	replier      Replier
	logger       *logger.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration

	mu     sync.Mutex
	conns  map[string]*conn
	closed bool

	handlers sync.WaitGroup
}

// NewServer creates a relay server.
func NewServer(replier Replier, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		replier: replier,
		logger:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: defaultPingInterval,
		conns:        make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type conn struct {
	id     string
	ws     *websocket.Conn
	logger *logger.Logger

	writeMu sync.Mutex
}

// emit writes one envelope. Writes on a connection are serialized.
func (c *conn) emit(event string, payload any) error {
	data, err := model.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// ServeHTTP handles GET /ws.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("relay upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &conn{
		id:     id,
		ws:     ws,
		logger: s.logger.WithConnection(id, r.RemoteAddr),
	}

	if !s.track(c) {
		ws.Close()
		return
	}
	defer s.untrack(c)

	metrics.IncrementRelayConnections()
	defer metrics.DecrementRelayConnections()

	c.logger.Info("relay connection opened")
	defer c.logger.Info("relay connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.pingLoop(ctx, c)
	s.readLoop(ctx, c)
}

func (s *Server) readLoop(ctx context.Context, c *conn) {
	defer c.ws.Close()

	readWait := 2 * s.pingInterval
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("relay read failed", zap.Error(err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(readWait))

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("ignoring malformed frame", zap.Error(err))
			metrics.RelayEventsTotal.WithLabelValues("malformed").Inc()
			continue
		}

		switch env.Event {
		case model.EventMessage:
			metrics.RelayEventsTotal.WithLabelValues(model.EventMessage).Inc()

			var msg model.MessageEvent
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				c.logger.Warn("ignoring malformed message event", zap.Error(err))
				continue
			}
			if !s.startHandler() {
				continue
			}
			go s.handleMessage(ctx, c, msg)
		default:
			metrics.RelayEventsTotal.WithLabelValues("unknown").Inc()
			c.logger.Debug("ignoring unknown event", zap.String("event", env.Event))
		}
	}
}

// handleMessage runs the reply to completion even if the client goes away
// first. Only the emit depends on the connection.
func (s *Server) handleMessage(ctx context.Context, c *conn, msg model.MessageEvent) {
	defer s.handlers.Done()

	resp := s.replier.Reply(context.WithoutCancel(ctx), msg)

	if err := c.emit(model.EventResponse, resp); err != nil {
		c.logger.Warn("failed to emit response", zap.Error(err))
	}
}

func (s *Server) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("relay ping failed", zap.Error(err))
				c.ws.Close()
				return
			}
		}
	}
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	return true
}

// startHandler registers a message handler unless the server is closed.
func (s *Server) startHandler() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close sends a going-away close frame to every connection, closes them and
// refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.ws.Close()
	}
}

// Shutdown closes the server and waits for in-flight message handlers to
// return, or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
