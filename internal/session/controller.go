// Package session implements the client-side chat session: the message list,
// the input box, the system prompt and the glue between the voice adapter and
// the relay.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/internal/voice"
	"github.com/sarthi-ai/voicechat/pkg/logger"
)

// DefaultSystemPrompt is the assistant persona used until the user changes it.
const DefaultSystemPrompt = "You are a helpful, witty, and intelligent Hindi assistant. You answer primarily in Hindi, using English words only when necessary for technical terms. Your name is 'Sarthi'. Keep answers concise."

// Phase is the coarse UI state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListening
	PhaseAwaitingResponse
	PhaseSpeaking
)

func (p Phase) String() string {
	switch p {
	case PhaseListening:
		return "listening"
	case PhaseAwaitingResponse:
		return "awaiting-response"
	case PhaseSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// Relay sends message events to the server.
type Relay interface {
	Emit(ctx context.Context, ev model.MessageEvent) error
	Connected() bool
}

// History loads stored exchanges.
type History interface {
	List(ctx context.Context) ([]model.Conversation, error)
}

// Voice is the part of voice.Adapter the controller drives.
type Voice interface {
	State() voice.State
	Subscribe(fn func(voice.State)) func()
	StartListening()
	StopListening()
	Speak(text string)
	CancelSpeech()
	ResetTranscript()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now for live message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Controller) {
		if prompt != "" {
			c.systemPrompt = prompt
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		c.logger = log
	}
}

// Controller is a chat session. It is safe for concurrent use.
type Controller struct {
	voice  Voice
	relay  Relay
	logger *logger.Logger
	now    func() time.Time

	mu             sync.Mutex
	messages       []model.Message
	input          string
	systemPrompt   string
	pending        int
	loaded         bool
	transcriptSent bool
	onMessage      []func(model.Message)

	unsubscribe func()
}

// New creates a controller. relay may be nil, in which case sends are
// dropped.
func New(v Voice, relay Relay, opts ...Option) *Controller {
	c := &Controller{
		voice:        v,
		relay:        relay,
		logger:       logger.NewNop(),
		now:          time.Now,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = v.Subscribe(c.onVoice)
	return c
}

// Close detaches the controller from the voice adapter.
func (c *Controller) Close() {
	c.unsubscribe()
}

// OnMessage registers fn for every live message appended to the session.
func (c *Controller) OnMessage(fn func(model.Message)) {
	c.mu.Lock()
	c.onMessage = append(c.onMessage, fn)
	c.mu.Unlock()
}

// Load seeds the message list from history. Only the first successful call
// has an effect. History is placed before any live messages.
func (c *Controller) Load(ctx context.Context, history History) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	records, err := history.List(ctx)
	if err != nil {
		c.logger.Warn("failed to load history", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	c.loaded = true
	c.messages = append(model.ExpandHistory(records), c.messages...)
	return nil
}

// Messages returns a copy of the message list.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.messages...)
}

// Input returns the typed input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the typed input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// SystemPrompt returns the prompt sent with every message.
func (c *Controller) SystemPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.systemPrompt
}

// SetSystemPrompt changes the prompt for subsequent messages.
func (c *Controller) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	c.systemPrompt = prompt
	c.mu.Unlock()
}

// Phase derives the current phase. Speaking overlays the others.
func (c *Controller) Phase() Phase {
	st := c.voice.State()
	switch {
	case st.IsSpeaking:
		return PhaseSpeaking
	case st.IsListening:
		return PhaseListening
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending > 0 {
		return PhaseAwaitingResponse
	}
	return PhaseIdle
}

// ToggleMic stops listening, or silences speech and starts listening.
func (c *Controller) ToggleMic() {
	if c.voice.State().IsListening {
		c.voice.StopListening()
		return
	}
	c.voice.CancelSpeech()
	c.voice.StartListening()
}

// CancelSpeech silences the current reply.
func (c *Controller) CancelSpeech() {
	c.voice.CancelSpeech()
}

// Submit sends the typed input.
func (c *Controller) Submit(ctx context.Context) {
	c.Send(ctx, c.Input())
}

// Send appends a user message and emits it with the current system prompt.
// Blank text is ignored, and nothing happens without a relay.
func (c *Controller) Send(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if c.relay == nil || !c.relay.Connected() {
		c.logger.Debug("dropping message without relay connection")
		return
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.input = ""
	c.pending++
	prompt := c.systemPrompt
	observers := c.onMessage
	c.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}

	if err := c.relay.Emit(ctx, model.MessageEvent{Text: text, SystemPrompt: prompt}); err != nil {
		c.logger.Warn("failed to emit message", zap.Error(err))
		c.mu.Lock()
		if c.pending > 0 {
			c.pending--
		}
		c.mu.Unlock()
	}
}

// HandleResponse appends the AI reply and speaks it.
func (c *Controller) HandleResponse(ev model.ResponseEvent) {
	msg := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAI,
		Text:      ev.Text,
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	if c.pending > 0 {
		c.pending--
	}
	observers := c.onMessage
	c.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}

	c.voice.Speak(ev.Text)
}

// onVoice sends the final transcript once recognition has ended.
func (c *Controller) onVoice(st voice.State) {
	c.mu.Lock()
	if st.IsListening {
		c.transcriptSent = false
		c.mu.Unlock()
		return
	}
	if st.Transcript == "" || c.transcriptSent {
		c.mu.Unlock()
		return
	}
	c.transcriptSent = true
	c.mu.Unlock()

	c.Send(context.Background(), st.Transcript)
	c.voice.ResetTranscript()
}
