package voice

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/pkg/logger"
)

// State is the observable adapter state.
type State struct {
	IsListening       bool
	IsSpeaking        bool
	Transcript        string
	InterimTranscript string
	Error             string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLanguage overrides DefaultLanguage.
func WithLanguage(lang string) Option {
	return func(a *Adapter) {
		if lang != "" {
			a.language = lang
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *Adapter) {
		a.logger = log
	}
}

// Adapter drives an Engine and tracks listening/speaking state.
//
// Observers are notified after the internal lock is released and only when
// the state actually changed. Synthesis callbacks belonging to a cancelled or
// superseded utterance are dropped.
type Adapter struct {
	engine   Engine
	language string
	logger   *logger.Logger

	mu        sync.Mutex
	state     State
	starting  bool
	speechGen uint64
	observers map[int]func(State)
	nextObsID int
}

// NewAdapter creates an adapter. A nil engine yields an adapter on which
// every operation is a no-op.
func NewAdapter(engine Engine, opts ...Option) *Adapter {
	a := &Adapter{
		engine:    engine,
		language:  DefaultLanguage,
		logger:    logger.NewNop(),
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Supported reports whether an engine is available.
func (a *Adapter) Supported() bool {
	return a.engine != nil
}

// State returns a snapshot.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (a *Adapter) Subscribe(fn func(State)) func() {
	a.mu.Lock()
	id := a.nextObsID
	a.nextObsID++
	a.observers[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

// update applies fn under the lock and notifies observers on change. fn may
// also touch the adapter's unexported fields.
func (a *Adapter) update(fn func(*State)) {
	a.mu.Lock()
	before := a.state
	fn(&a.state)
	after := a.state

	var observers []func(State)
	if after != before {
		observers = make([]func(State), 0, len(a.observers))
		for _, o := range a.observers {
			observers = append(observers, o)
		}
	}
	a.mu.Unlock()

	for _, o := range observers {
		o(after)
	}
}

// StartListening begins a single-utterance recognition session with interim
// results. It does nothing while already listening.
func (a *Adapter) StartListening() {
	if a.engine == nil {
		return
	}

	proceed := false
	a.update(func(s *State) {
		if s.IsListening || a.starting {
			return
		}
		a.starting = true
		proceed = true
		s.Transcript = ""
		s.InterimTranscript = ""
	})
	if !proceed {
		return
	}

	err := a.engine.StartRecognition(RecognitionConfig{
		Language:       a.language,
		Continuous:     false,
		InterimResults: true,
	}, recognition{a})
	if err != nil {
		a.logger.Warn("failed to start recognition", zap.Error(err))
		a.update(func(s *State) {
			a.starting = false
			s.IsListening = false
			s.Error = err.Error()
		})
	}
}

// StopListening ends the current recognition session, if any.
func (a *Adapter) StopListening() {
	if a.engine == nil {
		return
	}

	a.mu.Lock()
	active := a.state.IsListening || a.starting
	a.mu.Unlock()

	if active {
		a.engine.StopRecognition()
	}
}

// ResetTranscript clears both transcript fields.
func (a *Adapter) ResetTranscript() {
	a.update(func(s *State) {
		s.Transcript = ""
		s.InterimTranscript = ""
	})
}

// Speak cancels any current utterance and speaks text.
func (a *Adapter) Speak(text string) {
	if a.engine == nil {
		return
	}

	var gen uint64
	a.update(func(*State) {
		a.speechGen++
		gen = a.speechGen
	})

	a.engine.CancelSynthesis()

	err := a.engine.Synthesize(Utterance{
		Text:     text,
		Language: a.language,
		Rate:     1.0,
		Pitch:    1.0,
	}, utterance{a: a, gen: gen})
	if err != nil {
		a.logger.Warn("failed to synthesize speech", zap.Error(err))
		a.setSpeaking(gen, false)
	}
}

// CancelSpeech stops synthesis and forces IsSpeaking off.
func (a *Adapter) CancelSpeech() {
	if a.engine == nil {
		return
	}

	a.update(func(s *State) {
		a.speechGen++
		s.IsSpeaking = false
	})
	a.engine.CancelSynthesis()
}

func (a *Adapter) setSpeaking(gen uint64, speaking bool) {
	a.update(func(s *State) {
		if gen == a.speechGen {
			s.IsSpeaking = speaking
		}
	})
}

type recognition struct {
	a *Adapter
}

func (r recognition) RecognitionStarted() {
	r.a.update(func(s *State) {
		r.a.starting = false
		s.IsListening = true
		s.Error = ""
	})
}

func (r recognition) RecognitionResult(ev RecognitionEvent) {
	var final, interim strings.Builder
	hasFinal := false

	start := ev.ResultIndex
	if start < 0 {
		start = 0
	}
	for i := start; i < len(ev.Results); i++ {
		res := ev.Results[i]
		if res.Final {
			final.WriteString(res.Transcript)
			hasFinal = true
		} else {
			interim.WriteString(res.Transcript)
		}
	}

	r.a.update(func(s *State) {
		if hasFinal {
			s.Transcript = final.String()
		}
		s.InterimTranscript = interim.String()
	})
}

func (r recognition) RecognitionError(code string) {
	r.a.logger.Debug("recognition error", zap.String("code", code))

	r.a.update(func(s *State) {
		r.a.starting = false
		s.Error = code
		s.IsListening = false
	})
}

func (r recognition) RecognitionEnded() {
	r.a.update(func(s *State) {
		r.a.starting = false
		s.IsListening = false
	})
}

type utterance struct {
	a   *Adapter
	gen uint64
}

func (u utterance) SynthesisStarted() {
	u.a.setSpeaking(u.gen, true)
}

func (u utterance) SynthesisEnded() {
	u.a.setSpeaking(u.gen, false)
}

func (u utterance) SynthesisError(code string) {
	u.a.logger.Debug("synthesis error", zap.String("code", code))
	u.a.setSpeaking(u.gen, false)
}
