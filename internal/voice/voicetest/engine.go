// Package voicetest provides a voice.Engine for tests that never touches
// audio hardware.
package voicetest

import (
	"sync"

	"github.com/sarthi-ai/voicechat/internal/voice"
)

// Engine records calls and lets tests fire engine callbacks.
// StopRecognition fires RecognitionEnded on the active session the way a
// real recognizer does; every other callback is fired explicitly.
type Engine struct {
	// StartErr and SynthesizeErr, when set, are returned by the matching call.
	StartErr      error
	SynthesizeErr error

	mu          sync.Mutex
	configs     []voice.RecognitionConfig
	recognizer  voice.RecognitionHandler
	utterances  []voice.Utterance
	synthesis   []voice.SynthesisHandler
	stopCalls   int
	cancelCalls int
}

var _ voice.Engine = (*Engine)(nil)

// StartRecognition implements voice.Engine.
func (e *Engine) StartRecognition(cfg voice.RecognitionConfig, h voice.RecognitionHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configs = append(e.configs, cfg)
	if e.StartErr != nil {
		return e.StartErr
	}
	e.recognizer = h
	return nil
}

// StopRecognition implements voice.Engine.
func (e *Engine) StopRecognition() {
	e.mu.Lock()
	e.stopCalls++
	h := e.recognizer
	e.recognizer = nil
	e.mu.Unlock()

	if h != nil {
		h.RecognitionEnded()
	}
}

// Synthesize implements voice.Engine.
func (e *Engine) Synthesize(u voice.Utterance, h voice.SynthesisHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.utterances = append(e.utterances, u)
	if e.SynthesizeErr != nil {
		return e.SynthesizeErr
	}
	e.synthesis = append(e.synthesis, h)
	return nil
}

// CancelSynthesis implements voice.Engine.
func (e *Engine) CancelSynthesis() {
	e.mu.Lock()
	e.cancelCalls++
	e.mu.Unlock()
}

func (e *Engine) activeRecognizer() voice.RecognitionHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recognizer
}

// FireStart reports that recognition began.
func (e *Engine) FireStart() {
	if h := e.activeRecognizer(); h != nil {
		h.RecognitionStarted()
	}
}

// FireResult delivers a result event.
func (e *Engine) FireResult(ev voice.RecognitionEvent) {
	if h := e.activeRecognizer(); h != nil {
		h.RecognitionResult(ev)
	}
}

// FireFinal delivers a single final result.
func (e *Engine) FireFinal(text string) {
	e.FireResult(voice.RecognitionEvent{Results: []voice.Result{{Transcript: text, Final: true}}})
}

// FireInterim delivers a single interim result.
func (e *Engine) FireInterim(text string) {
	e.FireResult(voice.RecognitionEvent{Results: []voice.Result{{Transcript: text}}})
}

// FireError reports a recognition error.
func (e *Engine) FireError(code string) {
	if h := e.activeRecognizer(); h != nil {
		h.RecognitionError(code)
	}
}

// FireEnd ends the recognition session.
func (e *Engine) FireEnd() {
	e.mu.Lock()
	h := e.recognizer
	e.recognizer = nil
	e.mu.Unlock()

	if h != nil {
		h.RecognitionEnded()
	}
}

func (e *Engine) utteranceHandler(i int) voice.SynthesisHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 {
		i = len(e.synthesis) + i
	}
	if i < 0 || i >= len(e.synthesis) {
		return nil
	}
	return e.synthesis[i]
}

// FireSpeechStart reports that utterance i started. Negative i counts from
// the end, so -1 is the latest utterance.
func (e *Engine) FireSpeechStart(i int) {
	if h := e.utteranceHandler(i); h != nil {
		h.SynthesisStarted()
	}
}

// FireSpeechEnd reports that utterance i finished.
func (e *Engine) FireSpeechEnd(i int) {
	if h := e.utteranceHandler(i); h != nil {
		h.SynthesisEnded()
	}
}

// FireSpeechError reports that utterance i failed.
func (e *Engine) FireSpeechError(i int, code string) {
	if h := e.utteranceHandler(i); h != nil {
		h.SynthesisError(code)
	}
}

// Configs returns every recognition config seen.
func (e *Engine) Configs() []voice.RecognitionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]voice.RecognitionConfig(nil), e.configs...)
}

// Utterances returns every utterance seen.
func (e *Engine) Utterances() []voice.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]voice.Utterance(nil), e.utterances...)
}

// StopCalls returns how many times StopRecognition was called.
func (e *Engine) StopCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopCalls
}

// CancelCalls returns how many times CancelSynthesis was called.
func (e *Engine) CancelCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelCalls
}
