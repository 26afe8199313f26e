// Package voice adapts a speech engine (recognition and synthesis) into a
// small observable state machine.
package voice

// DefaultLanguage is the recognition and synthesis language.
const DefaultLanguage = "hi-IN"

// RecognitionConfig configures one recognition session.
type RecognitionConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Result is one recognized segment.
type Result struct {
	Transcript string
	Final      bool
}

// RecognitionEvent carries the engine's result list. Results before
// ResultIndex were delivered in earlier events.
type RecognitionEvent struct {
	ResultIndex int
	Results     []Result
}

// RecognitionHandler receives recognition callbacks. Engines may call it
// from any goroutine.
type RecognitionHandler interface {
	RecognitionStarted()
	RecognitionResult(ev RecognitionEvent)
	RecognitionError(code string)
	RecognitionEnded()
}

// Utterance is a synthesis request.
type Utterance struct {
	Text     string
	Language string
	Rate     float64
	Pitch    float64
}

// SynthesisHandler receives callbacks for one utterance.
type SynthesisHandler interface {
	SynthesisStarted()
	SynthesisEnded()
	SynthesisError(code string)
}

// Engine is the platform speech capability.
type Engine interface {
	StartRecognition(cfg RecognitionConfig, h RecognitionHandler) error
	StopRecognition()
	Synthesize(u Utterance, h SynthesisHandler) error
	CancelSynthesis()
}
