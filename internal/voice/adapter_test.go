package voice_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/voice"
	"github.com/sarthi-ai/voicechat/internal/voice/voicetest"
)

type stateLog struct {
	mu     sync.Mutex
	states []voice.State
}

func (l *stateLog) record(s voice.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

func listening(t *testing.T) (*voice.Adapter, *voicetest.Engine) {
	t.Helper()
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)
	a.StartListening()
	engine.FireStart()
	require.True(t, a.State().IsListening)
	return a, engine
}

func TestStartListeningConfiguresRecognition(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)

	a.StartListening()
	assert.False(t, a.State().IsListening, "listening starts with the engine callback")

	engine.FireStart()
	assert.True(t, a.State().IsListening)

	configs := engine.Configs()
	require.Len(t, configs, 1)
	assert.Equal(t, voice.RecognitionConfig{Language: "hi-IN", Continuous: false, InterimResults: true}, configs[0])
}

func TestStartListeningTwiceIsNoop(t *testing.T) {
	a, engine := listening(t)

	a.StartListening()
	assert.Len(t, engine.Configs(), 1)
}

func TestStartListeningClearsTranscriptAndError(t *testing.T) {
	a, engine := listening(t)
	engine.FireFinal("पहला")
	engine.FireError("network")
	require.Equal(t, "network", a.State().Error)
	require.False(t, a.State().IsListening)

	a.StartListening()
	assert.Equal(t, "", a.State().Transcript)
	engine.FireStart()
	assert.Equal(t, "", a.State().Error)
}

func TestWithLanguage(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine, voice.WithLanguage("en-US"))

	a.StartListening()
	a.Speak("hi")

	assert.Equal(t, "en-US", engine.Configs()[0].Language)
	assert.Equal(t, "en-US", engine.Utterances()[0].Language)
}

func TestTranscriptFromFinalResult(t *testing.T) {
	a, engine := listening(t)

	engine.FireFinal("नमस्ते")

	st := a.State()
	assert.Equal(t, "नमस्ते", st.Transcript)
	assert.Equal(t, "", st.InterimTranscript)
}

func TestInterimResultKeepsFinalTranscript(t *testing.T) {
	a, engine := listening(t)

	engine.FireFinal("नमस्ते")
	engine.FireInterim("आप कै")

	st := a.State()
	assert.Equal(t, "नमस्ते", st.Transcript)
	assert.Equal(t, "आप कै", st.InterimTranscript)

	engine.FireFinal("आप कैसे हैं")
	st = a.State()
	assert.Equal(t, "आप कैसे हैं", st.Transcript)
	assert.Equal(t, "", st.InterimTranscript)
}

func TestResultsIterateFromResultIndex(t *testing.T) {
	a, engine := listening(t)

	engine.FireResult(voice.RecognitionEvent{
		ResultIndex: 1,
		Results: []voice.Result{
			{Transcript: "old ", Final: true},
			{Transcript: "new ", Final: true},
			{Transcript: "more", Final: true},
			{Transcript: "ish", Final: false},
		},
	})

	st := a.State()
	assert.Equal(t, "new more", st.Transcript)
	assert.Equal(t, "ish", st.InterimTranscript)
}

func TestRecognitionEndAndError(t *testing.T) {
	a, engine := listening(t)
	engine.FireEnd()
	assert.False(t, a.State().IsListening)

	a, engine = listening(t)
	engine.FireError("not-allowed")
	st := a.State()
	assert.False(t, st.IsListening)
	assert.Equal(t, "not-allowed", st.Error)
}

func TestStartFailureRecordsError(t *testing.T) {
	engine := &voicetest.Engine{StartErr: errors.New("busy")}
	a := voice.NewAdapter(engine)

	a.StartListening()

	st := a.State()
	assert.False(t, st.IsListening)
	assert.Equal(t, "busy", st.Error)
}

func TestStopListening(t *testing.T) {
	a, engine := listening(t)

	a.StopListening()

	assert.Equal(t, 1, engine.StopCalls())
	assert.False(t, a.State().IsListening)
}

func TestStopListeningWhenIdleIsNoop(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)
	log := &stateLog{}
	a.Subscribe(log.record)

	a.StopListening()

	assert.Equal(t, 0, engine.StopCalls())
	assert.Equal(t, 0, log.len())
	assert.Equal(t, voice.State{}, a.State())
}

func TestSpeak(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)

	a.Speak("नमस्ते")

	utterances := engine.Utterances()
	require.Len(t, utterances, 1)
	assert.Equal(t, voice.Utterance{Text: "नमस्ते", Language: "hi-IN", Rate: 1.0, Pitch: 1.0}, utterances[0])
	assert.Equal(t, 1, engine.CancelCalls(), "speak cancels before synthesizing")

	engine.FireSpeechStart(-1)
	assert.True(t, a.State().IsSpeaking)

	engine.FireSpeechEnd(-1)
	assert.False(t, a.State().IsSpeaking)
}

func TestCancelSpeechIgnoresLaterEvents(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)

	a.Speak("test")
	engine.FireSpeechStart(-1)
	a.CancelSpeech()
	assert.False(t, a.State().IsSpeaking)

	engine.FireSpeechStart(-1)
	assert.False(t, a.State().IsSpeaking)
	engine.FireSpeechError(-1, "interrupted")
	assert.False(t, a.State().IsSpeaking)
}

func TestSupersededUtteranceIsIgnored(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)

	a.Speak("first")
	a.Speak("second")
	engine.FireSpeechStart(1)
	require.True(t, a.State().IsSpeaking)

	engine.FireSpeechEnd(0)
	assert.True(t, a.State().IsSpeaking)

	engine.FireSpeechEnd(1)
	assert.False(t, a.State().IsSpeaking)
}

func TestSynthesizeFailureClearsSpeaking(t *testing.T) {
	engine := &voicetest.Engine{SynthesizeErr: errors.New("no voices")}
	a := voice.NewAdapter(engine)

	a.Speak("hi")
	assert.False(t, a.State().IsSpeaking)
}

func TestCancelSpeechWhenSilentIsNoop(t *testing.T) {
	a := voice.NewAdapter(&voicetest.Engine{})
	log := &stateLog{}
	a.Subscribe(log.record)

	a.CancelSpeech()

	assert.Equal(t, 0, log.len())
	assert.Equal(t, voice.State{}, a.State())
}

func TestResetTranscript(t *testing.T) {
	a, engine := listening(t)
	engine.FireFinal("नमस्ते")
	engine.FireInterim("और")

	a.ResetTranscript()

	st := a.State()
	assert.Equal(t, "", st.Transcript)
	assert.Equal(t, "", st.InterimTranscript)
	assert.True(t, st.IsListening)
}

func TestObserversNotifiedOnChangeOnly(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)
	log := &stateLog{}
	unsubscribe := a.Subscribe(log.record)

	a.StartListening()
	engine.FireStart()
	require.Equal(t, 1, log.len())

	engine.FireInterim("")
	assert.Equal(t, 1, log.len())

	engine.FireInterim("ab")
	assert.Equal(t, 2, log.len())

	unsubscribe()
	engine.FireEnd()
	assert.Equal(t, 2, log.len())
}

func TestObserverMayCallAdapter(t *testing.T) {
	engine := &voicetest.Engine{}
	a := voice.NewAdapter(engine)

	a.Subscribe(func(s voice.State) {
		if !s.IsListening && s.Transcript != "" {
			a.ResetTranscript()
		}
	})

	a.StartListening()
	engine.FireStart()
	engine.FireFinal("नमस्ते")
	engine.FireEnd()

	assert.Equal(t, "", a.State().Transcript)
}

func TestNilEngineIsNoop(t *testing.T) {
	a := voice.NewAdapter(nil)

	assert.False(t, a.Supported())
	a.StartListening()
	a.StopListening()
	a.Speak("hi")
	a.CancelSpeech()
	assert.Equal(t, voice.State{}, a.State())
}
