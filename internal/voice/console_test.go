package voice_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/voice"
)

func TestConsoleEngineFeedsFinalTranscript(t *testing.T) {
	engine := voice.NewConsoleEngine(nil, "")
	a := voice.NewAdapter(engine)

	var ended []voice.State
	a.Subscribe(func(s voice.State) {
		if !s.IsListening && s.Transcript != "" {
			ended = append(ended, s)
		}
	})

	assert.False(t, engine.Feed("ignored"))

	a.StartListening()
	require.True(t, a.State().IsListening)
	require.True(t, engine.Listening())

	assert.True(t, engine.Feed("  नमस्ते  "))
	assert.False(t, engine.Listening())

	require.Len(t, ended, 1)
	assert.Equal(t, "नमस्ते", ended[0].Transcript)
}

func TestConsoleEngineBlankLineIsNoSpeech(t *testing.T) {
	engine := voice.NewConsoleEngine(nil, "")
	a := voice.NewAdapter(engine)

	a.StartListening()
	engine.Feed("   ")

	st := a.State()
	assert.False(t, st.IsListening)
	assert.Equal(t, "no-speech", st.Error)
	assert.Equal(t, "", st.Transcript)
}

func TestConsoleEngineStopRecognition(t *testing.T) {
	engine := voice.NewConsoleEngine(nil, "")
	a := voice.NewAdapter(engine)

	a.StartListening()
	a.StopListening()

	assert.False(t, a.State().IsListening)
	assert.False(t, engine.Listening())
}

func TestConsoleEnginePrintsWithoutCommand(t *testing.T) {
	var out bytes.Buffer
	a := voice.NewAdapter(voice.NewConsoleEngine(&out, ""))

	a.Speak("नमस्ते")

	assert.Equal(t, "(speaking) नमस्ते\n", out.String())
	assert.False(t, a.State().IsSpeaking)
}

func TestConsoleEngineMissingCommand(t *testing.T) {
	a := voice.NewAdapter(voice.NewConsoleEngine(nil, "/nonexistent/tts-binary --fast"))

	a.Speak("hi")

	assert.False(t, a.State().IsSpeaking)
}
