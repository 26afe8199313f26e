package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/client"
	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/internal/relay"
	"github.com/sarthi-ai/voicechat/internal/session"
	"github.com/sarthi-ai/voicechat/internal/voice"
	"github.com/sarthi-ai/voicechat/pkg/logger"
)

type recordingRelay struct {
	mu     sync.Mutex
	events []model.MessageEvent
}

func (r *recordingRelay) Connected() bool { return true }

func (r *recordingRelay) Emit(_ context.Context, ev model.MessageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func TestRelayURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "ws://localhost:5000/ws"},
		{"https://chat.example.com/", "wss://chat.example.com/ws"},
		{"http://host/base", "ws://host/base/ws"},
	}
	for _, tt := range tests {
		got, err := relayURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := relayURL("ftp://host")
	assert.Error(t, err)
}

func TestRunLoop(t *testing.T) {
	relay := &recordingRelay{}
	engine := voice.NewConsoleEngine(nil, "")
	ctrl := session.New(voice.NewAdapter(engine), relay)
	defer ctrl.Close()

	in := strings.NewReader(strings.Join([]string{
		"typed hello",
		"/prompt Answer in English.",
		"/mic",
		"spoken नमस्ते",
		"   ",
		"/quit",
		"never sent",
	}, "\n"))
	var out bytes.Buffer

	err := runLoop(context.Background(), in, &printer{w: &out}, ctrl, engine)
	require.NoError(t, err)

	require.Len(t, relay.events, 2)
	assert.Equal(t, model.MessageEvent{Text: "typed hello", SystemPrompt: session.DefaultSystemPrompt}, relay.events[0])
	assert.Equal(t, model.MessageEvent{Text: "spoken नमस्ते", SystemPrompt: "Answer in English."}, relay.events[1])
	assert.Contains(t, out.String(), "* system prompt: Answer in English.")
	assert.Contains(t, out.String(), "* listening...")
}

func TestRunLoopStopsOnContext(t *testing.T) {
	engine := voice.NewConsoleEngine(nil, "")
	ctrl := session.New(voice.NewAdapter(engine), nil)
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- runLoop(ctx, blockingReader{}, &printer{w: &bytes.Buffer{}}, ctrl, engine)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return")
	}
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestPrinterMessage(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out}
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

	p.message(model.Message{Role: model.RoleUser, Text: "hi", Timestamp: ts})
	p.message(model.Message{Role: model.RoleAI, Text: "नमस्ते", Timestamp: ts})

	assert.Equal(t, "[10:30] you: hi\n[10:30] sarthi: नमस्ते\n", out.String())
}

func TestFlagFor(t *testing.T) {
	assert.Equal(t, "user", flagFor("userMessage"))
	assert.Equal(t, "ai", flagFor("aiResponse"))
	assert.Equal(t, "prompt", flagFor("systemPrompt"))
}

func TestClosedRelayDropsMessages(t *testing.T) {
	srv := relay.NewServer(relay.ReplierFunc(func(_ context.Context, in model.MessageEvent) model.ResponseEvent {
		return model.ResponseEvent{Text: in.Text}
	}), logger.NewNop())
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Close()

	rc, err := client.Dial(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	ctrl := session.New(voice.NewAdapter(voice.NewConsoleEngine(nil, "")), rc)
	defer ctrl.Close()

	ctrl.Send(context.Background(), "hello")

	assert.Empty(t, ctrl.Messages())
	assert.Equal(t, session.PhaseIdle, ctrl.Phase())
}
