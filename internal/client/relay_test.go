package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/internal/relay"
	"github.com/sarthi-ai/voicechat/pkg/logger"
)

func newRelay(t *testing.T) (*relay.Server, string) {
	t.Helper()
	srv := relay.NewServer(relay.ReplierFunc(func(_ context.Context, in model.MessageEvent) model.ResponseEvent {
		return model.ResponseEvent{Text: in.SystemPrompt + "|" + in.Text}
	}), logger.NewNop())
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestRelayClientEmitAndListen(t *testing.T) {
	_, url := newRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close()

	got := make(chan model.ResponseEvent, 1)
	go c.Listen(ctx, func(ev model.ResponseEvent) { got <- ev })

	require.NoError(t, c.Emit(ctx, model.MessageEvent{Text: "hello", SystemPrompt: "p"}))

	select {
	case ev := <-got:
		assert.Equal(t, "p|hello", ev.Text)
	case <-ctx.Done():
		t.Fatal("no response")
	}
}

func TestRelayClientEmitAfterClose(t *testing.T) {
	_, url := newRelay(t)

	c, err := Dial(context.Background(), url, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	err = c.Emit(context.Background(), model.MessageEvent{Text: "hello"})
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestRelayClientListenEndsWhenServerCloses(t *testing.T) {
	srv, url := newRelay(t)

	c, err := Dial(context.Background(), url, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Listen(context.Background(), func(model.ResponseEvent) {}) }()

	require.Eventually(t, func() bool { return srv.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)
	srv.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return")
	}

	err = c.Emit(context.Background(), model.MessageEvent{Text: "late"})
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestRelayClientListenStopsOnContext(t *testing.T) {
	_, url := newRelay(t)

	c, err := Dial(context.Background(), url, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Listen(ctx, func(model.ResponseEvent) {}) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return")
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", nil)
	assert.Error(t, err)
}
