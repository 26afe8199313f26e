// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/sarthi-ai/voicechat/internal/llm"
)

// Client is a fake AI gateway. It answers with Reply, or fails with Err
// when set. If Block is non-nil every call waits for it to be closed (or
// for the context to end) before answering.
type Client struct {
	Reply string
	Err   error
	Block chan struct{}

	mu    sync.Mutex
	calls []llm.CompletionRequest
}

// Complete records the request and returns the scripted answer.
func (c *Client) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *req)
	c.mu.Unlock()

	if c.Block != nil {
		select {
		case <-c.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.Err != nil {
		return nil, c.Err
	}
	return &llm.CompletionResponse{Content: c.Reply, Model: "fake"}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "fake"
}

// Calls returns a copy of the requests seen so far.
func (c *Client) Calls() []llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.CompletionRequest, len(c.calls))
	copy(out, c.calls)
	return out
}
