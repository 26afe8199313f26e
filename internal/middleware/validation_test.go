package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConversationRequestValid(t *testing.T) {
	req, verr := DecodeConversationRequest(strings.NewReader(
		`{"userMessage":"नमस्ते","aiResponse":"नमस्ते जी","systemPrompt":"be kind","id":99,"createdAt":"2020-01-01T00:00:00Z","extra":true}`,
	))
	require.Nil(t, verr)
	assert.Equal(t, "नमस्ते", req.UserMessage)
	assert.Equal(t, "नमस्ते जी", req.AIResponse)
	assert.Equal(t, "be kind", req.SystemPrompt)
}

func TestDecodeConversationRequestInvalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing user message", `{"aiResponse":"a","systemPrompt":"p"}`, "userMessage", "userMessage is required"},
		{"null ai response", `{"userMessage":"u","aiResponse":null,"systemPrompt":"p"}`, "aiResponse", "aiResponse is required"},
		{"missing prompt", `{"userMessage":"u","aiResponse":"a"}`, "systemPrompt", "systemPrompt is required"},
		{"empty user message", `{"userMessage":"","aiResponse":"a","systemPrompt":"p"}`, "userMessage", "userMessage must not be empty"},
		{"number prompt", `{"userMessage":"u","aiResponse":"a","systemPrompt":5}`, "systemPrompt", "systemPrompt must be a string"},
		{"first failing field wins", `{}`, "userMessage", "userMessage is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, verr := DecodeConversationRequest(strings.NewReader(tt.body))
			assert.Nil(t, req)
			require.NotNil(t, verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}
}

func TestDecodeConversationRequestNotAnObject(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `null`, `"text"`} {
		req, verr := DecodeConversationRequest(strings.NewReader(body))
		assert.Nil(t, req, body)
		require.NotNil(t, verr, body)
		assert.Empty(t, verr.Field, body)
		assert.NotEmpty(t, verr.Message, body)
	}
}
