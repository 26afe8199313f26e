package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthi-ai/voicechat/internal/model"
)

func TestCreatedSubjectIsCoveredByStream(t *testing.T) {
	assert.Equal(t, "exchanges.created", CreatedSubject())
	assert.Contains(t, CreatedSubject(), SubjectPrefix+".")
}

func TestEncodeExchange(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := encodeExchange(&model.Conversation{
		ID:           42,
		UserMessage:  "namaste",
		AIResponse:   "namaste ji",
		SystemPrompt: "be nice",
		CreatedAt:    at,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(42), decoded["id"])
	assert.Equal(t, "namaste", decoded["userMessage"])
	assert.Equal(t, "namaste ji", decoded["aiResponse"])
	assert.Equal(t, "be nice", decoded["systemPrompt"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["createdAt"])
}

func TestBuildTLSConfigDisabled(t *testing.T) {
	cfg, err := buildTLSConfig(Config{URL: "nats://localhost:4222"})
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestBuildTLSConfigNeedsCertAndKey(t *testing.T) {
	_, err := buildTLSConfig(Config{CertFile: "client.pem"})
	assert.Error(t, err)
}

func TestBuildTLSConfigMissingCA(t *testing.T) {
	_, err := buildTLSConfig(Config{CAFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}
