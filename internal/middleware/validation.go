package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/sarthi-ai/voicechat/internal/model"
)

// conversationFields lists the required fields of a create request in the
// order they are checked.
var conversationFields = []string{"userMessage", "aiResponse", "systemPrompt"}

// DecodeConversationRequest parses and validates a create-conversation body.
// Every required field must be present, a JSON string and non-empty.
// Server-assigned fields (id, createdAt) and unknown fields are ignored.
func DecodeConversationRequest(body io.Reader) (*model.CreateConversationRequest, *model.ValidationError) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &model.ValidationError{Message: "failed to read request body"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &model.ValidationError{Message: "request body must be a JSON object"}
	}

	values := make(map[string]string, len(conversationFields))
	for _, name := range conversationFields {
		value, verr := requiredString(fields, name)
		if verr != nil {
			return nil, verr
		}
		values[name] = value
	}

	return &model.CreateConversationRequest{
		UserMessage:  values["userMessage"],
		AIResponse:   values["aiResponse"],
		SystemPrompt: values["systemPrompt"],
	}, nil
}

func requiredString(fields map[string]json.RawMessage, name string) (string, *model.ValidationError) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", &model.ValidationError{Message: name + " is required", Field: name}
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", &model.ValidationError{Message: name + " must be a string", Field: name}
	}
	if value == "" {
		return "", &model.ValidationError{Message: name + " must not be empty", Field: name}
	}

	return value, nil
}
