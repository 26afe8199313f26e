// Package client talks to the voice chat server: REST history and the
// real-time relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sarthi-ai/voicechat/internal/model"
)

// HistoryClient calls the /api/conversations endpoint.
type HistoryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHistoryClient creates a client for the server at baseURL
// (e.g. http://localhost:5000). A nil httpClient uses a 30s-timeout client.
func NewHistoryClient(baseURL string, httpClient *http.Client) *HistoryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HistoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// List returns every stored exchange in creation order.
func (c *HistoryClient) List(ctx context.Context) ([]model.Conversation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/conversations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var convs []model.Conversation
	if err := c.do(req, http.StatusOK, &convs); err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

// Create stores an exchange. A rejected body is returned as
// *model.ValidationError.
func (c *HistoryClient) Create(ctx context.Context, in *model.CreateConversationRequest) (*model.Conversation, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/conversations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var conv model.Conversation
	if err := c.do(req, http.StatusCreated, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *HistoryClient) do(req *http.Request, want int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == want {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	if resp.StatusCode == http.StatusBadRequest {
		var verr model.ValidationError
		if err := json.Unmarshal(data, &verr); err == nil && verr.Message != "" {
			return &verr
		}
	}

	var apiErr model.ErrorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Message}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// StatusError is an unexpected HTTP status from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr)
}
