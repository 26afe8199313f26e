package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	geminiAPIVersion   = "v1beta"
)

// GeminiClient is the Google Gemini client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client. baseURL is optional and
// points the SDK at a proxy or integration gateway.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		baseURL = strings.TrimRight(baseURL, "/")
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Gemini base URL: %w", err)
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL, APIVersion: geminiAPIVersion}
		cc.HTTPClient = &http.Client{
			Transport: &versionlessTransport{
				base:   http.DefaultTransport,
				prefix: u.Path + "/" + geminiAPIVersion + "/",
				root:   u.Path + "/",
			},
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.Role(genai.RoleUser)),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:   resp.Text(),
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// versionlessTransport drops the API version segment the SDK inserts after
// the base path. Gateways behind a custom base URL serve /models/... directly.
type versionlessTransport struct {
	base   http.RoundTripper
	prefix string
	root   string
}

func (t *versionlessTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.HasPrefix(req.URL.Path, t.prefix) {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.URL.Path = t.root + strings.TrimPrefix(req.URL.Path, t.prefix)
	out.URL.RawPath = ""
	return t.base.RoundTrip(out)
}
