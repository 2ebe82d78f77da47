package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/obyrne/llmbridge/pkg/llm"
)

const (
	defaultAnthropicURL     = "https://api.anthropic.com/v1/complete"
	defaultAnthropicVersion = "2023-06-01"
)

// AnthropicOption configures an AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicHTTPClient sets a custom HTTP client (useful for testing).
func WithAnthropicHTTPClient(c *http.Client) AnthropicOption {
	return func(p *AnthropicClient) { p.client = c }
}

// WithAnthropicBaseURL overrides the completion endpoint URL.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(p *AnthropicClient) { p.baseURL = url }
}

// AnthropicClient implements llm.CompletionClient against the Anthropic
// text completion API.
type AnthropicClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropicClient creates a client with the given API key.
func NewAnthropicClient(apiKey string, opts ...AnthropicOption) *AnthropicClient {
	p := &AnthropicClient{
		apiKey:  apiKey,
		baseURL: defaultAnthropicURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// anthropicRequest is the text completion request body.
type anthropicRequest struct {
	Prompt            string   `json:"prompt"`
	Model             string   `json:"model"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       *float64 `json:"temperature,omitempty"`
}

// anthropicResponse is the text completion response body.
type anthropicResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCompletion sends the request and returns the parsed response.
func (p *AnthropicClient) CreateCompletion(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	body, err := json.Marshal(anthropicRequest{
		Prompt:            req.Prompt,
		Model:             req.Model,
		MaxTokensToSample: req.MaxTokensToSample,
		Temperature:       req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", p.apiKey)
	httpReq.Header.Set("Anthropic-Version", defaultAnthropicVersion)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr anthropicErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	var ar anthropicResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &llm.CompletionResponse{Completion: ar.Completion}, nil
}
