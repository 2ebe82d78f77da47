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

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIHTTPClient sets a custom HTTP client (useful for testing).
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIClient) { p.client = c }
}

// WithOpenAIBaseURL overrides the chat completions endpoint URL.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIClient) { p.baseURL = url }
}

// OpenAIClient implements llm.ChatClient against the OpenAI Chat
// Completions API. Any endpoint speaking the same wire format works,
// which is how local chat-compatible servers are reached.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIClient creates a client with the given API key. An empty key
// skips the Authorization header, which local servers accept.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	p := &OpenAIClient{
		apiKey:  apiKey,
		baseURL: defaultOpenAIURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// openaiRequest is the chat completions request body.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// openaiResponse is the chat completions response body.
type openaiResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// CreateChatCompletion sends the request and returns the parsed response.
func (p *OpenAIClient) CreateChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := json.Marshal(buildOpenAIRequest(req))
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

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
		var apiErr openaiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	var or openaiResponse
	if err := json.Unmarshal(respBody, &or); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return parseOpenAIResponse(&or), nil
}

func buildOpenAIRequest(req llm.ChatRequest) openaiRequest {
	or := openaiRequest{
		Model:       req.Model,
		Messages:    make([]openaiMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}
	for _, m := range req.Messages {
		c := m.Content
		or.Messages = append(or.Messages, openaiMessage{Role: string(m.Role), Content: &c})
	}
	return or
}

func parseOpenAIResponse(or *openaiResponse) *llm.ChatResponse {
	resp := &llm.ChatResponse{}
	for _, ch := range or.Choices {
		msg := llm.Message{Role: llm.Role(ch.Message.Role)}
		if ch.Message.Content != nil {
			msg.Content = *ch.Message.Content
		}
		resp.Choices = append(resp.Choices, llm.ChatChoice{Message: msg})
	}
	return resp
}
