// Package llmtest provides scripted collaborator implementations for testing
// code built on the llm adapter contract. Scripted clients replay canned
// responses in sequence and record every request they receive for later
// inspection.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/obyrne/llmbridge/pkg/llm"
)

// ScriptedChatClient is a chat-completion collaborator that returns
// pre-configured responses in sequence. It is safe for concurrent use.
type ScriptedChatClient struct {
	responses []llm.ChatResponse
	mu        sync.Mutex
	idx       int
	requests  []llm.ChatRequest
}

// NewScriptedChatClient creates a ScriptedChatClient that returns the given
// responses in order. Once all responses are consumed, subsequent calls
// return an error.
func NewScriptedChatClient(responses ...llm.ChatResponse) *ScriptedChatClient {
	return &ScriptedChatClient{responses: responses}
}

// CreateChatCompletion records the request and returns the next scripted
// response.
func (c *ScriptedChatClient) CreateChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, cloneChatRequest(req))
	if c.idx >= len(c.responses) {
		return nil, fmt.Errorf("scripted chat client: no more responses (consumed %d/%d)", c.idx, len(c.responses))
	}
	resp := c.responses[c.idx]
	c.idx++
	return &resp, nil
}

// Requests returns a copy of all captured requests in call order.
func (c *ScriptedChatClient) Requests() []llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// cloneChatRequest deep-copies the request's slices so captured requests are
// insulated from later caller mutation.
func cloneChatRequest(req llm.ChatRequest) llm.ChatRequest {
	out := req
	if req.Messages != nil {
		out.Messages = make([]llm.Message, len(req.Messages))
		copy(out.Messages, req.Messages)
	}
	if req.Stop != nil {
		out.Stop = make([]string, len(req.Stop))
		copy(out.Stop, req.Stop)
	}
	return out
}

// ScriptedCompletionClient is a raw-completion collaborator that returns
// pre-configured responses in sequence. It is safe for concurrent use.
type ScriptedCompletionClient struct {
	responses []llm.CompletionResponse
	mu        sync.Mutex
	idx       int
	requests  []llm.CompletionRequest
}

// NewScriptedCompletionClient creates a ScriptedCompletionClient that returns
// the given responses in order.
func NewScriptedCompletionClient(responses ...llm.CompletionResponse) *ScriptedCompletionClient {
	return &ScriptedCompletionClient{responses: responses}
}

// CreateCompletion records the request and returns the next scripted
// response.
func (c *ScriptedCompletionClient) CreateCompletion(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if c.idx >= len(c.responses) {
		return nil, fmt.Errorf("scripted completion client: no more responses (consumed %d/%d)", c.idx, len(c.responses))
	}
	resp := c.responses[c.idx]
	c.idx++
	return &resp, nil
}

// Requests returns a copy of all captured requests in call order.
func (c *ScriptedCompletionClient) Requests() []llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.CompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
