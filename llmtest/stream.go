package llmtest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/obyrne/llmbridge/pkg/llm"
)

// SliceStream is a TokenStream backed by a fixed token slice. It records
// whether Close was called so tests can assert teardown on early exit.
type SliceStream struct {
	mu     sync.Mutex
	tokens []llm.Token
	idx    int
	closed bool
}

// NewSliceStream creates a SliceStream yielding the given tokens in order.
func NewSliceStream(tokens ...llm.Token) *SliceStream {
	return &SliceStream{tokens: tokens}
}

// Recv returns the next token, or io.EOF once the slice is exhausted.
func (s *SliceStream) Recv() (llm.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.tokens) {
		return llm.Token{}, io.EOF
	}
	tok := s.tokens[s.idx]
	s.idx++
	return tok, nil
}

// Close marks the stream closed. It is always safe to call, including before
// the stream is drained.
func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Remaining returns the number of tokens not yet consumed.
func (s *SliceStream) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens) - s.idx
}

// ScriptedStreamClient is a streaming collaborator that hands out pre-built
// streams in sequence and records every generate request.
type ScriptedStreamClient struct {
	streams  []llm.TokenStream
	mu       sync.Mutex
	idx      int
	requests []llm.GenerateRequest
}

// NewScriptedStreamClient creates a ScriptedStreamClient that returns the
// given streams in order.
func NewScriptedStreamClient(streams ...llm.TokenStream) *ScriptedStreamClient {
	return &ScriptedStreamClient{streams: streams}
}

// GenerateStream records the request and returns the next scripted stream.
func (c *ScriptedStreamClient) GenerateStream(_ context.Context, req llm.GenerateRequest) (llm.TokenStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if c.idx >= len(c.streams) {
		return nil, fmt.Errorf("scripted stream client: no more streams (consumed %d/%d)", c.idx, len(c.streams))
	}
	stream := c.streams[c.idx]
	c.idx++
	return stream, nil
}

// Requests returns a copy of all captured generate requests in call order.
func (c *ScriptedStreamClient) Requests() []llm.GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.GenerateRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
