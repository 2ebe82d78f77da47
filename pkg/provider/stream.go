package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/obyrne/llmbridge/pkg/llm"
)

// StreamGenerateOption configures a StreamGenerateClient.
type StreamGenerateOption func(*StreamGenerateClient)

// WithGenerateHTTPClient sets a custom HTTP client (useful for testing).
func WithGenerateHTTPClient(c *http.Client) StreamGenerateOption {
	return func(p *StreamGenerateClient) { p.client = c }
}

// WithGenerateHost overrides the loopback host the generate endpoint is
// reached on.
func WithGenerateHost(host string) StreamGenerateOption {
	return func(p *StreamGenerateClient) { p.host = host }
}

// StreamGenerateClient implements llm.StreamClient against a local
// model server's streaming generate endpoint. Tokens arrive as
// newline-delimited JSON objects carrying a type and a message.
type StreamGenerateClient struct {
	host   string
	client *http.Client
}

// NewStreamGenerateClient creates a client for a loopback model server.
func NewStreamGenerateClient(opts ...StreamGenerateOption) *StreamGenerateClient {
	p := &StreamGenerateClient{
		host:   "127.0.0.1",
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// generateRequest is the streaming generate request body.
type generateRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream"`
}

// GenerateStream opens the token stream for the given request. The
// returned stream owns the response body and must be closed.
func (p *StreamGenerateClient) GenerateStream(ctx context.Context, req llm.GenerateRequest) (llm.TokenStream, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      req.Prompt,
		Model:       req.Model,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/api/generate", p.host, req.Port)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	log.WithFields(log.Fields{
		"request_id": requestID,
		"model":      req.Model,
		"url":        url,
	}).Debug("opening generate stream")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending HTTP request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, string(respBody))
	}

	return &ndjsonStream{
		requestID: requestID,
		body:      httpResp.Body,
		scanner:   bufio.NewScanner(httpResp.Body),
	}, nil
}

// ndjsonStream decodes one token per line from the response body.
type ndjsonStream struct {
	requestID string
	body      io.ReadCloser
	scanner   *bufio.Scanner
}

// Recv returns the next token, or io.EOF once the body is exhausted.
// Blank lines and lines without a type are skipped.
func (s *ndjsonStream) Recv() (llm.Token, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		kind := gjson.GetBytes(line, "type")
		if !kind.Exists() {
			log.WithField("request_id", s.requestID).Debugf("skipping untyped stream line: %s", line)
			continue
		}
		return llm.Token{
			Kind:    llm.TokenKind(kind.String()),
			Message: gjson.GetBytes(line, "message").String(),
		}, nil
	}
	if err := s.scanner.Err(); err != nil {
		return llm.Token{}, fmt.Errorf("reading stream: %w", err)
	}
	return llm.Token{}, io.EOF
}

// Close releases the underlying response body.
func (s *ndjsonStream) Close() error {
	return s.body.Close()
}
