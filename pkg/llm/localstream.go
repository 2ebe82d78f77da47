package llm

import (
	"context"
	"errors"
	"io"
	"strings"
)

// localGeneratePort is the fixed port the local text-generation server
// listens on.
const localGeneratePort = 8080

// LocalStreamAdapter drives a locally hosted text-generation server that
// returns a token stream. The stream is consumed until a completeMessage
// token arrives; everything before it is discarded.
type LocalStreamAdapter struct {
	client StreamClient
	render TemplateFunc
	params Params
	config Config
}

// NewLocalStreamAdapter creates an adapter for the local streaming server.
// render is the template function for the server's model family. params
// override the defaults {mistral, temperature 0} field by field.
func NewLocalStreamAdapter(client StreamClient, render TemplateFunc, params Params) *LocalStreamAdapter {
	return &LocalStreamAdapter{
		client: client,
		render: render,
		params: params,
		config: Config{EnableTodaysDate: true},
	}
}

// Config returns the adapter's default caller-facing configuration.
func (a *LocalStreamAdapter) Config() Config { return a.config }

// CallLLM seeds the optional query prefix, renders the prompt, and consumes
// the resulting token stream one token at a time. The completeMessage token's
// text is truncated at the first occurrence of the first stop sequence; an
// empty truncation, or a stream that ends without a terminal token, yields no
// answer.
func (a *LocalStreamAdapter) CallLLM(ctx context.Context, messages []Message, queryPrefix string) (string, error) {
	seeded, _ := SeedAssistantPrefix(messages, queryPrefix)
	rendered := a.render(seeded)

	p := a.params.withDefaults(localDefaults())
	stream, err := a.client.GenerateStream(ctx, GenerateRequest{
		Prompt:      rendered.Prompt,
		Model:       p.Model,
		Port:        localGeneratePort,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	for {
		tok, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", err
		}
		if tok.Kind != TokenCompleteMessage {
			continue
		}
		text := tok.Message
		if len(rendered.StopSequences) > 0 {
			text, _, _ = strings.Cut(text, rendered.StopSequences[0])
		}
		return text, nil
	}
}
