package llm

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LocalChatAdapter drives a locally hosted server exposing a
// chat-completion-shaped API that is nevertheless fed a raw templated prompt
// with explicit stop sequences.
type LocalChatAdapter struct {
	client ChatClient
	render TemplateFunc
	params Params
	config Config
}

func localDefaults() Params {
	t := 0.0
	return Params{Model: "mistral", Temperature: &t}
}

// NewLocalChatAdapter creates an adapter for a local chat-compatible server.
// render is the template function selected for the server's model family.
// params override the defaults {mistral, temperature 0} field by field.
func NewLocalChatAdapter(client ChatClient, render TemplateFunc, params Params) *LocalChatAdapter {
	return &LocalChatAdapter{
		client: client,
		render: render,
		params: params,
		config: Config{EnableTodaysDate: true},
	}
}

// Config returns the adapter's default caller-facing configuration.
func (a *LocalChatAdapter) Config() Config { return a.config }

// CallLLM seeds the optional query prefix as a synthetic assistant turn,
// renders the sequence through the template function, and sends the rendered
// prompt as a single user message with the template's stop sequences.
func (a *LocalChatAdapter) CallLLM(ctx context.Context, messages []Message, queryPrefix string) (string, error) {
	seeded, _ := SeedAssistantPrefix(messages, queryPrefix)
	rendered := a.render(seeded)

	p := a.params.withDefaults(localDefaults())
	resp, err := a.client.CreateChatCompletion(ctx, ChatRequest{
		Model:       p.Model,
		Messages:    []Message{{Role: RoleUser, Content: rendered.Prompt}},
		Temperature: p.Temperature,
		Stop:        rendered.StopSequences,
	})
	if err != nil {
		return "", err
	}

	log.Debug("----- local chat completion -----")
	if resp != nil && len(resp.Choices) > 0 {
		log.Debugf("raw choice: %+v", resp.Choices[0])
	}

	return firstChoiceText(resp), nil
}
