package llm

import (
	"context"
	"strings"
)

// maxTokensToSample is fixed for every raw-completion request.
const maxTokensToSample = 10000

// CompletionAdapter drives a text-completion API whose input is one formatted
// prompt string built from human/assistant tag markers rather than a message
// list.
type CompletionAdapter struct {
	client       CompletionClient
	humanTag     string
	assistantTag string
	params       Params
	config       Config
}

func completionDefaults() Params {
	t := 0.0
	return Params{Model: "claude-2", Temperature: &t}
}

// NewCompletionAdapter creates an adapter for a raw text-completion back end.
// humanTag and assistantTag are the provider's turn delimiters (for example
// "\n\nHuman:" and "\n\nAssistant:"). params override the defaults
// {claude-2, temperature 0} field by field.
func NewCompletionAdapter(client CompletionClient, humanTag, assistantTag string, params Params) *CompletionAdapter {
	return &CompletionAdapter{
		client:       client,
		humanTag:     humanTag,
		assistantTag: assistantTag,
		params:       params,
		config:       Config{EnableTodaysDate: true},
	}
}

// Config returns the adapter's default caller-facing configuration.
func (a *CompletionAdapter) Config() Config { return a.config }

// CallLLM renders the conversation as a single tagged prompt and returns the
// raw completion text, or "" when the back end produced nothing.
func (a *CompletionAdapter) CallLLM(ctx context.Context, messages []Message, queryPrefix string) (string, error) {
	p := a.params.withDefaults(completionDefaults())
	resp, err := a.client.CreateCompletion(ctx, CompletionRequest{
		Prompt:            a.buildPrompt(messages, queryPrefix),
		Model:             p.Model,
		MaxTokensToSample: maxTokensToSample,
		Temperature:       p.Temperature,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Completion, nil
}

// buildPrompt renders each turn as "<tag> content" in conversation order.
// System turns ride the human channel wrapped in <system> markers. Unless the
// conversation already ends mid-assistant-turn, an assistant tag (followed by
// the optional query prefix, space-separated) is appended to seed the
// continuation.
func (a *CompletionAdapter) buildPrompt(messages []Message, queryPrefix string) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			b.WriteString(a.humanTag + " " + m.Content)
		case RoleAssistant:
			b.WriteString(a.assistantTag + " " + m.Content)
		case RoleSystem:
			b.WriteString(a.humanTag + " <system>" + m.Content + "</system>")
		}
	}
	if n := len(messages); n == 0 || messages[n-1].Role != RoleAssistant {
		b.WriteString(a.assistantTag)
		if queryPrefix != "" {
			b.WriteString(" " + queryPrefix)
		}
	}
	return b.String()
}
