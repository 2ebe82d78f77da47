package llm

import "context"

// ChatAdapter drives a strict chat-completion API that rejects a trailing
// assistant-role message as input: that slot is reserved for the model's own
// output.
type ChatAdapter struct {
	client ChatClient
	params Params
	config Config
}

func chatDefaults() Params {
	t := 0.0
	return Params{Model: "gpt-3.5-turbo", Temperature: &t}
}

// NewChatAdapter creates an adapter for a strict chat-completion back end.
// params override the defaults {gpt-3.5-turbo, temperature 0} field by field.
func NewChatAdapter(client ChatClient, params Params) *ChatAdapter {
	return &ChatAdapter{
		client: client,
		params: params,
		config: Config{EnableTodaysDate: true},
	}
}

// Config returns the adapter's default caller-facing configuration.
func (a *ChatAdapter) Config() Config { return a.config }

// CallLLM sends the conversation verbatim as chat history. A trailing
// assistant turn is first folded into the preceding message, preserving the
// caller's continuation hint without violating the API's structural
// requirement. queryPrefix is accepted for interface symmetry but unused:
// the fold is this adapter's continuation mechanism.
func (a *ChatAdapter) CallLLM(ctx context.Context, messages []Message, queryPrefix string) (string, error) {
	_ = queryPrefix
	if len(messages) == 0 {
		return "", nil
	}

	history := foldTrailingAssistant(messages)
	if len(history) == 0 {
		return "", nil
	}

	p := a.params.withDefaults(chatDefaults())
	resp, err := a.client.CreateChatCompletion(ctx, ChatRequest{
		Model:       p.Model,
		Messages:    history,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", err
	}
	return firstChoiceText(resp), nil
}

// foldTrailingAssistant merges a trailing assistant turn into the preceding
// message, blank-line separated. The input slice is not modified. A sequence
// consisting of only an assistant turn has nothing to fold onto and collapses
// to nil.
func foldTrailingAssistant(messages []Message) []Message {
	n := len(messages)
	if n == 0 || messages[n-1].Role != RoleAssistant {
		return messages
	}
	if n == 1 {
		return nil
	}
	out := make([]Message, n-1)
	copy(out, messages[:n-1])
	out[n-2].Content += "\n\n" + messages[n-1].Content
	return out
}

// firstChoiceText extracts the first choice's content, or "" when the
// response or its choice list is absent.
func firstChoiceText(resp *ChatResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
