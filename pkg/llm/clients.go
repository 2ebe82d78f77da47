package llm

import "context"

// ChatRequest is the input to a chat-completion collaborator.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	Stop        []string
}

// ChatChoice is one candidate answer in a chat-completion response. An empty
// Content means the back end returned no usable text for this choice.
type ChatChoice struct {
	Message Message
}

// ChatResponse is the output of a chat-completion collaborator.
type ChatResponse struct {
	Choices []ChatChoice
}

// ChatClient is the chat-completion collaborator: one request, one terminal
// response, no streaming.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// CompletionRequest is the input to a raw text-completion collaborator whose
// API takes a single formatted prompt string instead of a message list.
type CompletionRequest struct {
	Prompt            string
	Model             string
	MaxTokensToSample int
	Temperature       *float64
}

// CompletionResponse is the output of a raw text-completion collaborator.
type CompletionResponse struct {
	Completion string
}

// CompletionClient is the raw-completion collaborator.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// GenerateRequest is the input to the streaming text-generation collaborator.
type GenerateRequest struct {
	Prompt      string
	Model       string
	Port        int
	Temperature *float64
}

// StreamClient is the streaming collaborator. The returned stream must honor
// graceful teardown when the consumer closes it before draining every token.
type StreamClient interface {
	GenerateStream(ctx context.Context, req GenerateRequest) (TokenStream, error)
}

// RenderedPrompt is the output of a template collaborator: a raw prompt plus
// the stop sequences generated text must be truncated at.
type RenderedPrompt struct {
	Prompt        string
	StopSequences []string
}

// TemplateFunc converts a message sequence into a raw prompt for back ends
// that take formatted text instead of chat history. Implementations are pure;
// they never modify the input slice.
type TemplateFunc func(messages []Message) RenderedPrompt
