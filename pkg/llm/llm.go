// Package llm defines the provider-agnostic message model and the Adapter
// contract that lets callers drive incompatible LLM back ends through one
// uniform request/response shape.
package llm

import "context"

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation. Order is conversation order and
// is semantically significant.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Params are per-call provider parameters. An adapter merges them with its
// own defaults field by field: a zero Model or nil Temperature keeps the
// default, anything set by the caller wins.
type Params struct {
	Model       string
	Temperature *float64
}

// withDefaults returns p with unset fields filled in from d.
func (p Params) withDefaults(d Params) Params {
	out := p
	if out.Model == "" {
		out.Model = d.Model
	}
	if out.Temperature == nil {
		out.Temperature = d.Temperature
	}
	return out
}

// Config is an adapter's static default configuration. Adapters expose it but
// never act on it themselves: a caller assembling the message list is expected
// to read it and inject the current date or few-shot examples before calling.
type Config struct {
	EnableTodaysDate bool
	FewShotLearning  []Message
}

// Adapter is the single externally visible contract. All four provider
// families satisfy it identically in shape, divergently in behavior.
//
// CallLLM returns the model's answer text. The empty string means "no usable
// answer" (degenerate input, absent response fields, an exhausted stream) and
// is a value, not a failure; collaborator errors propagate unmodified.
type Adapter interface {
	Config() Config
	CallLLM(ctx context.Context, messages []Message, queryPrefix string) (string, error)
}

// SeedAssistantPrefix appends a synthetic assistant turn carrying prefix when
// prefix is non-empty and the conversation does not already end mid-assistant
// turn. It returns the resulting sequence and whether a turn was appended.
// The input slice is never modified.
func SeedAssistantPrefix(messages []Message, prefix string) ([]Message, bool) {
	if prefix == "" {
		return messages, false
	}
	if n := len(messages); n > 0 && messages[n-1].Role == RoleAssistant {
		return messages, false
	}
	out := make([]Message, len(messages), len(messages)+1)
	copy(out, messages)
	return append(out, Message{Role: RoleAssistant, Content: prefix}), true
}
