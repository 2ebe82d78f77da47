// Package template renders chat message histories into the raw prompt
// strings local models expect. Each renderer pairs a prompt with the
// stop sequences that delimit a turn in that format.
package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/obyrne/llmbridge/pkg/llm"
)

// ErrUnknownTemplate is returned by Lookup for an unregistered key.
var ErrUnknownTemplate = errors.New("unknown prompt template")

var registry = map[string]llm.TemplateFunc{
	"mistral": Mistral,
	"llama2":  Llama2,
	"chatml":  ChatML,
}

// Lookup returns the renderer registered under key.
func Lookup(key string) (llm.TemplateFunc, error) {
	fn, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	return fn, nil
}

// Keys returns the registered template names in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mistral renders the [INST] instruction format. A system turn is held
// and folded into the next user turn. A trailing assistant turn is left
// open so the model continues it.
func Mistral(messages []llm.Message) llm.RenderedPrompt {
	var b strings.Builder
	b.WriteString("<s>")
	var system string
	for i, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			content := m.Content
			if system != "" {
				content = system + "\n\n" + content
				system = ""
			}
			b.WriteString("[INST] ")
			b.WriteString(content)
			b.WriteString(" [/INST]")
		case llm.RoleAssistant:
			b.WriteString(" ")
			b.WriteString(m.Content)
			if i != len(messages)-1 {
				b.WriteString("</s>")
			}
		}
	}
	return llm.RenderedPrompt{
		Prompt:        b.String(),
		StopSequences: []string{"</s>", "[INST]"},
	}
}

// Llama2 renders the Llama-2 chat format with a <<SYS>> block folded
// into the first user turn after it.
func Llama2(messages []llm.Message) llm.RenderedPrompt {
	var b strings.Builder
	var system string
	for i, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			b.WriteString("<s>[INST] ")
			if system != "" {
				b.WriteString("<<SYS>>\n")
				b.WriteString(system)
				b.WriteString("\n<</SYS>>\n\n")
				system = ""
			}
			b.WriteString(m.Content)
			b.WriteString(" [/INST]")
		case llm.RoleAssistant:
			b.WriteString(" ")
			b.WriteString(m.Content)
			if i != len(messages)-1 {
				b.WriteString(" </s>")
			}
		}
	}
	return llm.RenderedPrompt{
		Prompt:        b.String(),
		StopSequences: []string{"</s>"},
	}
}

// ChatML renders the <|im_start|> turn format. Unless the history ends
// with an assistant turn, an opened assistant header is appended so the
// model answers next.
func ChatML(messages []llm.Message) llm.RenderedPrompt {
	var b strings.Builder
	for i, m := range messages {
		b.WriteString("<|im_start|>")
		b.WriteString(string(m.Role))
		b.WriteString("\n")
		b.WriteString(m.Content)
		if m.Role == llm.RoleAssistant && i == len(messages)-1 {
			continue
		}
		b.WriteString("<|im_end|>\n")
	}
	if n := len(messages); n == 0 || messages[n-1].Role != llm.RoleAssistant {
		b.WriteString("<|im_start|>assistant\n")
	}
	return llm.RenderedPrompt{
		Prompt:        b.String(),
		StopSequences: []string{"<|im_end|>"},
	}
}
