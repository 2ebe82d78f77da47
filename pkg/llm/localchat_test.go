package llm_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/obyrne/llmbridge/llmtest"
	"github.com/obyrne/llmbridge/pkg/llm"
)

// recordingTemplate is a minimal template collaborator that captures its
// input and returns a fixed rendering.
func recordingTemplate(captured *[]llm.Message) llm.TemplateFunc {
	return func(messages []llm.Message) llm.RenderedPrompt {
		*captured = append([]llm.Message(nil), messages...)
		return llm.RenderedPrompt{
			Prompt:        "RENDERED",
			StopSequences: []string{"</s>", "[INST]"},
		}
	}
}

func TestLocalChatAdapter_SendsRenderedPromptAsUserMessage(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient(chatResponse("answer"))
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{})

	msgs := []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}
	got, err := a.CallLLM(context.Background(), msgs, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "answer" {
		t.Errorf("CallLLM() = %q, want %q", got, "answer")
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("captured %d requests, want 1", len(reqs))
	}
	req := reqs[0]
	if len(req.Messages) != 1 {
		t.Fatalf("request has %d messages, want 1 synthetic user message", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleUser || req.Messages[0].Content != "RENDERED" {
		t.Errorf("request message = %+v, want user message carrying the rendered prompt", req.Messages[0])
	}
	if !reflect.DeepEqual(req.Stop, []string{"</s>", "[INST]"}) {
		t.Errorf("request stop = %v, want the template's stop sequences", req.Stop)
	}
	if req.Model != "mistral" {
		t.Errorf("request model = %q, want default %q", req.Model, "mistral")
	}
}

func TestLocalChatAdapter_SeedsQueryPrefix(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient(chatResponse("answer"))
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{})

	msgs := []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}
	if _, err := a.CallLLM(context.Background(), msgs, "Sure,"); err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}

	if len(rendered) != 2 {
		t.Fatalf("template saw %d messages, want 2 (prefix seeded)", len(rendered))
	}
	last := rendered[1]
	if last.Role != llm.RoleAssistant || last.Content != "Sure," {
		t.Errorf("template's last message = %+v, want the seeded assistant turn", last)
	}

	// The caller's slice stays untouched.
	if len(msgs) != 1 {
		t.Errorf("caller's messages grew to %d entries, want 1", len(msgs))
	}
}

func TestLocalChatAdapter_NoSeedWhenAssistantLast(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient(chatResponse("answer"))
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{})

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hel"},
	}
	if _, err := a.CallLLM(context.Background(), msgs, "ignored"); err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}

	if len(rendered) != 2 {
		t.Errorf("template saw %d messages, want 2 (no turn appended)", len(rendered))
	}
}

func TestLocalChatAdapter_NoChoices(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient(llm.ChatResponse{})
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{})

	got, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "" {
		t.Errorf("CallLLM() = %q, want empty answer for choiceless response", got)
	}
}

func TestLocalChatAdapter_PropagatesClientError(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient()
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{})

	_, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err == nil {
		t.Fatal("CallLLM() expected error, got nil")
	}
}

func TestLocalChatAdapter_ParamsOverride(t *testing.T) {
	var rendered []llm.Message
	client := llmtest.NewScriptedChatClient(chatResponse("ok"))
	temp := 0.5
	a := llm.NewLocalChatAdapter(client, recordingTemplate(&rendered), llm.Params{Model: "zephyr", Temperature: &temp})

	if _, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, ""); err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}

	req := client.Requests()[0]
	if req.Model != "zephyr" {
		t.Errorf("request model = %q, want %q", req.Model, "zephyr")
	}
	if req.Temperature == nil || *req.Temperature != 0.5 {
		t.Errorf("request temperature = %v, want 0.5", req.Temperature)
	}
}
