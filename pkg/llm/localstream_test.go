package llm_test

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/obyrne/llmbridge/llmtest"
	"github.com/obyrne/llmbridge/pkg/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func delta(text string) llm.Token {
	return llm.Token{Kind: llm.TokenDelta, Message: text}
}

func complete(text string) llm.Token {
	return llm.Token{Kind: llm.TokenCompleteMessage, Message: text}
}

func TestLocalStreamAdapter_TruncatesAtFirstStopSequence(t *testing.T) {
	stream := llmtest.NewSliceStream(delta("hel"), delta("lo"), complete("hello</s>world"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	got, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("CallLLM() = %q, want %q", got, "hello")
	}
	if !stream.Closed() {
		t.Error("stream was not closed after the terminal token")
	}
}

func TestLocalStreamAdapter_NoCompleteMessageToken(t *testing.T) {
	stream := llmtest.NewSliceStream(delta("a"), delta("b"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	got, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "" {
		t.Errorf("CallLLM() = %q, want empty answer for an exhausted stream", got)
	}
	if stream.Remaining() != 0 {
		t.Errorf("stream has %d unconsumed tokens, want 0", stream.Remaining())
	}
	if !stream.Closed() {
		t.Error("stream was not closed after exhaustion")
	}
}

func TestLocalStreamAdapter_StopsConsumingAtTerminalToken(t *testing.T) {
	stream := llmtest.NewSliceStream(complete("early</s>"), delta("never read"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	got, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "early" {
		t.Errorf("CallLLM() = %q, want %q", got, "early")
	}
	if stream.Remaining() != 1 {
		t.Errorf("stream has %d unconsumed tokens, want 1 (iteration abandoned early)", stream.Remaining())
	}
	if !stream.Closed() {
		t.Error("stream was not closed on early exit")
	}
}

func TestLocalStreamAdapter_EmptyAfterTruncation(t *testing.T) {
	stream := llmtest.NewSliceStream(complete("</s>trailing"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	got, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}
	if got != "" {
		t.Errorf("CallLLM() = %q, want empty answer when truncation leaves nothing", got)
	}
}

func TestLocalStreamAdapter_SeedsQueryPrefix(t *testing.T) {
	stream := llmtest.NewSliceStream(complete("ok"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

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
	if len(msgs) != 1 {
		t.Errorf("caller's messages grew to %d entries, want 1", len(msgs))
	}
}

func TestLocalStreamAdapter_RequestShape(t *testing.T) {
	stream := llmtest.NewSliceStream(complete("ok"))
	client := llmtest.NewScriptedStreamClient(stream)
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	if _, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, ""); err != nil {
		t.Fatalf("CallLLM() error: %v", err)
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("captured %d requests, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Prompt != "RENDERED" {
		t.Errorf("request prompt = %q, want %q", req.Prompt, "RENDERED")
	}
	if req.Model != "mistral" {
		t.Errorf("request model = %q, want default %q", req.Model, "mistral")
	}
	if req.Port != 8080 {
		t.Errorf("request port = %d, want 8080", req.Port)
	}
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Errorf("request temperature = %v, want 0", req.Temperature)
	}
}

func TestLocalStreamAdapter_PropagatesClientError(t *testing.T) {
	client := llmtest.NewScriptedStreamClient()
	var rendered []llm.Message
	a := llm.NewLocalStreamAdapter(client, recordingTemplate(&rendered), llm.Params{})

	_, err := a.CallLLM(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hi"}}, "")
	if err == nil {
		t.Fatal("CallLLM() expected error, got nil")
	}
}
