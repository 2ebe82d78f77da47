package trace

import (
	"encoding/json"
	"sync"
	"time"
)

// CallTrace captures a single adapter invocation: the messages sent,
// the query prefix, the answer, and timing information.
type CallTrace struct {
	Provider    string        `json:"provider"`
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	QueryPrefix string        `json:"query_prefix,omitempty"`
	Answered    bool          `json:"answered"`
	Answer      string        `json:"answer"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`

	mu sync.Mutex
}

// Message records a single message in the conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new CallTrace and marks the start time.
func New(provider, model string) *CallTrace {
	return &CallTrace{
		Provider:  provider,
		Model:     model,
		StartTime: time.Now(),
	}
}

// AddMessage appends a message to the trace.
func (t *CallTrace) AddMessage(role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// SetPrefix records the query prefix used for the call.
func (t *CallTrace) SetPrefix(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.QueryPrefix = prefix
}

// SetAnswer records the call's answer. An empty answer marks the call
// as unanswered.
func (t *CallTrace) SetAnswer(answer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Answer = answer
	t.Answered = answer != ""
}

// Finish marks the trace as complete and records the end time and duration.
func (t *CallTrace) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.EndTime = time.Now()
	t.Duration = t.EndTime.Sub(t.StartTime)
}

// GetMessages returns a copy of all recorded messages.
func (t *CallTrace) GetMessages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

// JSON serializes the trace to indented JSON bytes.
func (t *CallTrace) JSON() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.MarshalIndent(t, "", "  ")
}
