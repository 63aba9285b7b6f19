package chatModel

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem marks transient notices. They never reach a prompt and are
	// dropped when the next assistant message or error is posted.
	RoleSystem Role = "system"
)

type Message struct {
	Id        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
}

func (m Message) IsNotice() bool {
	return m.Role == RoleSystem
}

type Step string

const (
	StepIdle      Step = "idle"
	StepRouting   Step = "routing"
	StepReading   Step = "reading"
	StepReasoning Step = "reasoning"
)

type ProcessingState struct {
	Step            Step   `json:"step"`
	CurrentDocument string `json:"current_document,omitempty"`
}

func Idle() ProcessingState {
	return ProcessingState{Step: StepIdle}
}

// MessageLog stores the visible messages of one conversation.
type MessageLog interface {
	Append(ctx context.Context, conversationId string, msg Message) error
	List(ctx context.Context, conversationId string) ([]Message, error)
	// Replace swaps the whole log, used to drop notices atomically.
	Replace(ctx context.Context, conversationId string, msgs []Message) error
	Clear(ctx context.Context, conversationId string) error
	// Exists reports whether a log is stored for the conversation.
	Exists(ctx context.Context, conversationId string) (bool, error)
}

// WithoutNotices returns msgs minus system notices, order preserved.
func WithoutNotices(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsNotice() {
			out = append(out, m)
		}
	}
	return out
}
