// Package llm defines the text-completion service interface and related types.
// Providers are interchangeable behind this interface — OpenRouter today, anything tomorrow.
package llm

import (
	"context"
)

// Role constants for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the core abstraction for the text-completion service.
// One blocking call, no internal retries — timeouts and retries belong to
// the caller.
type Completer interface {
	// Complete sends the full message sequence and returns the assistant's
	// final text.
	Complete(ctx context.Context, messages []Message) (string, error)
}
