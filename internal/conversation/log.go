// Package conversation holds the ordered, append-only message log for the
// idea-clarification chat.
package conversation

import (
	"github.com/nofuss/sitecoach/internal/llm"
)

// SystemInstruction is the fixed opening system message for a new
// conversation. It is configuration, not user data: it travels to the
// completion service on every call but is never rendered back as chat
// history.
const SystemInstruction = `You are an expert web development consultant who helps users clarify their website requirements.
Your goal is to help users refine their website ideas into clear, specific project specifications.
Ask questions to understand their needs, target audience, desired features, and design preferences.
Guide the conversation to extract specific details about:
1. Website purpose and goals
2. Target audience
3. Key features and functionality
4. Design preferences (colors, style, layout)
5. Content sections needed

At the end of the conversation, you'll help create a structured specification that will be used to build their website.`

// AssistantGreeting is the fixed assistant opener paired with SystemInstruction.
const AssistantGreeting = `Hi there! I'm here to help you clarify your website requirements. What kind of website would you like to build? Please describe your idea in a few sentences.`

// seedLen is the number of fixed seed messages at the head of every log.
const seedLen = 2

// Log is an ordered conversation message sequence. Messages are only ever
// appended; nothing is removed.
type Log struct {
	messages []llm.Message
}

// New creates a Log seeded with the fixed system instruction and greeting.
func New() *Log {
	return &Log{
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemInstruction},
			{Role: llm.RoleAssistant, Content: AssistantGreeting},
		},
	}
}

// FromMessages builds a Log from an externally supplied message sequence
// (e.g. the client-held transcript posted to the chat endpoint). A sequence
// without the seed pair gets it prepended so the completion service always
// sees the instruction.
func FromMessages(msgs []llm.Message) *Log {
	if len(msgs) > 0 && msgs[0].Role == llm.RoleSystem {
		out := make([]llm.Message, len(msgs))
		copy(out, msgs)
		return &Log{messages: out}
	}
	l := New()
	l.messages = append(l.messages, msgs...)
	return l
}

// Append adds a message to the end of the log.
func (l *Log) Append(msg llm.Message) {
	l.messages = append(l.messages, msg)
}

// Messages returns the full sequence, seed pair included, for the
// completion service.
func (l *Log) Messages() []llm.Message {
	out := make([]llm.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Visible returns the messages a user should see: everything after the
// fixed seed pair.
func (l *Log) Visible() []llm.Message {
	if len(l.messages) <= seedLen {
		return nil
	}
	out := make([]llm.Message, len(l.messages)-seedLen)
	copy(out, l.messages[seedLen:])
	return out
}

// Tail returns the last n non-system messages, for the bounded audit window.
func (l *Log) Tail(n int) []llm.Message {
	if n <= 0 {
		return nil
	}
	var out []llm.Message
	for i := len(l.messages) - 1; i >= 0 && len(out) < n; i-- {
		if l.messages[i].Role == llm.RoleSystem {
			continue
		}
		out = append(out, l.messages[i])
	}
	// Reverse back into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// UserTurns counts the user messages in the log.
func (l *Log) UserTurns() int {
	n := 0
	for _, m := range l.messages {
		if m.Role == llm.RoleUser {
			n++
		}
	}
	return n
}

// Len returns the total number of messages, seed pair included.
func (l *Log) Len() int { return len(l.messages) }
