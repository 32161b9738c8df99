package llm

import (
	"context"
)

// StubCompleter is a deterministic Completer for tests and local development.
// Responses are returned in order; the last one repeats once exhausted.
type StubCompleter struct {
	Responses []string
	Err       error
	Calls     [][]Message

	next int
}

// Complete records the call and returns the next canned response.
func (s *StubCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	s.Calls = append(s.Calls, messages)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", nil
	}
	i := s.next
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	s.next++
	return s.Responses[i], nil
}
