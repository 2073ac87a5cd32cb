package oracle

import (
	"context"
	"errors"
	"sync"
)

// Scripted replays Responses in order across all calls and wraps around at the end.
// It records every situation it is asked about.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int

	Calls []Situation
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Decide(ctx context.Context, sit Situation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, sit)
	if len(s.responses) == 0 {
		return "", errors.New("scripted oracle has no responses")
	}
	r := s.responses[s.next%len(s.responses)]
	s.next++
	return r, nil
}

func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
