package llm

import (
	"context"
	"sync"
)

// MockOracle is used when no real provider is configured, and by tests.
// Queued responses are returned in order; once drained (or when none were
// queued) every Ask returns Fallback.
type MockOracle struct {
	mu       sync.Mutex
	queue    []string
	Fallback string
	Err      error
	Prompts  []string // every prompt seen, in order
}

// Enqueue appends scripted responses.
func (m *MockOracle) Enqueue(responses ...string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
	return m
}

func (m *MockOracle) Ask(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r, nil
	}
	return m.Fallback, nil
}
