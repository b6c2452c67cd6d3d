package orchestrator

import (
	"encoding/json"
	"sync"
)

// Event is a generic progress payload published while a goal runs.
type Event struct {
	Event   string      `json:"event"`
	GoalID  string      `json:"goal_id"`
	Payload interface{} `json:"payload,omitempty"`
}

type subscriber chan []byte

// Hub fans out goal progress events to subscribers. Publishing never blocks:
// slow subscribers drop events.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[subscriber]struct{} // goalID -> set of subscribers
}

func NewHub() *Hub { return &Hub{subs: map[string]map[subscriber]struct{}{}} }

// Subscribe registers for one goal's events. An empty goalID subscribes to
// every goal, which is how observers attach before the goal ID exists.
func (h *Hub) Subscribe(goalID string) (<-chan []byte, func()) {
	ch := make(subscriber, 16)
	h.mu.Lock()
	set := h.subs[goalID]
	if set == nil {
		set = map[subscriber]struct{}{}
		h.subs[goalID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()
	unsubscribe := func() {
		h.mu.Lock()
		if set, ok := h.subs[goalID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, goalID)
			}
		}
		close(ch)
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

func (h *Hub) Publish(goalID string, ev Event) {
	b, _ := json.Marshal(ev)
	h.mu.RLock()
	for _, set := range [2]map[subscriber]struct{}{h.subs[goalID], h.subs[""]} {
		for ch := range set {
			// non-blocking send
			select {
			case ch <- b:
			default:
			}
		}
	}
	h.mu.RUnlock()
}
