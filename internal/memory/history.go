package memory

import "sync"

// RequestHistory keeps every request the user made during the task, one per
// finished round.
type RequestHistory struct {
	mu       sync.RWMutex
	requests []string
}

func NewRequestHistory() *RequestHistory {
	return &RequestHistory{}
}

func (h *RequestHistory) Append(request string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, request)
}

// Items returns the requests oldest first.
func (h *RequestHistory) Items() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.requests))
	copy(out, h.requests)
	return out
}

func (h *RequestHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.requests)
}
