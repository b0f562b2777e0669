package mqtt

import "sync"

// DefaultHistorySize is the number of payloads kept per topic.
const DefaultHistorySize = 5

// History keeps the last N decoded payloads of every concrete topic seen.
// Entries are created on the first message and never removed; the oldest
// payload is evicted once a topic holds N.
type History struct {
	mu     sync.RWMutex
	size   int
	topics map[string]*ring
}

type ring struct {
	buf   []any
	start int
	n     int
}

// NewHistory returns a History holding size payloads per topic. Sizes
// below 1 fall back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{size: size, topics: make(map[string]*ring)}
}

// Append records v as the newest payload on topic.
func (h *History) Append(topic string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.topics[topic]
	if r == nil {
		r = &ring{buf: make([]any, h.size)}
		h.topics[topic] = r
	}

	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Last returns the newest payload on topic.
func (h *History) Last(topic string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r := h.topics[topic]
	if r == nil || r.n == 0 {
		return nil, false
	}
	return r.buf[(r.start+r.n-1)%len(r.buf)], true
}

// Snapshot returns a copy of the payloads on topic, oldest first.
func (h *History) Snapshot(topic string) []any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r := h.topics[topic]
	if r == nil {
		return nil
	}
	out := make([]any, r.n)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Topics returns the number of topics with history.
func (h *History) Topics() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}
