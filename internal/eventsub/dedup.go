package eventsub

import "sync"

// DedupBuffer remembers the last N notification IDs it has seen. During a
// connection handover both sockets can deliver the same notification; the
// shared buffer is what keeps delivery exactly-once.
type DedupBuffer struct {
	mu   sync.Mutex
	ids  []string
	size int
}

// NewDedupBuffer returns a buffer remembering the last size IDs.
func NewDedupBuffer(size int) *DedupBuffer {
	return &DedupBuffer{size: size}
}

// Push records an ID and reports whether it was new. Once full, the oldest
// remembered ID is evicted first.
func (b *DedupBuffer) Push(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, seen := range b.ids {
		if seen == id {
			return false
		}
	}
	if len(b.ids) >= b.size {
		b.ids = b.ids[1:]
	}
	b.ids = append(b.ids, id)
	return true
}
