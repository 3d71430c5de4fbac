// Package dedup tracks links that have already been pushed so the same story
// is never delivered twice across digest runs.
package dedup

// DefaultCapacity bounds the ledger; the oldest entries are evicted first.
const DefaultCapacity = 5000

// Ledger is a capacity-bounded FIFO set of link strings. Membership checks are
// O(1); eviction removes the oldest entries when the bound is exceeded.
// It is not safe for concurrent use: the orchestrator owns one snapshot per run.
type Ledger struct {
	capacity int
	links    []string
	index    map[string]struct{}
}

// NewLedger creates a ledger seeded with previously persisted links, oldest
// first. Seeds beyond capacity are evicted immediately.
func NewLedger(capacity int, seed []string) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	l := &Ledger{
		capacity: capacity,
		links:    make([]string, 0, len(seed)),
		index:    make(map[string]struct{}, len(seed)),
	}

	for _, link := range seed {
		l.MarkSeen(link)
	}

	return l
}

// IsNew reports whether the link has not been pushed before.
func (l *Ledger) IsNew(link string) bool {
	_, seen := l.index[link]

	return !seen
}

// MarkSeen records a pushed link, evicting the oldest entries if the capacity
// is exceeded. Re-marking a known link is a no-op.
func (l *Ledger) MarkSeen(link string) {
	if _, seen := l.index[link]; seen {
		return
	}

	l.links = append(l.links, link)
	l.index[link] = struct{}{}

	for len(l.links) > l.capacity {
		evicted := l.links[0]
		l.links = l.links[1:]
		delete(l.index, evicted)
	}
}

// Links returns the ledger contents oldest first, for persistence.
func (l *Ledger) Links() []string {
	out := make([]string, len(l.links))
	copy(out, l.links)

	return out
}

// Len returns the number of tracked links.
func (l *Ledger) Len() int {
	return len(l.links)
}
