package eventbus

import (
	"context"
	"sync"

	"github.com/dukex/flowedit/pkg/events"
)

// DefaultFeedSize is the number of changes a Feed retains.
const DefaultFeedSize = 256

// Entry is a change with its position in the feed.
type Entry struct {
	Seq    uint64        `json:"seq"`
	Change events.Change `json:"change"`
}

// Feed retains the most recent changes for clients that poll instead of
// subscribing. Sequence numbers start at 1 and never repeat.
type Feed struct {
	mu      sync.RWMutex
	size    int
	last    uint64
	entries []Entry
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}

	return &Feed{size: size, entries: make([]Entry, 0, size)}
}

// Handle appends change to the feed. It satisfies EventHandler.
func (f *Feed) Handle(_ context.Context, change events.Change) error {
	f.Append(change)

	return nil
}

// Append stores change and returns its sequence number.
func (f *Feed) Append(change events.Change) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last++

	if len(f.entries) == f.size {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:f.size-1]
	}

	f.entries = append(f.entries, Entry{Seq: f.last, Change: change})

	return f.last
}

// Since returns the retained entries with a sequence number above after, oldest first.
func (f *Feed) Since(after uint64) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := []Entry{}

	for _, entry := range f.entries {
		if entry.Seq > after {
			out = append(out, entry)
		}
	}

	return out
}

// Last returns the sequence number of the newest change, or 0.
func (f *Feed) Last() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.last
}
