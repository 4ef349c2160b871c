// Package history keeps per-session lists of past queries and summaries.
// Nothing here is persisted.
package history

import (
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DisplayLimit is how many entries front-ends show.
	DisplayLimit = 10
	// PreviewLength is the number of runes kept by Preview.
	PreviewLength = 300
)

type Entry struct {
	Query     string    `json:"query" yaml:"query"`
	Summary   string    `json:"summary" yaml:"summary"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Preview returns the summary cut to PreviewLength runes, with "..." appended
// when it was cut.
func (e Entry) Preview() string {
	return Preview(e.Summary)
}

func Preview(summary string) string {
	if utf8.RuneCountInString(summary) <= PreviewLength {
		return summary
	}
	runes := []rune(summary)
	return string(runes[:PreviewLength]) + "..."
}

// History is an unbounded newest-first list of entries for one session.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func New() *History {
	return &History{now: time.Now}
}

func (h *History) Add(query, summary string) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := Entry{Query: query, Summary: summary, CreatedAt: h.now()}
	h.entries = append([]Entry{e}, h.entries...)
	return e
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (h *History) Recent(n int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[:n])
	return out
}

func (h *History) Latest() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[0], true
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
