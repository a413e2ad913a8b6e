package domain

import (
	"sync"
	"time"
)

// ContributionWindow tracks, per user, the short period after a supply
// signal during which an incoming transfer counts as a liquidity
// contribution instead of a swap. Entries are ephemeral: expiry is a
// timestamp comparison, with expired entries swept opportunistically.
type ContributionWindow struct {
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewContributionWindow creates a window registry with the given timeout.
func NewContributionWindow(timeout time.Duration) *ContributionWindow {
	return &ContributionWindow{
		timeout: timeout,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// Open records the current time against the user, opening their window.
// Expired entries for other users are swept while the lock is held.
func (w *ContributionWindow) Open(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for id, opened := range w.entries {
		if now.Sub(opened) >= w.timeout {
			delete(w.entries, id)
		}
	}
	w.entries[userID] = now
}

// IsOpen reports whether the user's window is still open. A stale entry is
// removed on read.
func (w *ContributionWindow) IsOpen(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	opened, ok := w.entries[userID]
	if !ok {
		return false
	}
	if w.now().Sub(opened) >= w.timeout {
		delete(w.entries, userID)
		return false
	}
	return true
}

// Timeout returns the configured window duration.
func (w *ContributionWindow) Timeout() time.Duration {
	return w.timeout
}
