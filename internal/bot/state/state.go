// Package state tracks where each user is in a multi-message conversation.
// The tracker is in-memory only; a restart puts everyone back to idle.
package state

import "sync"

// State is a conversational mode.
type State int

const (
	// Idle is the default for users the tracker has never seen.
	Idle State = iota
	// AwaitingEntryBody means the next free-text message becomes an entry.
	AwaitingEntryBody
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingEntryBody:
		return "awaiting_entry_body"
	default:
		return "unknown"
	}
}

// Tracker maps user ids to their State. Safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[int64]State)}
}

// Get returns the user's state, Idle if unknown.
func (t *Tracker) Get(userID int64) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[userID]
}

// Set records the user's state. Setting Idle forgets the user.
func (t *Tracker) Set(userID int64, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s == Idle {
		delete(t.states, userID)
		return
	}
	t.states[userID] = s
}

// Reset puts the user back to Idle.
func (t *Tracker) Reset(userID int64) { t.Set(userID, Idle) }

// Pending returns how many users are mid-conversation.
func (t *Tracker) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}
