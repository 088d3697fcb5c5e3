package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_DefaultsToIdle(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, Idle, tr.Get(1))
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_Transitions(t *testing.T) {
	tr := NewTracker()

	tr.Set(1, AwaitingEntryBody)
	assert.Equal(t, AwaitingEntryBody, tr.Get(1))
	assert.Equal(t, Idle, tr.Get(2))
	assert.Equal(t, 1, tr.Pending())

	tr.Reset(1)
	assert.Equal(t, Idle, tr.Get(1))
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			tr.Set(id, AwaitingEntryBody)
			_ = tr.Get(id)
			if id%2 == 0 {
				tr.Reset(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, tr.Pending())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "awaiting_entry_body", AwaitingEntryBody.String())
	assert.Equal(t, "unknown", State(9).String())
}
