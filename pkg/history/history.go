package history

import (
	"sync"

	"github.com/boristopalov/automata/pkg/core"
)

// Recorder keeps the probability snapshots of one trial, oldest first.
// A capacity of 0 keeps every snapshot; otherwise only the most recent
// capacity snapshots are retained.
type Recorder struct {
	snapshots []core.Probabilities
	capacity  int
	dropped   int
	mu        sync.RWMutex
}

func NewRecorder(capacity int) *Recorder {
	if capacity < 0 {
		capacity = 0
	}
	return &Recorder{
		snapshots: make([]core.Probabilities, 0, min(capacity, 4096)),
		capacity:  capacity,
	}
}

// Store appends a snapshot, evicting the oldest one when full
func (r *Recorder) Store(p core.Probabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots = append(r.snapshots, p)
	if r.capacity > 0 && len(r.snapshots) > r.capacity {
		r.snapshots = r.snapshots[1:]
		r.dropped++
	}
}

// Snapshots returns a copy of the retained snapshots
func (r *Recorder) Snapshots() []core.Probabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Probabilities, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

// Dropped returns how many snapshots were evicted
func (r *Recorder) Dropped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}
