// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import "sync"

// Snapshot is the read-only view of a run's progress. EstimatedTotal is
// taken once before pagination begins and never refreshed, so it can
// under- or over-count when mail arrives during the run.
type Snapshot struct {
	EstimatedTotal uint32
	MovedCount     int
}

// Observer is notified after every progress change. Rendering lives
// entirely in observers, the tracker itself never prints anything.
type Observer func(Snapshot)

type Tracker struct {
	mu             sync.Mutex
	estimatedTotal uint32
	movedCount     int
	observers      []Observer
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Subscribe(observer Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, observer)
	t.mu.Unlock()
}

func (t *Tracker) SetEstimate(total uint32) {
	t.mu.Lock()
	t.estimatedTotal = total
	t.mu.Unlock()
	t.notify()
}

// RecordMoved is called once per confirmed chunk, movedCount only ever
// grows.
func (t *Tracker) RecordMoved(n int) {
	t.mu.Lock()
	t.movedCount += n
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		EstimatedTotal: t.estimatedTotal,
		MovedCount:     t.movedCount,
	}
}

func (t *Tracker) notify() {
	snapshot := t.Snapshot()
	t.mu.Lock()
	observers := t.observers
	t.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}
