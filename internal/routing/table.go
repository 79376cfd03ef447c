// Package routing holds the coordinator's view of network membership: the
// set of joined node identities, each with an expiring liveness deadline.
package routing

import (
	"sort"
	"time"

	"github.com/fenrir/lurker/internal/packet"
)

// Table tracks joined nodes up to a fixed capacity. An entry is created on
// the first valid join request, re-armed by every subsequent packet from
// that identity, and removed by Sweep once its liveness window lapses.
// Absence means "not joined". The table is owned by the coordinator loop
// and needs no locking.
type Table struct {
	capacity int
	window   time.Duration
	deadline map[packet.NodeID]time.Time
	rejected int

	now func() time.Time
}

func NewTable(capacity int, window time.Duration) *Table {
	return &Table{
		capacity: capacity,
		window:   window,
		deadline: make(map[packet.NodeID]time.Time),
		now:      time.Now,
	}
}

// Touch inserts id or re-arms its liveness deadline. Inserting a new
// identity into a full table is a no-op: the node simply never gets
// acknowledged and keeps retrying. The second return reports whether the
// entry was newly created.
func (t *Table) Touch(id packet.NodeID) (ok bool, created bool) {
	_, present := t.deadline[id]
	if !present && len(t.deadline) >= t.capacity {
		t.rejected++
		return false, false
	}
	t.deadline[id] = t.now().Add(t.window)
	return true, !present
}

// Contains reports whether id is currently joined.
func (t *Table) Contains(id packet.NodeID) bool {
	_, present := t.deadline[id]
	return present
}

// Active returns the joined identities in ascending order, giving the scan
// cycle a stable round-robin sequence.
func (t *Table) Active() []packet.NodeID {
	ids := make([]packet.NodeID, 0, len(t.deadline))
	for id := range t.deadline {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sweep removes every entry whose deadline has lapsed and returns the
// removed identities. Removal happens only here, decoupling membership
// cleanup from the scan cadence.
func (t *Table) Sweep() []packet.NodeID {
	now := t.now()
	var removed []packet.NodeID
	for id, deadline := range t.deadline {
		if now.After(deadline) {
			delete(t.deadline, id)
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

// Reset clears the whole table for a fresh enumeration.
func (t *Table) Reset() {
	t.deadline = make(map[packet.NodeID]time.Time)
}

func (t *Table) Len() int {
	return len(t.deadline)
}

// Rejected counts join attempts dropped because the table was full.
func (t *Table) Rejected() int {
	return t.rejected
}
