// Package membership converts the hub's wholesale membership snapshots into
// joined/left edge events.
package membership

import "sort"

// Tracker remembers the peers seen in the last snapshot, excluding self.
// Snapshots replace prior state wholesale, so lost or reordered snapshots
// re-synchronize on the next one instead of accumulating drift.
//
// Tracker is not safe for concurrent use; it is driven from the coordinator
// loop.
type Tracker struct {
	self  string
	known map[string]struct{}
}

// NewTracker creates a tracker for the local client id.
func NewTracker(self string) *Tracker {
	return &Tracker{
		self:  self,
		known: make(map[string]struct{}),
	}
}

// Apply diffs a new snapshot against the previously known peers and replaces
// them. Returned slices are sorted so downstream behavior is deterministic.
func (t *Tracker) Apply(snapshot []string) (joined, left []string) {
	next := make(map[string]struct{}, len(snapshot))
	for _, id := range snapshot {
		if id == t.self {
			continue
		}
		next[id] = struct{}{}
	}

	for id := range next {
		if _, ok := t.known[id]; !ok {
			joined = append(joined, id)
		}
	}
	for id := range t.known {
		if _, ok := next[id]; !ok {
			left = append(left, id)
		}
	}

	t.known = next
	sort.Strings(joined)
	sort.Strings(left)
	return joined, left
}

// Known returns the sorted peer ids from the last snapshot.
func (t *Tracker) Known() []string {
	ids := make([]string, 0, len(t.known))
	for id := range t.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
