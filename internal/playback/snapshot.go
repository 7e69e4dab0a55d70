package playback

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable record of remote playback state at FetchedAt.
type Snapshot struct {
	TrackID    string
	TrackName  string
	Artists    []string
	Album      string
	DeviceID   string
	DeviceName string
	DurationMS int
	ProgressMS int // remote position when fetched
	IsPlaying  bool
	FetchedAt  time.Time
}

// Cell holds the current [Snapshot] for one writer and any number of readers.
//
// Snapshots are swapped whole, so a reader never pairs the duration of one poll with the timestamp of another.
type Cell struct {
	ptr atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or nil before the first successful poll.
func (c *Cell) Load() *Snapshot {
	return c.ptr.Load()
}

// Store publishes s unless it was fetched before the snapshot already held. It reports whether s was stored.
func (c *Cell) Store(s *Snapshot) bool {
	for {
		cur := c.ptr.Load()
		if cur != nil && s != nil && s.FetchedAt.Before(cur.FetchedAt) {
			return false
		}
		if c.ptr.CompareAndSwap(cur, s) {
			return true
		}
	}
}
