// Package playback reconstructs a smoothly advancing "now playing" position between remote polls.
//
// The remote player is polled rarely (every [DefaultPollInterval]) while the UI redraws many times a
// second. A [Snapshot] is the authoritative slow-refresh record; [Estimate] derives the fast-refresh
// position purely from time elapsed since the snapshot was fetched, so nothing accumulates and nothing
// drifts. [ShouldPoll] and [RecordPoll] gate how often the remote player is hit.
//
// Timestamps come from [time.Now], whose monotonic reading makes [time.Time.Sub] immune to wall clock
// adjustments.
package playback
