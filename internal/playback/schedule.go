package playback

import "time"

// DefaultPollInterval is the minimum spacing between remote playback fetches.
const DefaultPollInterval = 5 * time.Second

// PollState records when the remote player was last asked for its state.
type PollState struct {
	LastPollAt time.Time
}

// ShouldPoll reports whether at least interval has passed since the last poll.
//
// A state that has never polled always polls. A non-positive interval means [DefaultPollInterval].
func ShouldPoll(state PollState, now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if state.LastPollAt.IsZero() {
		return true
	}
	return now.Sub(state.LastPollAt) >= interval
}

// RecordPoll marks a fetch attempt at now. Call it once per attempt whether or not the fetch succeeds.
func RecordPoll(state *PollState, now time.Time) {
	state.LastPollAt = now
}
