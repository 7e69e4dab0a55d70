package playback

import "time"

// Estimate returns the display position in milliseconds, within [0, snap.DurationMS].
//
// A nil snapshot yields 0. A paused snapshot yields prior unchanged (clamped), so the caller's last
// displayed value freezes. While playing, the position is the remote progress plus the time elapsed
// since the snapshot was fetched, capped at the track duration.
func Estimate(snap *Snapshot, now time.Time, prior int) int {
	if snap == nil {
		return 0
	}

	if !snap.IsPlaying {
		return clamp(prior, snap.DurationMS)
	}

	elapsed := max(now.Sub(snap.FetchedAt), 0)
	return clamp(snap.ProgressMS+int(elapsed.Milliseconds()), snap.DurationMS)
}

func clamp(ms, duration int) int {
	duration = max(duration, 0)
	return min(max(ms, 0), duration)
}
