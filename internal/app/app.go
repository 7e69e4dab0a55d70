// Package app holds the top-level playback state: the selected device, the latest remote
// snapshot, the poll gate, and the last displayed progress.
//
// [App.Due] and [App.Progress] are meant for the single UI goroutine. [App.Refresh] may run on
// another goroutine; it publishes through a [playback.Cell] so readers only see whole snapshots.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spt/internal/playback"
	"github.com/desertthunder/spt/internal/services"
	"github.com/desertthunder/spt/internal/shared"
)

// DeviceStore persists the selected device identifier.
type DeviceStore interface {
	Get() (string, error)
	Set(id string) error
}

// Options configures an [App].
type Options struct {
	Player       services.Player
	Cache        DeviceStore
	Logger       *log.Logger
	PollInterval time.Duration
	Now          func() time.Time
}

// App is the single owner of playback state for one session.
type App struct {
	player   services.Player
	cache    DeviceStore
	logger   *log.Logger
	interval time.Duration
	now      func() time.Time

	snapshot  playback.Cell
	poll      playback.PollState
	displayed int
	seen      *playback.Snapshot

	mu       sync.RWMutex
	deviceID string
	devices  []services.Device
}

// New creates an [App]. A nil cache disables device persistence.
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = playback.DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		player:   opts.Player,
		cache:    opts.Cache,
		logger:   opts.Logger,
		interval: opts.PollInterval,
		now:      opts.Now,
	}

	if a.cache != nil {
		if id, err := a.cache.Get(); err == nil {
			a.deviceID = id
		} else {
			a.logger.Debug("no cached device", "error", err)
		}
	}
	return a
}

// DeviceID returns the selected device, or "" when none is selected.
func (a *App) DeviceID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.deviceID
}

// Devices returns the device list from the most recent [App.SelectDevice].
func (a *App) Devices() []services.Device {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.devices)
}

// Snapshot returns the latest playback snapshot, or nil before the first successful poll.
func (a *App) Snapshot() *playback.Snapshot {
	return a.snapshot.Load()
}

// SelectDevice refreshes the device list and picks the cached device if present, else the first one.
//
// An empty list clears the selection and returns [shared.ErrNoUsableDevice].
func (a *App) SelectDevice(ctx context.Context) (services.Device, error) {
	devices, err := a.player.Devices(ctx)
	if err != nil {
		return services.Device{}, fmt.Errorf("%w: %v", shared.ErrRemoteFetch, err)
	}

	a.mu.Lock()
	a.devices = devices
	if len(devices) == 0 {
		a.deviceID = ""
		a.mu.Unlock()
		return services.Device{}, shared.ErrNoUsableDevice
	}

	selected := devices[0]
	if i := slices.IndexFunc(devices, func(d services.Device) bool { return d.ID == a.deviceID }); i >= 0 {
		selected = devices[i]
	}
	a.deviceID = selected.ID
	a.mu.Unlock()

	a.remember(selected.ID)
	return selected, nil
}

// UseDevice transfers playback to id and remembers it.
func (a *App) UseDevice(ctx context.Context, id string, play bool) error {
	if err := a.player.TransferPlayback(ctx, id, play); err != nil {
		return err
	}

	a.mu.Lock()
	a.deviceID = id
	a.mu.Unlock()

	a.remember(id)
	return nil
}

func (a *App) remember(id string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(id); err != nil {
		a.logger.Warn("failed to cache device id", "error", err)
	}
}

// Due reports whether a remote poll should be issued now, and records the attempt when it is.
func (a *App) Due(now time.Time) bool {
	if !playback.ShouldPoll(a.poll, now, a.interval) {
		return false
	}
	playback.RecordPoll(&a.poll, now)
	return true
}

// Refresh fetches the remote player state and publishes it as the current snapshot.
//
// On failure the previous snapshot is kept and the error wraps [shared.ErrRemoteFetch].
func (a *App) Refresh(ctx context.Context) error {
	pb, err := a.player.CurrentPlayback(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRemoteFetch, err)
	}

	a.snapshot.Store(newSnapshot(pb, a.now()))
	return nil
}

// Progress returns the position to display at now and remembers it as the frozen value for pauses.
func (a *App) Progress(now time.Time) int {
	snap := a.snapshot.Load()
	if snap != a.seen {
		a.seen = snap
		if snap != nil && !snap.IsPlaying {
			a.displayed = snap.ProgressMS
		}
	}

	a.displayed = playback.Estimate(snap, now, a.displayed)
	return a.displayed
}

// Tick polls when due and returns the current progress. Poll failures are logged, not returned.
func (a *App) Tick(ctx context.Context) int {
	now := a.now()
	if a.Due(now) {
		if err := a.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("playback poll failed", "error", err)
		}
	}
	return a.Progress(a.now())
}

// Toggle pauses a playing device and resumes a paused one.
func (a *App) Toggle(ctx context.Context) error {
	if snap := a.snapshot.Load(); snap != nil && snap.IsPlaying {
		return a.player.Pause(ctx, a.DeviceID())
	}
	return a.player.Resume(ctx, a.DeviceID())
}

// Invalidate makes the next [App.Due] return true, e.g. after a playback command changed remote state.
func (a *App) Invalidate() {
	a.poll = playback.PollState{}
}

// newSnapshot maps a remote playback state; nil or item-less playback becomes an idle snapshot.
func newSnapshot(pb *services.Playback, fetchedAt time.Time) *playback.Snapshot {
	snap := &playback.Snapshot{FetchedAt: fetchedAt}
	if pb == nil {
		return snap
	}

	snap.DeviceID = pb.Device.ID
	snap.DeviceName = pb.Device.Name
	if pb.Track == nil {
		return snap
	}

	snap.TrackID = pb.Track.ID
	snap.TrackName = pb.Track.Name
	snap.Artists = pb.Track.Artists
	snap.Album = pb.Track.Album
	snap.DurationMS = pb.Track.DurationMS
	snap.ProgressMS = pb.ProgressMS
	snap.IsPlaying = pb.IsPlaying
	return snap
}
