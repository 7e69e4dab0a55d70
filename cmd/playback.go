package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/desertthunder/spt/internal/app"
	"github.com/desertthunder/spt/internal/formatter"
	"github.com/desertthunder/spt/internal/playback"
	"github.com/desertthunder/spt/internal/shared"
	"github.com/urfave/cli/v3"
)

// deviceView is the JSON shape of a device listing.
type deviceView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Active   bool   `json:"active"`
	Selected bool   `json:"selected"`
}

// statusView is the JSON shape of the current playback state.
type statusView struct {
	Track      string   `json:"track,omitempty"`
	Artists    []string `json:"artists,omitempty"`
	Album      string   `json:"album,omitempty"`
	Device     string   `json:"device,omitempty"`
	IsPlaying  bool     `json:"is_playing"`
	ProgressMS int      `json:"progress_ms"`
	DurationMS int      `json:"duration_ms"`
}

// DevicesList lists available devices and marks the cached selection.
func (r *Runner) DevicesList(ctx context.Context, cmd *cli.Command) error {
	player, err := r.playerFor(ctx)
	if err != nil {
		return err
	}

	a := r.newApp(player)
	selected, err := a.SelectDevice(ctx)
	if err != nil {
		return err
	}

	devices := a.Devices()
	if cmd.Bool("json") {
		views := make([]deviceView, len(devices))
		for i, d := range devices {
			views[i] = deviceView{ID: d.ID, Name: d.Name, Type: d.Type, Active: d.IsActive, Selected: d.ID == selected.ID}
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	switch format := cmd.String("format"); format {
	case "csv":
		data, err := formatter.DevicesToCSV(devices, selected.ID)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "text", "":
		return r.writePlain("%s", formatter.DevicesToText(devices, selected.ID))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// DevicesUse transfers playback to a device and caches it as the selection.
//
// Without --id the cached device, or else the first available one, is used.
func (r *Runner) DevicesUse(ctx context.Context, cmd *cli.Command) error {
	player, err := r.playerFor(ctx)
	if err != nil {
		return err
	}

	a := r.newApp(player)
	id := cmd.String("id")
	if id == "" {
		selected, err := a.SelectDevice(ctx)
		if err != nil {
			return err
		}
		id = selected.ID
	}

	if err := a.UseDevice(ctx, id, cmd.Bool("play")); err != nil {
		return fmt.Errorf("failed to transfer playback: %w", err)
	}

	r.logger.Info("playback transferred", "device", id)
	return r.writePlain("✓ Playback moved to %s\n", id)
}

// Status prints the current playback state once, or keeps printing the extrapolated position with --watch.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	player, err := r.playerFor(ctx)
	if err != nil {
		return err
	}

	a := r.newApp(player)
	if !cmd.Bool("watch") {
		if err := a.Refresh(ctx); err != nil {
			return err
		}
		return r.printStatus(a.Snapshot(), a.Progress(time.Now()), cmd.Bool("json"))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return r.watch(ctx, a, r.config.Playback.TickInterval())
}

// watch redraws a single status line every tick until ctx is cancelled.
func (r *Runner) watch(ctx context.Context, a *app.App, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		progress := a.Tick(ctx)
		r.writePlain("\r\033[K%s", formatter.StatusLine(a.Snapshot(), progress))

		select {
		case <-ctx.Done():
			r.writePlain("\n")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) printStatus(snap *playback.Snapshot, progress int, useJSON bool) error {
	if useJSON {
		view := statusView{ProgressMS: progress}
		if snap != nil {
			view.Track = snap.TrackName
			view.Artists = snap.Artists
			view.Album = snap.Album
			view.Device = snap.DeviceName
			view.IsPlaying = snap.IsPlaying
			view.DurationMS = snap.DurationMS
		}
		return r.writeJSON(view, true)
	}

	return r.writePlain("%s\n", formatter.StatusLine(snap, progress))
}

// Play resumes playback on the cached device, or the active one when nothing is cached.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	player, err := r.playerFor(ctx)
	if err != nil {
		return err
	}

	if err := player.Resume(ctx, r.cachedDevice()); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return r.writePlain("▶ Playing\n")
}

// Pause pauses playback on the cached device, or the active one when nothing is cached.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	player, err := r.playerFor(ctx)
	if err != nil {
		return err
	}

	if err := player.Pause(ctx, r.cachedDevice()); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return r.writePlain("⏸ Paused\n")
}

func (r *Runner) cachedDevice() string {
	id, err := shared.NewDeviceCache(r.config.Playback.CachedDeviceIDPath).Get()
	if err != nil {
		r.logger.Debug("no cached device, targeting the active one", "error", err)
		return ""
	}
	return id
}
