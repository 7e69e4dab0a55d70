package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spt/internal/playback"
	"github.com/desertthunder/spt/internal/services"
)

func testDevices() []services.Device {
	return []services.Device{
		{ID: "dev-1", Name: "Laptop", Type: "Computer", IsActive: true, VolumePercent: 80},
		{ID: "dev-2", Name: "Kitchen, Main", Type: "Speaker"},
	}
}

func TestFormatMS(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{-500, "0:00"},
		{999, "0:00"},
		{61000, "1:01"},
		{200000, "3:20"},
		{3599000, "59:59"},
		{3600000, "60:00"},
	}

	for _, tt := range tests {
		if got := FormatMS(tt.ms); got != tt.want {
			t.Errorf("FormatMS(%d) = %s, want %s", tt.ms, got, tt.want)
		}
	}
}

func TestStatusLine(t *testing.T) {
	t.Run("without a snapshot", func(t *testing.T) {
		if got := StatusLine(nil, 0); got != "waiting for playback state..." {
			t.Errorf("unexpected line %q", got)
		}
	})

	t.Run("idle player", func(t *testing.T) {
		if got := StatusLine(&playback.Snapshot{FetchedAt: time.Now()}, 0); got != "nothing playing" {
			t.Errorf("unexpected line %q", got)
		}
	})

	t.Run("playing track", func(t *testing.T) {
		snap := &playback.Snapshot{
			TrackID:    "t1",
			TrackName:  "Song",
			Artists:    []string{"A", "B"},
			DeviceName: "Laptop",
			DurationMS: 200000,
			IsPlaying:  true,
		}

		want := "▶ A, B - Song [1:05 / 3:20] on Laptop"
		if got := StatusLine(snap, 65000); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("paused track without device", func(t *testing.T) {
		snap := &playback.Snapshot{TrackID: "t1", TrackName: "Song", Artists: []string{"A"}, DurationMS: 1000}

		if got := StatusLine(snap, 0); got != "⏸ A - Song [0:00 / 0:01]" {
			t.Errorf("unexpected line %q", got)
		}
	})
}

func TestDevices(t *testing.T) {
	t.Run("DevicesToText", func(t *testing.T) {
		output := string(DevicesToText(testDevices(), "dev-2"))

		if !strings.Contains(output, "Found 2 devices") {
			t.Errorf("missing count, got: %s", output)
		}
		if !strings.Contains(output, "  1. Laptop (Computer)") {
			t.Errorf("unselected device should not be marked, got: %s", output)
		}
		if !strings.Contains(output, "● 2. Kitchen, Main (Speaker)") {
			t.Errorf("selected device should be marked, got: %s", output)
		}
		if strings.Count(output, "Active") != 1 {
			t.Errorf("expected one active device, got: %s", output)
		}
	})

	t.Run("DevicesToText empty", func(t *testing.T) {
		if got := string(DevicesToText(nil, "")); got != "Found 0 devices:\n\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("DevicesToCSV", func(t *testing.T) {
		data, err := DevicesToCSV(testDevices(), "dev-1")
		if err != nil {
			t.Fatalf("DevicesToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Name,Type,Active,Selected,Volume" {
			t.Errorf("unexpected headers %q", lines[0])
		}
		if lines[1] != "dev-1,Laptop,Computer,true,true,80" {
			t.Errorf("unexpected row %q", lines[1])
		}
		if lines[2] != `dev-2,"Kitchen, Main",Speaker,false,false,0` {
			t.Errorf("expected quoted name, got %q", lines[2])
		}
	})
}
