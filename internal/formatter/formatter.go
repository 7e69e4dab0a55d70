// package formatter renders playback state and device lists as plain text and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spt/internal/playback"
	"github.com/desertthunder/spt/internal/services"
)

// FormatMS renders milliseconds as m:ss. Negative values render as 0:00.
func FormatMS(ms int) string {
	d := time.Duration(max(ms, 0)) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// StatusLine renders a one-line summary of snap with the given progress.
func StatusLine(snap *playback.Snapshot, progress int) string {
	if snap == nil {
		return "waiting for playback state..."
	}
	if snap.TrackID == "" {
		return "nothing playing"
	}

	state := "▶"
	if !snap.IsPlaying {
		state = "⏸"
	}

	line := fmt.Sprintf("%s %s - %s [%s / %s]", state, strings.Join(snap.Artists, ", "), snap.TrackName,
		FormatMS(progress), FormatMS(snap.DurationMS))
	if snap.DeviceName != "" {
		line += " on " + snap.DeviceName
	}
	return line
}

// DevicesToText lists devices one per entry, marking the one whose ID is selected
func DevicesToText(devices []services.Device, selected string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Found %d devices:\n\n", len(devices)))
	for i, d := range devices {
		marker := " "
		if d.ID == selected {
			marker = "●"
		}
		buf.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", marker, i+1, d.Name, d.Type))
		buf.WriteString(fmt.Sprintf("     ID: %s\n", d.ID))
		if d.IsActive {
			buf.WriteString("     Active\n")
		}
	}

	return buf.Bytes()
}

// DevicesToCSV converts devices to CSV with columns: ID, Name, Type, Active, Selected, Volume
func DevicesToCSV(devices []services.Device, selected string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Type", "Active", "Selected", "Volume"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range devices {
		record := []string{
			d.ID,
			d.Name,
			d.Type,
			strconv.FormatBool(d.IsActive),
			strconv.FormatBool(d.ID == selected),
			strconv.Itoa(d.VolumePercent),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
