package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spt/internal/services"
)

var (
	_ tea.Msg = tickMsg{}
	_ tea.Msg = refreshedMsg{}
	_ tea.Msg = devicesMsg{}
	_ tea.Msg = controlMsg{}
)

// tickMsg drives progress extrapolation and poll gating.
type tickMsg time.Time

// refreshedMsg reports the outcome of a remote playback poll.
type refreshedMsg struct {
	err error
}

// devicesMsg carries the device list and the device the app settled on.
type devicesMsg struct {
	devices  []services.Device
	selected services.Device
	err      error
}

// controlMsg reports the outcome of play/pause or a device transfer.
type controlMsg struct {
	action string
	err    error
}
