package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spt/internal/app"
	"github.com/desertthunder/spt/internal/formatter"
	"github.com/desertthunder/spt/internal/playback"
	"github.com/desertthunder/spt/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	DeviceListView
)

const maxBarWidth = 80

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	app        *app.App
	view       ViewState
	tick       time.Duration
	width      int
	height     int
	deviceList list.Model
	bar        progress.Model
	progressMS int
	refreshing bool
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model over a, redrawing every tick.
func NewModel(ctx context.Context, a *app.App, tick time.Duration) *Model {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}

	deviceList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	deviceList.Title = "Devices"

	return &Model{
		ctx:        ctx,
		app:        a,
		view:       NowPlayingView,
		tick:       tick,
		deviceList: deviceList,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init selects a device and starts the tick loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.selectDevice(), m.nextTick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		m.deviceList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DeviceListView:
			return m.handleDeviceListKeys(msg)
		default:
			return m.handleNowPlayingKeys(msg)
		}

	case tickMsg:
		return m, m.onTick(time.Now())

	case refreshedMsg:
		m.refreshing = false
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("poll failed: %v", msg.err)
		}
		return m, nil

	case devicesMsg:
		m.setDevices(msg)
		return m, nil

	case controlMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			return m, nil
		}
		m.status = ""
		m.app.Invalidate()
		return m, nil
	}

	if m.view == DeviceListView {
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// onTick schedules a poll when one is due and recomputes the displayed position.
func (m *Model) onTick(now time.Time) tea.Cmd {
	cmds := []tea.Cmd{m.nextTick()}
	if !m.refreshing && m.app.Due(now) {
		m.refreshing = true
		cmds = append(cmds, m.refresh())
	}
	m.progressMS = m.app.Progress(now)
	return tea.Batch(cmds...)
}

func (m *Model) setDevices(msg devicesMsg) {
	switch {
	case errors.Is(msg.err, shared.ErrNoUsableDevice):
		m.status = "no device selected: open Spotify on a device and press d"
	case msg.err != nil:
		m.status = fmt.Sprintf("device lookup failed: %v", msg.err)
	default:
		m.status = ""
	}

	items := make([]list.Item, len(msg.devices))
	for i, d := range msg.devices {
		items[i] = deviceItem{device: d, selected: d.ID == msg.selected.ID}
	}
	m.deviceList.SetItems(items)
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggle()
	case key.Matches(msg, m.keys.devices):
		m.view = DeviceListView
		return m, m.selectDevice()
	case key.Matches(msg, m.keys.refresh):
		m.app.Invalidate()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDeviceListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deviceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = NowPlayingView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			m.view = NowPlayingView
			return m, m.useDevice(item.device.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m *Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.app.Refresh(m.ctx)}
	}
}

func (m *Model) selectDevice() tea.Cmd {
	return func() tea.Msg {
		selected, err := m.app.SelectDevice(m.ctx)
		return devicesMsg{devices: m.app.Devices(), selected: selected, err: err}
	}
}

func (m *Model) useDevice(id string) tea.Cmd {
	return func() tea.Msg {
		return controlMsg{action: "transfer", err: m.app.UseDevice(m.ctx, id, true)}
	}
}

func (m *Model) toggle() tea.Cmd {
	return func() tea.Msg {
		return controlMsg{action: "play/pause", err: m.app.Toggle(m.ctx)}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DeviceListView:
		return m.renderDeviceList()
	default:
		return m.renderNowPlaying()
	}
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Now Playing"))
	b.WriteString("\n")

	snap := m.app.Snapshot()
	switch {
	case snap == nil:
		b.WriteString(styles.help.Render("Waiting for playback state..."))
		b.WriteString("\n")
	case snap.TrackID == "":
		b.WriteString(styles.warn.Render("Nothing is playing"))
		b.WriteString("\n")
	default:
		b.WriteString(styles.track.Render(snap.TrackName))
		b.WriteString("\n")
		b.WriteString(strings.Join(snap.Artists, ", "))
		if snap.Album != "" {
			b.WriteString(" • " + snap.Album)
		}
		b.WriteString("\n\n")

		ratio := 0.0
		if snap.DurationMS > 0 {
			ratio = float64(m.progressMS) / float64(snap.DurationMS)
		}
		state := styles.ok.Render("▶")
		if !snap.IsPlaying {
			state = styles.warn.Render("⏸")
		}
		fmt.Fprintf(&b, "%s %s %s / %s\n", state, m.bar.ViewAs(ratio), formatter.FormatMS(m.progressMS), formatter.FormatMS(snap.DurationMS))
	}

	if name := m.deviceName(snap); name != "" {
		b.WriteString(styles.help.Render("on " + name))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.toggle, m.keys.devices, m.keys.refresh, m.keys.quit}))
	return b.String()
}

func (m *Model) renderDeviceList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var status string
	if m.status != "" {
		status = "\n" + styles.warn.Render(m.status) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.deviceList.View(), status, helpView)
}

func (m *Model) deviceName(snap *playback.Snapshot) string {
	if snap != nil && snap.DeviceName != "" {
		return snap.DeviceName
	}
	id := m.app.DeviceID()
	for _, d := range m.app.Devices() {
		if d.ID == id {
			return d.Name
		}
	}
	return ""
}
