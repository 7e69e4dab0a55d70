// Package ui implements an interactive "now playing" terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [NowPlayingView] : track, artists, device, and a progress bar that advances every tick
//  2. [DeviceListView] : pick the device playback should move to
//
// A tick fires every few hundred milliseconds. Each tick asks [app.App.Due] whether the remote player
// should be polled; when it should, the fetch runs as a [tea.Cmd] off the update loop and the bar keeps
// moving from the extrapolated position in the meantime.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
