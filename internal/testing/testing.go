// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/spt/internal/services"
	"github.com/desertthunder/spt/internal/shared"
)

// MockPlayer is a test double for [services.Player] that records calls.
type MockPlayer struct {
	mu sync.Mutex

	DeviceList  []services.Device
	DevicesErr  error
	Playback    *services.Playback
	PlaybackErr error
	ControlErr  error

	PlaybackCalls int
	Transfers     []string
	Pauses        int
	Resumes       int
}

func (m *MockPlayer) Devices(ctx context.Context) ([]services.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceList, m.DevicesErr
}

func (m *MockPlayer) CurrentPlayback(ctx context.Context) (*services.Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlaybackCalls++
	return m.Playback, m.PlaybackErr
}

func (m *MockPlayer) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ControlErr != nil {
		return m.ControlErr
	}
	m.Transfers = append(m.Transfers, deviceID)
	return nil
}

func (m *MockPlayer) Pause(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pauses++
	return m.ControlErr
}

func (m *MockPlayer) Resume(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resumes++
	return m.ControlErr
}

// SetPlayback swaps the playback returned by subsequent polls.
func (m *MockPlayer) SetPlayback(pb *services.Playback, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Playback, m.PlaybackErr = pb, err
}

// Calls returns how many times CurrentPlayback ran.
func (m *MockPlayer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlaybackCalls
}

// MemoryStore is an in-memory device id store. SetErr makes every Set fail.
type MemoryStore struct {
	ID     string
	SetErr error
}

func (s *MemoryStore) Get() (string, error) {
	if s.ID == "" {
		return "", shared.ErrCacheIO
	}
	return s.ID, nil
}

func (s *MemoryStore) Set(id string) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.ID = id
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
