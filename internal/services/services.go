// package services defines the remote player interfaces and their Spotify Web API implementation
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Player is the subset of a remote music service needed to observe and drive playback.
type Player interface {
	// Devices lists the devices currently available to the account.
	Devices(ctx context.Context) ([]Device, error)

	// CurrentPlayback returns the playback state, or nil when nothing is active.
	CurrentPlayback(ctx context.Context) (*Playback, error)

	// TransferPlayback moves playback to deviceID, starting it when play is true.
	TransferPlayback(ctx context.Context, deviceID string, play bool) error

	// Pause pauses playback. An empty deviceID targets the active device.
	Pause(ctx context.Context, deviceID string) error

	// Resume resumes playback. An empty deviceID targets the active device.
	Resume(ctx context.Context, deviceID string) error
}

// OAuthService is implemented by providers that authorize through the authorization-code flow.
type OAuthService interface {
	// AuthURL returns the URL the user visits to grant access, carrying state for CSRF protection.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token and authenticates the service with it.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Authenticate installs an existing token.
	Authenticate(ctx context.Context, token *oauth2.Token) error
}

// Device is a playback target such as a desktop app, phone, or speaker.
type Device struct {
	ID            string
	Name          string
	Type          string
	IsActive      bool
	IsRestricted  bool
	VolumePercent int
}

// Track is the item currently loaded on the player.
type Track struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	DurationMS int
}

// Playback is the remote player state at one moment.
type Playback struct {
	Device     Device
	Track      *Track // nil when the player has no item (ads, between contexts)
	ProgressMS int
	IsPlaying  bool
}
