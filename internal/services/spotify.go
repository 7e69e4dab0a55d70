// Spotify API implementation of [Player]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/spt/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://127.0.0.1:8888/callback"
	defaultRateLimit   = 5.0
)

var (
	_ Player       = (*SpotifyService)(nil)
	_ OAuthService = (*SpotifyService)(nil)
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// SpotifyDevice represents a Connect device.
type SpotifyDevice struct {
	ID               string `json:"id"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	VolumePercent    *int   `json:"volume_percent"`
}

// SpotifyPlaybackState is the body of GET /me/player.
type SpotifyPlaybackState struct {
	Device               SpotifyDevice `json:"device"`
	RepeatState          string        `json:"repeat_state"`
	ShuffleState         bool          `json:"shuffle_state"`
	Timestamp            int64         `json:"timestamp"`
	ProgressMS           *int          `json:"progress_ms"`
	IsPlaying            bool          `json:"is_playing"`
	Item                 *SpotifyTrack `json:"item"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [Player] and [OAuthService] against the Spotify Web API.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	limiter    *rate.Limiter
	mu         sync.RWMutex
	source     oauth2.TokenSource
	httpClient *http.Client
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points API calls at another host, e.g. an httptest server.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithTokenURL overrides the OAuth2 token endpoint.
func WithTokenURL(u string) SpotifyOption {
	return func(s *SpotifyService) {
		if u != "" {
			s.config.Endpoint.TokenURL = u
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables the limit.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-playback-state",
			"user-modify-playback-state",
			"user-read-currently-playing",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:  config,
		baseURL: spotifyBaseURL,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code from the captured redirect for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrInvalidArgument)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}

	if err := s.Authenticate(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Authenticate installs token; the resulting client refreshes it when it expires.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: missing access token", shared.ErrNotAuthenticated)
	}

	source := s.config.TokenSource(context.WithoutCancel(ctx), token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
	s.httpClient = oauth2.NewClient(context.WithoutCancel(ctx), s.source)
	return nil
}

// Token returns the current, possibly refreshed, token.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	if source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return source.Token()
}

// doRequest performs an authenticated HTTP request to the Spotify API and returns the status code.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) (int, error) {
	s.mu.RLock()
	client := s.httpClient
	s.mu.RUnlock()

	if client == nil {
		return 0, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, fmt.Errorf("%w: %s", shared.ErrTokenExpired, errorMessage(data))
	case resp.StatusCode >= 500:
		return resp.StatusCode, fmt.Errorf("%w: %w: spotify status %d: %s", shared.ErrAPIRequest, shared.ErrServiceUnavailable, resp.StatusCode, errorMessage(data))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errorMessage(data))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return resp.StatusCode, nil
}

func errorMessage(data []byte) string {
	var e spotifyError
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(bytes.TrimSpace(data))
}

func deviceQuery(endpoint, deviceID string) string {
	if deviceID == "" {
		return endpoint
	}
	return endpoint + "?device_id=" + url.QueryEscape(deviceID)
}

// Devices lists the account's available Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}

	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, d.toDevice())
	}
	return devices, nil
}

// CurrentPlayback returns the player state, or nil when no device is active.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*Playback, error) {
	var state SpotifyPlaybackState
	status, err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &state)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	pb := &Playback{
		Device:    state.Device.toDevice(),
		IsPlaying: state.IsPlaying,
	}
	if state.ProgressMS != nil {
		pb.ProgressMS = *state.ProgressMS
	}
	if state.Item != nil {
		pb.Track = state.Item.toTrack()
	}
	return pb, nil
}

// TransferPlayback moves playback to deviceID.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is required", shared.ErrMissingArgument)
	}

	body := map[string]any{"device_ids": []string{deviceID}, "play": play}
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
	return err
}

// Pause pauses playback on deviceID, or on the active device when empty.
func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPut, deviceQuery("/me/player/pause", deviceID), nil, nil)
	return err
}

// Resume resumes playback on deviceID, or on the active device when empty.
func (s *SpotifyService) Resume(ctx context.Context, deviceID string) error {
	_, err := s.doRequest(ctx, http.MethodPut, deviceQuery("/me/player/play", deviceID), nil, nil)
	return err
}

func (d SpotifyDevice) toDevice() Device {
	device := Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         d.Type,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
	}
	if d.VolumePercent != nil {
		device.VolumePercent = *d.VolumePercent
	}
	return device
}

func (t SpotifyTrack) toTrack() *Track {
	track := &Track{
		ID:         t.ID,
		Name:       t.Name,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	return track
}
