package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Playback    PlaybackConfig    `toml:"playback"`
	API         APIConfig         `toml:"api"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the most recent token.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	Expiry       string `toml:"expiry"` // RFC 3339
}

// ServerConfig contains the loopback redirect listener settings. The listener always binds 127.0.0.1.
type ServerConfig struct {
	Port int `toml:"port"`
}

// PlaybackConfig controls remote polling and local progress ticks.
type PlaybackConfig struct {
	PollIntervalMS     int    `toml:"poll_interval_ms"`
	TickIntervalMS     int    `toml:"tick_interval_ms"`
	CachedDeviceIDPath string `toml:"cached_device_id_path"`
}

// APIConfig contains Web API client settings.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
}

// Placeholder credentials shipped in config.example.toml.
const (
	placeholderClientID     = "your_spotify_client_id"
	placeholderClientSecret = "your_spotify_client_secret"
)

// Validate reports [ErrMissingCredentials] when the client id or secret is empty or still the example placeholder.
func (s SpotifyConfig) Validate() error {
	switch {
	case s.ClientID == "" || s.ClientID == placeholderClientID:
		return fmt.Errorf("%w: client_id is not set", ErrMissingCredentials)
	case s.ClientSecret == "" || s.ClientSecret == placeholderClientSecret:
		return fmt.Errorf("%w: client_secret is not set", ErrMissingCredentials)
	}
	return nil
}

// PollInterval returns the minimum spacing between remote playback polls.
func (p PlaybackConfig) PollInterval() time.Duration {
	if p.PollIntervalMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.PollIntervalMS) * time.Millisecond
}

// TickInterval returns the UI refresh period.
func (p PlaybackConfig) TickInterval() time.Duration {
	if p.TickIntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(p.TickIntervalMS) * time.Millisecond
}

// Map returns the credentials in the shape expected by the Spotify service constructor.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token rebuilds the stored [oauth2.Token], or nil when no access token has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	if expiry, err := time.Parse(time.RFC3339, s.Expiry); err == nil {
		token.Expiry = expiry
	}
	return token
}

// Update copies token fields into the config.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}

	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenType = token.TokenType
	s.Expiry = ""
	if !token.Expiry.IsZero() {
		s.Expiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return config, nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
