package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spt/internal/app"
	"github.com/desertthunder/spt/internal/services"
	"github.com/desertthunder/spt/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultAuthTimeout = 2 * time.Minute

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	spotify     *services.SpotifyService
	player      services.Player
	oauth       services.OAuthService
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Player      services.Player
	OAuth       services.OAuthService
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
	AuthTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = defaultAuthTimeout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		player:      opts.Player,
		oauth:       opts.OAuth,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		authTimeout: opts.AuthTimeout,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, devicesCommand, statusCommand, playCommand, pauseCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newSpotify builds an unauthenticated Spotify client from the loaded config.
func (r *Runner) newSpotify() (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w (edit %s)", err, r.configPath)
	}

	return services.NewSpotifyService(
		creds.Map(),
		services.WithBaseURL(r.config.API.BaseURL),
		services.WithRateLimit(r.config.API.RateLimit),
	)
}

// playerFor returns the injected player or a Spotify client authenticated with the saved token.
func (r *Runner) playerFor(ctx context.Context) (services.Player, error) {
	if r.player != nil {
		return r.player, nil
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: no saved token in %s", shared.ErrNotAuthenticated, r.configPath)
	}

	srv, err := r.newSpotify()
	if err != nil {
		return nil, err
	}
	if err := srv.Authenticate(ctx, token); err != nil {
		return nil, err
	}

	r.spotify = srv
	r.player = srv
	return srv, nil
}

// newApp builds the playback state holder for one command.
func (r *Runner) newApp(player services.Player) *app.App {
	return app.New(app.Options{
		Player:       player,
		Cache:        shared.NewDeviceCache(r.config.Playback.CachedDeviceIDPath),
		Logger:       r.logger,
		PollInterval: r.config.Playback.PollInterval(),
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
