package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spt/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "spt",
		Usage:   "Drive Spotify playback from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
			logger.Error("not authorized, run `spt auth` first", "error", err)
			os.Exit(1)
		case errors.Is(err, shared.ErrNoUsableDevice):
			logger.Warn("no device selected, open Spotify on a device and retry")
			os.Exit(1)
		case errors.Is(err, context.Canceled):
			os.Exit(0)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

// Before loads configuration and applies global flags ahead of any command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	return ctx, nil
}

// After persists a token the OAuth2 client refreshed during the command.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return nil
	}

	token, err := r.spotify.Token()
	if err != nil || token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return nil
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
	} else {
		r.logger.Debug("saved refreshed token", "path", r.configPath)
	}
	return nil
}
