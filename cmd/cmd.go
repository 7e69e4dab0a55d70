// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand runs the browser OAuth flow and saves the resulting tokens
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.SpotifyAuth,
	}
}

// devicesCommand handles device listing and selection
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "devices",
		Aliases: []string{"dev"},
		Usage:   "Spotify Connect device operations",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List available devices",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text or csv",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.DevicesList,
			},
			{
				Name:  "use",
				Usage: "Transfer playback to a device and remember it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Device ID (defaults to the cached or first available device)",
					},
					&cli.BoolFlag{
						Name:  "play",
						Usage: "Start playback on the device after transferring",
					},
				},
				Action: r.DevicesUse,
			},
		},
	}
}

// statusCommand prints the current playback state
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show what is playing",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Keep updating the position until interrupted",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Resume playback",
		Action: r.Play,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Action: r.Pause,
	}
}

// tuiCommand launches the interactive interface
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive now-playing view",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File receiving logs while the interface is running",
				Value: "./tmp/spt-tui.log",
			},
		},
		Action: r.TUI,
	}
}
