// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the config file and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand runs the Spotify OAuth2 authorization-code flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Auth,
	}
}

// vibeCommand generates an anchor-based vibe playlist.
func vibeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "vibe",
		Usage: "Generate a playlist matching the vibe of one or more anchor tracks",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "anchor",
				Aliases:  []string{"a"},
				Usage:    "Anchor track: a Spotify track ID or 'Artist - Title' (1-5, repeatable)",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of tracks to generate",
				Value:   20,
			},
			&cli.IntFlag{
				Name:  "discovery",
				Usage: "Percentage of tracks drawn from outside the listening history (0-100)",
				Value: 30,
			},
			&cli.StringFlag{
				Name:  "flow",
				Usage: "Sequencing mode: smooth, energy_arc, or shuffle",
				Value: "smooth",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-artist",
				Usage: "Artist name to exclude (repeatable)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Playlist name (default derived from the anchors)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the playlist to the local database",
			},
			&cli.BoolFlag{
				Name:  "create",
				Usage: "Create the playlist on Spotify",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export format: csv, markdown, text, or json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for --export",
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
		Action: r.Vibe,
	}
}

// bridgeCommand generates a start-to-end bridge playlist.
func bridgeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bridge",
		Usage: "Build a playlist that bridges from one track to another",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Start track: a Spotify track ID or 'Artist - Title'",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "End track: a Spotify track ID or 'Artist - Title'",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Target number of tracks including the endpoints",
				Value:   10,
			},
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "Search iteration budget (0 uses the configured default)",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Search wall-clock budget in seconds (0 uses the configured default)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Playlist name (default derived from the endpoints)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the playlist to the local database",
			},
			&cli.BoolFlag{
				Name:  "create",
				Usage: "Create the playlist on Spotify",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export format: csv, markdown, text, or json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for --export",
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
		Action: r.Bridge,
	}
}

// statsCommand reports listening-history aggregates.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show top artists, top genres, and recent listening activity",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Recent-activity window in days",
				Value: 30,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of artists and genres to list",
				Value: 10,
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
		Action: r.Stats,
	}
}

// tuiCommand launches the interactive terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse saved playlists, or watch a vibe generation live with --anchor",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "anchor",
				Aliases: []string{"a"},
				Usage:   "Anchor track for live generation: a Spotify track ID or 'Artist - Title'",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of tracks to generate",
				Value:   20,
			},
			&cli.IntFlag{
				Name:  "discovery",
				Usage: "Percentage of tracks drawn from outside the listening history (0-100)",
				Value: 30,
			},
			&cli.StringFlag{
				Name:  "flow",
				Usage: "Sequencing mode: smooth, energy_arc, or shuffle",
				Value: "smooth",
			},
		},
		Action: r.TUI,
	}
}
