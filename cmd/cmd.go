// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/autospoty/internal/formatter"
	"github.com/desertthunder/autospoty/internal/services"
)

// newApp builds the root command. Without a subcommand it starts the interactive menu.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "autospoty",
		Usage:   "Browse your Spotify library and download playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with CLIENT_ID, CLIENT_SECRET and REDIRECT_URI",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Setup,
		Action:   r.Menu,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, meCommand, playlistsCommand, tracksCommand, likedCommand, recentCommand,
		snapshotCommand, downloadCommand, exportCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// authCommand handles the cached session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token state without contacting Spotify",
				Action: r.AuthStatus,
			},
		},
	}
}

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show your Spotify profile",
		Flags:  jsonFlags(),
		Action: r.Me,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List your playlists",
		Flags:   jsonFlags(),
		Action:  r.Playlists,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List the tracks of a playlist",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
		}, jsonFlags()...),
		Action: r.Tracks,
	}
}

func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "liked",
		Usage:  "List your liked songs",
		Flags:  jsonFlags(),
		Action: r.Liked,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List recently played tracks",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to return",
				Value: services.DefaultRecentLimit,
			},
		}, jsonFlags()...),
		Action: r.Recent,
	}
}

func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Save every playlist with its tracks to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Snapshot file (default: snapshot.path from the config)",
			},
		},
		Action: r.Snapshot,
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download the tracks of a playlist from YouTube",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Playlist ID",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Playlist name",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Downloads directory (default: downloads.dir from the config)",
			},
		},
		Action: r.Download,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists as JSON, CSV, Markdown or text",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "id",
				Usage:    "Playlist ID or name (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
				Value:   formatter.FormatJSON,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: "exports",
			},
		},
		Action: r.Export,
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the default configuration file",
				Action: r.ConfigInit,
			},
		},
	}
}
