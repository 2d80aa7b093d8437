// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, syncCommand, similarCommand, compareCommand, usersCommand, tokenCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the taste profile HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "resync",
				Usage: "Re-sync every stored user's profile in the background on startup",
			},
		},
		Action: r.Serve,
	}
}

// syncCommand rebuilds one user's taste profile.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch recent listening activity and rebuild a user's taste profile",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "user"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sync,
	}
}

// similarCommand ranks the population against one user.
func similarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "similar",
		Usage: "Rank other users by taste similarity",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "user"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of candidates to return",
			},
			&cli.IntFlag{
				Name:  "min-percent",
				Usage: "Drop candidates below this similarity percentage",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write CSV output to {output}_similar.csv",
			},
		},
		Action: r.Similar,
	}
}

// compareCommand scores one pair of users.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare two users' taste profiles",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "user"},
			&cli.StringArg{Name: "other"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown",
				Value:   "text",
			},
		},
		Action: r.Compare,
	}
}

// usersCommand lists registered users.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List registered users",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "storefront",
				Usage: "Filter by storefront region code",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Users,
	}
}

// tokenCommand prints a developer token.
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Generate an Apple Music developer token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Discard any cached token and sign a fresh one",
			},
		},
		Action: r.Token,
	}
}
