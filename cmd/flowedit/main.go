// Package main provides the flowedit command line: compile proposals into
// workflows, inspect them and simulate runs without the API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/flowedit/pkg/cmd"
	"github.com/dukex/flowedit/pkg/export"
	"github.com/dukex/flowedit/pkg/log"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "flowedit",
		Usage:                 "Compile, inspect and simulate workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			compileCommand(),
			cardsCommand(),
			validateCommand(),
			simulateCommand(),
		},
	}
}

func fileFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:      "file",
		Aliases:   []string{"f"},
		Usage:     usage,
		Required:  true,
		TakesFile: true,
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "output",
			Aliases:   []string{"o"},
			Usage:     "Write to this file instead of stdout; the extension picks the format",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Format written to stdout (json, yaml)",
			Value: string(export.FormatJSON),
		},
	}
}

func newEditor(command *cli.Command) (*services.Editor, error) {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("cli")

	cfg, err := cmd.EditorConfig(command)
	if err != nil {
		return nil, err
	}

	return services.NewEditor(cfg, cmd.NewRegistry(logger), services.WithLogger(logger))
}

// output writes v to --output, or encodes it in --format on the command's writer.
func output(command *cli.Command, v any) error {
	if path := command.String("output"); path != "" {
		return export.WriteFile(path, v)
	}

	data, err := export.Encode(export.Format(command.String("format")), v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(command.Root().Writer, string(data))

	return err
}
