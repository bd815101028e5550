package main

import (
	"bytes"
	"context"

	"github.com/dominikbraun/graph/draw"
	"github.com/dukex/flowedit/pkg/cmd"
	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/export"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/validation"
	"github.com/urfave/cli/v3"
)

func compileCommand() *cli.Command {
	flags := []cli.Flag{
		fileFlag("Proposal document to compile (json, yaml)"),
		&cli.BoolFlag{
			Name:  "dot",
			Usage: "Render the compiled graph in Graphviz DOT",
		},
	}
	flags = append(flags, outputFlags()...)
	flags = append(flags, cmd.EditorFlags()...)

	return &cli.Command{
		Name:  "compile",
		Usage: "Compile a proposal into a workflow document",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			intent, err := export.ReadIntent(command.String("file"))
			if err != nil {
				return err
			}

			editor, err := newEditor(command)
			if err != nil {
				return err
			}

			w, err := editor.ApplyIntent(ctx, intent)
			if err != nil {
				return err
			}

			if !command.Bool("dot") {
				return output(command, w)
			}

			data, err := renderDOT(w, command.String("layout"))
			if err != nil {
				return err
			}

			if path := command.String("output"); path != "" {
				return export.WriteBytes(path, data)
			}

			_, err = command.Root().Writer.Write(data)

			return err
		},
	}
}

func renderDOT(w *models.Workflow, layout string) ([]byte, error) {
	g, report := validation.BuildGraph(w.Nodes, w.Edges)
	if err := report.Err(); err != nil {
		return nil, err
	}

	rankdir := "TB"
	if l, _ := compiler.ParseLayout(layout); l == compiler.LayoutHorizontal {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	if err := draw.DOT(g, &buf, draw.GraphAttribute("rankdir", rankdir)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
