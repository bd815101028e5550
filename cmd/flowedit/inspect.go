package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowedit/pkg/export"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/dukex/flowedit/pkg/validation"
	"github.com/urfave/cli/v3"
)

var errInvalidWorkflow = errors.New("workflow is invalid")

func cardsCommand() *cli.Command {
	return &cli.Command{
		Name:    "cards",
		Aliases: []string{"linearize"},
		Usage:   "Print a workflow as the ordered list of cards",
		Flags:   append([]cli.Flag{fileFlag("Workflow document (json, yaml)")}, outputFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			editor, err := loadEditor(command)
			if err != nil {
				return err
			}

			view, err := editor.CardView()
			if err != nil {
				return err
			}

			return output(command, view)
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check a workflow document and print its errors and warnings",
		Flags: append([]cli.Flag{fileFlag("Workflow document (json, yaml)")}, outputFlags()...),
		Action: func(_ context.Context, command *cli.Command) error {
			editor, err := newEditor(command)
			if err != nil {
				return err
			}

			data, err := export.ReadFile(command.String("file"))
			if err != nil {
				return err
			}

			report := &validation.Report{Errors: []validation.Issue{}}

			w, err := editor.Validator().Document(data)
			if err == nil {
				report = editor.Validator().Check(w)
			} else if r, ok := validation.AsReport(err); ok {
				report = r
			} else {
				return err
			}

			if err := output(command, report); err != nil {
				return err
			}

			if !report.Valid() {
				return fmt.Errorf("%w: %d error(s)", errInvalidWorkflow, len(report.Errors))
			}

			return nil
		},
	}
}

// loadEditor builds an editor holding the workflow named by --file.
func loadEditor(command *cli.Command) (*services.Editor, error) {
	editor, err := newEditor(command)
	if err != nil {
		return nil, err
	}

	w, err := export.ReadWorkflow(command.String("file"), editor.Validator())
	if err != nil {
		return nil, err
	}

	if err := editor.LoadWorkflow(w); err != nil {
		return nil, err
	}

	return editor, nil
}
