package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/dukex/flowedit/pkg/cmd"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/urfave/cli/v3"
)

// SimulationResult is printed once a simulated run stops.
type SimulationResult struct {
	ExecutionID string                     `json:"executionId"`
	WorkflowID  string                     `json:"workflowId"`
	Cancelled   bool                       `json:"cancelled"`
	Log         []models.ExecutionLogEntry `json:"log"`
}

func simulateCommand() *cli.Command {
	flags := append([]cli.Flag{fileFlag("Workflow document (json, yaml)")}, outputFlags()...)
	flags = append(flags, cmd.EditorFlags()...)

	return &cli.Command{
		Name:  "simulate",
		Usage: "Run a workflow through the simulator and print its log",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			editor, err := loadEditor(command)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			exec, err := editor.Run(ctx)
			if err != nil {
				return err
			}

			result := SimulationResult{ExecutionID: exec.ID, WorkflowID: exec.WorkflowID}

			err = exec.Wait(ctx)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				editor.CancelRun()
				<-exec.Done()

				result.Cancelled = true
			default:
				return err
			}

			result.Log = editor.RunLog()

			return output(command, result)
		},
	}
}
