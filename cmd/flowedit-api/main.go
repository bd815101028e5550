package main

import (
	"context"
	"os"

	"github.com/dukex/flowedit/pkg/cmd"
	"github.com/dukex/flowedit/pkg/eventbus"
	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/log"
	"github.com/dukex/flowedit/pkg/otelhelper"
	"github.com/dukex/flowedit/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort     = 9091
	defaultFeedSize = 1024
)

func main() {
	command := &cli.Command{
		Name:                  "flowedit-api",
		Usage:                 "Edit, recommend and simulate a workflow over HTTP",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider for editor changes (gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.IntFlag{
				Name:    "feed-size",
				Usage:   "Number of recent changes kept for /workflow/events",
				Value:   defaultFeedSize,
				Sources: cli.EnvVars("FEED_SIZE"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		}, cmd.EditorFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Flowedit API")

			cfg, err := cmd.EditorConfig(command)
			if err != nil {
				return err
			}

			opts := []services.Option{services.WithLogger(logger)}

			if command.Bool("otel-enabled") {
				tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowedit-api")
				if err != nil {
					return err
				}

				defer func() {
					if err := shutdown(context.WithoutCancel(ctx)); err != nil {
						logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
					}
				}()

				opts = append(opts, services.WithTracer(tracer))
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			feed := eventbus.NewFeed(command.Int("feed-size"))

			if err := eventBus.Handle(eventbus.All, feed.Handle); err != nil {
				return err
			}

			if err := eventBus.Handle(eventbus.All, func(ctx context.Context, change events.Change) error {
				log.FromContext(ctx).DebugContext(ctx, "Change", "type", change.Type, "node_id", change.NodeID)

				return nil
			}); err != nil {
				return err
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return err
			}

			editor, err := services.NewEditor(cfg,
				cmd.NewRegistry(logger),
				append(opts, services.WithNotifier(eventBus))...,
			)
			if err != nil {
				return err
			}

			api := NewAPI(logger, editor, feed)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
