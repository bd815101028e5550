package cmd

import (
	"fmt"

	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/dukex/flowedit/pkg/reveal"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/dukex/flowedit/pkg/simulator"
	"github.com/urfave/cli/v3"
)

// EditorFlags are the flags shared by every command that builds an editor.
func EditorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "layout",
			Usage:   "Layout of compiled graphs (vertical, horizontal)",
			Value:   "vertical",
			Sources: cli.EnvVars("LAYOUT"),
		},
		&cli.BoolFlag{
			Name:    "branching",
			Usage:   "Attach steps with a condition reference to the referenced decision",
			Sources: cli.EnvVars("BRANCHING"),
		},
		&cli.DurationFlag{
			Name:    "stream-delay",
			Usage:   "Delay between revealed nodes",
			Value:   reveal.DefaultDelay,
			Sources: cli.EnvVars("STREAM_DELAY"),
		},
		&cli.DurationFlag{
			Name:    "run-interval",
			Usage:   "Delay between simulated steps",
			Value:   simulator.DefaultInterval,
			Sources: cli.EnvVars("RUN_INTERVAL"),
		},
		&cli.StringFlag{
			Name:    "run-order",
			Usage:   "Order simulated runs visit nodes in (stored, linearized)",
			Value:   string(simulator.OrderStored),
			Sources: cli.EnvVars("RUN_ORDER"),
		},
		&cli.StringFlag{
			Name:    "tier",
			Usage:   "Subscription tier used to lock palette entries (free, pro, enterprise)",
			Value:   string(registry.TierEnterprise),
			Sources: cli.EnvVars("TIER"),
		},
	}
}

// EditorConfig reads the flags declared by EditorFlags.
func EditorConfig(command *cli.Command) (services.Config, error) {
	layout, ok := compiler.ParseLayout(command.String("layout"))
	if !ok {
		return services.Config{}, fmt.Errorf("unknown layout %q", command.String("layout"))
	}

	order, err := simulator.ParseOrder(command.String("run-order"))
	if err != nil {
		return services.Config{}, err
	}

	tier, err := registry.ParseTier(command.String("tier"))
	if err != nil {
		return services.Config{}, err
	}

	return services.Config{
		StreamDelay: command.Duration("stream-delay"),
		RunInterval: command.Duration("run-interval"),
		RunOrder:    order,
		Layout:      layout,
		Branching:   command.Bool("branching"),
		Tier:        tier,
	}, nil
}
