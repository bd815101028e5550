// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/flowedit/pkg/registry"
)

// NewRegistry builds the registry holding the built-in node types.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes()

	check, _ := reg.HealthCheck()
	logger.Debug("Registry ready", "status", check)

	return reg
}
