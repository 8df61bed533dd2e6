// Package commands implements the vaultemu CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultemu/internal/app"
)

// OutputFormat selects how a command prints its result.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func (f OutputFormat) validate() error {
	switch f {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: %s, %s)", f, FormatText, FormatJSON)
	}
}

// closeContainer releases the container resources, logging failures.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
