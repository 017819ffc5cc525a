//go:build !raylib

package gui

import (
	"context"
	"log/slog"

	"github.com/san-kum/voxelworld/internal/config"
	"github.com/san-kum/voxelworld/internal/physics"
)

func Run(context.Context, *config.Config, physics.Engine, Options, *slog.Logger) error {
	return ErrUnavailable
}
