package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/archstore"
	"github.com/efebarandurmaz/archrecover/internal/config"
	"github.com/efebarandurmaz/archrecover/internal/ir"
	"github.com/efebarandurmaz/archrecover/internal/pipeline"
)

// ErrNoRepository is returned by StoreActivity when the worker has no
// repository configured.
var ErrNoRepository = errors.New("no model repository configured")

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Config     *config.Config
	Logger     *slog.Logger
	Repository archstore.Repository // optional
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

func current() *Dependencies {
	if deps == nil {
		return &Dependencies{}
	}
	return deps
}

func ReconstructActivity(ctx context.Context, input ReconstructionInput) (ReconstructionOutput, error) {
	d := current()

	cfg := d.Config
	var warnings []string
	if input.ConfigPath != "" {
		loaded, err := config.Load(input.ConfigPath)
		if err != nil {
			return ReconstructionOutput{}, err
		}
		cfg = loaded
	}
	if cfg != nil {
		warnings = cfg.Validate()
	}

	program, err := ir.Load(input.InputPath)
	if err != nil {
		return ReconstructionOutput{}, err
	}

	res, err := pipeline.Run(ctx, program, pipeline.Options{Config: cfg, Logger: d.Logger})
	if err != nil {
		return ReconstructionOutput{}, err
	}

	if err := arch.WriteFile(input.OutputPath, res.Model); err != nil {
		return ReconstructionOutput{}, fmt.Errorf("write model: %w", err)
	}

	counts := res.Model.Counts()
	return ReconstructionOutput{
		ModelID:    res.Model.ID,
		ModelName:  res.Model.Name,
		OutputPath: input.OutputPath,
		Interfaces: counts.Interfaces,
		Components: counts.Components,
		DataTypes:  counts.DataTypes,
		Clusters:   len(res.Clusters),
		Warnings:   warnings,
	}, nil
}

func StoreActivity(ctx context.Context, modelPath string) error {
	d := current()
	if d.Repository == nil {
		return ErrNoRepository
	}
	m, err := arch.ReadFile(modelPath)
	if err != nil {
		return err
	}
	return d.Repository.StoreModel(ctx, m)
}
