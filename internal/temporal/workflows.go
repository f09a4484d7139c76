package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// ReconstructionInput holds the workflow parameters.
type ReconstructionInput struct {
	InputPath  string // program JSON
	OutputPath string // model JSON
	ConfigPath string // optional; empty uses the worker configuration
	Store      bool   // also persist the model in the repository
}

// ReconstructionOutput holds the workflow result.
type ReconstructionOutput struct {
	ModelID    string
	ModelName  string
	OutputPath string
	Interfaces int
	Components int
	DataTypes  int
	Clusters   int
	Stored     bool
	Warnings   []string
}

// ReconstructionWorkflow reconstructs one program and optionally stores the
// resulting model.
func ReconstructionWorkflow(ctx workflow.Context, input ReconstructionInput) (*ReconstructionOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var out ReconstructionOutput
	if err := workflow.ExecuteActivity(ctx, ReconstructActivity, input).Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	if input.Store {
		if err := workflow.ExecuteActivity(ctx, StoreActivity, out.OutputPath).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		out.Stored = true
	}
	return &out, nil
}
