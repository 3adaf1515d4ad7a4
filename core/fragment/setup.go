package fragment

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Initializer is the setup capability a Loader runs after a successful cycle.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(ctx context.Context) error

// Initialize calls f.
func (f InitializerFunc) Initialize(ctx context.Context) error {
	return f(ctx)
}

// Step is one named setup routine.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sequence runs its steps in order. Steps without a Run func are skipped with a warning;
// a failing step does not stop the ones after it.
type Sequence struct {
	Steps  []Step
	Logger *zap.Logger
}

// Initialize runs every step and returns the combined step errors.
func (s Sequence) Initialize(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs error
	for _, step := range s.Steps {
		if step.Run == nil {
			logger.Warn("Setup routine unavailable", zap.String("step", step.Name))
			continue
		}
		if err := step.Run(ctx); err != nil {
			logger.Warn("Setup routine failed", zap.String("step", step.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("setup %s: %w", step.Name, err))
		}
	}
	return errs
}

// SetupProvider supplies an Initializer when none was wired at construction.
type SetupProvider func(ctx context.Context) (Initializer, error)
