package agreements

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/landgrants/agreement-backend/pkg/logger"
)

// sagaStep is one forward action in a transition saga. Compensate undoes the
// step's effect and is only invoked for steps whose run already succeeded.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes the steps in order. When a step fails, the compensations
// of every completed step run in reverse order, their failures are aggregated
// into the log, and the step's original error is returned untouched.
func runSaga(ctx context.Context, logg *logger.Logger, steps []sagaStep) error {
	completed := make([]sagaStep, 0, len(steps))

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			compensate(ctx, logg, completed, step.name, err)
			return err
		}
		completed = append(completed, step)
	}
	return nil
}

func compensate(ctx context.Context, logg *logger.Logger, completed []sagaStep, failedStep string, cause error) {
	var compErr error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			compErr = multierr.Append(compErr, fmt.Errorf("compensating %s: %w", step.name, err))
		}
	}
	if logg == nil {
		return
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"failed_step": failedStep,
		"cause":       cause.Error(),
	})
	if compErr != nil {
		logg.Error(logCtx, "saga compensation incomplete", compErr)
		return
	}
	logg.Warn(logCtx, "saga rolled back")
}
