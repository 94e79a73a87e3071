package app

import (
	"context"
	"time"

	"battle-quiz-service/internal/battle"
)

// PlaySteps emits each step in order and holds it for its duration. It
// returns ctx.Err() if ctx ends mid-sequence; health was already applied by
// the submission, so stopping early only skips display.
func PlaySteps(ctx context.Context, steps []battle.Step, emit func(battle.Step) error) error {
	for _, step := range steps {
		if err := emit(step); err != nil {
			return err
		}
		if step.Duration <= 0 {
			continue
		}
		timer := time.NewTimer(step.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
