package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"battle-quiz-service/internal/battle"
)

func TestPlayStepsHoldsEachStep(t *testing.T) {
	steps := battle.Pacing{AttackWindup: 5 * time.Millisecond, Impact: 5 * time.Millisecond}.Steps()

	var cues []battle.Cue
	start := time.Now()
	err := PlaySteps(context.Background(), steps, func(step battle.Step) error {
		cues = append(cues, step.Cue)
		return nil
	})
	if err != nil {
		t.Fatalf("play steps: %v", err)
	}
	if len(cues) != 3 || cues[0] != battle.CueAttackWindup || cues[2] != battle.CueResultShown {
		t.Fatalf("unexpected cue order %v", cues)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("expected steps to be held, finished in %v", elapsed)
	}
}

func TestPlayStepsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	steps := battle.Pacing{AttackWindup: time.Hour}.Steps()

	emitted := 0
	done := make(chan error, 1)
	go func() {
		done <- PlaySteps(ctx, steps, func(battle.Step) error {
			emitted++
			return nil
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("play steps ignored cancellation")
	}
	if emitted != 1 {
		t.Fatalf("expected only the first step emitted, got %d", emitted)
	}
}
