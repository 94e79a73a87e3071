package battle

import (
	"errors"
	"math/rand"
	"testing"

	"battle-quiz-service/internal/domain"
)

func fixedRoller(v int) Roller {
	return RollerFunc(func(_, _ int) int { return v })
}

// splitRoller returns hit on correct answers and hurt on wrong ones, keyed by the rules' ranges.
func splitRoller(rules Rules, hit, hurt int) Roller {
	return RollerFunc(func(min, max int) int {
		if min == rules.EnemyDamage.Min && max == rules.EnemyDamage.Max {
			return hit
		}
		return hurt
	})
}

func testQuiz(difficulty domain.Difficulty, questions int) domain.Quiz {
	qs := make([]domain.Question, questions)
	for i := range qs {
		qs[i] = domain.Question{
			Prompt:        "Which option is right?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 1,
			Explanation:   "b is always right",
		}
	}
	return domain.Quiz{
		ID:         "quiz-1",
		Title:      "Test",
		Subject:    "math",
		Difficulty: difficulty,
		Questions:  qs,
		XPReward:   150,
		ItemReward: "Potion of Focus",
	}
}

func newTestSequencer(t *testing.T, quiz domain.Quiz, roller Roller) *Sequencer {
	t.Helper()
	seq, err := NewSequencer(quiz, Options{Rules: DefaultRules(), Pacing: DefaultPacing(), Roller: roller})
	if err != nil {
		t.Fatalf("new sequencer: %v", err)
	}
	return seq
}

func TestNewStateEnemyHPByDifficulty(t *testing.T) {
	tests := []struct {
		difficulty domain.Difficulty
		want       int
	}{
		{domain.DifficultyEasy, 80},
		{domain.DifficultyMedium, 100},
		{domain.DifficultyHard, 120},
	}
	for _, tt := range tests {
		t.Run(string(tt.difficulty), func(t *testing.T) {
			state, err := NewState(testQuiz(tt.difficulty, 1), DefaultRules())
			if err != nil {
				t.Fatalf("new state: %v", err)
			}
			if state.EnemyHP != tt.want || state.EnemyMaxHP != tt.want {
				t.Fatalf("expected enemy hp %d, got %d/%d", tt.want, state.EnemyHP, state.EnemyMaxHP)
			}
			if state.PlayerHP != 100 || state.Phase != PhaseAwaitingAnswer {
				t.Fatalf("unexpected opening state %+v", state)
			}
		})
	}
}

func TestNewStateRejectsInvalidQuiz(t *testing.T) {
	quiz := testQuiz(domain.DifficultyEasy, 1)
	quiz.Questions[0].Options = []string{"a", "b"}
	if _, err := NewState(quiz, DefaultRules()); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected invalid quiz, got %v", err)
	}
}

func TestSubmitCorrectDamagesEnemyOnly(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyMedium, 3), fixedRoller(42))

	result, err := seq.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.Damage != 42 {
		t.Fatalf("expected correct hit for 42, got %+v", result)
	}
	if result.State.EnemyHP != 58 || result.State.PlayerHP != 100 {
		t.Fatalf("expected enemy 58 player 100, got %+v", result.State)
	}
	if result.State.CorrectCount != 1 || result.State.Phase != PhaseResolving {
		t.Fatalf("unexpected state %+v", result.State)
	}
	if result.Explanation != "b is always right" {
		t.Fatalf("expected explanation, got %q", result.Explanation)
	}
}

func TestSubmitWrongDamagesPlayerOnly(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyMedium, 3), fixedRoller(20))

	result, err := seq.Submit(0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct || result.State.PlayerHP != 80 || result.State.EnemyHP != 100 {
		t.Fatalf("expected player 80 enemy 100, got %+v", result.State)
	}
	if result.State.CorrectCount != 0 {
		t.Fatalf("wrong answer must not count, got %d", result.State.CorrectCount)
	}
}

func TestSubmitStepsInOrder(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 1), fixedRoller(30))
	result, err := seq.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := []Cue{CueAttackWindup, CueImpact, CueResultShown}
	if len(result.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(result.Steps))
	}
	for i, cue := range want {
		if result.Steps[i].Cue != cue {
			t.Fatalf("step %d: expected %s, got %s", i, cue, result.Steps[i].Cue)
		}
	}
	if result.Steps[0].Duration.Milliseconds() != 600 || result.Steps[1].Duration.Milliseconds() != 500 {
		t.Fatalf("unexpected durations %+v", result.Steps)
	}
}

func TestSubmitRejectsWhileLocked(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 2), fixedRoller(30))
	if _, err := seq.Submit(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before := seq.State()

	if _, err := seq.Submit(1); !errors.Is(err, domain.ErrSelectionLocked) {
		t.Fatalf("expected locked while resolving, got %v", err)
	}
	if _, err := seq.Settle(); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := seq.Submit(0); !errors.Is(err, domain.ErrSelectionLocked) {
		t.Fatalf("expected locked while result shown, got %v", err)
	}
	after := seq.State()
	before.Phase = PhaseResultShown
	if after != before {
		t.Fatalf("rejected submit changed state: %+v -> %+v", before, after)
	}
}

func TestSubmitRejectsOutOfRangeOption(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 1), fixedRoller(30))
	for _, option := range []int{-1, 4} {
		if _, err := seq.Submit(option); !errors.Is(err, domain.ErrInvalidOption) {
			t.Fatalf("option %d: expected invalid option, got %v", option, err)
		}
	}
	if seq.State().Phase != PhaseAwaitingAnswer {
		t.Fatalf("invalid option must not lock the selection")
	}
}

func TestAdvanceRequiresShownResult(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 2), fixedRoller(30))
	if _, err := seq.Advance(); !errors.Is(err, domain.ErrResultNotShown) {
		t.Fatalf("expected result not shown, got %v", err)
	}
	_, _ = seq.Submit(1)
	if _, err := seq.Advance(); !errors.Is(err, domain.ErrResultNotShown) {
		t.Fatalf("expected result not shown while resolving, got %v", err)
	}
	_, _ = seq.Settle()
	state, err := seq.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state.QuestionIndex != 1 || state.Phase != PhaseAwaitingAnswer {
		t.Fatalf("expected second question awaiting answer, got %+v", state)
	}
	if seq.Question().Index != 1 || seq.Question().Total != 2 {
		t.Fatalf("unexpected question view %+v", seq.Question())
	}
}

func TestFinishRequiresMatchOver(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 1), fixedRoller(30))
	if _, err := seq.Finish(); !errors.Is(err, domain.ErrMatchInProgress) {
		t.Fatalf("expected match in progress, got %v", err)
	}
}

func TestSingleQuestionVictory(t *testing.T) {
	quiz := testQuiz(domain.DifficultyEasy, 1)
	seq := newTestSequencer(t, quiz, fixedRoller(40))

	result, err := seq.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.State.EnemyHP != 40 {
		t.Fatalf("expected enemy hp 40, got %d", result.State.EnemyHP)
	}
	_, _ = seq.Settle()
	state, err := seq.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state.Phase != PhaseMatchOver {
		t.Fatalf("expected match over after last question, got %s", state.Phase)
	}

	outcome, err := seq.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !outcome.Victory || outcome.FinalScorePercent != 100 || outcome.XPEarned != quiz.XPReward {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestDefeatEndsMatchEarly(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyMedium, 2), fixedRoller(100))

	result, err := seq.Submit(3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.State.PlayerHP != 0 {
		t.Fatalf("expected player hp clamped to 0, got %d", result.State.PlayerHP)
	}
	if result.State.Phase != PhaseMatchOver {
		t.Fatalf("expected immediate match over, got %s", result.State.Phase)
	}
	if result.State.QuestionIndex != 0 {
		t.Fatalf("second question must never be presented")
	}
	if _, err := seq.Submit(1); !errors.Is(err, domain.ErrMatchOver) {
		t.Fatalf("expected match over, got %v", err)
	}
	if _, err := seq.Advance(); !errors.Is(err, domain.ErrMatchOver) {
		t.Fatalf("expected match over on advance, got %v", err)
	}
	if _, err := seq.Settle(); err != nil {
		t.Fatalf("settle after defeat should be a no-op, got %v", err)
	}

	outcome, err := seq.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if outcome.Victory || outcome.XPEarned != 0 || outcome.ItemReward != "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestItemRewardThreshold(t *testing.T) {
	tests := []struct {
		name      string
		questions int
		correct   int
		wantItem  bool
		wantScore float64
	}{
		{name: "70 percent earns item", questions: 10, correct: 7, wantItem: true, wantScore: 70},
		{name: "69 percent misses item", questions: 100, correct: 69, wantItem: false, wantScore: 69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			quiz := testQuiz(domain.DifficultyHard, tt.questions)
			seq := newTestSequencer(t, quiz, splitRoller(rules, 1, 1))

			for i := 0; i < tt.questions; i++ {
				option := 0
				if i < tt.correct {
					option = 1
				}
				if _, err := seq.Submit(option); err != nil {
					t.Fatalf("submit %d: %v", i, err)
				}
				_, _ = seq.Settle()
				if _, err := seq.Advance(); err != nil {
					t.Fatalf("advance %d: %v", i, err)
				}
			}

			outcome, err := seq.Finish()
			if err != nil {
				t.Fatalf("finish: %v", err)
			}
			if !outcome.Victory {
				t.Fatalf("expected victory, got %+v", outcome)
			}
			if outcome.FinalScorePercent != tt.wantScore {
				t.Fatalf("expected score %v, got %v", tt.wantScore, outcome.FinalScorePercent)
			}
			if got := outcome.ItemReward != ""; got != tt.wantItem {
				t.Fatalf("expected item=%v, got %+v", tt.wantItem, outcome)
			}
		})
	}
}

func TestXPEarnedFloors(t *testing.T) {
	quiz := testQuiz(domain.DifficultyEasy, 3)
	quiz.XPReward = 100
	state := State{CorrectCount: 2, PlayerHP: 10, Phase: PhaseMatchOver}
	outcome, err := Finish(quiz, state, DefaultRules())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if outcome.XPEarned != 66 {
		t.Fatalf("expected floor(66.67)=66, got %d", outcome.XPEarned)
	}
}

func TestVictoryIsSurvivalNotAccuracy(t *testing.T) {
	quiz := testQuiz(domain.DifficultyEasy, 2)
	seq := newTestSequencer(t, quiz, fixedRoller(15))
	for i := 0; i < 2; i++ {
		_, _ = seq.Submit(0)
		_, _ = seq.Settle()
		_, _ = seq.Advance()
	}
	outcome, err := seq.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !outcome.Victory || outcome.FinalScorePercent != 0 || outcome.XPEarned != 0 {
		t.Fatalf("expected a scoreless victory, got %+v", outcome)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	seq := newTestSequencer(t, testQuiz(domain.DifficultyEasy, 1), fixedRoller(40))
	_, _ = seq.Submit(1)
	_, _ = seq.Settle()
	_, _ = seq.Advance()

	first, err := seq.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	second, err := seq.Finish()
	if err != nil {
		t.Fatalf("finish again: %v", err)
	}
	if first != second {
		t.Fatalf("finish not idempotent: %+v vs %+v", first, second)
	}
}

func TestDamageWithinRanges(t *testing.T) {
	rules := DefaultRules()
	roller := NewSeededRoller(7)
	for i := 0; i < 1000; i++ {
		if d := roller.Roll(rules.EnemyDamage.Min, rules.EnemyDamage.Max); d < 30 || d > 50 {
			t.Fatalf("enemy damage %d out of range", d)
		}
		if d := roller.Roll(rules.PlayerDamage.Min, rules.PlayerDamage.Max); d < 15 || d > 30 {
			t.Fatalf("player damage %d out of range", d)
		}
	}
}

func TestSeededRollerReproducible(t *testing.T) {
	quiz := testQuiz(domain.DifficultyHard, 5)
	play := func() []int {
		seq := newTestSequencer(t, quiz, NewSeededRoller(99))
		var damages []int
		for i := 0; i < 5 && !seq.Over(); i++ {
			result, err := seq.Submit(i % 2)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			damages = append(damages, result.Damage)
			_, _ = seq.Settle()
			_, _ = seq.Advance()
		}
		return damages
	}

	a, b := play(), play()
	if len(a) != len(b) {
		t.Fatalf("different lengths %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("rolls diverged at %d: %v vs %v", i, a, b)
		}
	}
}

func TestHealthStaysClampedUnderRandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for round := 0; round < 20; round++ {
		quiz := testQuiz(domain.DifficultyEasy, 100)
		seq := newTestSequencer(t, quiz, RollerFunc(func(_, _ int) int {
			return rng.Intn(200) - 50
		}))

		for i := 0; i < 100 && !seq.Over(); i++ {
			before := seq.State()
			result, err := seq.Submit(rng.Intn(domain.OptionsPerQuestion))
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			after := result.State
			if after.PlayerHP < 0 || after.PlayerHP > after.PlayerMaxHP {
				t.Fatalf("player hp %d escaped [0,%d]", after.PlayerHP, after.PlayerMaxHP)
			}
			if after.EnemyHP < 0 || after.EnemyHP > after.EnemyMaxHP {
				t.Fatalf("enemy hp %d escaped [0,%d]", after.EnemyHP, after.EnemyMaxHP)
			}
			if before.PlayerHP != after.PlayerHP && before.EnemyHP != after.EnemyHP {
				t.Fatalf("both pools changed in one turn: %+v -> %+v", before, after)
			}
			_, _ = seq.Settle()
			_, _ = seq.Advance()
		}
	}
}

func TestPhaseTextRoundTrip(t *testing.T) {
	for p := PhaseAwaitingAnswer; p <= PhaseMatchOver; p++ {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", p, err)
		}
		var got Phase
		if err := got.UnmarshalText(text); err != nil || got != p {
			t.Fatalf("round trip %s: got %s, err %v", p, got, err)
		}
	}
	var p Phase
	if err := p.UnmarshalText([]byte("victory_lap")); err == nil {
		t.Fatalf("expected unknown phase error")
	}
}
