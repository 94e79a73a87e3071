// Package battle resolves quiz answers into monster-battle turns.
//
// A match walks the state machine
//
//	AwaitingAnswer -> Resolving -> ResultShown -> (AwaitingAnswer | MatchOver)
//
// Health changes are applied as soon as an answer is submitted. The returned
// steps only describe how long a presentation layer should hold each visual
// cue before calling Settle; nothing in this package waits on a timer.
package battle

import (
	"fmt"

	"battle-quiz-service/internal/domain"
)

// Phase is where a match is within the current turn.
type Phase int

const (
	PhaseAwaitingAnswer Phase = iota
	PhaseResolving
	PhaseResultShown
	PhaseMatchOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseResolving:
		return "resolving"
	case PhaseResultShown:
		return "result_shown"
	case PhaseMatchOver:
		return "match_over"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseAwaitingAnswer; candidate <= PhaseMatchOver; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// State is the mutable part of a match.
type State struct {
	QuestionIndex int   `json:"questionIndex"`
	CorrectCount  int   `json:"correctCount"`
	PlayerHP      int   `json:"playerHp"`
	PlayerMaxHP   int   `json:"playerMaxHp"`
	EnemyHP       int   `json:"enemyHp"`
	EnemyMaxHP    int   `json:"enemyMaxHp"`
	Phase         Phase `json:"phase"`
}

// TurnResult is the outcome of one submission.
type TurnResult struct {
	State         State
	Correct       bool
	CorrectAnswer int
	Damage        int
	Explanation   string
	Steps         []Step
}

// Outcome summarizes a finished match.
type Outcome struct {
	FinalScorePercent float64 `json:"finalScorePercent"`
	XPEarned          int     `json:"xpEarned"`
	Victory           bool    `json:"victory"`
	ItemReward        string  `json:"itemReward,omitempty"`
	CorrectCount      int     `json:"correctCount"`
	TotalQuestions    int     `json:"totalQuestions"`
}

// NewState returns the opening state for quiz.
func NewState(quiz domain.Quiz, rules Rules) (State, error) {
	if err := quiz.Validate(); err != nil {
		return State{}, err
	}
	enemyMax, _ := quiz.Difficulty.EnemyMaxHP()
	return State{
		PlayerHP:    rules.PlayerMaxHP,
		PlayerMaxHP: rules.PlayerMaxHP,
		EnemyHP:     enemyMax,
		EnemyMaxHP:  enemyMax,
		Phase:       PhaseAwaitingAnswer,
	}, nil
}

// SubmitAnswer resolves selected against the current question. The input
// state is never modified; on error the returned result is zero.
func SubmitAnswer(quiz domain.Quiz, state State, selected int, roller Roller, rules Rules, pacing Pacing) (TurnResult, error) {
	switch state.Phase {
	case PhaseAwaitingAnswer:
	case PhaseMatchOver:
		return TurnResult{}, domain.ErrMatchOver
	default:
		return TurnResult{}, domain.ErrSelectionLocked
	}
	if selected < 0 || selected >= domain.OptionsPerQuestion {
		return TurnResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidOption, selected)
	}

	question := quiz.Questions[state.QuestionIndex]
	next := state
	correct := selected == question.CorrectAnswer
	var damage int
	if correct {
		damage = roller.Roll(rules.EnemyDamage.Min, rules.EnemyDamage.Max)
		next.EnemyHP = clamp(next.EnemyHP-damage, 0, next.EnemyMaxHP)
		next.CorrectCount++
	} else {
		damage = roller.Roll(rules.PlayerDamage.Min, rules.PlayerDamage.Max)
		next.PlayerHP = clamp(next.PlayerHP-damage, 0, next.PlayerMaxHP)
	}

	next.Phase = PhaseResolving
	if next.PlayerHP == 0 {
		next.Phase = PhaseMatchOver
	}

	return TurnResult{
		State:         next,
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Damage:        damage,
		Explanation:   question.Explanation,
		Steps:         pacing.Steps(),
	}, nil
}

// Settle marks the turn's steps as played. A match that already ended stays over.
func Settle(state State) (State, error) {
	switch state.Phase {
	case PhaseResolving:
		state.Phase = PhaseResultShown
		return state, nil
	case PhaseMatchOver:
		return state, nil
	}
	return state, domain.ErrNotResolving
}

// Advance moves past a shown result to the next question, or ends the match
// after the last one.
func Advance(quiz domain.Quiz, state State) (State, error) {
	switch state.Phase {
	case PhaseResultShown:
	case PhaseMatchOver:
		return state, domain.ErrMatchOver
	default:
		return state, domain.ErrResultNotShown
	}
	if state.PlayerHP == 0 || state.QuestionIndex+1 >= len(quiz.Questions) {
		state.Phase = PhaseMatchOver
		return state, nil
	}
	state.QuestionIndex++
	state.Phase = PhaseAwaitingAnswer
	return state, nil
}

// Finish computes the outcome of an ended match. It has no side effects and
// returns the same Outcome for the same inputs.
func Finish(quiz domain.Quiz, state State, rules Rules) (Outcome, error) {
	if state.Phase != PhaseMatchOver {
		return Outcome{}, domain.ErrMatchInProgress
	}
	total := len(quiz.Questions)
	outcome := Outcome{
		Victory:        state.PlayerHP > 0,
		CorrectCount:   state.CorrectCount,
		TotalQuestions: total,
	}
	if total == 0 {
		return outcome, nil
	}
	// Computed on integers so 7 of 10 is exactly 70.
	outcome.FinalScorePercent = float64(state.CorrectCount*100) / float64(total)
	outcome.XPEarned = state.CorrectCount * quiz.XPReward / total
	if outcome.Victory && quiz.ItemReward != "" && state.CorrectCount*100 >= rules.ItemRewardPercent*total {
		outcome.ItemReward = quiz.ItemReward
	}
	return outcome, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
