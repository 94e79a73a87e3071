package battle

import "battle-quiz-service/internal/domain"

// Options configures a Sequencer.
type Options struct {
	Rules  Rules
	Pacing Pacing
	Roller Roller
}

// Sequencer runs one match over an immutable quiz. It is not safe for
// concurrent use; callers serialize access.
type Sequencer struct {
	quiz   domain.Quiz
	rules  Rules
	pacing Pacing
	roller Roller
	state  State
}

// NewSequencer validates quiz and opens a match on its first question.
func NewSequencer(quiz domain.Quiz, opts Options) (*Sequencer, error) {
	state, err := NewState(quiz, opts.Rules)
	if err != nil {
		return nil, err
	}
	return &Sequencer{
		quiz:   quiz,
		rules:  opts.Rules,
		pacing: opts.Pacing,
		roller: opts.Roller,
		state:  state,
	}, nil
}

func (s *Sequencer) Quiz() domain.Quiz { return s.quiz }

func (s *Sequencer) State() State { return s.state }

// Question returns the current question without its answer key.
func (s *Sequencer) Question() domain.QuestionView {
	return s.quiz.View(s.state.QuestionIndex)
}

// Submit resolves an answer for the current question. Rejected submissions
// leave the state untouched.
func (s *Sequencer) Submit(selected int) (TurnResult, error) {
	result, err := SubmitAnswer(s.quiz, s.state, selected, s.roller, s.rules, s.pacing)
	if err != nil {
		return TurnResult{}, err
	}
	s.state = result.State
	return result, nil
}

func (s *Sequencer) Settle() (State, error) {
	state, err := Settle(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = state
	return state, nil
}

func (s *Sequencer) Advance() (State, error) {
	state, err := Advance(s.quiz, s.state)
	if err != nil {
		return s.state, err
	}
	s.state = state
	return state, nil
}

func (s *Sequencer) Finish() (Outcome, error) {
	return Finish(s.quiz, s.state, s.rules)
}

// Over reports whether the match has ended.
func (s *Sequencer) Over() bool { return s.state.Phase == PhaseMatchOver }
