package domain

import "errors"

var (
	// ErrMatchNotFound is returned when a match id is unknown or already discarded.
	ErrMatchNotFound = errors.New("match not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates quiz content that cannot be battled.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidOption indicates a selected option index outside the question's options.
	ErrInvalidOption = errors.New("option out of range")
	// ErrSelectionLocked is returned when an answer is submitted outside AwaitingAnswer.
	ErrSelectionLocked = errors.New("selection is already locked")
	// ErrNotResolving is returned when settling a turn that is not resolving.
	ErrNotResolving = errors.New("turn is not resolving")
	// ErrResultNotShown is returned when advancing before the turn result is shown.
	ErrResultNotShown = errors.New("turn result not shown yet")
	// ErrMatchOver is returned for turn operations after the match has ended.
	ErrMatchOver = errors.New("match is over")
	// ErrMatchInProgress is returned when finishing a match that has not ended.
	ErrMatchInProgress = errors.New("match still in progress")
)
