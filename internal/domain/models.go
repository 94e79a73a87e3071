package domain

import (
	"fmt"
	"time"
)

// OptionsPerQuestion is the fixed number of answer options on every question.
const OptionsPerQuestion = 4

// Difficulty selects the monster's health pool.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// EnemyMaxHP returns the monster health for the difficulty; ok is false for unknown values.
func (d Difficulty) EnemyMaxHP() (int, bool) {
	switch d {
	case DifficultyEasy:
		return 80, true
	case DifficultyMedium:
		return 100, true
	case DifficultyHard:
		return 120, true
	}
	return 0, false
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Prompt        string   `json:"prompt" yaml:"prompt"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Quiz is an ordered collection of questions plus its rewards.
type Quiz struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Subject    string     `json:"subject" yaml:"subject"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	Questions  []Question `json:"questions" yaml:"questions"`
	XPReward   int        `json:"xpReward" yaml:"xpReward"`
	ItemReward string     `json:"itemReward,omitempty" yaml:"itemReward,omitempty"`
}

// Validate reports whether the quiz can be battled. Errors wrap ErrInvalidQuiz.
func (q Quiz) Validate() error {
	if _, ok := q.Difficulty.EnemyMaxHP(); !ok {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidQuiz, q.Difficulty)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	if q.XPReward < 0 {
		return fmt.Errorf("%w: negative xp reward", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if len(question.Options) != OptionsPerQuestion {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidQuiz, i, len(question.Options))
		}
		if question.CorrectAnswer < 0 || question.CorrectAnswer >= OptionsPerQuestion {
			return fmt.Errorf("%w: question %d correct answer %d out of range", ErrInvalidQuiz, i, question.CorrectAnswer)
		}
	}
	return nil
}

// QuestionView is a question as shown to the player, without the answer key.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// View hides the correct answer and explanation of question i.
func (q Quiz) View(i int) QuestionView {
	question := q.Questions[i]
	options := make([]string, len(question.Options))
	copy(options, question.Options)
	return QuestionView{
		Index:   i,
		Total:   len(q.Questions),
		Prompt:  question.Prompt,
		Options: options,
	}
}

// Player identifies who is battling. CharacterClass is cosmetic.
type Player struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	CharacterClass string `json:"characterClass,omitempty"`
}

// LeaderboardEntry is a snapshot-friendly view of a player's accumulated XP.
type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	XP          int    `json:"xp"`
	Victories   int    `json:"victories"`
	Matches     int    `json:"matches"`
}

// Leaderboard captures the ordered XP board.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
