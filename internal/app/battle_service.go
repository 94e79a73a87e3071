package app

import (
	"context"
	"sync"
	"time"

	"battle-quiz-service/internal/battle"
	"battle-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MatchRepository abstracts where live matches are kept (in-memory, Redis, etc).
type MatchRepository interface {
	Put(match *Match)
	Get(matchID string) (*Match, bool)
	Delete(matchID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Completion is reported once per finished match.
type Completion struct {
	MatchID string
	QuizID  string
	Player  domain.Player
	Outcome battle.Outcome
}

// CompletionHandler receives finished matches (score, XP) from the service.
type CompletionHandler interface {
	MatchCompleted(ctx context.Context, completion Completion) error
}

// CompletionFunc adapts a function to CompletionHandler.
type CompletionFunc func(ctx context.Context, completion Completion) error

func (f CompletionFunc) MatchCompleted(ctx context.Context, completion Completion) error {
	return f(ctx, completion)
}

// RollerSource builds the damage roller for a new match.
type RollerSource func() (battle.Roller, error)

// Settings are the battle constants applied to every match.
type Settings struct {
	Rules   battle.Rules
	Pacing  battle.Pacing
	Rollers RollerSource
}

// DefaultSettings uses the standard rules and pacing with crypto-seeded rollers.
func DefaultSettings() Settings {
	return Settings{
		Rules:  battle.DefaultRules(),
		Pacing: battle.DefaultPacing(),
		Rollers: func() (battle.Roller, error) {
			return battle.NewRoller()
		},
	}
}

// MatchView is the client-facing snapshot of a match.
type MatchView struct {
	MatchID    string               `json:"matchId"`
	QuizID     string               `json:"quizId"`
	Title      string               `json:"title"`
	Subject    string               `json:"subject"`
	Difficulty domain.Difficulty    `json:"difficulty"`
	Player     domain.Player        `json:"player"`
	State      battle.State         `json:"state"`
	Question   *domain.QuestionView `json:"question,omitempty"`
}

// BattleService contains the battle use cases.
type BattleService struct {
	matches     MatchRepository
	quizzes     QuizRepository
	completions CompletionHandler
	settings    Settings
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewBattleService(matches MatchRepository, quizzes QuizRepository, completions CompletionHandler, settings Settings, log logrus.FieldLogger) *BattleService {
	if settings.Rollers == nil {
		settings.Rollers = DefaultSettings().Rollers
	}
	return &BattleService{
		matches:     matches,
		quizzes:     quizzes,
		completions: completions,
		settings:    settings,
		log:         log,
		now:         time.Now,
	}
}

// Start loads a quiz and opens a match on its first question.
func (s *BattleService) Start(ctx context.Context, quizID string, player domain.Player) (MatchView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return MatchView{}, err
	}
	roller, err := s.settings.Rollers()
	if err != nil {
		return MatchView{}, err
	}
	seq, err := battle.NewSequencer(quiz, battle.Options{
		Rules:  s.settings.Rules,
		Pacing: s.settings.Pacing,
		Roller: roller,
	})
	if err != nil {
		s.log.WithError(err).WithField("quiz_id", quizID).Warn("Refusing to battle invalid quiz")
		return MatchView{}, err
	}

	match := NewMatch(uuid.NewString(), player, seq, s.now())
	s.matches.Put(match)
	s.log.WithFields(logrus.Fields{
		"match_id":  match.ID(),
		"quiz_id":   quizID,
		"player_id": player.ID,
		"class":     player.CharacterClass,
	}).Info("Match started")
	return match.View(), nil
}

// Submit resolves an answer. Health is updated before this returns.
func (s *BattleService) Submit(_ context.Context, matchID string, option int) (battle.TurnResult, error) {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return battle.TurnResult{}, domain.ErrMatchNotFound
	}
	match.mu.Lock()
	defer match.mu.Unlock()
	return match.seq.Submit(option)
}

// Settle marks the current turn's steps as played.
func (s *BattleService) Settle(_ context.Context, matchID string) (battle.State, error) {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return battle.State{}, domain.ErrMatchNotFound
	}
	match.mu.Lock()
	defer match.mu.Unlock()
	return match.seq.Settle()
}

// Advance moves to the next question or ends the match.
func (s *BattleService) Advance(_ context.Context, matchID string) (MatchView, error) {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return MatchView{}, domain.ErrMatchNotFound
	}
	match.mu.Lock()
	defer match.mu.Unlock()
	if _, err := match.seq.Advance(); err != nil {
		return MatchView{}, err
	}
	return match.viewLocked(), nil
}

// Finish returns the outcome of an ended match. The completion handler is
// invoked the first time only; later calls return the same outcome.
func (s *BattleService) Finish(ctx context.Context, matchID string) (battle.Outcome, error) {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return battle.Outcome{}, domain.ErrMatchNotFound
	}
	match.mu.Lock()
	defer match.mu.Unlock()

	outcome, err := match.seq.Finish()
	if err != nil {
		return battle.Outcome{}, err
	}
	if match.reported {
		return outcome, nil
	}
	match.reported = true

	log := s.log.WithFields(logrus.Fields{
		"match_id":  match.id,
		"quiz_id":   match.seq.Quiz().ID,
		"player_id": match.player.ID,
	})
	log.WithFields(logrus.Fields{
		"victory": outcome.Victory,
		"score":   outcome.FinalScorePercent,
		"xp":      outcome.XPEarned,
	}).Info("Match finished")

	if s.completions != nil {
		completion := Completion{
			MatchID: match.id,
			QuizID:  match.seq.Quiz().ID,
			Player:  match.player,
			Outcome: outcome,
		}
		if err := s.completions.MatchCompleted(ctx, completion); err != nil {
			log.WithError(err).Error("Completion handler failed")
		}
	}
	return outcome, nil
}

// Exit discards a match at any point. Health changes already applied stay
// applied; nothing is reported.
func (s *BattleService) Exit(_ context.Context, matchID string) {
	if _, ok := s.matches.Get(matchID); !ok {
		return
	}
	s.matches.Delete(matchID)
	s.log.WithField("match_id", matchID).Debug("Match discarded")
}

// View returns the current snapshot of a match.
func (s *BattleService) View(_ context.Context, matchID string) (MatchView, error) {
	match, ok := s.matches.Get(matchID)
	if !ok {
		return MatchView{}, domain.ErrMatchNotFound
	}
	return match.View(), nil
}

// Match is a live battle held by a MatchRepository.
type Match struct {
	id        string
	player    domain.Player
	createdAt time.Time

	mu       sync.Mutex
	seq      *battle.Sequencer
	reported bool
}

// NewMatch is exported for infrastructure layers and tests that seed matches.
func NewMatch(id string, player domain.Player, seq *battle.Sequencer, createdAt time.Time) *Match {
	return &Match{
		id:        id,
		player:    player,
		createdAt: createdAt,
		seq:       seq,
	}
}

func (m *Match) ID() string { return m.id }

func (m *Match) CreatedAt() time.Time { return m.createdAt }

// View returns a snapshot of the match.
func (m *Match) View() MatchView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Match) viewLocked() MatchView {
	quiz := m.seq.Quiz()
	view := MatchView{
		MatchID:    m.id,
		QuizID:     quiz.ID,
		Title:      quiz.Title,
		Subject:    quiz.Subject,
		Difficulty: quiz.Difficulty,
		Player:     m.player,
		State:      m.seq.State(),
	}
	if !m.seq.Over() {
		q := m.seq.Question()
		view.Question = &q
	}
	return view
}
