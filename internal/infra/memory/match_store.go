package memory

import (
	"sync"

	"battle-quiz-service/internal/app"
)

// MatchStore is an in-memory implementation of app.MatchRepository.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]*app.Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[string]*app.Match),
	}
}

func (s *MatchStore) Put(match *app.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID()] = match
}

func (s *MatchStore) Get(matchID string) (*app.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[matchID]
	return match, ok
}

func (s *MatchStore) Delete(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, matchID)
}

// Len reports how many matches are live.
func (s *MatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
