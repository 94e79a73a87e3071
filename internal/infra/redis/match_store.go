package redis

import (
	"context"
	"sync"
	"time"

	"battle-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MatchStore is a Redis-aware implementation of app.MatchRepository.
// Notes:
//   - Matches themselves live in a local map; battle state is never written
//     to Redis.
//   - Redis holds a liveness marker per match so other instances and
//     operators can count live battles (KEYS battle:match:*).
type MatchStore struct {
	client  *redis.Client
	ttl     time.Duration
	log     logrus.FieldLogger
	mu      sync.RWMutex
	matches map[string]*app.Match
}

func NewMatchStore(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *MatchStore {
	return &MatchStore{
		client:  client,
		ttl:     ttl,
		log:     log,
		matches: make(map[string]*app.Match),
	}
}

func (s *MatchStore) Put(match *app.Match) {
	s.mu.Lock()
	s.matches[match.ID()] = match
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(match.ID()), match.CreatedAt().Unix(), s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("match_id", match.ID()).Warn("Failed to mark match live")
	}
}

func (s *MatchStore) Get(matchID string) (*app.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[matchID]
	return match, ok
}

func (s *MatchStore) Delete(matchID string) {
	s.mu.Lock()
	_, ok := s.matches[matchID]
	delete(s.matches, matchID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.client.Del(context.Background(), s.key(matchID)).Err(); err != nil {
		s.log.WithError(err).WithField("match_id", matchID).Warn("Failed to clear match marker")
	}
}

func (s *MatchStore) key(matchID string) string {
	return "battle:match:" + matchID
}
