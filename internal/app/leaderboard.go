package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"battle-quiz-service/internal/domain"
)

// Leaderboard accumulates XP from finished matches and fans snapshots out to
// subscribers. It implements CompletionHandler.
type Leaderboard struct {
	now         func() time.Time
	mu          sync.RWMutex
	players     map[string]*standing
	subscribers map[chan domain.Leaderboard]struct{}
}

type standing struct {
	entry       domain.LeaderboardEntry
	lastUpdated time.Time
}

// NewLeaderboard returns a board pre-filled with seed entries.
func NewLeaderboard(seed ...domain.LeaderboardEntry) *Leaderboard {
	return NewLeaderboardWithClock(time.Now, seed...)
}

// NewLeaderboardWithClock allows deterministic timestamps in tests.
func NewLeaderboardWithClock(now func() time.Time, seed ...domain.LeaderboardEntry) *Leaderboard {
	lb := &Leaderboard{
		now:         now,
		players:     make(map[string]*standing),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
	at := now()
	for _, entry := range seed {
		lb.players[entry.PlayerID] = &standing{entry: entry, lastUpdated: at}
	}
	return lb
}

// MatchCompleted credits the player's earned XP.
func (l *Leaderboard) MatchCompleted(_ context.Context, completion Completion) error {
	l.Record(completion.Player, completion.Outcome.XPEarned, completion.Outcome.Victory)
	return nil
}

// Record adds xp to a player and broadcasts the new board.
func (l *Leaderboard) Record(player domain.Player, xp int, victory bool) domain.Leaderboard {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.players[player.ID]
	if !ok {
		s = &standing{entry: domain.LeaderboardEntry{PlayerID: player.ID}}
		l.players[player.ID] = s
	}
	if player.DisplayName != "" {
		s.entry.DisplayName = player.DisplayName
	}
	s.entry.XP += xp
	s.entry.Matches++
	if victory {
		s.entry.Victories++
	}
	s.lastUpdated = l.now()
	return l.broadcastLocked()
}

// Snapshot returns the current ordered board.
func (l *Leaderboard) Snapshot() domain.Leaderboard {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Subscribe returns a channel that receives board updates, starting with the
// current snapshot. The caller must invoke cancel to avoid leaks.
func (l *Leaderboard) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	initial := l.snapshotLocked()
	l.mu.Unlock()

	ch <- initial

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Leaderboard) broadcastLocked() domain.Leaderboard {
	lb := l.snapshotLocked()
	for ch := range l.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (l *Leaderboard) snapshotLocked() domain.Leaderboard {
	standings := make([]*standing, 0, len(l.players))
	for _, s := range l.players {
		standings = append(standings, s)
	}

	// XP desc, then whoever reached it first, then name.
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.entry.XP != b.entry.XP {
			return a.entry.XP > b.entry.XP
		}
		if !a.lastUpdated.Equal(b.lastUpdated) {
			return a.lastUpdated.Before(b.lastUpdated)
		}
		return a.entry.DisplayName < b.entry.DisplayName
	})

	entries := make([]domain.LeaderboardEntry, len(standings))
	for i, s := range standings {
		entries[i] = s.entry
	}
	return domain.Leaderboard{
		Entries:   entries,
		UpdatedAt: l.now(),
	}
}
