// internal/profile/memory.go
//
// In-memory Store implementation.
// Lightweight persistence used in tests and when durability is not
// required. Concurrency-safe via RWMutex; state is lost on restart.

package profile

import (
	"context"
	"sync"
)

// Memory is the in-memory Store. Exported so tests can seed and inspect it.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	history  []MatchRecord
	soloRuns map[string][]int
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{
		profiles: make(map[string]*Profile),
		soloRuns: make(map[string][]int),
	}
}

// Put seeds or replaces a profile.
func (m *Memory) Put(p *Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
}

// History returns a copy of the recorded matches.
func (m *Memory) History() []MatchRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MatchRecord, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Memory) FetchProfile(ctx context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) InsertMatchHistory(ctx context.Context, winnerID, loserID string, winnerScore, loserScore int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, MatchRecord{
		Player1ID:    winnerID,
		Player2ID:    loserID,
		WinnerID:     winnerID,
		Player1Score: winnerScore,
		Player2Score: loserScore,
	})
	return nil
}

func (m *Memory) ApplyMatchResult(ctx context.Context, id string, newRating int, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		p = &Profile{ID: id, EloRating: DefaultRating}
		m.profiles[id] = p
	}
	p.EloRating = newRating
	if won {
		p.Wins++
	} else {
		p.Losses++
	}
	p.MatchesPlayed++
	return nil
}

func (m *Memory) RecordSoloRun(ctx context.Context, id string, score, clearedLines int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soloRuns[id] = append(m.soloRuns[id], score)
	if p, ok := m.profiles[id]; ok && score > p.HighestSoloScore {
		p.HighestSoloScore = score
	}
	return nil
}
