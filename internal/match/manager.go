// internal/match/manager.go
//
// Matchmaking, relay, and session resolution.
// Responsibilities:
//   - FIFO queue of waiting connections; strict pairing as soon as two wait.
//   - Session creation with profile snapshots fetched once at pairing time.
//   - Relaying post-move summaries to the opponent with the computed
//     garbage attack.
//   - Terminating sessions on explicit game-over or disconnect and
//     persisting history + rating updates.
//
// Notes:
//   - One mutex guards the queue and both session maps. Profile fetches
//     and persistence writes run outside the lock.
//   - Persistence is fire-and-forget: failures are logged and never roll
//     back the already-applied terminal transition or notifications.
//   - A connection belongs to at most one queue entry and one session.

package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/blockduel/go-server/internal/profile"
)

// Notifier delivers an event to one connection. Implemented by the
// websocket hub; tests substitute a recorder.
type Notifier interface {
	Emit(connID, event string, payload any)
}

type queueEntry struct {
	connID     string
	identityID string
}

// Manager owns the waiting queue and all active sessions.
type Manager struct {
	mu       sync.Mutex
	queue    []queueEntry
	sessions map[string]*Session // by session id
	byConn   map[string]string   // connection id -> session id

	notifier Notifier
	profiles profile.Store

	persistWG sync.WaitGroup
}

// NewManager constructs a Manager sending notifications through n and
// persisting through store.
func NewManager(n Notifier, store profile.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
		notifier: n,
		profiles: store,
	}
}

// GarbageForLines maps lines cleared in one placement to garbage cells
// sent to the opponent.
func GarbageForLines(lines int) int {
	switch {
	case lines >= 4:
		return 4
	case lines == 3:
		return 2
	case lines == 2:
		return 1
	default:
		return 0
	}
}

// Enqueue adds a connection to the waiting queue and pairs while at least
// two are waiting. Re-enqueuing an already-queued connection is a no-op.
func (m *Manager) Enqueue(connID, identityID string) {
	m.mu.Lock()
	for _, e := range m.queue {
		if e.connID == connID {
			m.mu.Unlock()
			return
		}
	}
	m.queue = append(m.queue, queueEntry{connID: connID, identityID: identityID})

	var pairs [][2]queueEntry
	for len(m.queue) >= 2 {
		p1, p2 := m.queue[0], m.queue[1]
		m.queue = m.queue[2:]
		pairs = append(pairs, [2]queueEntry{p1, p2})
	}
	m.mu.Unlock()

	for _, p := range pairs {
		m.createSession(p[0], p[1])
	}
}

// Cancel removes a connection from the queue if present.
func (m *Manager) Cancel(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromQueueLocked(connID)
}

func (m *Manager) removeFromQueueLocked(connID string) {
	for i, e := range m.queue {
		if e.connID == connID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// createSession pairs two queue entries: fetches profile snapshots,
// registers the session, and notifies both sides.
func (m *Manager) createSession(p1, p2 queueEntry) {
	id := uuid.NewString()

	prof1 := m.fetchSnapshot(p1.identityID)
	prof2 := m.fetchSnapshot(p2.identityID)

	sess := &Session{
		ID:      id,
		Players: [2]string{p1.connID, p2.connID},
		IdentityOf: map[string]string{
			p1.connID: p1.identityID,
			p2.connID: p2.identityID,
		},
		Profiles: map[string]*profile.Profile{
			p1.connID: prof1,
			p2.connID: prof2,
		},
		Scores: map[string]int{p1.connID: 0, p2.connID: 0},
		Grids:  map[string][]int8{p1.connID: nil, p2.connID: nil},
		Status: StatusPlaying,
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.byConn[p1.connID] = id
	m.byConn[p2.connID] = id
	m.mu.Unlock()

	m.notifier.Emit(p1.connID, EventMatchFound, MatchFoundPayload{
		SessionID:       id,
		OpponentProfile: opponentView(prof2),
		Role:            RoleHost,
	})
	m.notifier.Emit(p2.connID, EventMatchFound, MatchFoundPayload{
		SessionID:       id,
		OpponentProfile: opponentView(prof1),
		Role:            RoleGuest,
	})

	log.Info().Str("session", id).
		Str("p1", p1.connID).Str("p2", p2.connID).
		Msg("session created")
}

// fetchSnapshot loads a profile once for the life of the session. Guests
// and fetch misses yield nil; the default profile is substituted at the
// point of use.
func (m *Manager) fetchSnapshot(identityID string) *profile.Profile {
	if identityID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := m.profiles.FetchProfile(ctx, identityID)
	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			log.Warn().Err(err).Str("identity", identityID).Msg("fetch profile")
		}
		return nil
	}
	return p
}

func opponentView(p *profile.Profile) OpponentProfile {
	if p == nil {
		g := profile.Guest()
		return OpponentProfile{Username: g.Username, EloRating: g.EloRating}
	}
	return OpponentProfile{Username: p.Username, EloRating: p.EloRating}
}

// HandleUpdate relays a post-move summary to the sender's opponent with
// the computed garbage attack, and refreshes the score/grid mirrors. A
// connection with no session is silently ignored.
func (m *Manager) HandleUpdate(connID string, p MovePayload) {
	m.mu.Lock()
	sid, ok := m.byConn[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	sess := m.sessions[sid]
	opponent := sess.Opponent(connID)
	if p.Score != 0 {
		sess.Scores[connID] = p.Score
	}
	if p.Grid != nil {
		grid := make([]int8, len(p.Grid))
		copy(grid, p.Grid)
		sess.Grids[connID] = grid
	}
	m.mu.Unlock()

	m.notifier.Emit(opponent, EventOpponentUpdate, OpponentUpdatePayload{
		Grid:         p.Grid,
		Score:        p.Score,
		ClearedLines: p.ClearedLines,
		Garbage:      GarbageForLines(p.ClearedLines),
	})
}

// HandleGameOver terminates a session on an explicit report: the reporter
// is the loser. Unknown or already-finished sessions are ignored, as are
// reports from connections outside the session.
func (m *Manager) HandleGameOver(connID, sessionID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok || sess.Status != StatusPlaying {
		m.mu.Unlock()
		return
	}
	opponent := sess.Opponent(connID)
	if opponent == "" {
		m.mu.Unlock()
		return
	}
	sess.Status = StatusFinished
	m.removeSessionLocked(sess)
	m.mu.Unlock()

	m.notifier.Emit(opponent, EventGameOver, ResultPayload{Result: "win", Reason: "opponent_lost"})
	m.notifier.Emit(connID, EventGameOver, ResultPayload{Result: "loss", Reason: "you_lost"})
	m.record(sess, opponent, connID)
}

// Disconnect removes a connection from the queue and, if it was in a
// playing session, resolves that session as a win for the survivor.
// Idempotent: a second disconnect for the same connection is a no-op.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	m.removeFromQueueLocked(connID)
	sid, ok := m.byConn[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	sess := m.sessions[sid]
	if sess == nil || sess.Status != StatusPlaying {
		m.mu.Unlock()
		return
	}
	opponent := sess.Opponent(connID)
	sess.Status = StatusFinished
	m.removeSessionLocked(sess)
	m.mu.Unlock()

	if opponent != "" {
		m.notifier.Emit(opponent, EventGameOver, ResultPayload{Result: "win", Reason: "opponent_disconnected"})
		m.record(sess, opponent, connID)
	}
}

// removeSessionLocked drops the session from both maps. Removal is
// unconditional once finished, regardless of persistence outcome.
func (m *Manager) removeSessionLocked(sess *Session) {
	delete(m.sessions, sess.ID)
	delete(m.byConn, sess.Players[0])
	delete(m.byConn, sess.Players[1])
}

// record persists the match outcome in a detached task. The triggering
// flow never waits on it; failures are logged and not retried.
func (m *Manager) record(sess *Session, winnerConn, loserConn string) {
	m.persistWG.Add(1)
	go func() {
		defer m.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.recordMatchResults(ctx, sess, winnerConn, loserConn)
	}()
}

func (m *Manager) recordMatchResults(ctx context.Context, sess *Session, winnerConn, loserConn string) {
	winnerID := sess.IdentityOf[winnerConn]
	loserID := sess.IdentityOf[loserConn]

	// Guest-only matches are never recorded.
	if winnerID == "" && loserID == "" {
		return
	}

	winnerProf := snapshotOrDefault(sess.Profiles[winnerConn], winnerID)
	loserProf := snapshotOrDefault(sess.Profiles[loserConn], loserID)

	if winnerID != "" && loserID != "" {
		if err := m.profiles.InsertMatchHistory(ctx, winnerID, loserID,
			sess.Scores[winnerConn], sess.Scores[loserConn]); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("insert match history")
		}
	}

	newWinnerElo := profile.Elo(winnerProf.EloRating, loserProf.EloRating, 1)
	newLoserElo := profile.Elo(loserProf.EloRating, winnerProf.EloRating, 0)

	if winnerID != "" {
		if err := m.profiles.ApplyMatchResult(ctx, winnerID, newWinnerElo, true); err != nil {
			log.Warn().Err(err).Str("identity", winnerID).Msg("apply winner result")
		}
	}
	if loserID != "" {
		if err := m.profiles.ApplyMatchResult(ctx, loserID, newLoserElo, false); err != nil {
			log.Warn().Err(err).Str("identity", loserID).Msg("apply loser result")
		}
	}

	log.Info().Str("session", sess.ID).
		Int("winnerElo", newWinnerElo).Int("loserElo", newLoserElo).
		Msg("ranked match recorded")
}

func snapshotOrDefault(p *profile.Profile, id string) *profile.Profile {
	if p != nil {
		return p
	}
	g := profile.Guest()
	g.ID = id
	return g
}

// Stats reports queue depth and active session count for diagnostics.
func (m *Manager) Stats() (queued, active int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), len(m.sessions)
}

// Flush blocks until outstanding persistence tasks finish. Called on
// shutdown and by tests.
func (m *Manager) Flush() {
	m.persistWG.Wait()
}
