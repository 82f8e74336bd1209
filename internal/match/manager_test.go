package match

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockduel/go-server/internal/profile"
)

func ctx() context.Context { return context.Background() }

// recorder captures every emitted event for assertions.
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	conn    string
	event   string
	payload any
}

func (r *recorder) Emit(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{conn: connID, event: event, payload: payload})
}

func (r *recorder) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emitted, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) forConn(connID, event string) []emitted {
	var out []emitted
	for _, e := range r.all() {
		if e.conn == connID && e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newTestManager() (*Manager, *recorder, *profile.Memory) {
	rec := &recorder{}
	store := profile.NewMemoryStore()
	return NewManager(rec, store), rec, store
}

func seed(store *profile.Memory, id, username string, rating int) {
	store.Put(&profile.Profile{ID: id, Username: username, EloRating: rating})
}

func matchFoundOf(t *testing.T, e emitted) MatchFoundPayload {
	t.Helper()
	p, ok := e.payload.(MatchFoundPayload)
	require.True(t, ok, "payload should be MatchFoundPayload, got %T", e.payload)
	return p
}

func TestFIFOPairing(t *testing.T) {
	mgr, rec, _ := newTestManager()

	mgr.Enqueue("A", "")
	mgr.Enqueue("B", "")
	mgr.Enqueue("C", "")
	mgr.Enqueue("D", "")

	queued, active := mgr.Stats()
	assert.Equal(t, 0, queued)
	assert.Equal(t, 2, active)

	a := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0])
	b := matchFoundOf(t, rec.forConn("B", EventMatchFound)[0])
	c := matchFoundOf(t, rec.forConn("C", EventMatchFound)[0])
	d := matchFoundOf(t, rec.forConn("D", EventMatchFound)[0])

	// The two oldest pair first, then the next two.
	assert.Equal(t, a.SessionID, b.SessionID)
	assert.Equal(t, c.SessionID, d.SessionID)
	assert.NotEqual(t, a.SessionID, c.SessionID)

	assert.Equal(t, RoleHost, a.Role)
	assert.Equal(t, RoleGuest, b.Role)
}

func TestEnqueueIdempotent(t *testing.T) {
	mgr, rec, _ := newTestManager()

	mgr.Enqueue("A", "")
	mgr.Enqueue("A", "")

	queued, active := mgr.Stats()
	assert.Equal(t, 1, queued, "re-enqueue must not duplicate the entry")
	assert.Equal(t, 0, active)
	assert.Empty(t, rec.all())
}

func TestCancelLeavesOthersQueued(t *testing.T) {
	mgr, rec, _ := newTestManager()

	mgr.Enqueue("A", "")
	mgr.Cancel("A")
	mgr.Cancel("A") // no-op
	mgr.Enqueue("B", "")

	queued, active := mgr.Stats()
	assert.Equal(t, 1, queued)
	assert.Equal(t, 0, active)
	assert.Empty(t, rec.all())
}

func TestGuestFallbackProfile(t *testing.T) {
	mgr, rec, _ := newTestManager()

	// "nobody" has no stored profile; B is a plain guest.
	mgr.Enqueue("A", "nobody")
	mgr.Enqueue("B", "")

	a := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0])
	b := matchFoundOf(t, rec.forConn("B", EventMatchFound)[0])
	assert.Equal(t, "Guest", a.OpponentProfile.Username)
	assert.Equal(t, profile.DefaultRating, a.OpponentProfile.EloRating)
	assert.Equal(t, "Guest", b.OpponentProfile.Username)
}

func TestOpponentProfileExchange(t *testing.T) {
	mgr, rec, store := newTestManager()
	seed(store, "u1", "alice", 1100)
	seed(store, "u2", "bob", 900)

	mgr.Enqueue("A", "u1")
	mgr.Enqueue("B", "u2")

	a := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0])
	b := matchFoundOf(t, rec.forConn("B", EventMatchFound)[0])
	assert.Equal(t, "bob", a.OpponentProfile.Username)
	assert.Equal(t, 900, a.OpponentProfile.EloRating)
	assert.Equal(t, "alice", b.OpponentProfile.Username)
	assert.Equal(t, 1100, b.OpponentProfile.EloRating)
}

func TestGarbageForLines(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 4, 5: 4, 9: 4}
	for lines, want := range cases {
		assert.Equal(t, want, GarbageForLines(lines), "lines=%d", lines)
	}
}

func TestRelayForwardsToOpponentWithGarbage(t *testing.T) {
	mgr, rec, _ := newTestManager()
	mgr.Enqueue("A", "")
	mgr.Enqueue("B", "")
	rec.reset()

	grid := make([]int8, 81)
	grid[0] = 3
	mgr.HandleUpdate("A", MovePayload{Grid: grid, Score: 420, ClearedLines: 3})

	updates := rec.forConn("B", EventOpponentUpdate)
	require.Len(t, updates, 1)
	p, ok := updates[0].payload.(OpponentUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, 2, p.Garbage)
	assert.Equal(t, 420, p.Score)
	assert.Equal(t, 3, p.ClearedLines)
	assert.Equal(t, grid, p.Grid)

	// The sender itself gets nothing.
	assert.Empty(t, rec.forConn("A", EventOpponentUpdate))
}

func TestRelayGarbageSteps(t *testing.T) {
	mgr, rec, _ := newTestManager()
	mgr.Enqueue("A", "")
	mgr.Enqueue("B", "")

	for lines, want := range map[int]int{1: 0, 2: 1, 4: 4} {
		rec.reset()
		mgr.HandleUpdate("A", MovePayload{ClearedLines: lines})
		updates := rec.forConn("B", EventOpponentUpdate)
		require.Len(t, updates, 1)
		assert.Equal(t, want, updates[0].payload.(OpponentUpdatePayload).Garbage, "lines=%d", lines)
	}
}

func TestRelayIgnoresUnknownConnection(t *testing.T) {
	mgr, rec, _ := newTestManager()
	mgr.HandleUpdate("ghost", MovePayload{Score: 100, ClearedLines: 4})
	assert.Empty(t, rec.all())
}

func TestGameOverResolvesReporterAsLoser(t *testing.T) {
	mgr, rec, store := newTestManager()
	seed(store, "u1", "alice", 1000)
	seed(store, "u2", "bob", 1000)

	mgr.Enqueue("A", "u1")
	mgr.Enqueue("B", "u2")
	sid := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0]).SessionID

	mgr.HandleUpdate("A", MovePayload{Score: 300})
	mgr.HandleUpdate("B", MovePayload{Score: 750})
	rec.reset()

	mgr.HandleGameOver("A", sid)
	mgr.Flush()

	bEvents := rec.forConn("B", EventGameOver)
	require.Len(t, bEvents, 1)
	assert.Equal(t, ResultPayload{Result: "win", Reason: "opponent_lost"}, bEvents[0].payload)

	aEvents := rec.forConn("A", EventGameOver)
	require.Len(t, aEvents, 1)
	assert.Equal(t, ResultPayload{Result: "loss", Reason: "you_lost"}, aEvents[0].payload)

	_, active := mgr.Stats()
	assert.Equal(t, 0, active)

	// K=32 at equal ratings moves each side by 16.
	winner, err := store.FetchProfile(ctx(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 1016, winner.EloRating)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.MatchesPlayed)

	loser, err := store.FetchProfile(ctx(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 984, loser.EloRating)
	assert.Equal(t, 1, loser.Losses)

	history := store.History()
	require.Len(t, history, 1)
	assert.Equal(t, "u2", history[0].WinnerID)
	assert.Equal(t, 750, history[0].Player1Score)
	assert.Equal(t, 300, history[0].Player2Score)

	// A second report for the same session is a no-op.
	rec.reset()
	mgr.HandleGameOver("A", sid)
	assert.Empty(t, rec.all())
}

func TestGameOverFromOutsiderIgnored(t *testing.T) {
	mgr, rec, _ := newTestManager()
	mgr.Enqueue("A", "")
	mgr.Enqueue("B", "")
	sid := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0]).SessionID
	rec.reset()

	mgr.HandleGameOver("C", sid)

	_, active := mgr.Stats()
	assert.Equal(t, 1, active, "an outsider must not terminate the session")
	assert.Empty(t, rec.all())
}

func TestDisconnectResolvesSurvivorAsWinner(t *testing.T) {
	mgr, rec, store := newTestManager()
	seed(store, "u1", "alice", 1000)
	seed(store, "u2", "bob", 1000)

	mgr.Enqueue("A", "u1")
	mgr.Enqueue("B", "u2")
	rec.reset()

	mgr.Disconnect("A")
	mgr.Flush()

	bEvents := rec.forConn("B", EventGameOver)
	require.Len(t, bEvents, 1)
	assert.Equal(t, ResultPayload{Result: "win", Reason: "opponent_disconnected"}, bEvents[0].payload)
	assert.Empty(t, rec.forConn("A", EventGameOver), "the disconnected side gets no notice")

	_, active := mgr.Stats()
	assert.Equal(t, 0, active)

	winner, err := store.FetchProfile(ctx(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 1016, winner.EloRating)

	// Idempotent: a second disconnect for the same connection is a no-op.
	rec.reset()
	mgr.Disconnect("A")
	mgr.Flush()
	assert.Empty(t, rec.all())
	assert.Len(t, store.History(), 1)
}

func TestDisconnectWhileQueuedOnlyDequeues(t *testing.T) {
	mgr, rec, _ := newTestManager()
	mgr.Enqueue("A", "")
	mgr.Disconnect("A")

	queued, active := mgr.Stats()
	assert.Equal(t, 0, queued)
	assert.Equal(t, 0, active)
	assert.Empty(t, rec.all())
}

func TestGuestMatchNotRecorded(t *testing.T) {
	mgr, rec, store := newTestManager()
	mgr.Enqueue("A", "")
	mgr.Enqueue("B", "")
	sid := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0]).SessionID

	mgr.HandleGameOver("A", sid)
	mgr.Flush()

	assert.Empty(t, store.History())
}

func TestMixedGuestUpdatesIdentifiedSideOnly(t *testing.T) {
	mgr, rec, store := newTestManager()
	seed(store, "u1", "alice", 1000)

	mgr.Enqueue("A", "u1")
	mgr.Enqueue("B", "") // guest
	rec.reset()

	// The identified player disconnects; the guest wins.
	mgr.Disconnect("A")
	mgr.Flush()

	// No history without both identities, but the identified loser's
	// rating and counters still move.
	assert.Empty(t, store.History())
	loser, err := store.FetchProfile(ctx(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 984, loser.EloRating)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 1, loser.MatchesPlayed)
}

func TestScoreMirrorLastWriteWins(t *testing.T) {
	mgr, rec, store := newTestManager()
	seed(store, "u1", "alice", 1000)
	seed(store, "u2", "bob", 1000)

	mgr.Enqueue("A", "u1")
	mgr.Enqueue("B", "u2")
	sid := matchFoundOf(t, rec.forConn("A", EventMatchFound)[0]).SessionID

	// A lower report overwrites a higher one; no monotonicity check.
	mgr.HandleUpdate("A", MovePayload{Score: 500})
	mgr.HandleUpdate("A", MovePayload{Score: 300})

	mgr.HandleGameOver("A", sid)
	mgr.Flush()

	history := store.History()
	require.Len(t, history, 1)
	assert.Equal(t, 300, history[0].Player2Score, "loser score is the last reported value")
	assert.Equal(t, 0, history[0].Player1Score, "winner never reported a score")
}
