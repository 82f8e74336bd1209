// internal/match/session.go
//
// Session state for one paired match and the payload types exchanged over
// the realtime channel (event names and shapes mirror the client protocol).

package match

import (
	"github.com/blockduel/go-server/internal/profile"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Role tags the two peers for UI labeling only; it carries no authority.
const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

// Session binds two connections into one match. All fields are owned by
// the Manager and mutated only under its lock.
type Session struct {
	ID      string
	Players [2]string // connection ids

	// IdentityOf maps connection -> persisted user id; "" means guest.
	IdentityOf map[string]string

	// Profiles caches each side's profile as fetched at pairing time.
	// A nil entry means guest or fetch miss; Resolve substitutes defaults.
	Profiles map[string]*profile.Profile

	// Scores mirrors the latest reported score per connection,
	// last-write-wins.
	Scores map[string]int

	// Grids mirrors the last reported grid snapshot per connection.
	Grids map[string][]int8

	Status Status
}

// Opponent returns the other player's connection id, or "" if connID is
// not a member.
func (s *Session) Opponent(connID string) string {
	switch connID {
	case s.Players[0]:
		return s.Players[1]
	case s.Players[1]:
		return s.Players[0]
	}
	return ""
}

// Event names on the wire.
const (
	EventFindMatch      = "find_match"
	EventCancelMatch    = "cancel_match"
	EventPlayerMove     = "player_move"
	EventGameOver       = "game_over"
	EventMatchFound     = "match_found"
	EventOpponentUpdate = "opponent_update"
)

// FindMatchPayload is the client's enqueue request. A null/empty identity
// queues as guest.
type FindMatchPayload struct {
	IdentityID string `json:"identityId"`
}

// MovePayload is a post-move summary reported by a client.
type MovePayload struct {
	Grid         []int8 `json:"grid"`
	Score        int    `json:"score"`
	ClearedLines int    `json:"clearedLines"`
}

// GameOverPayload is the client's explicit forfeit/loss report.
type GameOverPayload struct {
	SessionID string `json:"sessionId"`
}

// OpponentProfile is the subset of a profile shown to the other player.
type OpponentProfile struct {
	Username  string `json:"username"`
	EloRating int    `json:"elo_rating"`
}

// MatchFoundPayload notifies one side of a successful pairing.
type MatchFoundPayload struct {
	SessionID       string          `json:"sessionId"`
	OpponentProfile OpponentProfile `json:"opponentProfile"`
	Role            string          `json:"role"`
}

// OpponentUpdatePayload is a relayed move plus the computed attack.
type OpponentUpdatePayload struct {
	Grid         []int8 `json:"grid"`
	Score        int    `json:"score"`
	ClearedLines int    `json:"clearedLines"`
	Garbage      int    `json:"garbage"`
}

// ResultPayload is the terminal notice sent to each side.
type ResultPayload struct {
	Result string `json:"result"` // "win" | "loss"
	Reason string `json:"reason"`
}
