// internal/profile/profile.go
//
// Persisted player identity for the game server.
// Defines:
//   - Profile: the stored record (rating, counters, high score).
//   - Store: the persistence interface consumed by matchmaking and the
//     HTTP layer. Implementations may be backed by SQL (sql.go) or
//     memory (memory.go, used in tests).

package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FetchProfile when no row exists for the id.
var ErrNotFound = errors.New("profile not found")

// DefaultRating is the rating assigned to new accounts and assumed for
// guests.
const DefaultRating = 1000

// Profile is one player's persisted record.
type Profile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	EloRating        int    `json:"elo_rating"`
	Wins             int    `json:"wins"`
	Losses           int    `json:"losses"`
	MatchesPlayed    int    `json:"matches_played"`
	HighestSoloScore int    `json:"highest_solo_score"`
}

// Guest returns the stand-in profile used when a player has no identity or
// the fetch finds nothing.
func Guest() *Profile {
	return &Profile{Username: "Guest", EloRating: DefaultRating}
}

// MatchRecord is one finished PvP match as stored in history.
type MatchRecord struct {
	Player1ID    string `json:"player1_id"`
	Player2ID    string `json:"player2_id"`
	WinnerID     string `json:"winner_id"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Store is the identity/database collaborator. All writes are fire and
// forget from the caller's perspective: a failure is logged, never
// compensated.
type Store interface {
	// FetchProfile loads a profile by id. Returns ErrNotFound if absent.
	FetchProfile(ctx context.Context, id string) (*Profile, error)

	// InsertMatchHistory records a finished match between two identified
	// players.
	InsertMatchHistory(ctx context.Context, winnerID, loserID string, winnerScore, loserScore int) error

	// ApplyMatchResult writes one side's post-match state: new rating,
	// win/loss counter, matches played.
	ApplyMatchResult(ctx context.Context, id string, newRating int, won bool) error

	// RecordSoloRun stores a solo game result and bumps the profile's
	// high score if beaten.
	RecordSoloRun(ctx context.Context, id string, score, clearedLines int) error
}
