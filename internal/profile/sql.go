// internal/profile/sql.go
//
// SQL-backed Store implementation over the profiles, match_history and
// solo_match_history tables (see sql/0001_init.sql). Timestamps are stored
// as RFC3339 strings, matching the rest of the schema.

package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore constructs a Store backed by db.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) FetchProfile(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, elo_rating, wins, losses, matches_played, highest_solo_score
		FROM profiles WHERE id=?`, id)
	var p Profile
	if err := row.Scan(&p.ID, &p.Username, &p.EloRating, &p.Wins, &p.Losses,
		&p.MatchesPlayed, &p.HighestSoloScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *sqlStore) InsertMatchHistory(ctx context.Context, winnerID, loserID string, winnerScore, loserScore int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_history (player1_id, player2_id, winner_id, player1_score, player2_score, created_at)
		VALUES (?,?,?,?,?,?)`,
		winnerID, loserID, winnerID, winnerScore, loserScore, now())
	return err
}

func (s *sqlStore) ApplyMatchResult(ctx context.Context, id string, newRating int, won bool) error {
	col := "losses"
	if won {
		col = "wins"
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET elo_rating=?, `+col+` = `+col+` + 1, matches_played = matches_played + 1
		WHERE id=?`, newRating, id)
	return err
}

func (s *sqlStore) RecordSoloRun(ctx context.Context, id string, score, clearedLines int) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO solo_match_history (player_id, score, cleared_lines, created_at)
		VALUES (?,?,?,?)`, id, score, clearedLines, now()); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET highest_solo_score=? WHERE id=? AND highest_solo_score < ?`,
		score, id, score)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
