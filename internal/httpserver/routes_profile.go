// internal/httpserver/routes_profile.go
//
// Profile, solo-run, and history endpoints.
//   - GET  /profile/me     → full profile for the logged-in player
//   - POST /solo/run       → persist a finished solo game (bumps high score)
//   - GET  /matches/mine   → recent PvP history for the logged-in player
//   - GET  /leaderboard    → top profiles by rating (public)
//
// Solo-run persistence is best effort, like the match recorder: a DB
// failure is logged and the client still gets an ok.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// mountProfileRoutes registers profile/stats routes.
func (s *Server) mountProfileRoutes(r chi.Router) {
	r.With(s.requireAuth()).Get("/profile/me", s.handleProfileMe)
	r.With(s.requireAuth()).Post("/solo/run", s.handleSoloRun)
	r.With(s.requireAuth()).Get("/matches/mine", s.handleMatchesMine)
	r.Get("/leaderboard", s.handleLeaderboard)
}

// handleProfileMe returns the caller's persisted profile.
func (s *Server) handleProfileMe(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	p, err := s.profiles.FetchProfile(r.Context(), me.ID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// soloRunReq is the payload for POST /solo/run.
type soloRunReq struct {
	Score        int `json:"score"`
	ClearedLines int `json:"clearedLines"`
}

// handleSoloRun records a finished solo game for the caller.
func (s *Server) handleSoloRun(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var body soloRunReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if body.Score < 0 {
		http.Error(w, `{"error":"invalid_score"}`, http.StatusBadRequest)
		return
	}
	if err := s.profiles.RecordSoloRun(r.Context(), me.ID, body.Score, body.ClearedLines); err != nil {
		log.Warn().Err(err).Str("user", me.ID).Msg("record solo run")
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// matchRow is one history entry returned by /matches/mine.
type matchRow struct {
	OpponentID string `json:"opponentId"`
	Won        bool   `json:"won"`
	MyScore    int    `json:"myScore"`
	TheirScore int    `json:"theirScore"`
	PlayedAt   string `json:"playedAt"`
}

// handleMatchesMine returns the caller's recent PvP matches, newest first.
func (s *Server) handleMatchesMine(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT player1_id, player2_id, winner_id, player1_score, player2_score, created_at
		FROM match_history
		WHERE player1_id=? OR player2_id=?
		ORDER BY created_at DESC LIMIT 50`, me.ID, me.ID)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	out := []matchRow{}
	for rows.Next() {
		var p1, p2, winner, created string
		var s1, s2 int
		if err := rows.Scan(&p1, &p2, &winner, &s1, &s2, &created); err != nil {
			continue
		}
		m := matchRow{Won: winner == me.ID, PlayedAt: created}
		if p1 == me.ID {
			m.OpponentID, m.MyScore, m.TheirScore = p2, s1, s2
		} else {
			m.OpponentID, m.MyScore, m.TheirScore = p1, s2, s1
		}
		out = append(out, m)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// lbEntry is one row of the public leaderboard.
type lbEntry struct {
	Username      string `json:"username"`
	EloRating     int    `json:"elo_rating"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	MatchesPlayed int    `json:"matches_played"`
}

// handleLeaderboard returns the top profiles by rating (default 20, capped
// at 100).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT username, elo_rating, wins, losses, matches_played
		FROM profiles
		ORDER BY elo_rating DESC, matches_played DESC LIMIT ?`, limit)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	out := []lbEntry{}
	for rows.Next() {
		var e lbEntry
		if err := rows.Scan(&e.Username, &e.EloRating, &e.Wins, &e.Losses, &e.MatchesPlayed); err == nil {
			out = append(out, e)
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}
