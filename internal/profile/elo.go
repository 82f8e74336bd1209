package profile

import "math"

// KFactor is the fixed Elo K-factor for ranked matches.
const KFactor = 32

// Elo returns a player's updated rating against an opponent.
// actual is 1 for a win, 0 for a loss, 0.5 for a draw.
func Elo(rating, opponentRating int, actual float64) int {
	expected := 1 / (1 + math.Pow(10, float64(opponentRating-rating)/400))
	return int(math.Round(float64(rating) + KFactor*(actual-expected)))
}
