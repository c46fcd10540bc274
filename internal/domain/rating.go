package domain

import "time"

// Rating is one user's skill estimate for one sport. Sigma is stored for a
// future Glicko-style upgrade and is not used by the current update formula.
type Rating struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Sport     string    `json:"sport"`
	Rating    int       `json:"rating"`
	Sigma     float64   `json:"sigma"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Match is the immutable record of one settled match. WinnerID is nil on a
// draw.
type Match struct {
	ID        uint      `json:"id"`
	GameID    uint      `json:"game_id"`
	Sport     string    `json:"sport"`
	PlayerAID uint      `json:"player_a_id"`
	PlayerBID uint      `json:"player_b_id"`
	ScoreA    int       `json:"score_a"`
	ScoreB    int       `json:"score_b"`
	WinnerID  *uint     `json:"winner_id,omitempty"`
	PlayedAt  time.Time `json:"played_at"`
}

type LeaderboardEntry struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}
