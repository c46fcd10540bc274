package domain

import "time"

type GameStatus string

const (
	GameOpen   GameStatus = "Open"
	GameClosed GameStatus = "Closed"
)

// Game is a hosted event with a seat capacity. Capacity may be reached while
// the game stays Open; a host closes it explicitly.
type Game struct {
	ID             uint       `json:"id"`
	HostID         uint       `json:"host_id"`
	Sport          string     `json:"sport"`
	City           string     `json:"city"`
	Location       string     `json:"location"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Description    string     `json:"description"`
	MaxPlayers     int        `json:"max_players"`
	CurrentPlayers int        `json:"current_players"`
	Status         GameStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (g *Game) IsFull() bool {
	return g.CurrentPlayers >= g.MaxPlayers
}
