package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateGameRequest struct {
	Sport       string `json:"sport"`
	City        string `json:"city"`
	Location    string `json:"location"`
	ScheduledAt string `json:"scheduled_at" format:"RFC3339"`
	Description string `json:"description"`
	MaxPlayers  int    `json:"max_players"`
}

func (req *CreateGameRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Sport, validation.Required, validation.Length(2, 30)),
		validation.Field(&req.City, validation.Required, validation.Length(2, 50)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.ScheduledAt, validation.Required),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.MaxPlayers, validation.Required, validation.Min(2), validation.Max(100)),
	)
}

type UpdateGameRequest struct {
	Sport       string `json:"sport"`
	City        string `json:"city"`
	Location    string `json:"location"`
	ScheduledAt string `json:"scheduled_at" format:"RFC3339"`
	Description string `json:"description"`
	MaxPlayers  int    `json:"max_players"`
	Status      string `json:"status"`
}

func (req *UpdateGameRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Sport, validation.Required, validation.Length(2, 30)),
		validation.Field(&req.City, validation.Required, validation.Length(2, 50)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.ScheduledAt, validation.Required),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.MaxPlayers, validation.Required, validation.Min(2), validation.Max(100)),
		validation.Field(&req.Status, validation.Required, validation.In("Open", "Closed")),
	)
}

type TransitionJoinRequestRequest struct {
	Status string `json:"status"`
}

func (req *TransitionJoinRequestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In("Accepted", "Rejected")),
	)
}

type RecordResultRequest struct {
	PlayerAID uint `json:"player_a_id"`
	PlayerBID uint `json:"player_b_id"`
	ScoreA    int  `json:"score_a"`
	ScoreB    int  `json:"score_b"`
}

func (req *RecordResultRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PlayerAID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.PlayerBID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.ScoreA, validation.Min(0)),
		validation.Field(&req.ScoreB, validation.Min(0)),
	)
}

type InitRatingRequest struct {
	Sport string `json:"sport"`
}

func (req *InitRatingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Sport, validation.Required, validation.Length(2, 30)),
	)
}
