package domain

import "time"

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "Pending"
	JoinRequestAccepted JoinRequestStatus = "Accepted"
	JoinRequestRejected JoinRequestStatus = "Rejected"
)

// JoinRequest is one participant's claim on one seat in a Game. Status moves
// Pending -> Accepted or Rejected; the only reverse edge is
// Accepted -> Rejected, which frees the seat again.
type JoinRequest struct {
	ID          uint              `json:"id"`
	GameID      uint              `json:"game_id"`
	RequesterID uint              `json:"requester_id"`
	Status      JoinRequestStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
