package response

import "github.com/sportbuddy/sportbuddy-api/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
