package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sportbuddy/sportbuddy-api/internal/api/handler/v1/request"
	"github.com/sportbuddy/sportbuddy-api/internal/api/handler/v1/response"
	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/repository"
	"github.com/sportbuddy/sportbuddy-api/internal/service"
)

type GameService interface {
	CreateGame(ctx context.Context, game domain.Game, hostID uint) (domain.Game, error)
	GetGame(ctx context.Context, gameID uint) (domain.Game, error)
	SearchGames(ctx context.Context, params repository.GameSearchParams) ([]domain.Game, error)
	UpdateGame(ctx context.Context, game domain.Game, actingHostID uint) (domain.Game, error)
	DeleteGame(ctx context.Context, gameID, actingHostID uint) error
	CreateJoinRequest(ctx context.Context, gameID, requesterID uint) (domain.JoinRequest, error)
	ListJoinRequests(ctx context.Context, gameID, actingHostID uint) ([]domain.JoinRequest, error)
	TransitionJoinRequest(ctx context.Context, requestID, actingHostID uint, newStatus domain.JoinRequestStatus) error
	DeleteJoinRequest(ctx context.Context, requestID, requesterID uint) error
	RecordResult(ctx context.Context, gameID, actingHostID, playerAID, playerBID uint, scoreA, scoreB int) (domain.Match, error)
}

type GameHandler struct {
	svc  GameService
	uSvc UserService
}

func NewGameHandler(svc GameService, uSvc UserService) *GameHandler {
	return &GameHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateGame godoc
// @Summary      Host a new game
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateGameRequest  true  "Game details"
// @Success      201    {object}  domain.Game
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /games [post]
// @Security BearerAuth
func (h *GameHandler) HandleCreateGame(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.CreateGameRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, input.ScheduledAt)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid scheduled_at: %v", err)))
		return
	}

	game := domain.Game{
		Sport:       input.Sport,
		City:        input.City,
		Location:    input.Location,
		ScheduledAt: scheduledAt,
		Description: input.Description,
		MaxPlayers:  input.MaxPlayers,
	}

	created, err := h.svc.CreateGame(ctx.Request.Context(), game, user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateGame -> h.svc.CreateGame -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleSearchGames godoc
// @Summary      List open games
// @Description  Lists open games, optionally filtered by sport, city and a scheduled time window.
// @Tags         games
// @Produce      json
// @Param        sport  query     string  false  "Sport"
// @Param        city   query     string  false  "City"
// @Param        from   query     string  false  "Earliest scheduled time (RFC3339)"
// @Param        to     query     string  false  "Latest scheduled time (RFC3339)"
// @Success      200  {array}   domain.Game
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /games [get]
// @Security BearerAuth
func (h *GameHandler) HandleSearchGames(ctx *gin.Context) {
	params := repository.GameSearchParams{
		Sport: ctx.Query("sport"),
		City:  ctx.Query("city"),
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid from: %v", err)))
			return
		}
		params.From = &from
	}

	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid to: %v", err)))
			return
		}
		params.To = &to
	}

	games, err := h.svc.SearchGames(ctx.Request.Context(), params)
	if err != nil {
		err = fmt.Errorf("v1.HandleSearchGames -> h.svc.SearchGames -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, games)
}

// HandleGetGame godoc
// @Summary      Get a game
// @Tags         games
// @Produce      json
// @Param        gameID  path      int  true  "Game ID"
// @Success      200     {object}  domain.Game
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID} [get]
// @Security BearerAuth
func (h *GameHandler) HandleGetGame(ctx *gin.Context) {
	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	game, err := h.svc.GetGame(ctx.Request.Context(), uint(gameID))
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
			return
		}

		err = fmt.Errorf("v1.HandleGetGame -> h.svc.GetGame -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, game)
}

// HandleUpdateGame godoc
// @Summary      Edit a hosted game
// @Description  Updates a game's details. Only the host may edit; the seat counter is not editable.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        gameID  path      int                        true  "Game ID"
// @Param        input   body      request.UpdateGameRequest  true  "Game details"
// @Success      200     {object}  domain.Game
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID} [put]
// @Security BearerAuth
func (h *GameHandler) HandleUpdateGame(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	var input request.UpdateGameRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, input.ScheduledAt)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid scheduled_at: %v", err)))
		return
	}

	game := domain.Game{
		ID:          uint(gameID),
		Sport:       input.Sport,
		City:        input.City,
		Location:    input.Location,
		ScheduledAt: scheduledAt,
		Description: input.Description,
		MaxPlayers:  input.MaxPlayers,
		Status:      domain.GameStatus(input.Status),
	}

	updated, err := h.svc.UpdateGame(ctx.Request.Context(), game, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
		case errors.Is(err, service.ErrNotGameHost):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotGameHost))
		default:
			err = fmt.Errorf("v1.HandleUpdateGame -> h.svc.UpdateGame -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteGame godoc
// @Summary      Delete a hosted game
// @Tags         games
// @Produce      json
// @Param        gameID  path  int  true  "Game ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /games/{gameID} [delete]
// @Security BearerAuth
func (h *GameHandler) HandleDeleteGame(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	if err := h.svc.DeleteGame(ctx.Request.Context(), uint(gameID), user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
		case errors.Is(err, service.ErrNotGameHost):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotGameHost))
		default:
			err = fmt.Errorf("v1.HandleDeleteGame -> h.svc.DeleteGame -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCreateJoinRequest godoc
// @Summary      Request to join a game
// @Description  Creates a Pending join request. A user may hold at most one request per game, whatever its state.
// @Tags         games,requests
// @Produce      json
// @Param        gameID  path      int  true  "Game ID"
// @Success      201     {object}  domain.JoinRequest
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      409     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/requests [post]
// @Security BearerAuth
func (h *GameHandler) HandleCreateJoinRequest(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	created, err := h.svc.CreateJoinRequest(ctx.Request.Context(), uint(gameID), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
		case errors.Is(err, service.ErrDuplicateJoinRequest):
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateJoinRequest))
		default:
			err = fmt.Errorf("v1.HandleCreateJoinRequest -> h.svc.CreateJoinRequest -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListJoinRequests godoc
// @Summary      List join requests for a game
// @Description  Only the game's host may list its join requests.
// @Tags         games,requests
// @Produce      json
// @Param        gameID  path      int  true  "Game ID"
// @Success      200     {array}   domain.JoinRequest
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/requests [get]
// @Security BearerAuth
func (h *GameHandler) HandleListJoinRequests(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	requests, err := h.svc.ListJoinRequests(ctx.Request.Context(), uint(gameID), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
		case errors.Is(err, service.ErrNotGameHost):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotGameHost))
		default:
			err = fmt.Errorf("v1.HandleListJoinRequests -> h.svc.ListJoinRequests -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, requests)
}

// HandleTransitionJoinRequest godoc
// @Summary      Accept or reject a join request
// @Description  Accepting takes a seat; rejecting an accepted request frees it again. Only the game's host may decide.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        requestID  path      int                                   true  "Join request ID"
// @Param        input      body      request.TransitionJoinRequestRequest  true  "New status"
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /requests/{requestID} [put]
// @Security BearerAuth
func (h *GameHandler) HandleTransitionJoinRequest(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid request ID: %w", err)))
		return
	}

	var input request.TransitionJoinRequestRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err = h.svc.TransitionJoinRequest(ctx.Request.Context(), uint(requestID), user.ID, domain.JoinRequestStatus(input.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJoinRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("join request", "ID", requestID))
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "request ID", requestID))
		case errors.Is(err, service.ErrNotGameHost):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotGameHost))
		case errors.Is(err, service.ErrGameFull):
			response.RenderErr(ctx, response.ErrConflict(service.ErrGameFull))
		case errors.Is(err, service.ErrConflict):
			response.RenderErr(ctx, response.ErrConflict(service.ErrConflict))
		case errors.Is(err, service.ErrInvalidStatus):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidStatus))
		default:
			err = fmt.Errorf("v1.HandleTransitionJoinRequest -> h.svc.TransitionJoinRequest -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "join request updated"})
}

// HandleDeleteJoinRequest godoc
// @Summary      Withdraw a join request
// @Description  Only the requester may withdraw. Withdrawing an accepted request frees its seat.
// @Tags         requests
// @Produce      json
// @Param        requestID  path  int  true  "Join request ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /requests/{requestID} [delete]
// @Security BearerAuth
func (h *GameHandler) HandleDeleteJoinRequest(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid request ID: %w", err)))
		return
	}

	if err := h.svc.DeleteJoinRequest(ctx.Request.Context(), uint(requestID), user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrJoinRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("join request", "ID", requestID))
		case errors.Is(err, service.ErrNotRequestOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotRequestOwner))
		case errors.Is(err, service.ErrConflict):
			response.RenderErr(ctx, response.ErrConflict(service.ErrConflict))
		default:
			err = fmt.Errorf("v1.HandleDeleteJoinRequest -> h.svc.DeleteJoinRequest -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRecordResult godoc
// @Summary      Record a match result
// @Description  Settles a match between two participants and updates both Elo ratings. Only the game's host may record.
// @Tags         games,ratings
// @Accept       json
// @Produce      json
// @Param        gameID  path      int                          true  "Game ID"
// @Param        input   body      request.RecordResultRequest  true  "Scores"
// @Success      201     {object}  domain.Match
// @Failure      400     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /games/{gameID}/result [post]
// @Security BearerAuth
func (h *GameHandler) HandleRecordResult(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	gameID, err := strconv.ParseUint(ctx.Param("gameID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid game ID: %w", err)))
		return
	}

	var input request.RecordResultRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	match, err := h.svc.RecordResult(ctx.Request.Context(), uint(gameID), user.ID, input.PlayerAID, input.PlayerBID, input.ScoreA, input.ScoreB)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			response.RenderErr(ctx, response.ErrNotFound("game", "ID", gameID))
		case errors.Is(err, service.ErrNotGameHost):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotGameHost))
		case errors.Is(err, service.ErrInvalidResult):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRatingNotFound):
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("both players need an initialized rating: %w", err)))
		default:
			err = fmt.Errorf("v1.HandleRecordResult -> h.svc.RecordResult -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, match)
}
