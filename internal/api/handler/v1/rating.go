package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sportbuddy/sportbuddy-api/internal/api/handler/v1/request"
	"github.com/sportbuddy/sportbuddy-api/internal/api/handler/v1/response"
	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/service"
)

type RatingService interface {
	InitializeRating(ctx context.Context, userID uint, sport string) (domain.Rating, error)
	GetUserRatings(ctx context.Context, userID uint) ([]domain.Rating, error)
	GetMatchHistory(ctx context.Context, userID uint, sport string) ([]domain.Match, error)
	Leaderboard(ctx context.Context, sport string, limit int) ([]domain.LeaderboardEntry, error)
}

type RatingHandler struct {
	svc             RatingService
	uSvc            UserService
	leaderboardSize int
}

func NewRatingHandler(svc RatingService, uSvc UserService, leaderboardSize int) *RatingHandler {
	return &RatingHandler{
		svc:             svc,
		uSvc:            uSvc,
		leaderboardSize: leaderboardSize,
	}
}

// HandleInitRating godoc
// @Summary      Initialize a rating for a sport
// @Description  Creates the caller's rating for a sport at the starting value. Fails if one already exists.
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Param        input  body      request.InitRatingRequest  true  "Sport"
// @Success      201    {object}  domain.Rating
// @Failure      400    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /ratings [post]
// @Security BearerAuth
func (h *RatingHandler) HandleInitRating(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var input request.InitRatingRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.InitializeRating(ctx.Request.Context(), user.ID, input.Sport)
	if err != nil {
		if errors.Is(err, service.ErrRatingExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrRatingExists))
			return
		}

		err = fmt.Errorf("v1.HandleInitRating -> h.svc.InitializeRating -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGetUserRatings godoc
// @Summary      Get a user's ratings
// @Tags         ratings
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {array}   domain.Rating
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /ratings/{userID} [get]
// @Security BearerAuth
func (h *RatingHandler) HandleGetUserRatings(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID: %w", err)))
		return
	}

	ratings, err := h.svc.GetUserRatings(ctx.Request.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", userID))
			return
		}

		err = fmt.Errorf("v1.HandleGetUserRatings -> h.svc.GetUserRatings -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, ratings)
}

// HandleGetMatchHistory godoc
// @Summary      Get a user's match history
// @Tags         ratings
// @Produce      json
// @Param        userID  path      int     true   "User ID"
// @Param        sport   query     string  false  "Sport"
// @Success      200     {array}   domain.Match
// @Failure      400     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /ratings/{userID}/matches [get]
// @Security BearerAuth
func (h *RatingHandler) HandleGetMatchHistory(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID: %w", err)))
		return
	}

	matches, err := h.svc.GetMatchHistory(ctx.Request.Context(), uint(userID), ctx.Query("sport"))
	if err != nil {
		err = fmt.Errorf("v1.HandleGetMatchHistory -> h.svc.GetMatchHistory -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, matches)
}

// HandleLeaderboard godoc
// @Summary      Get the leaderboard for a sport
// @Tags         ratings
// @Produce      json
// @Param        sport  path      string  true  "Sport"
// @Success      200    {array}   domain.LeaderboardEntry
// @Failure      500    {object}  response.Err
// @Router       /leaderboard/{sport} [get]
// @Security BearerAuth
func (h *RatingHandler) HandleLeaderboard(ctx *gin.Context) {
	sport := ctx.Param("sport")

	entries, err := h.svc.Leaderboard(ctx.Request.Context(), sport, h.leaderboardSize)
	if err != nil {
		err = fmt.Errorf("v1.HandleLeaderboard -> h.svc.Leaderboard -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}
