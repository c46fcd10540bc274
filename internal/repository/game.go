package repository

import (
	"context"
	"fmt"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/repository/dao"
)

var (
	ErrGameNotFound         = dao.ErrGameNotFound
	ErrJoinRequestNotFound  = dao.ErrJoinRequestNotFound
	ErrDuplicateJoinRequest = dao.ErrDuplicateJoinRequest
	ErrStaleCounter         = dao.ErrStaleCounter
)

type GameDAO interface {
	Insert(ctx context.Context, game dao.Game) (dao.Game, error)
	FindByID(ctx context.Context, id uint) (dao.Game, error)
	Search(ctx context.Context, params dao.GameSearchParams) ([]dao.Game, error)
	Update(ctx context.Context, game dao.Game) (dao.Game, error)
	Delete(ctx context.Context, id uint) error
	InsertJoinRequest(ctx context.Context, request dao.JoinRequest) (dao.JoinRequest, error)
	FindJoinRequestByID(ctx context.Context, id uint) (dao.JoinRequest, error)
	FindJoinRequestsByGame(ctx context.Context, gameID uint) ([]dao.JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, requestID, gameID uint, expectedCurrent int) error
	ReleaseAcceptedSeat(ctx context.Context, requestID, gameID uint, expectedCurrent int) error
	UpdateJoinRequestStatus(ctx context.Context, id uint, status string) error
	DeleteJoinRequest(ctx context.Context, requestID, gameID uint, freeSeat bool, expectedCurrent int) error
}

// GameSearchParams mirrors the listing filters one-to-one. Handlers build it
// explicitly; there is no pass-through of loose query maps.
type GameSearchParams = dao.GameSearchParams

type GameRepository struct {
	dao GameDAO
}

func NewGameRepository(dao GameDAO) *GameRepository {
	return &GameRepository{
		dao: dao,
	}
}

func (r *GameRepository) Create(ctx context.Context, game domain.Game) (domain.Game, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(game))
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *GameRepository) FindByID(ctx context.Context, id uint) (domain.Game, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *GameRepository) Search(ctx context.Context, params GameSearchParams) ([]domain.Game, error) {
	found, err := r.dao.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Search -> %w", err)
	}

	games := make([]domain.Game, len(found))
	for i, g := range found {
		games[i] = r.daoToDomain(g)
	}

	return games, nil
}

func (r *GameRepository) Update(ctx context.Context, game domain.Game) (domain.Game, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(game))
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *GameRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *GameRepository) CreateJoinRequest(ctx context.Context, request domain.JoinRequest) (domain.JoinRequest, error) {
	created, err := r.dao.InsertJoinRequest(ctx, dao.JoinRequest{
		GameID:      request.GameID,
		RequesterID: request.RequesterID,
		Status:      string(domain.JoinRequestPending),
	})
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("r.dao.InsertJoinRequest -> %w", err)
	}

	return r.requestDaoToDomain(created), nil
}

func (r *GameRepository) FindJoinRequestByID(ctx context.Context, id uint) (domain.JoinRequest, error) {
	found, err := r.dao.FindJoinRequestByID(ctx, id)
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("r.dao.FindJoinRequestByID -> %w", err)
	}

	return r.requestDaoToDomain(found), nil
}

func (r *GameRepository) FindJoinRequestsByGame(ctx context.Context, gameID uint) ([]domain.JoinRequest, error) {
	found, err := r.dao.FindJoinRequestsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindJoinRequestsByGame -> %w", err)
	}

	requests := make([]domain.JoinRequest, len(found))
	for i, req := range found {
		requests[i] = r.requestDaoToDomain(req)
	}

	return requests, nil
}

func (r *GameRepository) AcceptJoinRequest(ctx context.Context, requestID, gameID uint, expectedCurrent int) error {
	if err := r.dao.AcceptJoinRequest(ctx, requestID, gameID, expectedCurrent); err != nil {
		return fmt.Errorf("r.dao.AcceptJoinRequest -> %w", err)
	}

	return nil
}

func (r *GameRepository) ReleaseAcceptedSeat(ctx context.Context, requestID, gameID uint, expectedCurrent int) error {
	if err := r.dao.ReleaseAcceptedSeat(ctx, requestID, gameID, expectedCurrent); err != nil {
		return fmt.Errorf("r.dao.ReleaseAcceptedSeat -> %w", err)
	}

	return nil
}

func (r *GameRepository) RejectPendingRequest(ctx context.Context, requestID uint) error {
	if err := r.dao.UpdateJoinRequestStatus(ctx, requestID, string(domain.JoinRequestRejected)); err != nil {
		return fmt.Errorf("r.dao.UpdateJoinRequestStatus -> %w", err)
	}

	return nil
}

func (r *GameRepository) DeleteJoinRequest(ctx context.Context, requestID, gameID uint, freeSeat bool, expectedCurrent int) error {
	if err := r.dao.DeleteJoinRequest(ctx, requestID, gameID, freeSeat, expectedCurrent); err != nil {
		return fmt.Errorf("r.dao.DeleteJoinRequest -> %w", err)
	}

	return nil
}

func (r *GameRepository) domainToDao(g domain.Game) dao.Game {
	return dao.Game{
		ID:             g.ID,
		HostID:         g.HostID,
		Sport:          g.Sport,
		City:           g.City,
		Location:       g.Location,
		ScheduledAt:    g.ScheduledAt,
		Description:    g.Description,
		MaxPlayers:     g.MaxPlayers,
		CurrentPlayers: g.CurrentPlayers,
		Status:         string(g.Status),
	}
}

func (r *GameRepository) daoToDomain(g dao.Game) domain.Game {
	return domain.Game{
		ID:             g.ID,
		HostID:         g.HostID,
		Sport:          g.Sport,
		City:           g.City,
		Location:       g.Location,
		ScheduledAt:    g.ScheduledAt,
		Description:    g.Description,
		MaxPlayers:     g.MaxPlayers,
		CurrentPlayers: g.CurrentPlayers,
		Status:         domain.GameStatus(g.Status),
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func (r *GameRepository) requestDaoToDomain(req dao.JoinRequest) domain.JoinRequest {
	return domain.JoinRequest{
		ID:          req.ID,
		GameID:      req.GameID,
		RequesterID: req.RequesterID,
		Status:      domain.JoinRequestStatus(req.Status),
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}
