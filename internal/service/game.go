package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/rating"
	"github.com/sportbuddy/sportbuddy-api/internal/repository"
)

var (
	ErrGameNotFound         = repository.ErrGameNotFound
	ErrJoinRequestNotFound  = repository.ErrJoinRequestNotFound
	ErrDuplicateJoinRequest = repository.ErrDuplicateJoinRequest
	ErrRatingNotFound       = repository.ErrRatingNotFound
	ErrInvalidResult        = rating.ErrInvalidInput

	ErrNotGameHost     = errors.New("only the game host may perform this action")
	ErrNotRequestOwner = errors.New("only the requester may withdraw this request")
	ErrGameFull        = errors.New("game is already full")
	ErrConflict        = errors.New("concurrent update conflict, please retry")
	ErrInvalidStatus   = errors.New("status must be Accepted or Rejected")
)

// acceptRetries bounds the optimistic-concurrency loop on the seat counter.
// Contention on a single game is low, so a handful of attempts is plenty.
const acceptRetries = 3

type GameRepository interface {
	Create(ctx context.Context, game domain.Game) (domain.Game, error)
	FindByID(ctx context.Context, id uint) (domain.Game, error)
	Search(ctx context.Context, params repository.GameSearchParams) ([]domain.Game, error)
	Update(ctx context.Context, game domain.Game) (domain.Game, error)
	Delete(ctx context.Context, id uint) error
	CreateJoinRequest(ctx context.Context, request domain.JoinRequest) (domain.JoinRequest, error)
	FindJoinRequestByID(ctx context.Context, id uint) (domain.JoinRequest, error)
	FindJoinRequestsByGame(ctx context.Context, gameID uint) ([]domain.JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, requestID, gameID uint, expectedCurrent int) error
	ReleaseAcceptedSeat(ctx context.Context, requestID, gameID uint, expectedCurrent int) error
	RejectPendingRequest(ctx context.Context, requestID uint) error
	DeleteJoinRequest(ctx context.Context, requestID, gameID uint, freeSeat bool, expectedCurrent int) error
}

type MatchRepository interface {
	Find(ctx context.Context, userID uint, sport string) (domain.Rating, error)
	RecordMatch(ctx context.Context, match domain.Match, newRatingA, newRatingB int) (domain.Match, error)
}

type GameService struct {
	repo    GameRepository
	ratings MatchRepository
	cache   LeaderboardCache
}

func NewGameService(repo GameRepository, ratings MatchRepository, cache LeaderboardCache) *GameService {
	return &GameService{
		repo:    repo,
		ratings: ratings,
		cache:   cache,
	}
}

func (s *GameService) CreateGame(ctx context.Context, game domain.Game, hostID uint) (domain.Game, error) {
	game.HostID = hostID
	game.CurrentPlayers = 0
	game.Status = domain.GameOpen

	created, err := s.repo.Create(ctx, game)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *GameService) GetGame(ctx context.Context, gameID uint) (domain.Game, error) {
	game, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return game, nil
}

func (s *GameService) SearchGames(ctx context.Context, params repository.GameSearchParams) ([]domain.Game, error) {
	games, err := s.repo.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("s.repo.Search -> %w", err)
	}

	return games, nil
}

func (s *GameService) UpdateGame(ctx context.Context, game domain.Game, actingHostID uint) (domain.Game, error) {
	existing, err := s.repo.FindByID(ctx, game.ID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if existing.HostID != actingHostID {
		return domain.Game{}, ErrNotGameHost
	}

	// The seat counter is only ever touched through the conditional update
	// path, never by a host edit.
	game.HostID = existing.HostID
	game.CurrentPlayers = existing.CurrentPlayers

	updated, err := s.repo.Update(ctx, game)
	if err != nil {
		return domain.Game{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *GameService) DeleteGame(ctx context.Context, gameID, actingHostID uint) error {
	existing, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if existing.HostID != actingHostID {
		return ErrNotGameHost
	}

	if err := s.repo.Delete(ctx, gameID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// CreateJoinRequest claims a Pending seat request. A second request for the
// same (game, requester) pair fails with ErrDuplicateJoinRequest no matter
// what state the first one is in, Rejected included.
func (s *GameService) CreateJoinRequest(ctx context.Context, gameID, requesterID uint) (domain.JoinRequest, error) {
	if _, err := s.repo.FindByID(ctx, gameID); err != nil {
		return domain.JoinRequest{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	created, err := s.repo.CreateJoinRequest(ctx, domain.JoinRequest{
		GameID:      gameID,
		RequesterID: requesterID,
		Status:      domain.JoinRequestPending,
	})
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("s.repo.CreateJoinRequest -> %w", err)
	}

	return created, nil
}

func (s *GameService) ListJoinRequests(ctx context.Context, gameID, actingHostID uint) ([]domain.JoinRequest, error) {
	game, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if game.HostID != actingHostID {
		return nil, ErrNotGameHost
	}

	requests, err := s.repo.FindJoinRequestsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindJoinRequestsByGame -> %w", err)
	}

	return requests, nil
}

// TransitionJoinRequest is the host's accept/reject decision. The transitions
// that touch the seat counter (Pending -> Accepted, Accepted -> Rejected) go
// through a compare-and-swap on current_players with a bounded retry, so two
// hosts' tabs racing each other can never overbook the game. Any
// (current, new) combination outside the supported edges is a silent no-op.
func (s *GameService) TransitionJoinRequest(ctx context.Context, requestID, actingHostID uint, newStatus domain.JoinRequestStatus) error {
	if newStatus != domain.JoinRequestAccepted && newStatus != domain.JoinRequestRejected {
		return ErrInvalidStatus
	}

	request, err := s.repo.FindJoinRequestByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("s.repo.FindJoinRequestByID -> %w", err)
	}

	game, err := s.repo.FindByID(ctx, request.GameID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if game.HostID != actingHostID {
		return ErrNotGameHost
	}

	if newStatus == domain.JoinRequestAccepted {
		if request.Status != domain.JoinRequestPending {
			return nil
		}

		return s.acceptPendingRequest(ctx, request, game)
	}

	switch request.Status {
	case domain.JoinRequestPending:
		if err := s.repo.RejectPendingRequest(ctx, requestID); err != nil {
			return fmt.Errorf("s.repo.RejectPendingRequest -> %w", err)
		}

		return nil
	case domain.JoinRequestAccepted:
		return s.releaseAcceptedSeat(ctx, request, game)
	default:
		return nil
	}
}

func (s *GameService) acceptPendingRequest(ctx context.Context, request domain.JoinRequest, game domain.Game) error {
	for attempt := 0; attempt < acceptRetries; attempt++ {
		if game.IsFull() {
			return ErrGameFull
		}

		err := s.repo.AcceptJoinRequest(ctx, request.ID, game.ID, game.CurrentPlayers)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrStaleCounter) {
			return fmt.Errorf("s.repo.AcceptJoinRequest -> %w", err)
		}

		game, err = s.repo.FindByID(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("s.repo.FindByID -> %w", err)
		}
	}

	return ErrConflict
}

func (s *GameService) releaseAcceptedSeat(ctx context.Context, request domain.JoinRequest, game domain.Game) error {
	for attempt := 0; attempt < acceptRetries; attempt++ {
		err := s.repo.ReleaseAcceptedSeat(ctx, request.ID, game.ID, game.CurrentPlayers)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrStaleCounter) {
			return fmt.Errorf("s.repo.ReleaseAcceptedSeat -> %w", err)
		}

		game, err = s.repo.FindByID(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("s.repo.FindByID -> %w", err)
		}
	}

	return ErrConflict
}

// DeleteJoinRequest lets the requester withdraw. Withdrawing an Accepted
// request frees its seat in the same transaction, so current_players stays in
// step with the accepted set.
func (s *GameService) DeleteJoinRequest(ctx context.Context, requestID, requesterID uint) error {
	request, err := s.repo.FindJoinRequestByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("s.repo.FindJoinRequestByID -> %w", err)
	}

	if request.RequesterID != requesterID {
		return ErrNotRequestOwner
	}

	freeSeat := request.Status == domain.JoinRequestAccepted
	if !freeSeat {
		if err := s.repo.DeleteJoinRequest(ctx, requestID, request.GameID, false, 0); err != nil {
			return fmt.Errorf("s.repo.DeleteJoinRequest -> %w", err)
		}

		return nil
	}

	game, err := s.repo.FindByID(ctx, request.GameID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	for attempt := 0; attempt < acceptRetries; attempt++ {
		err := s.repo.DeleteJoinRequest(ctx, requestID, request.GameID, true, game.CurrentPlayers)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrStaleCounter) {
			return fmt.Errorf("s.repo.DeleteJoinRequest -> %w", err)
		}

		game, err = s.repo.FindByID(ctx, request.GameID)
		if err != nil {
			return fmt.Errorf("s.repo.FindByID -> %w", err)
		}
	}

	return ErrConflict
}

// RecordResult settles a match between two participants of the game. The
// outcome is derived from the raw scores, both Elo ratings are recomputed,
// and ratings plus the match row are committed together, exactly once.
func (s *GameService) RecordResult(ctx context.Context, gameID, actingHostID, playerAID, playerBID uint, scoreA, scoreB int) (domain.Match, error) {
	game, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return domain.Match{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if game.HostID != actingHostID {
		return domain.Match{}, ErrNotGameHost
	}

	outcome, err := rating.OutcomeFromScores(scoreA, scoreB)
	if err != nil {
		return domain.Match{}, err
	}

	ratingA, err := s.ratings.Find(ctx, playerAID, game.Sport)
	if err != nil {
		return domain.Match{}, fmt.Errorf("s.ratings.Find(playerA) -> %w", err)
	}

	ratingB, err := s.ratings.Find(ctx, playerBID, game.Sport)
	if err != nil {
		return domain.Match{}, fmt.Errorf("s.ratings.Find(playerB) -> %w", err)
	}

	newA, newB, err := rating.ComputeUpdate(float64(ratingA.Rating), float64(ratingB.Rating), outcome, rating.DefaultK)
	if err != nil {
		return domain.Match{}, err
	}

	var winnerID *uint
	switch outcome {
	case rating.OutcomeAWins:
		winnerID = &playerAID
	case rating.OutcomeBWins:
		winnerID = &playerBID
	}

	match := domain.Match{
		GameID:    gameID,
		Sport:     game.Sport,
		PlayerAID: playerAID,
		PlayerBID: playerBID,
		ScoreA:    scoreA,
		ScoreB:    scoreB,
		WinnerID:  winnerID,
		PlayedAt:  time.Now(),
	}

	recorded, err := s.ratings.RecordMatch(ctx, match, newA, newB)
	if err != nil {
		return domain.Match{}, fmt.Errorf("s.ratings.RecordMatch -> %w", err)
	}

	s.refreshLeaderboard(ctx, game.Sport, playerAID, newA)
	s.refreshLeaderboard(ctx, game.Sport, playerBID, newB)

	return recorded, nil
}

// Leaderboard writes are best effort. The database stays authoritative; a
// dead redis only costs cache hits.
func (s *GameService) refreshLeaderboard(ctx context.Context, sport string, userID uint, newRating int) {
	if s.cache == nil {
		return
	}

	if err := s.cache.UpdateScore(ctx, sport, userID, newRating); err != nil {
		zap.L().Warn("failed to update leaderboard cache",
			zap.String("sport", sport),
			zap.Uint("user_id", userID),
			zap.Error(err))
	}
}
