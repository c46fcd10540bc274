package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/rating"
	"github.com/sportbuddy/sportbuddy-api/internal/repository"
)

var ErrRatingExists = repository.ErrRatingExists

type RatingRepository interface {
	Create(ctx context.Context, rating domain.Rating) (domain.Rating, error)
	Find(ctx context.Context, userID uint, sport string) (domain.Rating, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Rating, error)
	Top(ctx context.Context, sport string, limit int) ([]domain.Rating, error)
	FindMatchesByUser(ctx context.Context, userID uint, sport string) ([]domain.Match, error)
}

// LeaderboardCache is the redis-backed ranking of players per sport.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, sport string, userID uint, score int) error
	Top(ctx context.Context, sport string, limit int) ([]domain.LeaderboardEntry, error)
}

type RatingService struct {
	repo     RatingRepository
	userRepo UserRepository
	cache    LeaderboardCache
}

func NewRatingService(repo RatingRepository, userRepo UserRepository, cache LeaderboardCache) *RatingService {
	return &RatingService{
		repo:     repo,
		userRepo: userRepo,
		cache:    cache,
	}
}

// InitializeRating creates the one Rating a user holds for a sport, at the
// conventional starting values. A second initialization for the same
// (user, sport) pair fails with ErrRatingExists.
func (s *RatingService) InitializeRating(ctx context.Context, userID uint, sport string) (domain.Rating, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return domain.Rating{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.Rating{
		UserID: userID,
		Sport:  sport,
		Rating: rating.InitialRating,
		Sigma:  rating.InitialSigma,
	})
	if err != nil {
		return domain.Rating{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.UpdateScore(ctx, sport, userID, created.Rating); cacheErr != nil {
			zap.L().Warn("failed to seed leaderboard cache",
				zap.String("sport", sport),
				zap.Uint("user_id", userID),
				zap.Error(cacheErr))
		}
	}

	return created, nil
}

func (s *RatingService) GetUserRatings(ctx context.Context, userID uint) ([]domain.Rating, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	ratings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUser -> %w", err)
	}

	return ratings, nil
}

func (s *RatingService) GetMatchHistory(ctx context.Context, userID uint, sport string) ([]domain.Match, error) {
	matches, err := s.repo.FindMatchesByUser(ctx, userID, sport)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindMatchesByUser -> %w", err)
	}

	return matches, nil
}

// Leaderboard serves the per-sport top list from redis when it can, falling
// back to the ratings table (and refilling the cache) when it can't.
func (s *RatingService) Leaderboard(ctx context.Context, sport string, limit int) ([]domain.LeaderboardEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.Top(ctx, sport, limit)
		if err == nil && len(entries) > 0 {
			return s.fillNames(ctx, entries)
		}
		if err != nil {
			zap.L().Warn("leaderboard cache read failed, falling back to database",
				zap.String("sport", sport),
				zap.Error(err))
		}
	}

	ratings, err := s.repo.Top(ctx, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.Top -> %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(ratings))
	for i, rt := range ratings {
		entries[i] = domain.LeaderboardEntry{
			UserID: rt.UserID,
			Rating: rt.Rating,
		}

		if s.cache != nil {
			if cacheErr := s.cache.UpdateScore(ctx, sport, rt.UserID, rt.Rating); cacheErr != nil {
				zap.L().Warn("failed to backfill leaderboard cache",
					zap.String("sport", sport),
					zap.Error(cacheErr))
			}
		}
	}

	return s.fillNames(ctx, entries)
}

func (s *RatingService) fillNames(ctx context.Context, entries []domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindByIDs -> %w", err)
	}

	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	for i := range entries {
		entries[i].Name = names[entries[i].UserID]
	}

	return entries, nil
}
