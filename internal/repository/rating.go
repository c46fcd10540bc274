package repository

import (
	"context"
	"fmt"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/repository/dao"
)

var (
	ErrRatingNotFound = dao.ErrRatingNotFound
	ErrRatingExists   = dao.ErrRatingExists
)

type RatingDAO interface {
	Insert(ctx context.Context, rating dao.Rating) (dao.Rating, error)
	Find(ctx context.Context, userID uint, sport string) (dao.Rating, error)
	FindByUser(ctx context.Context, userID uint) ([]dao.Rating, error)
	Top(ctx context.Context, sport string, limit int) ([]dao.Rating, error)
	RecordMatch(ctx context.Context, match dao.Match, newRatingA, newRatingB int) (dao.Match, error)
	FindMatchesByUser(ctx context.Context, userID uint, sport string) ([]dao.Match, error)
}

type RatingRepository struct {
	dao RatingDAO
}

func NewRatingRepository(dao RatingDAO) *RatingRepository {
	return &RatingRepository{
		dao: dao,
	}
}

func (r *RatingRepository) Create(ctx context.Context, rating domain.Rating) (domain.Rating, error) {
	created, err := r.dao.Insert(ctx, dao.Rating{
		UserID: rating.UserID,
		Sport:  rating.Sport,
		Rating: rating.Rating,
		Sigma:  rating.Sigma,
	})
	if err != nil {
		return domain.Rating{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RatingRepository) Find(ctx context.Context, userID uint, sport string) (domain.Rating, error) {
	found, err := r.dao.Find(ctx, userID, sport)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("r.dao.Find -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RatingRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Rating, error) {
	found, err := r.dao.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUser -> %w", err)
	}

	ratings := make([]domain.Rating, len(found))
	for i, rt := range found {
		ratings[i] = r.daoToDomain(rt)
	}

	return ratings, nil
}

func (r *RatingRepository) Top(ctx context.Context, sport string, limit int) ([]domain.Rating, error) {
	found, err := r.dao.Top(ctx, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Top -> %w", err)
	}

	ratings := make([]domain.Rating, len(found))
	for i, rt := range found {
		ratings[i] = r.daoToDomain(rt)
	}

	return ratings, nil
}

func (r *RatingRepository) RecordMatch(ctx context.Context, match domain.Match, newRatingA, newRatingB int) (domain.Match, error) {
	recorded, err := r.dao.RecordMatch(ctx, dao.Match{
		GameID:    match.GameID,
		Sport:     match.Sport,
		PlayerAID: match.PlayerAID,
		PlayerBID: match.PlayerBID,
		ScoreA:    match.ScoreA,
		ScoreB:    match.ScoreB,
		WinnerID:  match.WinnerID,
		PlayedAt:  match.PlayedAt,
	}, newRatingA, newRatingB)
	if err != nil {
		return domain.Match{}, fmt.Errorf("r.dao.RecordMatch -> %w", err)
	}

	return r.matchDaoToDomain(recorded), nil
}

func (r *RatingRepository) FindMatchesByUser(ctx context.Context, userID uint, sport string) ([]domain.Match, error) {
	found, err := r.dao.FindMatchesByUser(ctx, userID, sport)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindMatchesByUser -> %w", err)
	}

	matches := make([]domain.Match, len(found))
	for i, m := range found {
		matches[i] = r.matchDaoToDomain(m)
	}

	return matches, nil
}

func (r *RatingRepository) daoToDomain(rt dao.Rating) domain.Rating {
	return domain.Rating{
		ID:        rt.ID,
		UserID:    rt.UserID,
		Sport:     rt.Sport,
		Rating:    rt.Rating,
		Sigma:     rt.Sigma,
		CreatedAt: rt.CreatedAt,
		UpdatedAt: rt.UpdatedAt,
	}
}

func (r *RatingRepository) matchDaoToDomain(m dao.Match) domain.Match {
	return domain.Match{
		ID:        m.ID,
		GameID:    m.GameID,
		Sport:     m.Sport,
		PlayerAID: m.PlayerAID,
		PlayerBID: m.PlayerBID,
		ScoreA:    m.ScoreA,
		ScoreB:    m.ScoreB,
		WinnerID:  m.WinnerID,
		PlayedAt:  m.PlayedAt,
	}
}
