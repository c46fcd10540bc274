package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRatingNotFound = errors.New("rating not found")
	ErrRatingExists   = errors.New("rating already initialized")
)

type Rating struct {
	ID uint `gorm:"primaryKey"`

	UserID uint   `gorm:"not null;uniqueIndex:idx_ratings_user_sport"`
	Sport  string `gorm:"not null;uniqueIndex:idx_ratings_user_sport"`

	Rating int     `gorm:"not null"`
	Sigma  float64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Match rows are append-only. Nothing updates or deletes them.
type Match struct {
	ID uint `gorm:"primaryKey"`

	GameID    uint   `gorm:"not null;index"`
	Sport     string `gorm:"not null;index"`
	PlayerAID uint   `gorm:"not null;index"`
	PlayerBID uint   `gorm:"not null;index"`

	ScoreA   int `gorm:"not null"`
	ScoreB   int `gorm:"not null"`
	WinnerID *uint

	PlayedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type RatingDAO struct {
	db *gorm.DB
}

func NewRatingDAO(db *gorm.DB) *RatingDAO {
	return &RatingDAO{
		db: db,
	}
}

func (d *RatingDAO) Insert(ctx context.Context, rating Rating) (Rating, error) {
	result := d.db.WithContext(ctx).Create(&rating)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return Rating{}, ErrRatingExists
		}

		return Rating{}, result.Error
	}

	return rating, nil
}

func (d *RatingDAO) Find(ctx context.Context, userID uint, sport string) (Rating, error) {
	var rating Rating

	result := d.db.WithContext(ctx).
		Where("user_id = ? AND sport = ?", userID, sport).
		First(&rating)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Rating{}, ErrRatingNotFound
		}

		return Rating{}, result.Error
	}

	return rating, nil
}

func (d *RatingDAO) FindByUser(ctx context.Context, userID uint) ([]Rating, error) {
	var ratings []Rating

	result := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sport ASC").
		Find(&ratings)
	if result.Error != nil {
		return nil, result.Error
	}

	return ratings, nil
}

func (d *RatingDAO) Top(ctx context.Context, sport string, limit int) ([]Rating, error) {
	var ratings []Rating

	result := d.db.WithContext(ctx).
		Where("sport = ?", sport).
		Order("rating DESC").
		Limit(limit).
		Find(&ratings)
	if result.Error != nil {
		return nil, result.Error
	}

	return ratings, nil
}

// RecordMatch persists both updated ratings and the match row together.
// Either everything lands or nothing does, so a match can never be counted
// without its rating shift or vice versa.
func (d *RatingDAO) RecordMatch(ctx context.Context, match Match, newRatingA, newRatingB int) (Match, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRatingValue(tx, match.PlayerAID, match.Sport, newRatingA); err != nil {
			return err
		}
		if err := updateRatingValue(tx, match.PlayerBID, match.Sport, newRatingB); err != nil {
			return err
		}

		return tx.Create(&match).Error
	})
	if err != nil {
		return Match{}, err
	}

	return match, nil
}

func updateRatingValue(tx *gorm.DB, userID uint, sport string, value int) error {
	result := tx.Model(&Rating{}).
		Where("user_id = ? AND sport = ?", userID, sport).
		Update("rating", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRatingNotFound
	}

	return nil
}

func (d *RatingDAO) FindMatchesByUser(ctx context.Context, userID uint, sport string) ([]Match, error) {
	query := d.db.WithContext(ctx).
		Where("player_a_id = ? OR player_b_id = ?", userID, userID)

	if sport != "" {
		query = query.Where("sport = ?", sport)
	}

	var matches []Match
	result := query.Order("played_at DESC").Find(&matches)
	if result.Error != nil {
		return nil, result.Error
	}

	return matches, nil
}
