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
	ErrGameNotFound         = errors.New("game not found")
	ErrJoinRequestNotFound  = errors.New("join request not found")
	ErrDuplicateJoinRequest = errors.New("join request already exists")

	// ErrStaleCounter signals that current_players moved between the read and
	// the conditional write. Callers retry with a fresh read.
	ErrStaleCounter = errors.New("current player count changed concurrently")
)

type Game struct {
	ID uint `gorm:"primaryKey"`

	HostID uint   `gorm:"not null;index"`
	Sport  string `gorm:"not null;index"`
	City   string `gorm:"not null;index"`

	Location    string    `gorm:"not null"`
	ScheduledAt time.Time `gorm:"not null;index"`
	Description string

	MaxPlayers     int    `gorm:"not null"`
	CurrentPlayers int    `gorm:"not null;default:0"`
	Status         string `gorm:"not null;default:Open"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type JoinRequest struct {
	ID uint `gorm:"primaryKey"`

	GameID      uint `gorm:"not null;uniqueIndex:idx_join_requests_game_requester"`
	RequesterID uint `gorm:"not null;uniqueIndex:idx_join_requests_game_requester"`

	Status string `gorm:"not null;default:Pending"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// GameSearchParams is the full set of filters the games listing supports.
// Zero values mean "no filter".
type GameSearchParams struct {
	Sport string
	City  string
	From  *time.Time
	To    *time.Time
}

type GameDAO struct {
	db *gorm.DB
}

func NewGameDAO(db *gorm.DB) *GameDAO {
	return &GameDAO{
		db: db,
	}
}

func (d *GameDAO) Insert(ctx context.Context, game Game) (Game, error) {
	result := d.db.WithContext(ctx).Create(&game)
	if result.Error != nil {
		return Game{}, result.Error
	}

	return game, nil
}

func (d *GameDAO) FindByID(ctx context.Context, id uint) (Game, error) {
	var game Game

	result := d.db.WithContext(ctx).First(&game, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

func (d *GameDAO) Search(ctx context.Context, params GameSearchParams) ([]Game, error) {
	query := d.db.WithContext(ctx).Where("status = ?", "Open")

	if params.Sport != "" {
		query = query.Where("sport = ?", params.Sport)
	}
	if params.City != "" {
		query = query.Where("city = ?", params.City)
	}
	if params.From != nil {
		query = query.Where("scheduled_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("scheduled_at <= ?", *params.To)
	}

	var games []Game
	result := query.Order("scheduled_at ASC").Find(&games)
	if result.Error != nil {
		return nil, result.Error
	}

	return games, nil
}

func (d *GameDAO) Update(ctx context.Context, game Game) (Game, error) {
	result := d.db.WithContext(ctx).Model(&Game{}).
		Where("id = ?", game.ID).
		Updates(map[string]any{
			"sport":        game.Sport,
			"city":         game.City,
			"location":     game.Location,
			"scheduled_at": game.ScheduledAt,
			"description":  game.Description,
			"max_players":  game.MaxPlayers,
			"status":       game.Status,
		})
	if result.Error != nil {
		return Game{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Game{}, ErrGameNotFound
	}

	return d.FindByID(ctx, game.ID)
}

func (d *GameDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&JoinRequest{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Game{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGameNotFound
		}

		return nil
	})
}

func (d *GameDAO) InsertJoinRequest(ctx context.Context, request JoinRequest) (JoinRequest, error) {
	result := d.db.WithContext(ctx).Create(&request)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return JoinRequest{}, ErrDuplicateJoinRequest
		}

		return JoinRequest{}, result.Error
	}

	return request, nil
}

func (d *GameDAO) FindJoinRequestByID(ctx context.Context, id uint) (JoinRequest, error) {
	var request JoinRequest

	result := d.db.WithContext(ctx).First(&request, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return JoinRequest{}, ErrJoinRequestNotFound
		}

		return JoinRequest{}, result.Error
	}

	return request, nil
}

func (d *GameDAO) FindJoinRequestsByGame(ctx context.Context, gameID uint) ([]JoinRequest, error) {
	var requests []JoinRequest

	result := d.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at ASC").
		Find(&requests)
	if result.Error != nil {
		return nil, result.Error
	}

	return requests, nil
}

func (d *GameDAO) FindJoinRequest(ctx context.Context, gameID, requesterID uint) (JoinRequest, error) {
	var request JoinRequest

	result := d.db.WithContext(ctx).
		Where("game_id = ? AND requester_id = ?", gameID, requesterID).
		First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return JoinRequest{}, ErrJoinRequestNotFound
		}

		return JoinRequest{}, result.Error
	}

	return request, nil
}

func (d *GameDAO) UpdateJoinRequestStatus(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).Model(&JoinRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJoinRequestNotFound
	}

	return nil
}

// ConditionalIncrementCurrentPlayers applies a compare-and-swap update on
// current_players. It reports false when the row no longer holds
// expectedCurrent, so a read-check-write sequence can detect a lost race
// instead of silently overbooking.
func (d *GameDAO) ConditionalIncrementCurrentPlayers(ctx context.Context, gameID uint, expectedCurrent, delta int) (bool, error) {
	return d.conditionalIncrement(d.db.WithContext(ctx), gameID, expectedCurrent, delta)
}

func (d *GameDAO) conditionalIncrement(tx *gorm.DB, gameID uint, expectedCurrent, delta int) (bool, error) {
	result := tx.Model(&Game{}).
		Where("id = ? AND current_players = ?", gameID, expectedCurrent).
		UpdateColumn("current_players", gorm.Expr("current_players + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// AcceptJoinRequest sets the request to Accepted and takes one seat, as a
// single transaction. expectedCurrent is the seat count the caller already
// checked against max_players; if it moved, ErrStaleCounter rolls everything
// back.
func (d *GameDAO) AcceptJoinRequest(ctx context.Context, requestID, gameID uint, expectedCurrent int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := d.conditionalIncrement(tx, gameID, expectedCurrent, 1)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStaleCounter
		}

		result := tx.Model(&JoinRequest{}).
			Where("id = ? AND status = ?", requestID, "Pending").
			Update("status", "Accepted")
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleCounter
		}

		return nil
	})
}

// ReleaseAcceptedSeat sets an Accepted request to Rejected and gives the seat
// back, as a single transaction.
func (d *GameDAO) ReleaseAcceptedSeat(ctx context.Context, requestID, gameID uint, expectedCurrent int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := d.conditionalIncrement(tx, gameID, expectedCurrent, -1)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStaleCounter
		}

		result := tx.Model(&JoinRequest{}).
			Where("id = ? AND status = ?", requestID, "Accepted").
			Update("status", "Rejected")
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleCounter
		}

		return nil
	})
}

// DeleteJoinRequest removes the request. When the request held a seat
// (freeSeat), the decrement happens in the same transaction so the counter
// stays accurate.
func (d *GameDAO) DeleteJoinRequest(ctx context.Context, requestID, gameID uint, freeSeat bool, expectedCurrent int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if freeSeat {
			ok, err := d.conditionalIncrement(tx, gameID, expectedCurrent, -1)
			if err != nil {
				return err
			}
			if !ok {
				return ErrStaleCounter
			}
		}

		result := tx.Delete(&JoinRequest{}, requestID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrJoinRequestNotFound
		}

		return nil
	})
}
