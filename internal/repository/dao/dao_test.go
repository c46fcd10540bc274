package dao

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB stays nil when no docker daemon is reachable; tests then skip
// instead of failing, so the suite still runs on machines without docker.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("docker is not available, skipping dao tests: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=sportbuddy_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn := fmt.Sprintf(
		"host=localhost port=%v user=postgres password=secret dbname=sportbuddy_test sslmode=disable",
		resource.GetPort("5432/tcp"),
	)

	pool.MaxWait = 60 * time.Second
	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}

		testDB = db

		return nil
	}); err != nil {
		log.Fatalf("failed to connect to postgres container: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("failed to migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("failed to purge postgres container: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()

	if testDB == nil {
		t.Skip("requires docker")
	}
}

func insertGame(t *testing.T, d *GameDAO, maxPlayers, currentPlayers int) Game {
	t.Helper()

	game, err := d.Insert(context.Background(), Game{
		HostID:         1,
		Sport:          "tennis",
		City:           "Lyon",
		Location:       "Parc de la Tête d'Or",
		ScheduledAt:    time.Now().Add(24 * time.Hour),
		MaxPlayers:     maxPlayers,
		CurrentPlayers: currentPlayers,
		Status:         "Open",
	})
	require.NoError(t, err)

	return game
}

func TestUserDAOUniqueEmail(t *testing.T) {
	requireDB(t)
	d := NewUserDAO(testDB)

	_, err := d.Insert(context.Background(), User{
		Email:    "dup@example.com",
		Password: "hash",
		Name:     "First",
	})
	require.NoError(t, err)

	_, err = d.Insert(context.Background(), User{
		Email:    "dup@example.com",
		Password: "hash",
		Name:     "Second",
	})

	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestGameDAOInsertAndFind(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)

	game := insertGame(t, d, 4, 0)

	found, err := d.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, "tennis", found.Sport)
	assert.Equal(t, 0, found.CurrentPlayers)

	_, err = d.FindByID(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameDAOInsertJoinRequestDuplicate(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 0)

	_, err := d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 42,
		Status:      "Pending",
	})
	require.NoError(t, err)

	_, err = d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 42,
		Status:      "Pending",
	})

	assert.ErrorIs(t, err, ErrDuplicateJoinRequest)
}

func TestGameDAOConditionalIncrement(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 1)

	ok, err := d.ConditionalIncrementCurrentPlayers(context.Background(), game.ID, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale expectation loses the swap and leaves the row untouched.
	ok, err = d.ConditionalIncrementCurrentPlayers(context.Background(), game.ID, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := d.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.CurrentPlayers)
}

func TestGameDAOAcceptJoinRequest(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 0)

	req, err := d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 43,
		Status:      "Pending",
	})
	require.NoError(t, err)

	t.Run("stale counter rolls back", func(t *testing.T) {
		err := d.AcceptJoinRequest(context.Background(), req.ID, game.ID, 3)

		assert.ErrorIs(t, err, ErrStaleCounter)

		found, err := d.FindJoinRequestByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pending", found.Status)
	})

	t.Run("accept takes a seat", func(t *testing.T) {
		err := d.AcceptJoinRequest(context.Background(), req.ID, game.ID, 0)
		require.NoError(t, err)

		found, err := d.FindJoinRequestByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, "Accepted", found.Status)

		g, err := d.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, g.CurrentPlayers)
	})

	t.Run("accepting again rolls back the increment", func(t *testing.T) {
		err := d.AcceptJoinRequest(context.Background(), req.ID, game.ID, 1)

		assert.ErrorIs(t, err, ErrStaleCounter)

		g, err := d.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, g.CurrentPlayers)
	})
}

func TestGameDAOReleaseAcceptedSeat(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 0)

	req, err := d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 44,
		Status:      "Pending",
	})
	require.NoError(t, err)
	require.NoError(t, d.AcceptJoinRequest(context.Background(), req.ID, game.ID, 0))

	err = d.ReleaseAcceptedSeat(context.Background(), req.ID, game.ID, 1)
	require.NoError(t, err)

	found, err := d.FindJoinRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rejected", found.Status)

	g, err := d.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, g.CurrentPlayers)
}

func TestGameDAODeleteJoinRequestFreesSeat(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 0)

	req, err := d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 45,
		Status:      "Pending",
	})
	require.NoError(t, err)
	require.NoError(t, d.AcceptJoinRequest(context.Background(), req.ID, game.ID, 0))

	err = d.DeleteJoinRequest(context.Background(), req.ID, game.ID, true, 1)
	require.NoError(t, err)

	_, err = d.FindJoinRequestByID(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)

	g, err := d.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, g.CurrentPlayers)
}

func TestGameDAODeleteCascadesRequests(t *testing.T) {
	requireDB(t)
	d := NewGameDAO(testDB)
	game := insertGame(t, d, 4, 0)

	req, err := d.InsertJoinRequest(context.Background(), JoinRequest{
		GameID:      game.ID,
		RequesterID: 46,
		Status:      "Pending",
	})
	require.NoError(t, err)

	require.NoError(t, d.Delete(context.Background(), game.ID))

	_, err = d.FindByID(context.Background(), game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = d.FindJoinRequestByID(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)
}

func TestRatingDAOUniquePerUserAndSport(t *testing.T) {
	requireDB(t)
	d := NewRatingDAO(testDB)

	_, err := d.Insert(context.Background(), Rating{UserID: 100, Sport: "tennis", Rating: 1000, Sigma: 30})
	require.NoError(t, err)

	_, err = d.Insert(context.Background(), Rating{UserID: 100, Sport: "tennis", Rating: 1000, Sigma: 30})
	assert.ErrorIs(t, err, ErrRatingExists)

	_, err = d.Insert(context.Background(), Rating{UserID: 100, Sport: "padel", Rating: 1000, Sigma: 30})
	assert.NoError(t, err)
}

func TestRatingDAORecordMatch(t *testing.T) {
	requireDB(t)
	d := NewRatingDAO(testDB)

	_, err := d.Insert(context.Background(), Rating{UserID: 200, Sport: "tennis", Rating: 1000, Sigma: 30})
	require.NoError(t, err)
	_, err = d.Insert(context.Background(), Rating{UserID: 201, Sport: "tennis", Rating: 1000, Sigma: 30})
	require.NoError(t, err)

	winner := uint(200)
	match, err := d.RecordMatch(context.Background(), Match{
		GameID:    1,
		Sport:     "tennis",
		PlayerAID: 200,
		PlayerBID: 201,
		ScoreA:    3,
		ScoreB:    1,
		WinnerID:  &winner,
		PlayedAt:  time.Now(),
	}, 1016, 984)
	require.NoError(t, err)
	assert.NotZero(t, match.ID)

	a, err := d.Find(context.Background(), 200, "tennis")
	require.NoError(t, err)
	assert.Equal(t, 1016, a.Rating)

	b, err := d.Find(context.Background(), 201, "tennis")
	require.NoError(t, err)
	assert.Equal(t, 984, b.Rating)

	matches, err := d.FindMatchesByUser(context.Background(), 200, "tennis")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRatingDAORecordMatchMissingRating(t *testing.T) {
	requireDB(t)
	d := NewRatingDAO(testDB)

	_, err := d.RecordMatch(context.Background(), Match{
		GameID:    1,
		Sport:     "tennis",
		PlayerAID: 300,
		PlayerBID: 301,
		ScoreA:    2,
		ScoreB:    0,
		PlayedAt:  time.Now(),
	}, 1016, 984)

	assert.ErrorIs(t, err, ErrRatingNotFound)
}
