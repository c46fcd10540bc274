package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportbuddy/sportbuddy-api/internal/domain"
	"github.com/sportbuddy/sportbuddy-api/internal/repository"
)

// fakeGameRepo reproduces the database semantics the service depends on: the
// unique (game, requester) pair and the conditional seat-counter update. All
// mutations happen under one mutex, so the compare-and-swap behaves like the
// real WHERE current_players = ? clause under concurrency.
type fakeGameRepo struct {
	mu            sync.Mutex
	games         map[uint]domain.Game
	requests      map[uint]domain.JoinRequest
	nextGameID    uint
	nextRequestID uint

	// beforeAccept runs inside AcceptJoinRequest before the counter check.
	// Tests use it to slip a competing update in.
	beforeAccept func(r *fakeGameRepo)
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games:    make(map[uint]domain.Game),
		requests: make(map[uint]domain.JoinRequest),
	}
}

func (r *fakeGameRepo) Create(_ context.Context, game domain.Game) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextGameID++
	game.ID = r.nextGameID
	r.games[game.ID] = game

	return game, nil
}

func (r *fakeGameRepo) FindByID(_ context.Context, id uint) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[id]
	if !ok {
		return domain.Game{}, repository.ErrGameNotFound
	}

	return game, nil
}

func (r *fakeGameRepo) Search(_ context.Context, params repository.GameSearchParams) ([]domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var games []domain.Game
	for _, g := range r.games {
		if g.Status != domain.GameOpen {
			continue
		}
		if params.Sport != "" && g.Sport != params.Sport {
			continue
		}
		if params.City != "" && g.City != params.City {
			continue
		}

		games = append(games, g)
	}

	return games, nil
}

func (r *fakeGameRepo) Update(_ context.Context, game domain.Game) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[game.ID]; !ok {
		return domain.Game{}, repository.ErrGameNotFound
	}
	r.games[game.ID] = game

	return game, nil
}

func (r *fakeGameRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[id]; !ok {
		return repository.ErrGameNotFound
	}
	delete(r.games, id)
	for reqID, req := range r.requests {
		if req.GameID == id {
			delete(r.requests, reqID)
		}
	}

	return nil
}

func (r *fakeGameRepo) CreateJoinRequest(_ context.Context, request domain.JoinRequest) (domain.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.requests {
		if req.GameID == request.GameID && req.RequesterID == request.RequesterID {
			return domain.JoinRequest{}, repository.ErrDuplicateJoinRequest
		}
	}

	r.nextRequestID++
	request.ID = r.nextRequestID
	r.requests[request.ID] = request

	return request, nil
}

func (r *fakeGameRepo) FindJoinRequestByID(_ context.Context, id uint) (domain.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return domain.JoinRequest{}, repository.ErrJoinRequestNotFound
	}

	return req, nil
}

func (r *fakeGameRepo) FindJoinRequestsByGame(_ context.Context, gameID uint) ([]domain.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var requests []domain.JoinRequest
	for _, req := range r.requests {
		if req.GameID == gameID {
			requests = append(requests, req)
		}
	}

	return requests, nil
}

func (r *fakeGameRepo) AcceptJoinRequest(_ context.Context, requestID, gameID uint, expectedCurrent int) error {
	if r.beforeAccept != nil {
		hook := r.beforeAccept
		r.beforeAccept = nil
		hook(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[gameID]
	if !ok {
		return repository.ErrGameNotFound
	}
	req, ok := r.requests[requestID]
	if !ok {
		return repository.ErrJoinRequestNotFound
	}

	if game.CurrentPlayers != expectedCurrent || req.Status != domain.JoinRequestPending {
		return repository.ErrStaleCounter
	}

	game.CurrentPlayers++
	req.Status = domain.JoinRequestAccepted
	r.games[gameID] = game
	r.requests[requestID] = req

	return nil
}

func (r *fakeGameRepo) ReleaseAcceptedSeat(_ context.Context, requestID, gameID uint, expectedCurrent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, ok := r.games[gameID]
	if !ok {
		return repository.ErrGameNotFound
	}
	req, ok := r.requests[requestID]
	if !ok {
		return repository.ErrJoinRequestNotFound
	}

	if game.CurrentPlayers != expectedCurrent || req.Status != domain.JoinRequestAccepted {
		return repository.ErrStaleCounter
	}

	game.CurrentPlayers--
	req.Status = domain.JoinRequestRejected
	r.games[gameID] = game
	r.requests[requestID] = req

	return nil
}

func (r *fakeGameRepo) RejectPendingRequest(_ context.Context, requestID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		return repository.ErrJoinRequestNotFound
	}
	req.Status = domain.JoinRequestRejected
	r.requests[requestID] = req

	return nil
}

func (r *fakeGameRepo) DeleteJoinRequest(_ context.Context, requestID, gameID uint, freeSeat bool, expectedCurrent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[requestID]; !ok {
		return repository.ErrJoinRequestNotFound
	}

	if freeSeat {
		game, ok := r.games[gameID]
		if !ok {
			return repository.ErrGameNotFound
		}
		if game.CurrentPlayers != expectedCurrent {
			return repository.ErrStaleCounter
		}

		game.CurrentPlayers--
		r.games[gameID] = game
	}

	delete(r.requests, requestID)

	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	ratings map[string]domain.Rating
	matches []domain.Match
	nextID  uint
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		ratings: make(map[string]domain.Rating),
	}
}

func ratingKey(userID uint, sport string) string {
	return sport + "/" + strconv.FormatUint(uint64(userID), 10)
}

func (r *fakeMatchRepo) setRating(userID uint, sport string, value int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ratings[ratingKey(userID, sport)] = domain.Rating{
		UserID: userID,
		Sport:  sport,
		Rating: value,
	}
}

func (r *fakeMatchRepo) Find(_ context.Context, userID uint, sport string) (domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.ratings[ratingKey(userID, sport)]
	if !ok {
		return domain.Rating{}, repository.ErrRatingNotFound
	}

	return rt, nil
}

func (r *fakeMatchRepo) RecordMatch(_ context.Context, match domain.Match, newRatingA, newRatingB int) (domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.ratings[ratingKey(match.PlayerAID, match.Sport)]
	a.Rating = newRatingA
	r.ratings[ratingKey(match.PlayerAID, match.Sport)] = a

	b := r.ratings[ratingKey(match.PlayerBID, match.Sport)]
	b.Rating = newRatingB
	r.ratings[ratingKey(match.PlayerBID, match.Sport)] = b

	r.nextID++
	match.ID = r.nextID
	r.matches = append(r.matches, match)

	return match, nil
}

type fakeLeaderboard struct {
	mu      sync.Mutex
	scores  map[string]map[uint]int
	failing bool
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{
		scores: make(map[string]map[uint]int),
	}
}

func (c *fakeLeaderboard) UpdateScore(_ context.Context, sport string, userID uint, score int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing {
		return assert.AnError
	}

	if c.scores[sport] == nil {
		c.scores[sport] = make(map[uint]int)
	}
	c.scores[sport][userID] = score

	return nil
}

func (c *fakeLeaderboard) Top(_ context.Context, sport string, limit int) ([]domain.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing {
		return nil, assert.AnError
	}

	entries := make([]domain.LeaderboardEntry, 0, len(c.scores[sport]))
	for userID, score := range c.scores[sport] {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Rating: score})
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

func newTestGameService() (*GameService, *fakeGameRepo, *fakeMatchRepo, *fakeLeaderboard) {
	repo := newFakeGameRepo()
	ratings := newFakeMatchRepo()
	cache := newFakeLeaderboard()

	return NewGameService(repo, ratings, cache), repo, ratings, cache
}

func seedGame(t *testing.T, repo *fakeGameRepo, hostID uint, maxPlayers, currentPlayers int) domain.Game {
	t.Helper()

	game, err := repo.Create(context.Background(), domain.Game{
		HostID:         hostID,
		Sport:          "tennis",
		City:           "Lyon",
		MaxPlayers:     maxPlayers,
		CurrentPlayers: currentPlayers,
		Status:         domain.GameOpen,
	})
	require.NoError(t, err)

	return game
}

func seedRequest(t *testing.T, repo *fakeGameRepo, gameID, requesterID uint, status domain.JoinRequestStatus) domain.JoinRequest {
	t.Helper()

	req, err := repo.CreateJoinRequest(context.Background(), domain.JoinRequest{
		GameID:      gameID,
		RequesterID: requesterID,
		Status:      domain.JoinRequestPending,
	})
	require.NoError(t, err)

	if status != domain.JoinRequestPending {
		repo.mu.Lock()
		req.Status = status
		repo.requests[req.ID] = req
		if status == domain.JoinRequestAccepted {
			game := repo.games[gameID]
			game.CurrentPlayers++
			repo.games[gameID] = game
		}
		repo.mu.Unlock()
	}

	return req
}

func TestCreateGameResetsHostAndCounter(t *testing.T) {
	svc, _, _, _ := newTestGameService()

	game, err := svc.CreateGame(context.Background(), domain.Game{
		HostID:         99,
		Sport:          "tennis",
		MaxPlayers:     4,
		CurrentPlayers: 3,
		Status:         domain.GameClosed,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, uint(1), game.HostID)
	assert.Equal(t, 0, game.CurrentPlayers)
	assert.Equal(t, domain.GameOpen, game.Status)
}

func TestUpdateGame(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 2)

	t.Run("host edit keeps counter and host", func(t *testing.T) {
		edited := game
		edited.City = "Paris"
		edited.HostID = 42
		edited.CurrentPlayers = 0

		updated, err := svc.UpdateGame(context.Background(), edited, 1)

		require.NoError(t, err)
		assert.Equal(t, "Paris", updated.City)
		assert.Equal(t, uint(1), updated.HostID)
		assert.Equal(t, 2, updated.CurrentPlayers)
	})

	t.Run("non-host is refused", func(t *testing.T) {
		_, err := svc.UpdateGame(context.Background(), game, 2)

		assert.ErrorIs(t, err, ErrNotGameHost)
	})
}

func TestDeleteGame(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

	err := svc.DeleteGame(context.Background(), game.ID, 2)
	assert.ErrorIs(t, err, ErrNotGameHost)

	err = svc.DeleteGame(context.Background(), game.ID, 1)
	require.NoError(t, err)

	_, err = svc.GetGame(context.Background(), game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)

	requests, err := repo.FindJoinRequestsByGame(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestCreateJoinRequest(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)

	req, err := svc.CreateJoinRequest(context.Background(), game.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestPending, req.Status)

	t.Run("duplicate is refused", func(t *testing.T) {
		_, err := svc.CreateJoinRequest(context.Background(), game.ID, 5)

		assert.ErrorIs(t, err, ErrDuplicateJoinRequest)
	})

	t.Run("duplicate is refused even after rejection", func(t *testing.T) {
		require.NoError(t, svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestRejected))

		_, err := svc.CreateJoinRequest(context.Background(), game.ID, 5)

		assert.ErrorIs(t, err, ErrDuplicateJoinRequest)
	})

	t.Run("unknown game is refused", func(t *testing.T) {
		_, err := svc.CreateJoinRequest(context.Background(), 999, 5)

		assert.ErrorIs(t, err, ErrGameNotFound)
	})
}

func TestListJoinRequests(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)
	seedRequest(t, repo, game.ID, 6, domain.JoinRequestPending)

	_, err := svc.ListJoinRequests(context.Background(), game.ID, 2)
	assert.ErrorIs(t, err, ErrNotGameHost)

	requests, err := svc.ListJoinRequests(context.Background(), game.ID, 1)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestTransitionJoinRequestValidation(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

	err := svc.TransitionJoinRequest(context.Background(), req.ID, 1, "Cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = svc.TransitionJoinRequest(context.Background(), req.ID, 2, domain.JoinRequestAccepted)
	assert.ErrorIs(t, err, ErrNotGameHost)

	err = svc.TransitionJoinRequest(context.Background(), 999, 1, domain.JoinRequestAccepted)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)
}

func TestAcceptPendingRequest(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

	err := svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestAccepted)
	require.NoError(t, err)

	updated, err := repo.FindJoinRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestAccepted, updated.Status)

	g, err := repo.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.CurrentPlayers)
}

func TestAcceptWhenFull(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 2, 2)
	req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

	err := svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestAccepted)

	assert.ErrorIs(t, err, ErrGameFull)

	g, err := repo.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CurrentPlayers)
}

func TestAcceptNonPendingIsNoOp(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	accepted := seedRequest(t, repo, game.ID, 5, domain.JoinRequestAccepted)
	rejected := seedRequest(t, repo, game.ID, 6, domain.JoinRequestRejected)

	require.NoError(t, svc.TransitionJoinRequest(context.Background(), accepted.ID, 1, domain.JoinRequestAccepted))
	require.NoError(t, svc.TransitionJoinRequest(context.Background(), rejected.ID, 1, domain.JoinRequestAccepted))

	g, err := repo.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.CurrentPlayers)

	r, err := repo.FindJoinRequestByID(context.Background(), rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestRejected, r.Status)
}

func TestAcceptRetriesOnStaleCounter(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)
	req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

	// A competing accept lands between the read and the conditional update.
	repo.beforeAccept = func(r *fakeGameRepo) {
		r.mu.Lock()
		defer r.mu.Unlock()
		g := r.games[game.ID]
		g.CurrentPlayers++
		r.games[game.ID] = g
	}

	err := svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestAccepted)
	require.NoError(t, err)

	g, err := repo.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CurrentPlayers)
}

func TestConcurrentAcceptsNeverOverbook(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 2, 1)
	reqA := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)
	reqB := seedRequest(t, repo, game.ID, 6, domain.JoinRequestPending)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, reqID := range []uint{reqA.ID, reqB.ID} {
		wg.Add(1)
		go func(i int, reqID uint) {
			defer wg.Done()
			errs[i] = svc.TransitionJoinRequest(context.Background(), reqID, 1, domain.JoinRequestAccepted)
		}(i, reqID)
	}
	wg.Wait()

	g, err := repo.FindByID(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.CurrentPlayers)

	var accepted int
	for _, reqID := range []uint{reqA.ID, reqB.ID} {
		r, err := repo.FindJoinRequestByID(context.Background(), reqID)
		require.NoError(t, err)
		if r.Status == domain.JoinRequestAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, ErrGameFull) || errors.Is(err, ErrConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestRejectRequest(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)

	t.Run("pending rejection leaves counter alone", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

		require.NoError(t, svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestRejected))

		r, err := repo.FindJoinRequestByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestRejected, r.Status)

		g, err := repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, g.CurrentPlayers)
	})

	t.Run("revoking an accepted request frees the seat", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 6, domain.JoinRequestAccepted)

		g, err := repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		before := g.CurrentPlayers

		require.NoError(t, svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestRejected))

		r, err := repo.FindJoinRequestByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestRejected, r.Status)

		g, err = repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, before-1, g.CurrentPlayers)
	})

	t.Run("re-rejecting is a no-op", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 7, domain.JoinRequestRejected)

		g, err := repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		before := g.CurrentPlayers

		require.NoError(t, svc.TransitionJoinRequest(context.Background(), req.ID, 1, domain.JoinRequestRejected))

		g, err = repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, before, g.CurrentPlayers)
	})
}

func TestDeleteJoinRequest(t *testing.T) {
	svc, repo, _, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 0)

	t.Run("only the requester may withdraw", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 5, domain.JoinRequestPending)

		err := svc.DeleteJoinRequest(context.Background(), req.ID, 6)

		assert.ErrorIs(t, err, ErrNotRequestOwner)
	})

	t.Run("withdrawing a pending request leaves the counter", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 6, domain.JoinRequestPending)

		g, err := repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		before := g.CurrentPlayers

		require.NoError(t, svc.DeleteJoinRequest(context.Background(), req.ID, 6))

		_, err = repo.FindJoinRequestByID(context.Background(), req.ID)
		assert.ErrorIs(t, err, ErrJoinRequestNotFound)

		g, err = repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, before, g.CurrentPlayers)
	})

	t.Run("withdrawing an accepted request frees the seat", func(t *testing.T) {
		req := seedRequest(t, repo, game.ID, 7, domain.JoinRequestAccepted)

		g, err := repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		before := g.CurrentPlayers

		require.NoError(t, svc.DeleteJoinRequest(context.Background(), req.ID, 7))

		_, err = repo.FindJoinRequestByID(context.Background(), req.ID)
		assert.ErrorIs(t, err, ErrJoinRequestNotFound)

		g, err = repo.FindByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, before-1, g.CurrentPlayers)
	})
}

func TestRecordResult(t *testing.T) {
	svc, repo, ratings, cache := newTestGameService()
	game := seedGame(t, repo, 1, 4, 2)
	ratings.setRating(5, "tennis", 1000)
	ratings.setRating(6, "tennis", 1000)

	match, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, 3, 1)
	require.NoError(t, err)

	require.NotNil(t, match.WinnerID)
	assert.Equal(t, uint(5), *match.WinnerID)

	a, err := ratings.Find(context.Background(), 5, "tennis")
	require.NoError(t, err)
	b, err := ratings.Find(context.Background(), 6, "tennis")
	require.NoError(t, err)
	assert.Equal(t, 1016, a.Rating)
	assert.Equal(t, 984, b.Rating)

	assert.Equal(t, 1016, cache.scores["tennis"][5])
	assert.Equal(t, 984, cache.scores["tennis"][6])
}

func TestRecordResultDraw(t *testing.T) {
	svc, repo, ratings, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 2)
	ratings.setRating(5, "tennis", 1200)
	ratings.setRating(6, "tennis", 1000)

	match, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, 2, 2)
	require.NoError(t, err)

	assert.Nil(t, match.WinnerID)

	a, err := ratings.Find(context.Background(), 5, "tennis")
	require.NoError(t, err)
	b, err := ratings.Find(context.Background(), 6, "tennis")
	require.NoError(t, err)
	assert.Equal(t, 1192, a.Rating)
	assert.Equal(t, 1008, b.Rating)
}

func TestRecordResultErrors(t *testing.T) {
	svc, repo, ratings, _ := newTestGameService()
	game := seedGame(t, repo, 1, 4, 2)
	ratings.setRating(5, "tennis", 1000)

	t.Run("non-host is refused", func(t *testing.T) {
		_, err := svc.RecordResult(context.Background(), game.ID, 2, 5, 6, 3, 1)

		assert.ErrorIs(t, err, ErrNotGameHost)
	})

	t.Run("zero-zero is invalid", func(t *testing.T) {
		_, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, 0, 0)

		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("negative score is invalid", func(t *testing.T) {
		_, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, -1, 2)

		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("missing rating is reported", func(t *testing.T) {
		_, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, 3, 1)

		assert.ErrorIs(t, err, ErrRatingNotFound)
	})
}

func TestRecordResultSurvivesCacheFailure(t *testing.T) {
	svc, repo, ratings, cache := newTestGameService()
	game := seedGame(t, repo, 1, 4, 2)
	ratings.setRating(5, "tennis", 1000)
	ratings.setRating(6, "tennis", 1000)
	cache.failing = true

	_, err := svc.RecordResult(context.Background(), game.ID, 1, 5, 6, 3, 1)

	require.NoError(t, err)

	a, err := ratings.Find(context.Background(), 5, "tennis")
	require.NoError(t, err)
	assert.Equal(t, 1016, a.Rating)
}
