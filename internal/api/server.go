package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/sportbuddy/sportbuddy-api/docs"
	v1 "github.com/sportbuddy/sportbuddy-api/internal/api/handler/v1"
	"github.com/sportbuddy/sportbuddy-api/internal/api/middleware"
	"github.com/sportbuddy/sportbuddy-api/internal/cache"
	"github.com/sportbuddy/sportbuddy-api/internal/config"
	"github.com/sportbuddy/sportbuddy-api/internal/repository"
	"github.com/sportbuddy/sportbuddy-api/internal/repository/dao"
	"github.com/sportbuddy/sportbuddy-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB, redisClient *redis.Client) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	var leaderboard service.LeaderboardCache
	if redisClient != nil {
		leaderboard = cache.NewLeaderboardCache(redisClient)
	}

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	gameHandler := s.initGameHandler(db, leaderboard)
	ratingHandler := s.initRatingHandler(db, leaderboard)
	s.MountHandlers(authHandler, userHandler, gameHandler, ratingHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initGameHandler(db *gorm.DB, leaderboard service.LeaderboardCache) *v1.GameHandler {
	gameRepo := repository.NewGameRepository(dao.NewGameDAO(db))
	ratingRepo := repository.NewRatingRepository(dao.NewRatingDAO(db))
	svc := service.NewGameService(gameRepo, ratingRepo, leaderboard)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewGameHandler(svc, uSvc)

	return handler
}

func (s *Server) initRatingHandler(db *gorm.DB, leaderboard service.LeaderboardCache) *v1.RatingHandler {
	ratingRepo := repository.NewRatingRepository(dao.NewRatingDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewRatingService(ratingRepo, userRepo, leaderboard)
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewRatingHandler(svc, uSvc, s.Config.API.LeaderboardSize)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, gameHandler *v1.GameHandler, ratingHandler *v1.RatingHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
	}

	games := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		games.POST("/games", gameHandler.HandleCreateGame)
		games.GET("/games", gameHandler.HandleSearchGames)
		games.GET("/games/:gameID", gameHandler.HandleGetGame)
		games.PUT("/games/:gameID", gameHandler.HandleUpdateGame)
		games.DELETE("/games/:gameID", gameHandler.HandleDeleteGame)
		games.POST("/games/:gameID/requests", gameHandler.HandleCreateJoinRequest)
		games.GET("/games/:gameID/requests", gameHandler.HandleListJoinRequests)
		games.PUT("/requests/:requestID", gameHandler.HandleTransitionJoinRequest)
		games.DELETE("/requests/:requestID", gameHandler.HandleDeleteJoinRequest)
		games.POST("/games/:gameID/result", gameHandler.HandleRecordResult)
	}

	ratings := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		ratings.POST("/ratings", ratingHandler.HandleInitRating)
		ratings.GET("/ratings/:userID", ratingHandler.HandleGetUserRatings)
		ratings.GET("/ratings/:userID/matches", ratingHandler.HandleGetMatchHistory)
		ratings.GET("/leaderboard/:sport", ratingHandler.HandleLeaderboard)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "SportBuddy API"
	docs.SwaggerInfo.Description = "Matchmaking API for hosted games, join requests and Elo ratings."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
