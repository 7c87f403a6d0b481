package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skylark/internal/cache"
	"skylark/internal/config"
	"skylark/internal/database"
	"skylark/internal/handlers"
	"skylark/internal/lock"
	"skylark/internal/messaging"
	"skylark/internal/metrics"
	"skylark/internal/middleware"
	"skylark/internal/repository"
	"skylark/internal/search"
	"skylark/internal/service"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config

	db     *database.DB
	nats   *messaging.NATSClient
	es     *search.ElasticsearchClient
	valkey *cache.ValkeyClient
	locks  *lock.Table
}

// NewServer wires the full application: database with migrations, NATS,
// Elasticsearch, the Valkey cache, the seat lock table, and the HTTP router.
// Valkey is optional; everything else is required.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		slog.Warn("Valkey unavailable, running without cache", "error", err)
		valkeyClient = nil
	}

	locks := lock.NewTable(cfg.SeatLockTTL, lock.WithSweepInterval(cfg.SeatLockSweep))
	locks.Start(context.Background())

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, locks, natsClient, esClient, valkeyClient)
	h := handlers.New(services, valkeyClient)

	metrics.Register()

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		health := db.HealthCheck(c.Request.Context())
		status := 200
		if health.Status != "healthy" {
			status = 503
		}
		c.JSON(status, health)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Registration is the only open endpoint; everything else needs auth.
	router.POST("/api/users", h.CreateUser)

	authed := router.Group("/api")
	authed.Use(middleware.BasicAuth(repos.Users, valkeyClient))
	{
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:id", h.GetUser)
		authed.PATCH("/users/:id", h.UpdateUser)
		authed.DELETE("/users/:id", h.DeleteUser)

		authed.POST("/flights", h.CreateFlight)
		authed.GET("/flights", h.ListFlights)
		authed.GET("/flights/search", h.SearchFlights)
		authed.GET("/flights/:id", h.GetFlight)
		authed.PATCH("/flights/:id/status", h.UpdateFlightStatus)

		authed.POST("/fares", h.CreateFare)
		authed.POST("/fare/calculate", h.CalculateFare)

		authed.GET("/seats", h.ListSeats)

		authed.POST("/bookings/lock", h.LockSeat)
		authed.POST("/bookings/confirm", h.ConfirmBooking)
		authed.POST("/bookings/group", h.ConfirmGroupBooking)
		authed.GET("/bookings/:bookingId", h.GetBooking)
		authed.DELETE("/bookings/:bookingId", h.CancelBooking)
		authed.GET("/bookings/user/:userId", h.GetUserBookings)
	}

	return &Server{
		router: router,
		cfg:    cfg,
		db:     db,
		nats:   natsClient,
		es:     esClient,
		valkey: valkeyClient,
		locks:  locks,
	}, nil
}

// GetRouter exposes the router for tests and for embedding in an http.Server.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup releases every external connection and stops the lock sweep.
func (s *Server) Cleanup() {
	s.locks.Stop()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Failed to close NATS connection", "error", err)
		}
	}
	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Failed to close Valkey connection", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}
}
