// Package api exposes the budgeting services over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"college-budgeting-backend/internal/account"
	"college-budgeting-backend/internal/cache"
	"college-budgeting-backend/internal/category"
	"college-budgeting-backend/internal/ingest"
	"college-budgeting-backend/internal/model"
	"college-budgeting-backend/internal/savings"
)

// RecordStore is the read and delete side of spending record storage.
type RecordStore interface {
	Ping(ctx context.Context) error
	ListRecords(ctx context.Context, userEmail string) ([]model.SpendingRecord, error)
	ListRecordsInRange(ctx context.Context, userEmail string, from, to time.Time) ([]model.SpendingRecord, error)
	CategoryTotals(ctx context.Context, userEmail string) ([]model.CategoryTotal, error)
	DeleteRecord(ctx context.Context, id int64, userEmail string) error
}

// Dependencies are the collaborators served by the API. Cache and Registry
// may be nil.
type Dependencies struct {
	Records        RecordStore
	Ingest         *ingest.Orchestrator
	Accounts       *account.Service
	Savings        *savings.Service
	Cache          *cache.Cache
	Registry       *category.Registry
	Logger         *zap.Logger
	AllowedOrigins []string
}

// Server routes HTTP requests to the services.
type Server struct {
	records  RecordStore
	ingest   *ingest.Orchestrator
	accounts *account.Service
	savings  *savings.Service
	cache    *cache.Cache
	registry *category.Registry
	logger   *zap.Logger
	router   *gin.Engine
	now      func() time.Time
}

// NewServer builds the router with every middleware and route installed.
func NewServer(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		records:  deps.Records,
		ingest:   deps.Ingest,
		accounts: deps.Accounts,
		savings:  deps.Savings,
		cache:    deps.Cache,
		registry: deps.Registry,
		logger:   logger,
		now:      time.Now,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(logger))
	r.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	s.router = r
	s.registerRoutes()
	return s
}

// corsConfig allows credentialed requests from origins. With no origins every
// origin is allowed, without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", s.healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/survival", s.ingestSnapshot)
	api.GET("/survival/preview", s.previewSnapshot)
	api.GET("/history", s.getHistory)
	api.GET("/history/monthly", s.getMonthlyHistory)
	api.DELETE("/history/:id", s.deleteRecord)
	api.GET("/statistics", s.getStatistics)

	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.GET("/profile", s.getProfile)
	api.PUT("/profile", s.updateProfile)

	api.POST("/savings-goals", s.createGoal)
	api.GET("/savings-goals", s.listGoals)
	api.PUT("/savings-goals/:id", s.deposit)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
