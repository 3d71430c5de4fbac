// Package server exposes the admin HTTP surface: runtime settings, feed
// management, manual run trigger, run history, health and metrics. It binds
// to localhost by default and carries no authentication of its own.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/feedranker/feed-digest-bot/internal/config"
	"github.com/feedranker/feed-digest-bot/internal/digest"
	"github.com/feedranker/feed-digest-bot/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Store is the persistence surface the admin API needs.
type Store interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
	SaveSettings(ctx context.Context, s config.Settings) error
	ListFeeds(ctx context.Context) ([]storage.FeedSource, error)
	CreateFeed(ctx context.Context, url, name string, enabled bool) (storage.FeedSource, error)
	UpdateFeed(ctx context.Context, f storage.FeedSource) error
	DeleteFeed(ctx context.Context, id string) error
	ListRunHistory(ctx context.Context) ([]storage.RunHistoryEntry, error)
}

var _ Store = (*storage.DB)(nil)

// Runner triggers digest runs and reports in-flight state.
type Runner interface {
	Run(ctx context.Context) digest.RunOutcome
	Running() bool
}

var _ Runner = (*digest.Orchestrator)(nil)

type Server struct {
	store  Store
	runner Runner
	logger *zerolog.Logger
	addr   string
}

func New(store Store, runner Runner, addr string, logger *zerolog.Logger) *Server {
	return &Server{store: store, runner: runner, logger: logger, addr: addr}
}

// Router builds the gin handler. Exposed separately for tests.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/config", s.getConfig)
		api.PATCH("/config", s.patchConfig)

		api.GET("/feeds", s.listFeeds)
		api.POST("/feeds", s.createFeed)
		api.PUT("/feeds/:id", s.updateFeed)
		api.DELETE("/feeds/:id", s.deleteFeed)

		api.POST("/digest/run", s.triggerRun)
		api.GET("/history", s.listHistory)
	}

	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}

func (s *Server) getConfig(c *gin.Context) {
	settings, err := s.store.LoadSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, settings)
}

// patchConfig merges a partial settings document into the stored one. Absent
// fields keep their current values.
func (s *Server) patchConfig(c *gin.Context) {
	var patch config.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx := c.Request.Context()

	current, err := s.store.LoadSettings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	merged := patch.Apply(current)

	if err := s.store.SaveSettings(ctx, merged); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, merged)
}

func (s *Server) listFeeds(c *gin.Context) {
	feeds, err := s.store.ListFeeds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, feeds)
}

type feedRequest struct {
	URL     string `json:"url" binding:"required"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

func (s *Server) createFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	feed, err := s.store.CreateFeed(c.Request.Context(), req.URL, req.Name, enabled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusCreated, feed)
}

func (s *Server) updateFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	feed := storage.FeedSource{
		ID:      c.Param("id"),
		URL:     req.URL,
		Name:    req.Name,
		Enabled: enabled,
	}

	if err := s.store.UpdateFeed(c.Request.Context(), feed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, feed)
}

func (s *Server) deleteFeed(c *gin.Context) {
	if err := s.store.DeleteFeed(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.Status(http.StatusNoContent)
}

// triggerRun starts a digest run in the background. A run already in flight
// is reported as a conflict, never queued.
func (s *Server) triggerRun(c *gin.Context) {
	if s.runner.Running() {
		c.JSON(http.StatusConflict, digest.RunOutcome{
			AlreadyRunning: true,
			Message:        "digest run already in progress",
		})

		return
	}

	go func() {
		// Detached from the request: the run outlives the HTTP exchange.
		outcome := s.runner.Run(context.Background())
		if outcome.AlreadyRunning {
			s.logger.Warn().Msg("manual run lost the start race")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"started": true})
}

func (s *Server) listHistory(c *gin.Context) {
	history, err := s.store.ListRunHistory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, history)
}
