// Package api exposes the engine and store to a UI layer over local HTTP.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trendr-app/trendr/internal/engine"
	"github.com/trendr-app/trendr/internal/ingest"
	"github.com/trendr-app/trendr/internal/store"
)

// ExtractFunc tags raw text with topics; used when an ingest request
// arrives without pre-extracted tags.
type ExtractFunc func(text string) []store.TopicTag

// Server handles HTTP requests for the attention-flow API
type Server struct {
	store    *store.Store
	engine   *engine.Engine
	pipeline *ingest.Pipeline
	extract  ExtractFunc
	addr     string
}

// New creates a new API server
func New(s *store.Store, eng *engine.Engine, pipe *ingest.Pipeline, extract ExtractFunc, addr string) *Server {
	return &Server{store: s, engine: eng, pipeline: pipe, extract: extract, addr: addr}
}

// Run starts the HTTP server and blocks
func (s *Server) Run() error {
	e := s.router()
	log.Printf("[api] Listening on %s", s.addr)
	return e.Start(s.addr)
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", s.health)

	api := e.Group("/api")
	api.GET("/stats", s.stats)
	api.GET("/status", s.status)

	api.GET("/topics", s.listTopics)
	api.GET("/topics/:id", s.getTopic)
	api.GET("/topics/:id/related", s.relatedTopics)
	api.GET("/topics/:id/motivations", s.topicMotivations)
	api.GET("/topics/:id/content", s.topicContent)

	api.GET("/flows", s.activeFlows)
	api.POST("/detect", s.runDetection)

	api.GET("/alerts", s.listAlerts)
	api.GET("/alerts/unread", s.unreadAlerts)
	api.POST("/alerts/:id/read", s.markAlertRead)

	api.POST("/content", s.ingestContent)

	return e
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(c echo.Context) error {
	st, err := s.store.Stats(time.Now().UTC())
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Status())
}

func (s *Server) listTopics(c echo.Context) error {
	if q := c.QueryParam("q"); q != "" {
		topics, err := s.store.SearchTopics(q)
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"topics": topics, "query": q})
	}

	limit := intParam(c, "limit", 50)
	offset := intParam(c, "offset", 0)

	topics, err := s.store.ListTopics(limit, offset)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"topics": topics, "limit": limit, "offset": offset})
}

func (s *Server) getTopic(c echo.Context) error {
	t, err := s.store.GetTopic(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "topic not found"})
	}
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) relatedTopics(c echo.Context) error {
	depth := intParam(c, "depth", 2)

	related, err := s.store.RelatedTopics(c.Param("id"), depth)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"related": related, "depth": depth})
}

func (s *Server) topicMotivations(c echo.Context) error {
	scores, err := s.store.TopicMotivations(c.Param("id"))
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"motivations": scores})
}

func (s *Server) topicContent(c echo.Context) error {
	limit := intParam(c, "limit", 20)

	items, err := s.store.ContentByTopic(c.Param("id"), limit)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"content": items})
}

func (s *Server) activeFlows(c echo.Context) error {
	// from+to together select the full history for one directed pair,
	// expired flows included.
	if from, to := c.QueryParam("from"), c.QueryParam("to"); from != "" || to != "" {
		if from == "" || to == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "from and to must be given together"})
		}
		flows, err := s.store.FlowsForPair(from, to)
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"flows": flows})
	}

	minConfidence := 0.0
	if v := c.QueryParam("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid min_confidence"})
		}
		minConfidence = f
	}

	flows, err := s.store.ActiveFlows(time.Now().UTC(), minConfidence)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"flows": flows})
}

func (s *Server) runDetection(c echo.Context) error {
	result, err := s.engine.RunDetectionCycle(c.Request().Context())
	if errors.Is(err, engine.ErrCycleInProgress) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		// The engine already sanitized this message for users.
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) listAlerts(c echo.Context) error {
	alerts, err := s.store.ListAlerts(intParam(c, "limit", 50))
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) unreadAlerts(c echo.Context) error {
	alerts, err := s.store.UnreadAlerts()
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) markAlertRead(c echo.Context) error {
	err := s.store.MarkAlertRead(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "alert not found"})
	}
	if err != nil {
		return serverError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// IngestRequest is the body for POST /api/content. Topics may be omitted,
// in which case the keyword extractor tags the item's text.
type IngestRequest struct {
	Item   ingest.Item      `json:"item"`
	Topics []store.TopicTag `json:"topics,omitempty"`
}

func (s *Server) ingestContent(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	tags := req.Topics
	if len(tags) == 0 && req.Item.Text != "" {
		tags = s.extract(req.Item.Text)
	}

	inserted, err := s.pipeline.Ingest(c.Request().Context(), req.Item, tags)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"inserted": inserted, "topics_tagged": len(tags)})
}

func intParam(c echo.Context, name string, fallback int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func serverError(c echo.Context, err error) error {
	log.Printf("[api] %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
