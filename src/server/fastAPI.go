package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"quote-charts/src/analysis"
	"quote-charts/src/helpers"
	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/metrics"
	"quote-charts/src/models"
	"quote-charts/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Store     interfaces.ISeriesReader
	Session   interfaces.ISessionStatus
	Charts    *analysis.AnalysisFacade
	Scheduler *utils.MarketScheduler
	engine    *gin.Engine
	http      *http.Server
	location  *time.Location

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan *models.MPushMessage
	register    chan *Client
	unregister  chan *Client
	replies     chan reply
	quit        chan struct{}
	hubOnce     sync.Once
	stopOnce    sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(
	cfg *models.MConfig,
	store interfaces.ISeriesReader,
	session interfaces.ISessionStatus,
	charts *analysis.AnalysisFacade,
	scheduler *utils.MarketScheduler,
	log *logger.Logger,
) *FastAPIServer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if scheduler == nil {
		scheduler = utils.NewMarketScheduler(log)
	}

	// Set Gin mode
	if cfg.LogLevel != "DEBUG" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}

	s := &FastAPIServer{
		Config:    cfg,
		Logger:    log,
		Store:     store,
		Session:   session,
		Charts:    charts,
		Scheduler: scheduler,
		engine:    gin.Default(),
		location:  loc,
		clients:   make(map[*Client]struct{}),
		// Buffered so publishers never wait on the hub
		broadcast:  make(chan *models.MPushMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replies:    make(chan reply, 64),
		quit:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/session", s.getSession)
	s.engine.GET("/api/quotes", s.getQuotes)
	s.engine.GET("/api/ranges", s.getRanges)
	s.engine.GET("/api/chart/:ticker", s.getChart)

	// Prometheus exposition
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for tests
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

// Start runs the push hub and serves HTTP until Stop. It returns nil after a
// clean shutdown.
func (s *FastAPIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	s.startHub()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop shuts the HTTP listener down and disconnects push clients
func (s *FastAPIServer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		err = s.http.Shutdown(ctx)
		close(s.quit)
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	connection := models.Disconnected
	if s.Session != nil {
		connection = s.Session.State()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connection":    connection.String(),
		"symbols":       s.Store.SymbolCount(),
		"clients":       s.clientCount.Load(),
		"latest_update": s.Store.LastApplied(),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getSession(c *gin.Context) {
	if s.Session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no feed session"})
		return
	}
	c.JSON(http.StatusOK, s.Session.Stats())
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getQuotes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"quotes":    s.quoteViews(s.Store.LatestQuotes()),
		"timestamp": time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getRanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ranges":  s.Config.Chart.Ranges,
		"default": s.Config.Chart.DefaultRange,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getChart(c *gin.Context) {
	ticker := c.Param("ticker")

	width := 0
	if raw := c.Query("width"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid width '%s'", raw)})
			return
		}
		width = w
	}

	chart, err := s.Charts.Chart(ticker, c.Query("range"), width)
	if err != nil {
		if errors.Is(err, helpers.ErrUnknownRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("Chart %s failed: %v", ticker, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart failed"})
		return
	}

	c.JSON(http.StatusOK, chart)
}
