package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/auth"
	"github.com/KevinKickass/OpenBusBridge/internal/bus"
	"github.com/KevinKickass/OpenBusBridge/internal/config"
	"github.com/KevinKickass/OpenBusBridge/internal/interfaces"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router       *gin.Engine
	lm           interfaces.LifecycleManager
	logger       *zap.Logger
	server       *http.Server
	tokenHandler *auth.TokenHandler
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, tokenHandler *auth.TokenHandler) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:       gin.Default(),
		lm:           lm,
		logger:       logger,
		tokenHandler: tokenHandler,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1 (machine token required)
	v1 := s.router.Group("/api/v1")
	v1.Use(s.tokenHandler.Middleware())
	{
		// ==================== BRIDGE ====================
		bridge := v1.Group("/bridge")
		{
			bridge.GET("/status", s.getBridgeStatus)
			bridge.GET("/datapoints", s.listDatapoints)
			bridge.GET("/journal", s.getJournal)
		}

		// ==================== ITEMS ====================
		items := v1.Group("/items")
		{
			items.POST("/:name/command", s.postItemCommand)
			items.POST("/:name/state", s.postItemState)
		}

		// ==================== KNX ====================
		knx := v1.Group("/knx")
		{
			knx.POST("/read", s.readGroupValue)
		}

		// ==================== WEBSOCKET ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
		}
	}
}

// WebSocket handler
func (s *Server) wsLiveConnection(c *gin.Context) {
	bus.ServeWs(s.lm.Hub(), c.Writer, c.Request)
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
