package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"wavechat/config"
	"wavechat/internal/handler"
	"wavechat/internal/middleware"
	"wavechat/pkg/logger"
)

// Server wires the HTTP and WebSocket surfaces of the messaging core.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	log    *logger.Logger
}

type Handlers struct {
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Presence      *handler.PresenceHandler
	Stream        *StreamHandler
}

func New(cfg *config.Config, log *logger.Logger, h Handlers) *Server {
	if cfg.AppMode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware(log))
	engine.Use(middleware.ErrorHandler(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := engine.Group("/", middleware.AuthMiddleware(cfg.JWTSecret))
	{
		authed.POST("/conversations", h.Conversations.OpenOrCreate)
		authed.GET("/conversations", h.Conversations.List)
		authed.GET("/conversations/:id/messages", h.Messages.List)
		authed.POST("/conversations/:id/messages", h.Messages.Send)
		authed.POST("/conversations/:id/read", h.Messages.MarkRead)
		authed.POST("/conversations/:id/typing", h.Presence.Typing)
		authed.POST("/messages/:id/reactions", h.Messages.React)
		authed.DELETE("/messages/:id", h.Messages.Delete)
		authed.GET("/users/:id/presence", h.Presence.Get)
		authed.GET("/ws/conversations/:id", h.Stream.Handle)
	}

	return &Server{engine: engine, cfg: cfg, log: log}
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.AppPort),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on :%s", s.cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	s.log.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
