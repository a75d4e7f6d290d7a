package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/usecase"
)

// Server is the bridge's HTTP front.
type Server struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

// NewServer wires routes and middleware onto a gin engine listening on addr.
func NewServer(addr string, handler *WebhookHandler, log zerolog.Logger, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), Logger(log))

	engine.POST(usecase.GreenAPIWebhookPath, handler.HandleGreenAPI)
	engine.POST(usecase.RocketChatWebhookPath, handler.HandleRocketChat)
	engine.POST(usecase.RocketChatWebhookPath+"/:command", handler.HandleCommand)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		server: &http.Server{Addr: addr, Handler: engine},
		log:    log.With().Str("component", "server").Logger(),
	}
}

// Start serves until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
