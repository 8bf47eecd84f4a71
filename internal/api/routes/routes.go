package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/api/middleware"
	"chat-relay/internal/relay"
	"chat-relay/internal/ws"
)

type Router struct {
	engine    *gin.Engine
	hub       *relay.Hub
	wsHandler *ws.Handler
}

func NewRouter(hub *relay.Hub, wsHandler *ws.Handler, log *slog.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	return &Router{
		engine:    engine,
		hub:       hub,
		wsHandler: wsHandler,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Chat Server Running")
	})
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": r.hub.Online()})
	})
	r.engine.GET("/ws", r.wsHandler.Handle)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
