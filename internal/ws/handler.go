package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-relay/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The relay accepts any origin. Access control belongs to the
	// deployment in front of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests and hands each connection to the hub.
type Handler struct {
	hub *relay.Hub
	cfg Config
	log *slog.Logger
}

func NewHandler(hub *relay.Hub, cfg Config, log *slog.Logger) *Handler {
	return &Handler{hub: hub, cfg: cfg, log: log}
}

// Handle is the gin endpoint for new chat connections. It blocks for the
// connection's lifetime; gin runs each request on its own goroutine, so
// one connection's loop never touches another's.
func (h *Handler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}

	client := NewClient(conn, h.cfg, h.log.With("remote", c.ClientIP()))
	go client.WritePump()
	go client.ReadPump()

	h.hub.ServeSession(client, client.Events())
}
