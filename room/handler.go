package room

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ClientOptions struct {
	OutboxSize   int
	RateLimit    float64
	Burst        int
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

type Handler struct {
	hub      *Hub
	opts     ClientOptions
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, opts ClientOptions) *Handler {
	return &Handler{
		hub:  hub,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are filtered by the server middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and starts the connection pumps.
func (h *Handler) ServeWS(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	socket := NewGorillaConnection(conn, h.opts.ReadTimeout)
	client := NewClient(uuid.NewString(), h.opts.OutboxSize, rate.NewLimiter(rate.Limit(h.opts.RateLimit), h.opts.Burst))

	log.Debug().Str("conn_id", client.ID()).Str("ip", ctx.ClientIP()).Msg("connection opened")
	go client.WritePump(socket, h.opts.PingInterval)
	go client.ReadPump(socket, h.hub)
}
