package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/broadcast"
	roomUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/room"
)

// RealtimeOptions tune the websocket endpoint
type RealtimeOptions struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PongWait       time.Duration
	ReadLimit      int64
}

// Realtime upgrades room subscriptions to websockets and hands them to the hub
type Realtime struct {
	hub         *broadcast.Hub
	roomService roomUsecase.Service
	upgrader    websocket.Upgrader
	opts        RealtimeOptions
	logger      *zap.Logger
}

// NewRealtimeHandler creates a websocket handler
func NewRealtimeHandler(hub *broadcast.Hub, roomService roomUsecase.Service, opts RealtimeOptions, logger *zap.Logger) *Realtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 4096
	}
	h := &Realtime{
		hub:         hub,
		roomService: roomService,
		opts:        opts,
		logger:      logger.Named("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Subscribe handles GET /rooms/:room_id/ws
// @Summary      Subscribe to room events
// @Description  Upgrades to a websocket that receives every event of the room. A text "ping" is answered with "pong".
// @Tags         Realtime
// @Param        room_id  path  string  true  "Room ID"
// @Failure      404      {object}  map[string]interface{}  "Room not found"
// @Router       /rooms/{room_id}/ws [get]
func (h *Realtime) Subscribe(c echo.Context) error {
	room, err := h.roomService.GetRoom(c.Request().Context(), c.Param("room_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Debug("realtime.upgrade.failed", zap.String("room_id", room.ID), zap.Error(err))
		return nil
	}

	addr := c.RealIP()
	conn := broadcast.NewWebsocketConn(ws, addr, h.opts.WriteTimeout)
	client, err := h.hub.Subscribe(room.ID, conn)
	if err != nil {
		// the hub closed the socket with the matching close code
		return nil
	}
	defer h.hub.Unsubscribe(client)

	go h.keepalive(conn, client)
	h.readLoop(ws, client)
	return nil
}

// readLoop consumes client frames until the socket fails or the client is removed
func (h *Realtime) readLoop(ws *websocket.Conn, client *broadcast.Client) {
	ws.SetReadLimit(h.opts.ReadLimit)
	extend := func() { _ = ws.SetReadDeadline(time.Now().Add(h.opts.PongWait)) }
	extend()
	ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("realtime.read.failed", zap.String("room_id", client.RoomID()), zap.Error(err))
			}
			return
		}
		extend()
		if msgType == websocket.TextMessage && strings.TrimSpace(string(data)) == "ping" {
			client.Send([]byte("pong"))
		}
	}
}

// keepalive pings the peer until the client is removed
func (h *Realtime) keepalive(conn *broadcast.WebsocketConn, client *broadcast.Client) {
	ticker := time.NewTicker(h.opts.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				h.hub.Unsubscribe(client)
				return
			}
		}
	}
}

func (h *Realtime) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
