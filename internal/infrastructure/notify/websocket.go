package notify

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	maxRoomLength  = 64
)

// inboundFrame is a client message; data is decoded per event.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebsocketHandler upgrades GET /payments/ws and bridges the connection to the Hub.
type WebsocketHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWebsocketHandler creates a handler accepting connections from
// allowedOrigins. An empty list or "*" accepts any origin.
func NewWebsocketHandler(hub *Hub, allowedOrigins []string, log zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Serve handles GET /payments/ws.
//
// @Summary      Payment notifications
// @Description  Websocket. Send {"event":"joinRoom","data":"<room id>"}; receive {"event":"notifyPayment","data":{...}}.
// @Tags         payments
// @Router       /payments/ws [get]
func (h *WebsocketHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := h.hub.Register()
	go h.writePump(conn, client)
	h.readPump(conn, client)
	return nil
}

func (h *WebsocketHandler) readPump(conn *websocket.Conn, client *Client) {
	defer func() {
		h.hub.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inboundFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}

		switch in.Event {
		case EventJoinRoom, EventLeaveRoom:
			room, ok := parseRoom(in.Data)
			if !ok {
				h.log.Debug().Str("event", in.Event).Msg("websocket: invalid room")
				continue
			}
			if in.Event == EventJoinRoom {
				h.hub.Join(client, room)
			} else {
				h.hub.Leave(client, room)
			}
		default:
			h.log.Debug().Str("event", in.Event).Msg("websocket: unknown event")
		}
	}
}

func (h *WebsocketHandler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.hub.Unregister(client)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Unregister(client)
				return
			}
		}
	}
}

// parseRoom accepts the room id as a JSON string or as {"room": "..."}.
func parseRoom(data json.RawMessage) (string, bool) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		var obj struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", false
		}
		room = obj.Room
	}
	room = strings.TrimSpace(room)
	if room == "" || len(room) > maxRoomLength {
		return "", false
	}
	return room, true
}
