package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"townofshadows/internal/app"
	"townofshadows/internal/domain"
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.RoomHub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.RoomHub, logger *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checks belong to the reverse proxy in this deployment
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. The handshake binds the
// connection to one room+player pair: the player must already hold a seat
// from the REST join, except for spectators of an ended game.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(r.URL.Query().Get("roomId"))
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")

	session, err := h.hub.GetSession(roomID)
	if err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	spectator := playerID == ""
	if spectator {
		playerID = uuid.New().String()
	}

	client := NewClient(conn, session, playerID, spectator, h.logger)

	if spectator {
		if err := session.AttachSpectator(playerID, client); err != nil {
			closeWithReason(conn, "spectating is only allowed after the game ends")
			return
		}
	} else {
		if _, err := session.Attach(playerID, client); err != nil {
			// Unknown player IDs may still watch an ended game
			if session.Phase() == domain.PhaseEnded {
				spectator = true
				client.spectator = true
				if err := session.AttachSpectator(playerID, client); err != nil {
					closeWithReason(conn, "room is not joinable")
					return
				}
			} else {
				closeWithReason(conn, "no such seat in this room; join over REST first")
				return
			}
		}
	}

	h.logger.Info("websocket connected",
		"roomId", roomID,
		"playerId", playerID,
		"spectator", spectator,
	)

	client.sendConnected()
	client.Run()
}

func closeWithReason(conn *websocket.Conn, reason string) {
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	conn.Close()
}
