package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"townofshadows/internal/app"
	"townofshadows/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection bound to one room+player
type Client struct {
	conn      *websocket.Conn
	session   *app.RoomSession
	playerID  string
	spectator bool
	send      chan []byte
	done      chan struct{}
	logger    *slog.Logger
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.RoomSession, playerID string, spectator bool, logger *slog.Logger) *Client {
	return &Client{
		conn:      conn,
		session:   session,
		playerID:  playerID,
		spectator: spectator,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("connection closed")
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerId", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.Detach(c.playerID, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	if c.spectator && msg.Type != MsgPing {
		c.sendError(ErrCodeInvalidPhase, "Spectators cannot act")
		return
	}

	switch msg.Type {
	case MsgSubmitNightAction:
		c.handleSubmitNightAction(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgReady:
		c.handleReady()
	case MsgChat:
		c.handleChat(msg.Payload)
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleSubmitNightAction handles a submit_night_action message
func (c *Client) handleSubmitNightAction(payload interface{}) {
	targetID, ok := stringField(payload, "targetId")
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
		return
	}

	if err := c.session.SubmitNightAction(c.playerID, targetID); err != nil {
		c.sendDomainError(err)
	}
}

// handleCastVote handles a cast_vote message
func (c *Client) handleCastVote(payload interface{}) {
	targetID, ok := stringField(payload, "targetId")
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Target player ID or ABSTAIN is required")
		return
	}

	if err := c.session.CastVote(c.playerID, targetID); err != nil {
		c.sendDomainError(err)
	}
}

// handleReady handles a ready message
func (c *Client) handleReady() {
	if err := c.session.Ready(c.playerID); err != nil {
		c.sendDomainError(err)
	}
}

// handleChat handles a chat message
func (c *Client) handleChat(payload interface{}) {
	channel, _ := stringField(payload, "channel")
	if channel == "" {
		channel = string(domain.ChannelPublic)
	}
	text, ok := stringField(payload, "text")
	if !ok || text == "" {
		c.sendError(ErrCodeInvalidMessage, "Chat text is required")
		return
	}

	if err := c.session.Chat(c.playerID, domain.ChatChannel(channel), text); err != nil {
		c.sendDomainError(err)
	}
}

// sendConnected sends the connected handshake with the current view
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		PlayerID:  c.playerID,
		RoomID:    c.session.RoomID(),
		Spectator: c.spectator,
		View:      c.session.View(c.playerID),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendError sends an error message to this connection only
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// sendDomainError maps a domain error onto a WS error code. Rejections reach
// only the offending connection; shared state is untouched.
func (c *Client) sendDomainError(err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhase):
		c.sendError(ErrCodeInvalidPhase, "Action invalid for current phase")
	case errors.Is(err, domain.ErrInvalidTarget):
		c.sendError(ErrCodeInvalidTarget, "Target is not an eligible alive player")
	case errors.Is(err, domain.ErrNotAlive):
		c.sendError(ErrCodeNotAlive, "Eliminated players cannot act")
	case errors.Is(err, domain.ErrNoNightAbility):
		c.sendError(ErrCodeNoNightAbility, "Your role has no night action")
	case errors.Is(err, domain.ErrPlayerNotFound):
		c.sendError(ErrCodeInvalidTarget, "Player not found")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}

// stringField pulls a string value out of an untyped JSON payload
func stringField(payload interface{}, key string) (string, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok
}
