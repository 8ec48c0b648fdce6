package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"townofshadows/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// IdleRoomTimeout is how long an empty or finished room lingers before
	// the reaper reclaims it
	IdleRoomTimeout = 30 * time.Minute
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomHub is the global room registry. Its lock covers only structural
// changes (create/destroy/list); everything inside a room is serialized by
// that room's own session.
type RoomHub struct {
	sessions map[string]*RoomSession
	mu       sync.RWMutex
	maxRooms int
	settings domain.RoomSettings
	logger   *slog.Logger
	done     chan struct{}
}

// NewRoomHub creates a room hub with the given room-count ceiling
func NewRoomHub(maxRooms int, settings domain.RoomSettings, logger *slog.Logger) *RoomHub {
	hub := &RoomHub{
		sessions: make(map[string]*RoomSession),
		maxRooms: maxRooms,
		settings: settings,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.reaperLoop()

	return hub
}

// CreateRoom allocates a new room in the Lobby phase
func (h *RoomHub) CreateRoom(visibility domain.Visibility) (*RoomSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.sessions) >= h.maxRooms {
		return nil, domain.ErrCapacity
	}

	var roomID string
	for attempts := 0; attempts < 10; attempts++ {
		roomID = generateRoomCode(DefaultRoomCodeLength)
		if _, exists := h.sessions[roomID]; !exists {
			break
		}
	}
	if _, exists := h.sessions[roomID]; exists {
		return nil, fmt.Errorf("failed to generate unique room code")
	}

	room := domain.NewRoom(roomID, visibility, h.settings)
	session := NewRoomSession(room, h.logger)
	h.sessions[roomID] = session

	h.logger.Info("room created", "roomId", roomID, "visibility", visibility)

	return session, nil
}

// GetSession returns a room session by ID
func (h *RoomHub) GetSession(roomID string) (*RoomSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// DeleteRoom destroys a room, cancelling its timers and connections
func (h *RoomHub) DeleteRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[roomID]; ok {
		session.Close()
		delete(h.sessions, roomID)
		h.logger.Info("room deleted", "roomId", roomID)
	}
}

// ListPublicRooms returns a read-only snapshot of public room summaries
func (h *RoomHub) ListPublicRooms() []domain.RoomSummary {
	h.mu.RLock()
	sessions := make([]*RoomSession, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.mu.RUnlock()

	summaries := make([]domain.RoomSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := session.Summary()
		if summary.Visibility != domain.VisibilityPublic {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// RoomCount returns the number of active rooms
func (h *RoomHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// TotalPlayerCount returns the number of players across all rooms
func (h *RoomHub) TotalPlayerCount() int {
	h.mu.RLock()
	sessions := make([]*RoomSession, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.mu.RUnlock()

	total := 0
	for _, session := range sessions {
		total += session.PlayerCount()
	}
	return total
}

// Close shuts down the hub and all rooms
func (h *RoomHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*RoomSession)
}

// reaperLoop periodically reclaims idle rooms
func (h *RoomHub) reaperLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.reapIdleRooms()
		}
	}
}

func (h *RoomHub) reapIdleRooms() {
	h.mu.RLock()
	candidates := make(map[string]*RoomSession, len(h.sessions))
	for id, session := range h.sessions {
		candidates[id] = session
	}
	h.mu.RUnlock()

	now := time.Now()
	for id, session := range candidates {
		if session.IsExpired(now, IdleRoomTimeout) {
			h.DeleteRoom(id)
			h.logger.Info("idle room reclaimed", "roomId", id)
		}
	}
}

// generateRoomCode generates a random room code
func generateRoomCode(length int) string {
	b := make([]byte, length)
	rand.Read(b)

	code := make([]byte, length)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code)
}
