package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"townofshadows/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	Visibility string `json:"visibility"`
}

// JoinRoomRequest is the body for joining a room
type JoinRoomRequest struct {
	Name string `json:"name"`
}

// JoinRoomResponse is the response for joining a room
type JoinRoomResponse struct {
	PlayerID string             `json:"playerId"`
	Room     domain.RoomSummary `json:"room"`
}

// LeaveRoomRequest is the body for leaving a room
type LeaveRoomRequest struct {
	PlayerID string `json:"playerId"`
}

// StartRoomRequest is the body for starting a game
type StartRoomRequest struct {
	PlayerID string `json:"playerId"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	json.NewDecoder(r.Body).Decode(&req) // empty body means defaults

	visibility := domain.VisibilityPublic
	if strings.EqualFold(req.Visibility, string(domain.VisibilityPrivate)) {
		visibility = domain.VisibilityPrivate
	}

	session, err := s.hub.CreateRoom(visibility)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    session.Summary(),
	})
}

// handleListRooms handles GET /rooms
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, s.hub.ListPublicRooms())
}

// handleJoinRoom handles POST /rooms/{roomId}/join
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(r.PathValue("roomId"))

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "A display name is required")
		return
	}

	session, err := s.hub.GetSession(roomID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	playerID := uuid.New().String()
	player, err := session.Join(playerID, strings.TrimSpace(req.Name))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &JoinRoomResponse{
		PlayerID: player.ID,
		Room:     session.Summary(),
	})
}

// handleLeaveRoom handles POST /rooms/{roomId}/leave
func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(r.PathValue("roomId"))

	var req LeaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		s.sendError(w, http.StatusBadRequest, "INVALID_REQUEST", "playerId is required")
		return
	}

	session, err := s.hub.GetSession(roomID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	if err := session.Leave(req.PlayerID); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, session.Summary())
}

// handleStartRoom handles POST /rooms/{roomId}/start
func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(r.PathValue("roomId"))

	session, err := s.hub.GetSession(roomID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	if err := session.Start(); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, session.Summary())
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{Status: "ok"})
}

// handleStats handles GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.RoomCount(),
		TotalPlayers: s.hub.TotalPlayerCount(),
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// sendDomainError maps a domain error onto an HTTP status and error code
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
	case errors.Is(err, domain.ErrPlayerNotFound):
		s.sendError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found")
	case errors.Is(err, domain.ErrRoomFull):
		s.sendError(w, http.StatusForbidden, "ROOM_FULL", "Room is full")
	case errors.Is(err, domain.ErrCapacity):
		s.sendError(w, http.StatusServiceUnavailable, "CAPACITY", "Room capacity ceiling reached")
	case errors.Is(err, domain.ErrInvalidPhase):
		s.sendError(w, http.StatusConflict, "INVALID_PHASE", "Action invalid for current phase")
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		s.sendError(w, http.StatusConflict, "NOT_ENOUGH_PLAYERS", "Not enough players to start")
	case errors.Is(err, domain.ErrNameTaken):
		s.sendError(w, http.StatusConflict, "NAME_TAKEN", "Name already taken in this room")
	default:
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
