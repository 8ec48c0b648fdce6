package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRoomFull          = errors.New("room is full")
	ErrCapacity          = errors.New("room capacity ceiling reached")
	ErrInvalidPhase      = errors.New("action invalid for current phase")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrInvalidTarget     = errors.New("target is not an eligible alive player")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrNotAlive          = errors.New("player is not alive")
	ErrNoNightAbility    = errors.New("player has no night ability")
	ErrNameTaken         = errors.New("name already taken in this room")
)
