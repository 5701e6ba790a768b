package domain

import "errors"

// Room membership and lifecycle errors
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game is already in progress")
	ErrAlreadyInRoom  = errors.New("player is already in this room")
	ErrNotInRoom      = errors.New("player is not in a room")
	ErrPlayerNotFound = errors.New("player not found in room")
)

// Permission and phase errors
var (
	ErrNotHost         = errors.New("only the host can perform this action")
	ErrWrongPhase      = errors.New("operation not valid in the current phase")
	ErrHostAlwaysReady = errors.New("host is always ready")
)

// Readiness and capacity errors
var (
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrPlayersNotReady  = errors.New("not all players are ready")
)

// Validation errors
var (
	ErrInvalidTiles            = errors.New("invalid tiles")
	ErrTileCountMismatch       = errors.New("tile count does not match tiles provided")
	ErrWrongSelectionSize      = errors.New("charleston selection must be exactly 3 tiles")
	ErrCharlestonNotActive     = errors.New("charleston is not in progress")
	ErrCharlestonPhaseMismatch = errors.New("charleston sub-phase does not match")
)

// Turn errors
var (
	ErrActionNotAvailable = errors.New("action not available")
	ErrGameNotActive      = errors.New("game is not active")
)
