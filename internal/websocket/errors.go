package websocket

import (
	"errors"

	"github.com/mika/mahjong-copilot-server/internal/domain"
)

// errorCode maps session errors to wire codes clients can branch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, domain.ErrRoomFull):
		return "ROOM_FULL"
	case errors.Is(err, domain.ErrGameInProgress):
		return "GAME_IN_PROGRESS"
	case errors.Is(err, domain.ErrAlreadyInRoom):
		return "ALREADY_IN_ROOM"
	case errors.Is(err, domain.ErrNotInRoom):
		return "NOT_IN_ROOM"
	case errors.Is(err, domain.ErrPlayerNotFound):
		return "PLAYER_NOT_FOUND"
	case errors.Is(err, domain.ErrNotHost):
		return "NOT_HOST"
	case errors.Is(err, domain.ErrWrongPhase):
		return "WRONG_PHASE"
	case errors.Is(err, domain.ErrHostAlwaysReady):
		return "HOST_ALWAYS_READY"
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return "NOT_ENOUGH_PLAYERS"
	case errors.Is(err, domain.ErrPlayersNotReady):
		return "PLAYERS_NOT_READY"
	case errors.Is(err, domain.ErrInvalidTiles):
		return "INVALID_TILES"
	case errors.Is(err, domain.ErrTileCountMismatch):
		return "TILE_COUNT_MISMATCH"
	case errors.Is(err, domain.ErrWrongSelectionSize):
		return "WRONG_SELECTION_SIZE"
	case errors.Is(err, domain.ErrCharlestonNotActive):
		return "CHARLESTON_NOT_ACTIVE"
	case errors.Is(err, domain.ErrCharlestonPhaseMismatch):
		return "CHARLESTON_PHASE_MISMATCH"
	case errors.Is(err, domain.ErrActionNotAvailable):
		return "ACTION_NOT_AVAILABLE"
	case errors.Is(err, domain.ErrGameNotActive):
		return "GAME_NOT_ACTIVE"
	default:
		return "INTERNAL_ERROR"
	}
}
