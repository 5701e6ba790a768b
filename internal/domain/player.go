package domain

import (
	"time"

	"github.com/google/uuid"
)

// GamePhase represents the top-level phase of a room. Phases only move
// forward: waiting -> tile-input -> charleston -> playing -> finished.
type GamePhase string

const (
	PhaseWaiting    GamePhase = "waiting"
	PhaseTileInput  GamePhase = "tile-input"
	PhaseCharleston GamePhase = "charleston"
	PhasePlaying    GamePhase = "playing"
	PhaseFinished   GamePhase = "finished"
)

// Room occupancy bounds.
const (
	MinRoomPlayers = 2
	MaxRoomPlayers = 4
)

// RoomCodeLength is the length of generated room codes.
const RoomCodeLength = 4

// Player is a participant in a room. The host's ready flag is always true
// and is never toggled by the ready operation.
type Player struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"displayName"`
	IsHost        bool      `json:"isHost"`
	JoinedAt      time.Time `json:"joinedAt"`
	Participating bool      `json:"participating"`
	IsOnline      bool      `json:"isOnline"`
	TilesInputted bool      `json:"tilesInputted"`
	TileCount     int       `json:"tileCount"`
	Tiles         []Tile    `json:"tiles"`
	IsReady       bool      `json:"isReady"`
}

// IsActive reports whether the player counts toward quorum and turn order.
func (p *Player) IsActive() bool {
	return p.Participating && p.IsOnline
}

// GameState carries the match-scoped state of a room.
type GameState struct {
	Phase         GamePhase   `json:"phase"`
	Round         int         `json:"round"`
	StartedAt     *time.Time  `json:"startedAt"`
	ActivePlayers []uuid.UUID `json:"activePlayers"`
	ReadyPlayers  []uuid.UUID `json:"readyPlayers"`
}

// NewGameState returns the initial waiting-phase state.
func NewGameState() *GameState {
	return &GameState{
		Phase:         PhaseWaiting,
		ActivePlayers: []uuid.UUID{},
		ReadyPlayers:  []uuid.UUID{},
	}
}

// RoomSnapshot is the full broadcastable view of a room. Clients reconcile
// against it on every state change rather than trusting locally predicted
// state.
type RoomSnapshot struct {
	Code       string           `json:"code"`
	CreatedAt  time.Time        `json:"createdAt"`
	Players    []Player         `json:"players"`
	Game       GameState        `json:"game"`
	Charleston *CharlestonState `json:"charleston,omitempty"`
	Turns      *TurnState       `json:"turns,omitempty"`
}
