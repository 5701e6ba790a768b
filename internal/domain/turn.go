package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wind is a seat or prevailing-wind designation.
type Wind string

const (
	WindEast  Wind = "east"
	WindSouth Wind = "south"
	WindWest  Wind = "west"
	WindNorth Wind = "north"
)

// Next returns the prevailing wind that follows w in rotation order.
func (w Wind) Next() Wind {
	switch w {
	case WindEast:
		return WindSouth
	case WindSouth:
		return WindWest
	case WindWest:
		return WindNorth
	default:
		return WindEast
	}
}

// SeatOrder is the fixed seat precedence used to build the turn rotation.
var SeatOrder = []Wind{WindEast, WindNorth, WindWest, WindSouth}

// TurnAction is an in-match action a player can take.
type TurnAction string

const (
	ActionDraw               TurnAction = "draw"
	ActionDiscard            TurnAction = "discard"
	ActionCall               TurnAction = "call"
	ActionJokerSwap          TurnAction = "joker-swap"
	ActionMahjong            TurnAction = "mahjong"
	ActionPassOut            TurnAction = "pass-out"
	ActionOtherPlayerMahjong TurnAction = "other-player-mahjong"
	ActionGameDrawn          TurnAction = "game-drawn"
)

// PlayerActionState tracks a player's per-turn bookkeeping.
type PlayerActionState struct {
	HasDrawn         bool         `json:"hasDrawn"`
	HasDiscarded     bool         `json:"hasDiscarded"`
	IsPassedOut      bool         `json:"isPassedOut"`
	AvailableActions []TurnAction `json:"availableActions"`
	LastActionAt     *time.Time   `json:"lastActionAt"`
}

// DiscardedTile is one entry in the append-only discard pile.
type DiscardedTile struct {
	Tile        Tile      `json:"tile"`
	PlayerID    uuid.UUID `json:"playerId"`
	DiscardedAt time.Time `json:"discardedAt"`
}

// CallOpportunity is the time-boxed window during which a just-discarded
// tile may be claimed. At most one is active per room.
type CallOpportunity struct {
	Tile     Tile      `json:"tile"`
	CallType string    `json:"callType,omitempty"`
	Deadline time.Time `json:"deadline"`
	IsActive bool      `json:"isActive"`
}

// TurnState is the broadcastable view of in-match turn tracking.
type TurnState struct {
	Rotation        []uuid.UUID                      `json:"rotation"`
	Seats           map[uuid.UUID]Wind               `json:"seats"`
	CurrentPlayer   *uuid.UUID                       `json:"currentPlayer"`
	Turn            int                              `json:"turn"`
	Round           int                              `json:"round"`
	PrevailingWind  Wind                             `json:"prevailingWind"`
	Actions         map[uuid.UUID]*PlayerActionState `json:"actions"`
	DiscardPile     []DiscardedTile                  `json:"discardPile"`
	WallCount       int                              `json:"wallCount"`
	CallOpportunity *CallOpportunity                 `json:"callOpportunity,omitempty"`
	IsActive        bool                             `json:"isActive"`
}
