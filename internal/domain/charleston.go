package domain

import (
	"time"

	"github.com/google/uuid"
)

// CharlestonPhase is a sub-phase of the pre-play tile exchange.
type CharlestonPhase string

const (
	CharlestonRight    CharlestonPhase = "right"
	CharlestonAcross   CharlestonPhase = "across"
	CharlestonLeft     CharlestonPhase = "left"
	CharlestonOptional CharlestonPhase = "optional"
	CharlestonComplete CharlestonPhase = "complete"
)

// CharlestonOrder returns the sub-phase sequence for the given number of
// active participants. With exactly 3 players the across pass is skipped.
func CharlestonOrder(activeCount int) []CharlestonPhase {
	if activeCount == 3 {
		return []CharlestonPhase{CharlestonRight, CharlestonLeft, CharlestonOptional}
	}
	return []CharlestonPhase{CharlestonRight, CharlestonAcross, CharlestonLeft, CharlestonOptional}
}

// NextCharlestonPhase returns the sub-phase following current for the given
// active count. ok is false when current is the final exchange.
func NextCharlestonPhase(current CharlestonPhase, activeCount int) (CharlestonPhase, bool) {
	order := CharlestonOrder(activeCount)
	for i, p := range order {
		if p == current && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return CharlestonComplete, false
}

// CharlestonPassTarget computes the seat index that receives seat i's
// selection out of n active participants.
func CharlestonPassTarget(phase CharlestonPhase, i, n int) int {
	switch phase {
	case CharlestonRight:
		return (i + 1) % n
	case CharlestonAcross:
		if n == 4 {
			return (i + 2) % n
		}
		// Across never runs with 3 players by construction; a self target
		// means no transfer.
		return i
	case CharlestonLeft, CharlestonOptional:
		return (i - 1 + n) % n
	}
	return i
}

// CharlestonSelection records one player's confirmed 3-tile pass for a
// sub-phase.
type CharlestonSelection struct {
	PlayerID    uuid.UUID       `json:"playerId"`
	Tiles       []Tile          `json:"tiles"`
	Phase       CharlestonPhase `json:"phase"`
	ConfirmedAt time.Time       `json:"confirmedAt"`
}

// CharlestonState is the sub-protocol state attached to a room while its
// phase is charleston.
type CharlestonState struct {
	Phase        CharlestonPhase                    `json:"phase"`
	Selections   map[uuid.UUID]*CharlestonSelection `json:"selections"`
	ReadyPlayers []uuid.UUID                        `json:"readyPlayers"`
	IsActive     bool                               `json:"isActive"`
}

// NewCharlestonState starts the exchange at the right pass.
func NewCharlestonState() *CharlestonState {
	return &CharlestonState{
		Phase:        CharlestonRight,
		Selections:   make(map[uuid.UUID]*CharlestonSelection),
		ReadyPlayers: []uuid.UUID{},
		IsActive:     true,
	}
}

// TilePass records one sender-to-receiver transfer produced by a
// distribution.
type TilePass struct {
	From  uuid.UUID `json:"from"`
	To    uuid.UUID `json:"to"`
	Tiles []Tile    `json:"tiles"`
}
