package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

// turnsPerRound is how many completed turns advance the round counter and
// rotate the prevailing wind.
const turnsPerRound = 4

// CallResult is a player's response to an open call opportunity.
type CallResult string

const (
	CallResultCall CallResult = "call"
	CallResultPass CallResult = "pass"
)

// ActionInput carries the optional data for an executed turn action.
type ActionInput struct {
	Tile     *domain.Tile
	CallType string
	Tiles    []domain.Tile
}

// TurnTracker owns seating, turn/round/wind counters, per-player action
// flags, the discard pile, the wall count and the single timed call
// opportunity. It carries its own lock and is safe to use concurrently
// with room-level operations.
type TurnTracker struct {
	mu             sync.Mutex
	rotation       []uuid.UUID
	seats          map[uuid.UUID]domain.Wind
	currentIdx     int
	turn           int
	completedTurns int
	round          int
	wind           domain.Wind
	actions        map[uuid.UUID]*domain.PlayerActionState
	discards       []domain.DiscardedTile
	wallCount      int
	active         bool
	call           *domain.CallOpportunity

	// The deadline timer is cancelable and generation-guarded so a fire
	// that races a response or a room teardown is discarded.
	callTimer *time.Timer
	callGen   uint64
}

func NewTurnTracker() *TurnTracker {
	return &TurnTracker{
		currentIdx: -1,
		seats:      make(map[uuid.UUID]domain.Wind),
		actions:    make(map[uuid.UUID]*domain.PlayerActionState),
		wind:       domain.WindEast,
	}
}

// Initialize builds the seat rotation from the given players in fixed seat
// precedence (east, north, west, south). No current player is set until
// Start.
func (t *TurnTracker) Initialize(playerIDs []uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rotation = append([]uuid.UUID(nil), playerIDs...)
	t.seats = make(map[uuid.UUID]domain.Wind, len(playerIDs))
	t.actions = make(map[uuid.UUID]*domain.PlayerActionState, len(playerIDs))
	for i, id := range t.rotation {
		if i < len(domain.SeatOrder) {
			t.seats[id] = domain.SeatOrder[i]
		}
		t.actions[id] = &domain.PlayerActionState{}
	}
	t.currentIdx = -1
	t.turn = 0
	t.completedTurns = 0
	t.round = 1
	t.wind = domain.WindEast
	t.discards = []domain.DiscardedTile{}
	t.wallCount = domain.TotalTiles - domain.HandSize*len(playerIDs)
	t.active = false
}

// Start sets the first seat as current and activates the game. With an
// empty rotation this is a logged no-op.
func (t *TurnTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rotation) == 0 {
		log.Printf("turn tracker: start called with empty rotation")
		return
	}
	t.currentIdx = 0
	t.turn = 1
	t.active = true
	t.resetTurnFlagsLocked(t.rotation[0])
}

// Advance moves to the next seat, wrapping, and bumps the counters. Every
// fourth completed turn increments the round and rotates the prevailing
// wind. A no-op while the game is inactive.
func (t *TurnTracker) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active || len(t.rotation) == 0 {
		return
	}

	next := t.currentIdx
	for range t.rotation {
		next = (next + 1) % len(t.rotation)
		if state := t.actions[t.rotation[next]]; state == nil || !state.IsPassedOut {
			break
		}
	}
	t.currentIdx = next
	t.turn++
	t.completedTurns++
	if t.completedTurns%turnsPerRound == 0 {
		t.round++
		t.wind = t.wind.Next()
	}
	t.resetTurnFlagsLocked(t.rotation[next])
}

func (t *TurnTracker) resetTurnFlagsLocked(id uuid.UUID) {
	state := t.actions[id]
	if state == nil {
		state = &domain.PlayerActionState{}
		t.actions[id] = state
	}
	state.HasDrawn = false
	state.HasDiscarded = false
	state.AvailableActions = nil
}

// CurrentPlayer returns the player whose turn it is.
func (t *TurnTracker) CurrentPlayer() (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active || t.currentIdx < 0 || t.currentIdx >= len(t.rotation) {
		return uuid.Nil, false
	}
	return t.rotation[t.currentIdx], true
}

// SetAvailableActions records which actions are currently legal for the
// player.
func (t *TurnTracker) SetAvailableActions(playerID uuid.UUID, actions []domain.TurnAction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.actions[playerID]
	if state == nil {
		return
	}
	state.AvailableActions = append([]domain.TurnAction(nil), actions...)
}

// MarkPlayerAction stamps the player's last-action time.
func (t *TurnTracker) MarkPlayerAction(playerID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markActionLocked(playerID)
}

func (t *TurnTracker) markActionLocked(playerID uuid.UUID) {
	state := t.actions[playerID]
	if state == nil {
		return
	}
	now := time.Now()
	state.LastActionAt = &now
}

// CanPlayerDraw reports whether the player may draw: current turn, not yet
// drawn, tiles left in the wall.
func (t *TurnTracker) CanPlayerDraw(playerID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canDrawLocked(playerID)
}

func (t *TurnTracker) canDrawLocked(playerID uuid.UUID) bool {
	if !t.active || t.currentIdx < 0 || t.rotation[t.currentIdx] != playerID {
		return false
	}
	state := t.actions[playerID]
	return state != nil && !state.HasDrawn && t.wallCount > 0
}

// CanPlayerDiscard reports whether the player may discard: current turn and
// already drawn.
func (t *TurnTracker) CanPlayerDiscard(playerID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canDiscardLocked(playerID)
}

func (t *TurnTracker) canDiscardLocked(playerID uuid.UUID) bool {
	if !t.active || t.currentIdx < 0 || t.rotation[t.currentIdx] != playerID {
		return false
	}
	state := t.actions[playerID]
	return state != nil && state.HasDrawn && !state.HasDiscarded
}

// ExecuteAction applies one turn action. Draw and discard re-check their
// own preconditions here in addition to the CanPlayerDraw/CanPlayerDiscard
// selectors callers consult first.
func (t *TurnTracker) ExecuteAction(playerID uuid.UUID, action domain.TurnAction, input ActionInput) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return domain.ErrGameNotActive
	}
	state := t.actions[playerID]
	if state == nil {
		return domain.ErrPlayerNotFound
	}

	switch action {
	case domain.ActionDraw:
		if !t.canDrawLocked(playerID) {
			return domain.ErrActionNotAvailable
		}
		state.HasDrawn = true
		t.wallCount--

	case domain.ActionDiscard:
		if !t.canDiscardLocked(playerID) {
			return domain.ErrActionNotAvailable
		}
		state.HasDiscarded = true
		if input.Tile != nil {
			t.discards = append(t.discards, domain.DiscardedTile{
				Tile:        *input.Tile,
				PlayerID:    playerID,
				DiscardedAt: time.Now(),
			})
		}

	case domain.ActionCall:
		// A claimed tile stands in for the draw.
		state.HasDrawn = true

	case domain.ActionJokerSwap:
		// Bookkeeping only; the swap itself lives in the players' hands.

	case domain.ActionPassOut:
		state.IsPassedOut = true

	case domain.ActionMahjong, domain.ActionOtherPlayerMahjong, domain.ActionGameDrawn:
		t.active = false
		t.stopCallLocked()

	default:
		return fmt.Errorf("%w: %s", domain.ErrActionNotAvailable, action)
	}

	t.markActionLocked(playerID)
	return nil
}

// OpenCallOpportunity opens the timed window for claiming the tile. Opening
// while another window is active replaces it and cancels its deadline.
func (t *TurnTracker) OpenCallOpportunity(tile domain.Tile, duration time.Duration) domain.CallOpportunity {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.callTimer != nil {
		t.callTimer.Stop()
	}
	t.callGen++
	gen := t.callGen

	t.call = &domain.CallOpportunity{
		Tile:     tile,
		Deadline: time.Now().Add(duration),
		IsActive: true,
	}
	t.callTimer = time.AfterFunc(duration, func() {
		t.expireCall(gen)
	})
	return *t.call
}

// RespondToCall closes the active opportunity. Responding when none is
// active, including after the deadline elapsed, is a silent no-op so late
// client messages are tolerated.
func (t *TurnTracker) RespondToCall(result CallResult, callType string, tiles []domain.Tile) *domain.CallOpportunity {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.call == nil || !t.call.IsActive {
		return nil
	}

	t.callGen++ // invalidate the pending deadline fire
	if t.callTimer != nil {
		t.callTimer.Stop()
		t.callTimer = nil
	}

	closed := *t.call
	closed.IsActive = false
	if result == CallResultCall {
		closed.CallType = callType
	}
	t.call = nil
	return &closed
}

// expireCall fires at the deadline. The generation guard discards a fire
// that lost the race against a response or a teardown.
func (t *TurnTracker) expireCall(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.callGen || t.call == nil {
		return
	}
	// Implicit pass: clearing the window is the only side effect.
	t.call = nil
	t.callTimer = nil
}

// ActiveCall returns a copy of the open opportunity, if any.
func (t *TurnTracker) ActiveCall() *domain.CallOpportunity {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.call == nil {
		return nil
	}
	cp := *t.call
	return &cp
}

// RecordDiscard appends to the discard pile in chronological order.
func (t *TurnTracker) RecordDiscard(tile domain.Tile, playerID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.discards = append(t.discards, domain.DiscardedTile{
		Tile:        tile,
		PlayerID:    playerID,
		DiscardedAt: time.Now(),
	})
}

// SetWallCount sets the remaining wall, clamped at zero.
func (t *TurnTracker) SetWallCount(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n < 0 {
		n = 0
	}
	t.wallCount = n
}

// WallCount returns the remaining wall tiles.
func (t *TurnTracker) WallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wallCount
}

// IsActive reports whether the game is running.
func (t *TurnTracker) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Stop deactivates the tracker and cancels the outstanding call deadline.
// Called on game end and on room teardown.
func (t *TurnTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = false
	t.stopCallLocked()
}

func (t *TurnTracker) stopCallLocked() {
	t.callGen++
	if t.callTimer != nil {
		t.callTimer.Stop()
		t.callTimer = nil
	}
	if t.call != nil {
		t.call.IsActive = false
		t.call = nil
	}
}

// Snapshot returns the broadcastable turn state, or nil before the tracker
// has been initialized.
func (t *TurnTracker) Snapshot() *domain.TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rotation) == 0 {
		return nil
	}

	snap := &domain.TurnState{
		Rotation:       append([]uuid.UUID(nil), t.rotation...),
		Seats:          make(map[uuid.UUID]domain.Wind, len(t.seats)),
		Turn:           t.turn,
		Round:          t.round,
		PrevailingWind: t.wind,
		Actions:        make(map[uuid.UUID]*domain.PlayerActionState, len(t.actions)),
		DiscardPile:    append([]domain.DiscardedTile(nil), t.discards...),
		WallCount:      t.wallCount,
		IsActive:       t.active,
	}
	for id, w := range t.seats {
		snap.Seats[id] = w
	}
	for id, state := range t.actions {
		cp := *state
		cp.AvailableActions = append([]domain.TurnAction(nil), state.AvailableActions...)
		snap.Actions[id] = &cp
	}
	if t.active && t.currentIdx >= 0 && t.currentIdx < len(t.rotation) {
		current := t.rotation[t.currentIdx]
		snap.CurrentPlayer = &current
	}
	if t.call != nil {
		cp := *t.call
		snap.CallOpportunity = &cp
	}
	return snap
}
