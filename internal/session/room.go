package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

// Room is the aggregate root for one session. All state behind it is owned
// exclusively by this struct and mutated only through its methods, one
// operation at a time under the room mutex.
type Room struct {
	mu         sync.Mutex
	code       string
	createdAt  time.Time
	order      []uuid.UUID // insertion order, used for host tie-breaks and seating
	players    map[uuid.UUID]*domain.Player
	game       *domain.GameState
	charleston *domain.CharlestonState
	turns      *TurnTracker
}

func newRoom(code string) *Room {
	return &Room{
		code:      code,
		createdAt: time.Now(),
		players:   make(map[uuid.UUID]*domain.Player),
		game:      domain.NewGameState(),
		turns:     NewTurnTracker(),
	}
}

func (r *Room) Code() string { return r.code }

// Turns exposes the in-match turn tracker. The tracker carries its own
// lock, so callers never hold the room mutex while using it.
func (r *Room) Turns() *TurnTracker { return r.turns }

// PlayerStatusUpdate carries optional host-driven flag changes.
type PlayerStatusUpdate struct {
	Participating *bool
	TilesInputted *bool
}

// addPlayer locks and delegates; used by the registry during room creation.
func (r *Room) addPlayer(id uuid.UUID, name string, host bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPlayerLocked(id, name, host)
}

func (r *Room) addPlayerLocked(id uuid.UUID, name string, host bool) {
	r.players[id] = &domain.Player{
		ID:            id,
		DisplayName:   name,
		IsHost:        host,
		JoinedAt:      time.Now(),
		Participating: true,
		IsOnline:      true,
		Tiles:         []domain.Tile{},
		IsReady:       host, // host is implicitly ready
	}
	r.order = append(r.order, id)
	r.recomputeActiveLocked()
}

func (r *Room) removePlayerLocked(id uuid.UUID) {
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.game.ReadyPlayers = removeID(r.game.ReadyPlayers, id)
	if r.charleston != nil {
		r.charleston.ReadyPlayers = removeID(r.charleston.ReadyPlayers, id)
		delete(r.charleston.Selections, id)
	}
}

// reassignHostLocked promotes the remaining player with the earliest
// JoinedAt. Ties on identical timestamps fall back to original join order,
// which the strict less-than comparison over the insertion-ordered slice
// gives for free.
func (r *Room) reassignHostLocked() {
	var next *domain.Player
	for _, id := range r.order {
		p := r.players[id]
		if next == nil || p.JoinedAt.Before(next.JoinedAt) {
			next = p
		}
	}
	if next != nil {
		next.IsHost = true
		next.IsReady = true
	}
}

// ToggleReady flips the caller's ready flag. Only valid while waiting, and
// never for the host.
func (r *Room) ToggleReady(playerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase != domain.PhaseWaiting {
		return domain.ErrWrongPhase
	}
	p, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if p.IsHost {
		return domain.ErrHostAlwaysReady
	}

	p.IsReady = !p.IsReady
	if p.IsReady {
		r.game.ReadyPlayers = appendIDOnce(r.game.ReadyPlayers, playerID)
	} else {
		r.game.ReadyPlayers = removeID(r.game.ReadyPlayers, playerID)
	}
	return nil
}

// StartGame moves the room from waiting to tile-input. Host only; requires
// at least the minimum number of active participants, all of them ready.
func (r *Room) StartGame(hostID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.players[hostID]
	if !ok || !host.IsHost {
		return domain.ErrNotHost
	}
	if r.game.Phase != domain.PhaseWaiting {
		return domain.ErrWrongPhase
	}

	active := r.activePlayersLocked()
	if len(active) < domain.MinRoomPlayers {
		return domain.ErrNotEnoughPlayers
	}

	var notReady []string
	for _, id := range active {
		p := r.players[id]
		if !p.IsHost && !p.IsReady {
			notReady = append(notReady, p.DisplayName)
		}
	}
	if len(notReady) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlayersNotReady, strings.Join(notReady, ", "))
	}

	now := time.Now()
	r.game.Phase = domain.PhaseTileInput
	r.game.Round = 1
	r.game.StartedAt = &now
	r.game.ActivePlayers = active
	r.game.ReadyPlayers = []uuid.UUID{}
	return nil
}

// UpdatePlayerStatus lets the host change a player's participation or
// tile-input flags.
func (r *Room) UpdatePlayerStatus(hostID, targetID uuid.UUID, update PlayerStatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.players[hostID]
	if !ok || !host.IsHost {
		return domain.ErrNotHost
	}
	target, ok := r.players[targetID]
	if !ok {
		return domain.ErrPlayerNotFound
	}

	if update.Participating != nil && target.Participating != *update.Participating {
		target.Participating = *update.Participating
		r.recomputeActiveLocked()
	}
	if update.TilesInputted != nil {
		target.TilesInputted = *update.TilesInputted
	}
	return nil
}

// UpdatePlayerTiles replaces a player's hand during tile input. When every
// active participant has a complete hand the room advances to the
// Charleston automatically.
func (r *Room) UpdatePlayerTiles(playerID uuid.UUID, count int, tiles []domain.Tile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase != domain.PhaseTileInput {
		return domain.ErrWrongPhase
	}
	p, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if len(tiles) != count {
		return domain.ErrTileCountMismatch
	}
	if !domain.ValidTiles(tiles) {
		return domain.ErrInvalidTiles
	}

	p.Tiles = append([]domain.Tile(nil), tiles...)
	p.TileCount = count
	p.TilesInputted = count == domain.HandSize

	if r.allActiveTilesInputtedLocked() {
		r.game.Phase = domain.PhaseCharleston
		r.charleston = domain.NewCharlestonState()
	}
	return nil
}

// UpdatePlayerConnection records whether the player is online, which feeds
// the quorum for later phase gates.
func (r *Room) UpdatePlayerConnection(playerID uuid.UUID, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.IsOnline = online
	r.recomputeActiveLocked()
	return nil
}

// AdvanceToPlaying hands off from the Charleston to scoring play. The turn
// rotation is seeded from the current active participants.
func (r *Room) AdvanceToPlaying() error {
	r.mu.Lock()

	if r.game.Phase != domain.PhaseCharleston {
		r.mu.Unlock()
		return domain.ErrWrongPhase
	}
	now := time.Now()
	r.game.Phase = domain.PhasePlaying
	r.game.StartedAt = &now
	active := r.activePlayersLocked()
	r.mu.Unlock()

	// The tracker has its own lock; initialize outside the room mutex.
	r.turns.Initialize(active)
	return nil
}

// FinishGame marks the match over and stops any outstanding timers. The
// turn state is left intact for history recording.
func (r *Room) FinishGame() error {
	r.mu.Lock()

	if r.game.Phase != domain.PhasePlaying {
		r.mu.Unlock()
		return domain.ErrWrongPhase
	}
	r.game.Phase = domain.PhaseFinished
	r.mu.Unlock()

	r.turns.Stop()
	return nil
}

// Player returns a copy of the player with the given id.
func (r *Room) Player(id uuid.UUID) (domain.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return domain.Player{}, false
	}
	return *p, true
}

// Players returns copies of all players in join order.
func (r *Room) Players() []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

func (r *Room) playersLocked() []domain.Player {
	out := make([]domain.Player, 0, len(r.order))
	for _, id := range r.order {
		p := *r.players[id]
		p.Tiles = append([]domain.Tile(nil), p.Tiles...)
		out = append(out, p)
	}
	return out
}

// Phase returns the current top-level phase.
func (r *Room) Phase() domain.GamePhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Phase
}

// Snapshot builds the broadcastable view of the room.
func (r *Room) Snapshot() *domain.RoomSnapshot {
	r.mu.Lock()

	game := *r.game
	game.ActivePlayers = append([]uuid.UUID(nil), r.game.ActivePlayers...)
	game.ReadyPlayers = append([]uuid.UUID(nil), r.game.ReadyPlayers...)

	snap := &domain.RoomSnapshot{
		Code:      r.code,
		CreatedAt: r.createdAt,
		Players:   r.playersLocked(),
		Game:      game,
	}
	if r.charleston != nil {
		snap.Charleston = copyCharleston(r.charleston)
	}
	r.mu.Unlock()

	if turns := r.turns.Snapshot(); turns != nil {
		snap.Turns = turns
	}
	return snap
}

func copyCharleston(c *domain.CharlestonState) *domain.CharlestonState {
	out := &domain.CharlestonState{
		Phase:        c.Phase,
		Selections:   make(map[uuid.UUID]*domain.CharlestonSelection, len(c.Selections)),
		ReadyPlayers: append([]uuid.UUID(nil), c.ReadyPlayers...),
		IsActive:     c.IsActive,
	}
	for id, sel := range c.Selections {
		cp := *sel
		cp.Tiles = append([]domain.Tile(nil), sel.Tiles...)
		out.Selections[id] = &cp
	}
	return out
}

// activePlayersLocked returns the ids of participating, online players in
// join order.
func (r *Room) activePlayersLocked() []uuid.UUID {
	active := []uuid.UUID{}
	for _, id := range r.order {
		if r.players[id].IsActive() {
			active = append(active, id)
		}
	}
	return active
}

func (r *Room) recomputeActiveLocked() {
	r.game.ActivePlayers = r.activePlayersLocked()
}

func (r *Room) allActiveTilesInputtedLocked() bool {
	active := r.activePlayersLocked()
	if len(active) == 0 {
		return false
	}
	for _, id := range active {
		if !r.players[id].TilesInputted {
			return false
		}
	}
	return true
}

func appendIDOnce(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
