package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

// ConfirmCharlestonSelection records the caller's 3-tile pass for the
// current sub-phase. Re-confirming overwrites the player's own selection
// (last write wins) without duplicating the readiness entry. It returns the
// readiness list and whether every active participant has now confirmed.
func (r *Room) ConfirmCharlestonSelection(playerID uuid.UUID, phase domain.CharlestonPhase, tiles []domain.Tile) ([]uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.charlestonGateLocked(phase); err != nil {
		return nil, false, err
	}
	if _, ok := r.players[playerID]; !ok {
		return nil, false, domain.ErrPlayerNotFound
	}
	if len(tiles) != domain.CharlestonPassSize {
		return nil, false, domain.ErrWrongSelectionSize
	}
	if !domain.ValidTiles(tiles) {
		return nil, false, domain.ErrInvalidTiles
	}

	r.charleston.Selections[playerID] = &domain.CharlestonSelection{
		PlayerID:    playerID,
		Tiles:       append([]domain.Tile(nil), tiles...),
		Phase:       phase,
		ConfirmedAt: time.Now(),
	}
	r.charleston.ReadyPlayers = appendIDOnce(r.charleston.ReadyPlayers, playerID)

	ready := append([]uuid.UUID(nil), r.charleston.ReadyPlayers...)
	return ready, r.allActiveConfirmedLocked(), nil
}

// DistributeCharleston moves every confirmed selection to its pass target
// and advances the sub-phase. The returned phase is the new current
// sub-phase, or complete when the exchange just ended. Calling it after the
// exchange has completed is a silent no-op.
func (r *Room) DistributeCharleston(phase domain.CharlestonPhase) (domain.CharlestonPhase, []domain.TilePass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase != domain.PhaseCharleston {
		return domain.CharlestonComplete, nil, domain.ErrWrongPhase
	}
	if r.charleston == nil {
		return domain.CharlestonComplete, nil, domain.ErrCharlestonNotActive
	}
	if !r.charleston.IsActive {
		// Already closed by the other path; tolerate the duplicate call.
		return domain.CharlestonComplete, nil, nil
	}
	if phase != r.charleston.Phase {
		return r.charleston.Phase, nil, domain.ErrCharlestonPhaseMismatch
	}

	active := r.activePlayersLocked()
	n := len(active)
	var passes []domain.TilePass

	for i, senderID := range active {
		sel := r.charleston.Selections[senderID]
		if sel == nil {
			continue
		}
		target := domain.CharlestonPassTarget(phase, i, n)
		if target == i {
			continue
		}

		sender := r.players[senderID]
		receiver := r.players[active[target]]

		moved := make([]domain.Tile, 0, len(sel.Tiles))
		for _, tile := range sel.Tiles {
			if removeTile(sender, tile) {
				receiver.Tiles = append(receiver.Tiles, tile)
				moved = append(moved, tile)
			}
		}
		sender.TileCount = len(sender.Tiles)
		receiver.TileCount = len(receiver.Tiles)

		passes = append(passes, domain.TilePass{
			From:  senderID,
			To:    active[target],
			Tiles: moved,
		})
	}

	next := r.advanceCharlestonLocked(n)
	return next, passes, nil
}

// AdvanceCharlestonPhase is the host-forced equivalent of a distribution's
// phase advance, without moving any tiles.
func (r *Room) AdvanceCharlestonPhase(hostID uuid.UUID, phase domain.CharlestonPhase) (domain.CharlestonPhase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.players[hostID]
	if !ok || !host.IsHost {
		return domain.CharlestonComplete, domain.ErrNotHost
	}
	if r.game.Phase != domain.PhaseCharleston {
		return domain.CharlestonComplete, domain.ErrWrongPhase
	}
	if r.charleston == nil {
		return domain.CharlestonComplete, domain.ErrCharlestonNotActive
	}
	if !r.charleston.IsActive {
		return domain.CharlestonComplete, nil
	}
	if phase != r.charleston.Phase {
		return r.charleston.Phase, domain.ErrCharlestonPhaseMismatch
	}

	return r.advanceCharlestonLocked(len(r.activePlayersLocked())), nil
}

// SkipCharlestonOptional closes the exchange unconditionally, whatever the
// current sub-phase. Host only. A second call is a no-op.
func (r *Room) SkipCharlestonOptional(hostID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	host, ok := r.players[hostID]
	if !ok || !host.IsHost {
		return domain.ErrNotHost
	}
	if r.charleston == nil {
		return domain.ErrCharlestonNotActive
	}
	if !r.charleston.IsActive {
		return nil
	}

	r.charleston.Phase = domain.CharlestonComplete
	r.charleston.IsActive = false
	return nil
}

// advanceCharlestonLocked moves to the next sub-phase, resetting selections
// and readiness, or completes the exchange when none remains.
func (r *Room) advanceCharlestonLocked(activeCount int) domain.CharlestonPhase {
	next, ok := domain.NextCharlestonPhase(r.charleston.Phase, activeCount)
	if !ok {
		r.charleston.Phase = domain.CharlestonComplete
		r.charleston.IsActive = false
		return domain.CharlestonComplete
	}
	r.charleston.Phase = next
	r.charleston.Selections = make(map[uuid.UUID]*domain.CharlestonSelection)
	r.charleston.ReadyPlayers = []uuid.UUID{}
	return next
}

func (r *Room) charlestonGateLocked(phase domain.CharlestonPhase) error {
	if r.game.Phase != domain.PhaseCharleston {
		return domain.ErrWrongPhase
	}
	if r.charleston == nil || !r.charleston.IsActive {
		return domain.ErrCharlestonNotActive
	}
	if phase != r.charleston.Phase {
		return domain.ErrCharlestonPhaseMismatch
	}
	return nil
}

func (r *Room) allActiveConfirmedLocked() bool {
	active := r.activePlayersLocked()
	if len(active) == 0 {
		return false
	}
	for _, id := range active {
		if r.charleston.Selections[id] == nil {
			return false
		}
	}
	return true
}

// removeTile removes the first identity match from the player's tile list.
// A missing tile is not an error; the transfer for that tile simply does
// not happen.
func removeTile(p *domain.Player, tile domain.Tile) bool {
	for i, t := range p.Tiles {
		if t.Matches(tile) {
			p.Tiles = append(p.Tiles[:i], p.Tiles[i+1:]...)
			return true
		}
	}
	return false
}
