package session_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCharlestonRoom builds a room with the given total player count, runs
// it through tile input and returns it sitting at the right pass.
func newCharlestonRoom(t *testing.T, playerCount int) (*session.Room, uuid.UUID, []uuid.UUID) {
	t.Helper()

	_, room, host, others := newTestRoom(t, playerCount-1)
	require.NoError(t, room.StartGame(host))

	all := append([]uuid.UUID{host}, others...)
	for i, id := range all {
		hand := testHand(fmt.Sprintf("o%d", i), domain.HandSize)
		require.NoError(t, room.UpdatePlayerTiles(id, domain.HandSize, hand))
	}
	require.Equal(t, domain.PhaseCharleston, room.Phase())
	return room, host, all
}

// confirmAll submits each player's first three tiles for the given phase.
func confirmAll(t *testing.T, room *session.Room, players []uuid.UUID, phase domain.CharlestonPhase) {
	t.Helper()
	for _, id := range players {
		p, ok := room.Player(id)
		require.True(t, ok)
		_, _, err := room.ConfirmCharlestonSelection(id, phase, p.Tiles[:domain.CharlestonPassSize])
		require.NoError(t, err)
	}
}

func totalTileCount(room *session.Room) int {
	sum := 0
	for _, p := range room.Players() {
		sum += len(p.Tiles)
	}
	return sum
}

func TestCharleston_ConfirmSelection(t *testing.T) {
	room, _, players := newCharlestonRoom(t, 4)
	first := players[0]
	hand, _ := room.Player(first)

	t.Run("wrong selection size", func(t *testing.T) {
		_, _, err := room.ConfirmCharlestonSelection(first, domain.CharlestonRight, hand.Tiles[:2])
		assert.ErrorIs(t, err, domain.ErrWrongSelectionSize)
	})

	t.Run("phase mismatch", func(t *testing.T) {
		_, _, err := room.ConfirmCharlestonSelection(first, domain.CharlestonLeft, hand.Tiles[:3])
		assert.ErrorIs(t, err, domain.ErrCharlestonPhaseMismatch)
	})

	t.Run("readiness is idempotent", func(t *testing.T) {
		ready, allReady, err := room.ConfirmCharlestonSelection(first, domain.CharlestonRight, hand.Tiles[:3])
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first}, ready)
		assert.False(t, allReady)

		// Re-confirming replaces the selection without duplicating readiness
		ready, allReady, err = room.ConfirmCharlestonSelection(first, domain.CharlestonRight, hand.Tiles[3:6])
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first}, ready)
		assert.False(t, allReady)
	})

	t.Run("all active players confirmed", func(t *testing.T) {
		var allReady bool
		for _, id := range players[1:] {
			p, _ := room.Player(id)
			var err error
			_, allReady, err = room.ConfirmCharlestonSelection(id, domain.CharlestonRight, p.Tiles[:3])
			require.NoError(t, err)
		}
		assert.True(t, allReady)
	})
}

func TestCharleston_PassTargets(t *testing.T) {
	// Four players seated [A,B,C,D] at indices [0,1,2,3].
	tests := []struct {
		phase   domain.CharlestonPhase
		n       int
		targets []int
	}{
		{domain.CharlestonRight, 4, []int{1, 2, 3, 0}},
		{domain.CharlestonAcross, 4, []int{2, 3, 0, 1}},
		{domain.CharlestonLeft, 4, []int{3, 0, 1, 2}},
		{domain.CharlestonOptional, 4, []int{3, 0, 1, 2}},
		{domain.CharlestonRight, 3, []int{1, 2, 0}},
		{domain.CharlestonAcross, 3, []int{0, 1, 2}}, // defensive identity
		{domain.CharlestonLeft, 3, []int{2, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.phase, tt.n), func(t *testing.T) {
			for i, want := range tt.targets {
				assert.Equal(t, want, domain.CharlestonPassTarget(tt.phase, i, tt.n))
			}
		})
	}
}

func TestCharleston_DistributeMovesTiles(t *testing.T) {
	room, _, players := newCharlestonRoom(t, 4)
	before := totalTileCount(room)

	confirmAll(t, room, players, domain.CharlestonRight)

	next, passes, err := room.DistributeCharleston(domain.CharlestonRight)
	require.NoError(t, err)
	assert.Equal(t, domain.CharlestonAcross, next)
	require.Len(t, passes, 4)

	// Right pass: seat i sends to seat i+1
	for i, pass := range passes {
		assert.Equal(t, players[i], pass.From)
		assert.Equal(t, players[(i+1)%4], pass.To)
		assert.Len(t, pass.Tiles, domain.CharlestonPassSize)
	}

	// Tile conservation: totals unchanged, every hand still 13
	assert.Equal(t, before, totalTileCount(room))
	for _, p := range room.Players() {
		assert.Equal(t, domain.HandSize, p.TileCount)
		assert.Len(t, p.Tiles, domain.HandSize)
	}

	// Receiver owns the sender's tiles now
	second, _ := room.Player(players[1])
	for _, tile := range passes[0].Tiles {
		found := false
		for _, owned := range second.Tiles {
			if owned.Matches(tile) {
				found = true
				break
			}
		}
		assert.True(t, found, "receiver should hold %s", tile.ID)
	}
}

func TestCharleston_FullSequenceFourPlayers(t *testing.T) {
	room, _, players := newCharlestonRoom(t, 4)

	wantOrder := []domain.CharlestonPhase{
		domain.CharlestonRight, domain.CharlestonAcross,
		domain.CharlestonLeft, domain.CharlestonOptional,
	}
	for i, phase := range wantOrder {
		snap := room.Snapshot()
		require.Equal(t, phase, snap.Charleston.Phase)

		confirmAll(t, room, players, phase)
		next, _, err := room.DistributeCharleston(phase)
		require.NoError(t, err)

		if i < len(wantOrder)-1 {
			assert.Equal(t, wantOrder[i+1], next)
		} else {
			assert.Equal(t, domain.CharlestonComplete, next)
		}
	}

	snap := room.Snapshot()
	assert.Equal(t, domain.CharlestonComplete, snap.Charleston.Phase)
	assert.False(t, snap.Charleston.IsActive)
}

func TestCharleston_ThreePlayersSkipAcross(t *testing.T) {
	room, _, players := newCharlestonRoom(t, 3)

	wantOrder := []domain.CharlestonPhase{
		domain.CharlestonRight, domain.CharlestonLeft, domain.CharlestonOptional,
	}
	for _, phase := range wantOrder {
		snap := room.Snapshot()
		require.Equal(t, phase, snap.Charleston.Phase, "across must never occur with 3 players")

		before := totalTileCount(room)
		confirmAll(t, room, players, phase)
		_, _, err := room.DistributeCharleston(phase)
		require.NoError(t, err)
		assert.Equal(t, before, totalTileCount(room))
	}

	snap := room.Snapshot()
	assert.Equal(t, domain.CharlestonComplete, snap.Charleston.Phase)
}

func TestCharleston_HostForcedAdvance(t *testing.T) {
	room, host, players := newCharlestonRoom(t, 4)

	t.Run("host only", func(t *testing.T) {
		_, err := room.AdvanceCharlestonPhase(players[1], domain.CharlestonRight)
		assert.ErrorIs(t, err, domain.ErrNotHost)
	})

	t.Run("advances without moving tiles", func(t *testing.T) {
		before := totalTileCount(room)
		next, err := room.AdvanceCharlestonPhase(host, domain.CharlestonRight)
		require.NoError(t, err)
		assert.Equal(t, domain.CharlestonAcross, next)
		assert.Equal(t, before, totalTileCount(room))
	})

	t.Run("phase mismatch", func(t *testing.T) {
		_, err := room.AdvanceCharlestonPhase(host, domain.CharlestonRight)
		assert.ErrorIs(t, err, domain.ErrCharlestonPhaseMismatch)
	})
}

func TestCharleston_SkipOptional(t *testing.T) {
	room, host, players := newCharlestonRoom(t, 4)

	t.Run("host only", func(t *testing.T) {
		assert.ErrorIs(t, room.SkipCharlestonOptional(players[2]), domain.ErrNotHost)
	})

	t.Run("completes from any sub-phase", func(t *testing.T) {
		require.NoError(t, room.SkipCharlestonOptional(host))

		snap := room.Snapshot()
		assert.Equal(t, domain.CharlestonComplete, snap.Charleston.Phase)
		assert.False(t, snap.Charleston.IsActive)
	})

	t.Run("second close is a no-op", func(t *testing.T) {
		assert.NoError(t, room.SkipCharlestonOptional(host))

		next, passes, err := room.DistributeCharleston(domain.CharlestonRight)
		assert.NoError(t, err)
		assert.Equal(t, domain.CharlestonComplete, next)
		assert.Empty(t, passes)
	})
}
