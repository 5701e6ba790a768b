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

// newTestRoom creates a room with a host plus extra players, all ready.
func newTestRoom(t *testing.T, extraPlayers int) (*session.Registry, *session.Room, uuid.UUID, []uuid.UUID) {
	t.Helper()

	reg := session.NewRegistry()
	host := uuid.New()
	room, err := reg.CreateRoom(host, "host")
	require.NoError(t, err)

	var others []uuid.UUID
	for i := 0; i < extraPlayers; i++ {
		id := uuid.New()
		_, err := reg.JoinRoom(room.Code(), id, fmt.Sprintf("player-%d", i+1))
		require.NoError(t, err)
		require.NoError(t, room.ToggleReady(id))
		others = append(others, id)
	}
	return reg, room, host, others
}

// testHand builds a structurally valid hand of n tiles.
func testHand(owner string, n int) []domain.Tile {
	tiles := make([]domain.Tile, n)
	for i := range tiles {
		tiles[i] = domain.Tile{
			ID:    fmt.Sprintf("%s-%d", owner, i),
			Suit:  "bam",
			Value: fmt.Sprintf("%d", i%9+1),
		}
	}
	return tiles
}

func TestRoom_ToggleReady(t *testing.T) {
	_, room, host, others := newTestRoom(t, 1)
	player := others[0]

	t.Run("host cannot toggle", func(t *testing.T) {
		assert.ErrorIs(t, room.ToggleReady(host), domain.ErrHostAlwaysReady)
	})

	t.Run("unknown player", func(t *testing.T) {
		assert.ErrorIs(t, room.ToggleReady(uuid.New()), domain.ErrPlayerNotFound)
	})

	t.Run("toggles back and forth", func(t *testing.T) {
		p, _ := room.Player(player)
		require.True(t, p.IsReady)

		require.NoError(t, room.ToggleReady(player))
		p, _ = room.Player(player)
		assert.False(t, p.IsReady)

		require.NoError(t, room.ToggleReady(player))
		p, _ = room.Player(player)
		assert.True(t, p.IsReady)
	})

	t.Run("wrong phase", func(t *testing.T) {
		require.NoError(t, room.StartGame(host))
		assert.ErrorIs(t, room.ToggleReady(player), domain.ErrWrongPhase)
	})
}

func TestRoom_StartGame(t *testing.T) {
	t.Run("not host", func(t *testing.T) {
		_, room, _, others := newTestRoom(t, 1)
		assert.ErrorIs(t, room.StartGame(others[0]), domain.ErrNotHost)
	})

	t.Run("not enough players", func(t *testing.T) {
		_, room, host, _ := newTestRoom(t, 0)
		assert.ErrorIs(t, room.StartGame(host), domain.ErrNotEnoughPlayers)
	})

	t.Run("players not ready", func(t *testing.T) {
		_, room, host, others := newTestRoom(t, 2)
		require.NoError(t, room.ToggleReady(others[1])) // back to unready

		err := room.StartGame(host)
		require.ErrorIs(t, err, domain.ErrPlayersNotReady)
		assert.Contains(t, err.Error(), "player-2", "error names the unready player")
	})

	t.Run("success snapshots active players", func(t *testing.T) {
		_, room, host, others := newTestRoom(t, 2)
		require.NoError(t, room.StartGame(host))

		snap := room.Snapshot()
		assert.Equal(t, domain.PhaseTileInput, snap.Game.Phase)
		assert.Equal(t, 1, snap.Game.Round)
		require.NotNil(t, snap.Game.StartedAt)
		assert.Equal(t, []uuid.UUID{host, others[0], others[1]}, snap.Game.ActivePlayers)
		assert.Empty(t, snap.Game.ReadyPlayers)
	})

	t.Run("wrong phase after start", func(t *testing.T) {
		_, room, host, _ := newTestRoom(t, 1)
		require.NoError(t, room.StartGame(host))
		assert.ErrorIs(t, room.StartGame(host), domain.ErrWrongPhase)
	})

	t.Run("offline players do not count toward quorum", func(t *testing.T) {
		_, room, host, others := newTestRoom(t, 1)
		require.NoError(t, room.UpdatePlayerConnection(others[0], false))
		assert.ErrorIs(t, room.StartGame(host), domain.ErrNotEnoughPlayers)
	})
}

func TestRoom_UpdatePlayerStatus(t *testing.T) {
	_, room, host, others := newTestRoom(t, 1)
	target := others[0]

	t.Run("host only", func(t *testing.T) {
		no := false
		err := room.UpdatePlayerStatus(target, host, session.PlayerStatusUpdate{Participating: &no})
		assert.ErrorIs(t, err, domain.ErrNotHost)
	})

	t.Run("participation change recomputes active list", func(t *testing.T) {
		no := false
		require.NoError(t, room.UpdatePlayerStatus(host, target, session.PlayerStatusUpdate{Participating: &no}))

		snap := room.Snapshot()
		assert.Equal(t, []uuid.UUID{host}, snap.Game.ActivePlayers)

		yes := true
		require.NoError(t, room.UpdatePlayerStatus(host, target, session.PlayerStatusUpdate{Participating: &yes}))
		snap = room.Snapshot()
		assert.Equal(t, []uuid.UUID{host, target}, snap.Game.ActivePlayers)
	})

	t.Run("tiles inputted flag", func(t *testing.T) {
		yes := true
		require.NoError(t, room.UpdatePlayerStatus(host, target, session.PlayerStatusUpdate{TilesInputted: &yes}))
		p, _ := room.Player(target)
		assert.True(t, p.TilesInputted)
	})
}

func TestRoom_UpdatePlayerTiles(t *testing.T) {
	_, room, host, others := newTestRoom(t, 1)
	player := others[0]

	t.Run("wrong phase before start", func(t *testing.T) {
		err := room.UpdatePlayerTiles(player, domain.HandSize, testHand("p", domain.HandSize))
		assert.ErrorIs(t, err, domain.ErrWrongPhase)
	})

	require.NoError(t, room.StartGame(host))

	t.Run("count mismatch does not mutate", func(t *testing.T) {
		err := room.UpdatePlayerTiles(player, domain.HandSize, testHand("p", 12))
		assert.ErrorIs(t, err, domain.ErrTileCountMismatch)

		p, _ := room.Player(player)
		assert.Zero(t, p.TileCount)
		assert.Empty(t, p.Tiles)
		assert.False(t, p.TilesInputted)
	})

	t.Run("structurally invalid tile", func(t *testing.T) {
		hand := testHand("p", domain.HandSize)
		hand[4].Suit = ""
		err := room.UpdatePlayerTiles(player, domain.HandSize, hand)
		assert.ErrorIs(t, err, domain.ErrInvalidTiles)
	})

	t.Run("all hands complete auto-advances to charleston", func(t *testing.T) {
		require.NoError(t, room.UpdatePlayerTiles(player, domain.HandSize, testHand("p", domain.HandSize)))
		assert.Equal(t, domain.PhaseTileInput, room.Phase(), "one hand is not enough")

		require.NoError(t, room.UpdatePlayerTiles(host, domain.HandSize, testHand("h", domain.HandSize)))
		assert.Equal(t, domain.PhaseCharleston, room.Phase())

		snap := room.Snapshot()
		require.NotNil(t, snap.Charleston)
		assert.Equal(t, domain.CharlestonRight, snap.Charleston.Phase)
		assert.True(t, snap.Charleston.IsActive)
	})
}

func TestRoom_AdvanceToPlaying(t *testing.T) {
	_, room, host, others := newTestRoom(t, 1)

	t.Run("wrong phase", func(t *testing.T) {
		assert.ErrorIs(t, room.AdvanceToPlaying(), domain.ErrWrongPhase)
	})

	require.NoError(t, room.StartGame(host))
	require.NoError(t, room.UpdatePlayerTiles(host, domain.HandSize, testHand("h", domain.HandSize)))
	require.NoError(t, room.UpdatePlayerTiles(others[0], domain.HandSize, testHand("p", domain.HandSize)))

	t.Run("seeds the rotation from active players", func(t *testing.T) {
		require.NoError(t, room.AdvanceToPlaying())
		assert.Equal(t, domain.PhasePlaying, room.Phase())

		room.Turns().Start()
		current, ok := room.Turns().CurrentPlayer()
		require.True(t, ok)
		assert.Equal(t, host, current)
	})
}

func TestRoom_FinishGame(t *testing.T) {
	_, room, host, others := newTestRoom(t, 1)
	require.NoError(t, room.StartGame(host))
	require.NoError(t, room.UpdatePlayerTiles(host, domain.HandSize, testHand("h", domain.HandSize)))
	require.NoError(t, room.UpdatePlayerTiles(others[0], domain.HandSize, testHand("p", domain.HandSize)))
	require.NoError(t, room.AdvanceToPlaying())
	room.Turns().Start()

	require.NoError(t, room.FinishGame())
	assert.Equal(t, domain.PhaseFinished, room.Phase())
	assert.False(t, room.Turns().IsActive())

	assert.ErrorIs(t, room.FinishGame(), domain.ErrWrongPhase)
}
