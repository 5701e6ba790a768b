package websocket_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/testutil"
	"github.com/mika/mahjong-copilot-server/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTimeout = 5 * time.Second

func createRoom(t *testing.T, ts *testutil.TestServer, token string) string {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.APIURL("/rooms"), bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Room domain.RoomSnapshot `json:"room"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Room.Code, domain.RoomCodeLength)
	return body.Room.Code
}

func handTiles(prefix string) []domain.Tile {
	tiles := make([]domain.Tile, domain.HandSize)
	for i := range tiles {
		tiles[i] = domain.Tile{
			ID:    fmt.Sprintf("%s-%d", prefix, i),
			Suit:  "dot",
			Value: fmt.Sprintf("%d", i%9+1),
		}
	}
	return tiles
}

// waitForPhase drains room state broadcasts until the room reaches the
// given phase.
func waitForPhase(t *testing.T, client *testutil.WSClient, phase domain.GamePhase) *domain.RoomSnapshot {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := client.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
		var p websocket.RoomStatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &p))
		if p.Room.Game.Phase == phase {
			return p.Room
		}
	}
	t.Fatalf("room never reached phase %s", phase)
	return nil
}

// waitForRoomState drains room state broadcasts until one satisfies cond.
func waitForRoomState(t *testing.T, client *testutil.WSClient, cond func(*domain.RoomSnapshot) bool) *domain.RoomSnapshot {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := client.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
		var p websocket.RoomStatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &p))
		if cond(p.Room) {
			return p.Room
		}
	}
	t.Fatal("room state never matched")
	return nil
}

func TestSessionFlow_JoinReadyStart(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, hostToken := testutil.NewUserBuilder().WithDisplayName("host").BuildAndAuthenticate(t, ts)
	_, guestToken := testutil.NewUserBuilder().WithDisplayName("guest").BuildAndAuthenticate(t, ts)

	code := createRoom(t, ts, hostToken)

	hostWS := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	guestWS := testutil.NewWSClient(t, ts.WebSocketURL(guestToken))

	// The creator is already in the room; JOIN_ROOM attaches the socket.
	hostWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	guestWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	msg := guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	var state websocket.RoomStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Room.Players, 2)
	assert.Equal(t, domain.PhaseWaiting, state.Room.Game.Phase)

	// Guest readies up, host starts
	guestWS.Send(websocket.MessageTypeToggleReady, struct{}{})
	guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	hostWS.Send(websocket.MessageTypeStartGame, struct{}{})
	snap := waitForPhase(t, hostWS, domain.PhaseTileInput)
	assert.Len(t, snap.Game.ActivePlayers, 2)
}

func TestSessionFlow_FullMatch(t *testing.T) {
	ts := testutil.NewTestServer(t)

	host, hostToken := testutil.NewUserBuilder().WithDisplayName("east").BuildAndAuthenticate(t, ts)
	_, guestToken := testutil.NewUserBuilder().WithDisplayName("north").BuildAndAuthenticate(t, ts)

	code := createRoom(t, ts, hostToken)

	hostWS := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	guestWS := testutil.NewWSClient(t, ts.WebSocketURL(guestToken))

	hostWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	guestWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	guestWS.Send(websocket.MessageTypeToggleReady, struct{}{})
	guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	hostWS.Send(websocket.MessageTypeStartGame, struct{}{})
	waitForPhase(t, hostWS, domain.PhaseTileInput)

	// Both players enter their hands; the room advances on its own once
	// every active player has a full hand in.
	hostWS.Send(websocket.MessageTypeUpdateTiles, websocket.UpdateTilesPayload{
		TileCount: domain.HandSize,
		Tiles:     handTiles("h"),
	})
	guestWS.Send(websocket.MessageTypeUpdateTiles, websocket.UpdateTilesPayload{
		TileCount: domain.HandSize,
		Tiles:     handTiles("g"),
	})
	waitForPhase(t, hostWS, domain.PhaseCharleston)

	// First Charleston pass: both confirm, tiles cross over privately.
	hostWS.Send(websocket.MessageTypeCharlestonConfirm, websocket.CharlestonConfirmPayload{
		Phase: domain.CharlestonRight,
		Tiles: handTiles("h")[:domain.CharlestonPassSize],
	})
	guestWS.Send(websocket.MessageTypeCharlestonConfirm, websocket.CharlestonConfirmPayload{
		Phase: domain.CharlestonRight,
		Tiles: handTiles("g")[:domain.CharlestonPassSize],
	})

	received := guestWS.WaitFor(websocket.MessageTypeTilesReceived, defaultTimeout)
	var tilesMsg websocket.TilesReceivedPayload
	require.NoError(t, json.Unmarshal(received.Payload, &tilesMsg))
	assert.Equal(t, host.ID, tilesMsg.From)
	assert.Len(t, tilesMsg.Tiles, domain.CharlestonPassSize)

	// Host cuts the rest of the Charleston short and moves to play.
	hostWS.Send(websocket.MessageTypeCharlestonSkip, struct{}{})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	hostWS.Send(websocket.MessageTypeAdvanceToPlaying, struct{}{})

	snap := waitForPhase(t, hostWS, domain.PhasePlaying)
	require.NotNil(t, snap.Turns)
	require.NotNil(t, snap.Turns.CurrentPlayer)
	assert.Equal(t, host.ID, *snap.Turns.CurrentPlayer)

	// Host draws, then declares mahjong; the match summary lands in storage.
	hostWS.Send(websocket.MessageTypeGameAction, websocket.GameActionPayload{Action: domain.ActionDraw})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	hostWS.Send(websocket.MessageTypeGameAction, websocket.GameActionPayload{Action: domain.ActionMahjong})

	finished := hostWS.WaitFor(websocket.MessageTypeGameFinished, defaultTimeout)
	var finMsg websocket.GameFinishedPayload
	require.NoError(t, json.Unmarshal(finished.Payload, &finMsg))
	assert.Equal(t, domain.OutcomeMahjong, finMsg.Outcome)
	require.NotNil(t, finMsg.WinnerID)
	assert.Equal(t, host.ID, *finMsg.WinnerID)

	waitForPhase(t, guestWS, domain.PhaseFinished)

	records, err := ts.Repos.MatchRecord.GetByRoomCode(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.OutcomeMahjong, records[0].Outcome)
	require.NotNil(t, records[0].WinnerID)
	assert.Equal(t, host.ID, *records[0].WinnerID)
}

func TestSessionFlow_DisconnectMarksOffline(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, hostToken := testutil.NewUserBuilder().WithDisplayName("stayer").BuildAndAuthenticate(t, ts)
	guest, guestToken := testutil.NewUserBuilder().WithDisplayName("dropper").BuildAndAuthenticate(t, ts)

	code := createRoom(t, ts, hostToken)

	hostWS := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	guestWS := testutil.NewWSClient(t, ts.WebSocketURL(guestToken))

	hostWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	guestWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	// Dropping the socket marks the player offline but keeps their seat.
	guestWS.Close()

	snap := waitForRoomState(t, hostWS, func(room *domain.RoomSnapshot) bool {
		for _, p := range room.Players {
			if p.ID == guest.ID {
				return !p.IsOnline
			}
		}
		return false
	})
	assert.Len(t, snap.Players, 2)
}

func TestSessionFlow_LeaveRoom(t *testing.T) {
	ts := testutil.NewTestServer(t)

	host, hostToken := testutil.NewUserBuilder().WithDisplayName("opener").BuildAndAuthenticate(t, ts)
	guest, guestToken := testutil.NewUserBuilder().WithDisplayName("leaver").BuildAndAuthenticate(t, ts)

	code := createRoom(t, ts, hostToken)

	hostWS := testutil.NewWSClient(t, ts.WebSocketURL(hostToken))
	guestWS := testutil.NewWSClient(t, ts.WebSocketURL(guestToken))

	hostWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	hostWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)
	guestWS.Send(websocket.MessageTypeJoinRoom, websocket.JoinRoomPayload{Code: code})
	guestWS.WaitFor(websocket.MessageTypeRoomState, defaultTimeout)

	// Guest leaves while the host stays; the host sees the seat vanish.
	guestWS.Send(websocket.MessageTypeLeaveRoom, struct{}{})

	snap := waitForRoomState(t, hostWS, func(room *domain.RoomSnapshot) bool {
		return len(room.Players) == 1
	})
	assert.Equal(t, host.ID, snap.Players[0].ID)
	assert.NotEqual(t, guest.ID, snap.Players[0].ID)

	// The host is the last player left; leaving tears the room down and the
	// leaver gets the closure notice.
	hostWS.Send(websocket.MessageTypeLeaveRoom, struct{}{})

	closed := hostWS.WaitFor(websocket.MessageTypeRoomClosed, defaultTimeout)
	var closedMsg websocket.RoomClosedPayload
	require.NoError(t, json.Unmarshal(closed.Payload, &closedMsg))
	assert.Equal(t, code, closedMsg.Code)

	assert.Equal(t, 0, ts.Registry.RoomCount())
}
