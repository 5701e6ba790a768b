package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/session"
)

// dispatch routes one inbound message. Validation errors go back to the
// sender only; successful mutations are followed by a room broadcast so
// every client reconciles against the same snapshot.
func (h *Hub) dispatch(c *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeJoinRoom:
		h.handleJoinRoom(c, msg.Payload)
	case MessageTypeLeaveRoom:
		h.handleLeaveRoom(c)
	case MessageTypeToggleReady:
		h.handleToggleReady(c)
	case MessageTypeStartGame:
		h.handleStartGame(c)
	case MessageTypeUpdatePlayerStatus:
		h.handleUpdatePlayerStatus(c, msg.Payload)
	case MessageTypeUpdateTiles:
		h.handleUpdateTiles(c, msg.Payload)
	case MessageTypeCharlestonConfirm:
		h.handleCharlestonConfirm(c, msg.Payload)
	case MessageTypeCharlestonDistribute:
		h.handleCharlestonDistribute(c, msg.Payload)
	case MessageTypeCharlestonAdvance:
		h.handleCharlestonAdvance(c, msg.Payload)
	case MessageTypeCharlestonSkip:
		h.handleCharlestonSkip(c)
	case MessageTypeAdvanceToPlaying:
		h.handleAdvanceToPlaying(c)
	case MessageTypeGameAction:
		h.handleGameAction(c, msg.Payload)
	case MessageTypeAdvanceTurn:
		h.handleAdvanceTurn(c)
	case MessageTypeOpenCall:
		h.handleOpenCall(c, msg.Payload)
	case MessageTypeRespondCall:
		h.handleRespondCall(c, msg.Payload)
	case MessageTypeRecordDiscard:
		h.handleRecordDiscard(c, msg.Payload)
	case MessageTypeSetWall:
		h.handleSetWall(c, msg.Payload)
	case MessageTypeFinishGame:
		h.handleFinishGame(c, msg.Payload)
	case MessageTypeSyncState:
		h.handleSyncState(c)
	default:
		c.sendError("UNKNOWN_MESSAGE", "Unknown message type")
	}
}

func (h *Hub) roomFor(c *Client) (*session.Room, bool) {
	if c.roomCode == "" {
		c.sendError("NOT_IN_ROOM", "Join a room first")
		return nil, false
	}
	room, err := h.registry.Room(c.roomCode)
	if err != nil {
		c.sendError("ROOM_NOT_FOUND", "Room no longer exists")
		return nil, false
	}
	return room, true
}

func (h *Hub) handleJoinRoom(c *Client, payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid join room payload")
		return
	}

	room, err := h.registry.JoinRoom(p.Code, c.userID, c.displayName)
	if errors.Is(err, domain.ErrAlreadyInRoom) {
		// Reconnect: reattach to the room the player is already in.
		room, err = h.registry.RoomFor(c.userID)
	}
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	h.attach(c, room.Code())
	if err := room.UpdatePlayerConnection(c.userID, true); err != nil {
		log.Printf("hub: mark online %s in %s: %v", c.userID, room.Code(), err)
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleLeaveRoom(c *Client) {
	// Capture the attachment before leaving: on the last-player path the
	// registry tears the room down and returns a nil room.
	code := c.roomCode
	room, deleted, err := h.registry.LeaveRoom(c.userID)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	if deleted {
		h.notifyRoomClosed(code)
		return
	}

	h.detach(c, room.Code())
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleToggleReady(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if err := room.ToggleReady(c.userID); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleStartGame(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if err := room.StartGame(c.userID); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleUpdatePlayerStatus(c *Client, payload json.RawMessage) {
	var p UpdatePlayerStatusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid player status payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	update := session.PlayerStatusUpdate{
		Participating: p.Participating,
		TilesInputted: p.TilesInputted,
	}
	if err := room.UpdatePlayerStatus(c.userID, p.PlayerID, update); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleUpdateTiles(c *Client, payload json.RawMessage) {
	var p UpdateTilesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid tiles payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if err := room.UpdatePlayerTiles(c.userID, p.TileCount, p.Tiles); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleCharlestonConfirm(c *Client, payload json.RawMessage) {
	var p CharlestonConfirmPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid charleston confirm payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}

	readyPlayers, allReady, err := room.ConfirmCharlestonSelection(c.userID, p.Phase, p.Tiles)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	msg, err := NewMessage(MessageTypeCharlestonReady, CharlestonReadyPayload{
		Phase:        p.Phase,
		ReadyPlayers: readyPlayers,
		AllReady:     allReady,
	})
	if err == nil {
		h.broadcastMessage(room.Code(), msg)
	}

	// Every active player has confirmed, so the pass resolves immediately.
	if allReady {
		h.distributeCharleston(room, p.Phase)
	}
}

func (h *Hub) handleCharlestonDistribute(c *Client, payload json.RawMessage) {
	var p CharlestonPhasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid charleston distribute payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	h.distributeCharleston(room, p.Phase)
}

func (h *Hub) distributeCharleston(room *session.Room, phase domain.CharlestonPhase) {
	_, passes, err := room.DistributeCharleston(phase)
	if err != nil {
		log.Printf("hub: charleston distribute in %s: %v", room.Code(), err)
		return
	}

	// Received tiles are private; everyone else only sees counts change in
	// the snapshot that follows.
	for _, pass := range passes {
		msg, err := NewMessage(MessageTypeTilesReceived, TilesReceivedPayload{
			Phase: phase,
			From:  pass.From,
			Tiles: pass.Tiles,
		})
		if err != nil {
			continue
		}
		h.sendToPlayer(room.Code(), pass.To, msg)
	}

	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleCharlestonAdvance(c *Client, payload json.RawMessage) {
	var p CharlestonPhasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid charleston advance payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if _, err := room.AdvanceCharlestonPhase(c.userID, p.Phase); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleCharlestonSkip(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if err := room.SkipCharlestonOptional(c.userID); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleAdvanceToPlaying(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	if err := room.AdvanceToPlaying(); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	room.Turns().Start()
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleGameAction(c *Client, payload json.RawMessage) {
	var p GameActionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid game action payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}

	input := session.ActionInput{Tile: p.Tile, Tiles: p.Tiles}
	if err := room.Turns().ExecuteAction(c.userID, p.Action, input); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	switch p.Action {
	case domain.ActionMahjong:
		h.finishMatch(room, domain.OutcomeMahjong, &c.userID)
		return
	case domain.ActionGameDrawn:
		h.finishMatch(room, domain.OutcomeWallEmpty, nil)
		return
	}

	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleAdvanceTurn(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	room.Turns().Advance()
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleOpenCall(c *Client, payload json.RawMessage) {
	var p OpenCallPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid open call payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}

	duration := h.callWindow
	if p.DurationMs > 0 {
		duration = time.Duration(p.DurationMs) * time.Millisecond
	}
	call := room.Turns().OpenCallOpportunity(p.Tile, duration)

	msg, err := NewMessage(MessageTypeCallOpened, CallOpenedPayload{
		Tile:     call.Tile,
		Deadline: call.Deadline.UnixMilli(),
	})
	if err == nil {
		h.broadcastMessage(room.Code(), msg)
	}

	// Late clients reconcile via the snapshot that follows expiry.
	code := room.Code()
	time.AfterFunc(duration+100*time.Millisecond, func() {
		h.BroadcastRoom(code)
	})
}

func (h *Hub) handleRespondCall(c *Client, payload json.RawMessage) {
	var p RespondCallPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid respond call payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}

	result := session.CallResult(p.Result)
	closed := room.Turns().RespondToCall(result, p.CallType, p.Tiles)
	if closed == nil {
		// Window already resolved; the late response is dropped silently.
		return
	}

	msg, err := NewMessage(MessageTypeCallClosed, CallClosedPayload{
		Tile:     closed.Tile,
		CallType: closed.CallType,
		Claimed:  result == session.CallResultCall,
	})
	if err == nil {
		h.broadcastMessage(room.Code(), msg)
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleRecordDiscard(c *Client, payload json.RawMessage) {
	var p RecordDiscardPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid discard payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	room.Turns().RecordDiscard(p.Tile, c.userID)
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleSetWall(c *Client, payload json.RawMessage) {
	var p SetWallPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid wall payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	room.Turns().SetWallCount(p.Count)
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleFinishGame(c *Client, payload json.RawMessage) {
	var p FinishGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("INVALID_PAYLOAD", "Invalid finish game payload")
		return
	}
	room, ok := h.roomFor(c)
	if !ok {
		return
	}

	outcome := p.Outcome
	if outcome == "" {
		outcome = domain.OutcomeAbandoned
	}
	h.finishMatch(room, outcome, p.WinnerID)
}

// finishMatch closes out the room and persists the match summary.
func (h *Hub) finishMatch(room *session.Room, outcome string, winnerID *uuid.UUID) {
	if err := room.FinishGame(); err != nil {
		log.Printf("hub: finish game in %s: %v", room.Code(), err)
		return
	}

	snap := room.Snapshot()
	var recordID *uuid.UUID
	if h.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		record, err := h.history.RecordMatch(ctx, snap, outcome, winnerID)
		if err != nil {
			log.Printf("hub: record match for %s: %v", room.Code(), err)
		} else {
			recordID = &record.ID
		}
	}

	msg, err := NewMessage(MessageTypeGameFinished, GameFinishedPayload{
		Outcome:  outcome,
		WinnerID: winnerID,
		RecordID: recordID,
	})
	if err == nil {
		h.broadcastMessage(room.Code(), msg)
	}
	h.BroadcastRoom(room.Code())
}

func (h *Hub) handleSyncState(c *Client) {
	room, ok := h.roomFor(c)
	if !ok {
		return
	}
	msg, err := NewMessage(MessageTypeRoomState, RoomStatePayload{Room: room.Snapshot()})
	if err != nil {
		return
	}
	c.Send(msg)
}
