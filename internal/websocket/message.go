package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeJoinRoom             MessageType = "JOIN_ROOM"
	MessageTypeLeaveRoom            MessageType = "LEAVE_ROOM"
	MessageTypeToggleReady          MessageType = "TOGGLE_READY"
	MessageTypeStartGame            MessageType = "START_GAME"
	MessageTypeUpdatePlayerStatus   MessageType = "UPDATE_PLAYER_STATUS"
	MessageTypeUpdateTiles          MessageType = "UPDATE_TILES"
	MessageTypeCharlestonConfirm    MessageType = "CHARLESTON_CONFIRM"
	MessageTypeCharlestonDistribute MessageType = "CHARLESTON_DISTRIBUTE"
	MessageTypeCharlestonAdvance    MessageType = "CHARLESTON_ADVANCE"
	MessageTypeCharlestonSkip       MessageType = "CHARLESTON_SKIP"
	MessageTypeAdvanceToPlaying     MessageType = "ADVANCE_TO_PLAYING"
	MessageTypeGameAction           MessageType = "GAME_ACTION"
	MessageTypeAdvanceTurn          MessageType = "ADVANCE_TURN"
	MessageTypeOpenCall             MessageType = "OPEN_CALL"
	MessageTypeRespondCall          MessageType = "RESPOND_CALL"
	MessageTypeRecordDiscard        MessageType = "RECORD_DISCARD"
	MessageTypeSetWall              MessageType = "SET_WALL"
	MessageTypeFinishGame           MessageType = "FINISH_GAME"
	MessageTypeSyncState            MessageType = "SYNC_STATE"

	// Server to Client
	MessageTypeRoomState       MessageType = "ROOM_STATE"
	MessageTypeRoomClosed      MessageType = "ROOM_CLOSED"
	MessageTypeCharlestonReady MessageType = "CHARLESTON_READY"
	MessageTypeTilesReceived   MessageType = "TILES_RECEIVED"
	MessageTypeCallOpened      MessageType = "CALL_OPENED"
	MessageTypeCallClosed      MessageType = "CALL_CLOSED"
	MessageTypeGameFinished    MessageType = "GAME_FINISHED"
	MessageTypeError           MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type JoinRoomPayload struct {
	Code string `json:"code"`
}

type UpdatePlayerStatusPayload struct {
	PlayerID      uuid.UUID `json:"playerId"`
	Participating *bool     `json:"participating"`
	TilesInputted *bool     `json:"tilesInputted"`
}

type UpdateTilesPayload struct {
	TileCount int           `json:"tileCount"`
	Tiles     []domain.Tile `json:"tiles"`
}

type CharlestonConfirmPayload struct {
	Phase domain.CharlestonPhase `json:"phase"`
	Tiles []domain.Tile          `json:"tiles"`
}

type CharlestonPhasePayload struct {
	Phase domain.CharlestonPhase `json:"phase"`
}

type GameActionPayload struct {
	Action domain.TurnAction `json:"action"`
	Tile   *domain.Tile      `json:"tile"`
	Tiles  []domain.Tile     `json:"tiles"`
}

type OpenCallPayload struct {
	Tile       domain.Tile `json:"tile"`
	DurationMs int         `json:"durationMs"`
}

type RespondCallPayload struct {
	Result   string        `json:"result"` // "call" or "pass"
	CallType string        `json:"callType"`
	Tiles    []domain.Tile `json:"tiles"`
}

type RecordDiscardPayload struct {
	Tile domain.Tile `json:"tile"`
}

type SetWallPayload struct {
	Count int `json:"count"`
}

type FinishGamePayload struct {
	Outcome  string     `json:"outcome"`
	WinnerID *uuid.UUID `json:"winnerId"`
}

// Server to Client payloads

type RoomStatePayload struct {
	Room *domain.RoomSnapshot `json:"room"`
}

type RoomClosedPayload struct {
	Code string `json:"code"`
}

type CharlestonReadyPayload struct {
	Phase        domain.CharlestonPhase `json:"phase"`
	ReadyPlayers []uuid.UUID            `json:"readyPlayers"`
	AllReady     bool                   `json:"allReady"`
}

// TilesReceivedPayload is sent privately to the receiving player only. Other
// players learn nothing beyond the public tile counts in the room snapshot.
type TilesReceivedPayload struct {
	Phase domain.CharlestonPhase `json:"phase"`
	From  uuid.UUID              `json:"from"`
	Tiles []domain.Tile          `json:"tiles"`
}

type CallOpenedPayload struct {
	Tile     domain.Tile `json:"tile"`
	Deadline int64       `json:"deadline"`
}

type CallClosedPayload struct {
	Tile     domain.Tile `json:"tile"`
	CallType string      `json:"callType,omitempty"`
	Claimed  bool        `json:"claimed"`
}

type GameFinishedPayload struct {
	Outcome  string     `json:"outcome"`
	WinnerID *uuid.UUID `json:"winnerId"`
	RecordID *uuid.UUID `json:"recordId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
