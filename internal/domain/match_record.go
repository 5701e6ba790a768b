package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MatchRecord is the persisted summary of a finished match. The live room
// state itself is never persisted; a record is written once when a room
// reaches the finished phase.
type MatchRecord struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RoomCode    string         `json:"roomCode" gorm:"size:10;not null;index"`
	WinnerID    *uuid.UUID     `json:"winnerId" gorm:"type:uuid"`
	Rounds      int            `json:"rounds" gorm:"not null;default:0"`
	Turns       int            `json:"turns" gorm:"not null;default:0"`
	Outcome     string         `json:"outcome" gorm:"type:varchar(30);not null"`
	Players     datatypes.JSON `json:"players"`
	DiscardPile datatypes.JSON `json:"discardPile"`
	StartedAt   *time.Time     `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// TableName returns the table name for GORM
func (MatchRecord) TableName() string {
	return "match_records"
}

// Match outcomes stored on MatchRecord.
const (
	OutcomeMahjong   = "mahjong"
	OutcomeWallEmpty = "wall_empty"
	OutcomeAbandoned = "abandoned"
)

// MatchParticipant is the per-player summary serialized into
// MatchRecord.Players.
type MatchParticipant struct {
	PlayerID    uuid.UUID `json:"playerId"`
	DisplayName string    `json:"displayName"`
	Seat        Wind      `json:"seat"`
	TileCount   int       `json:"tileCount"`
	IsWinner    bool      `json:"isWinner"`
}
