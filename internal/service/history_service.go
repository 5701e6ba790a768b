package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/repository"
)

// HistoryService writes finished matches to storage and serves them back.
// Live room state stays in memory; only the end-of-match summary persists.
type HistoryService struct {
	matchRepo repository.MatchRecordRepository
}

func NewHistoryService(matchRepo repository.MatchRecordRepository) *HistoryService {
	return &HistoryService{matchRepo: matchRepo}
}

// RecordMatch builds a MatchRecord from the final room snapshot. The winner
// is nil for wall-empty and abandoned outcomes.
func (s *HistoryService) RecordMatch(ctx context.Context, snap *domain.RoomSnapshot, outcome string, winnerID *uuid.UUID) (*domain.MatchRecord, error) {
	participants := make([]domain.MatchParticipant, 0, len(snap.Players))
	var seats map[uuid.UUID]domain.Wind
	if snap.Turns != nil {
		seats = snap.Turns.Seats
	}
	for _, p := range snap.Players {
		if !p.Participating {
			continue
		}
		participants = append(participants, domain.MatchParticipant{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Seat:        seats[p.ID],
			TileCount:   p.TileCount,
			IsWinner:    winnerID != nil && *winnerID == p.ID,
		})
	}

	playersJSON, err := json.Marshal(participants)
	if err != nil {
		return nil, err
	}

	record := &domain.MatchRecord{
		ID:         uuid.New(),
		RoomCode:   snap.Code,
		WinnerID:   winnerID,
		Outcome:    outcome,
		Players:    playersJSON,
		StartedAt:  snap.Game.StartedAt,
		FinishedAt: time.Now(),
		CreatedAt:  time.Now(),
	}

	if snap.Turns != nil {
		record.Rounds = snap.Turns.Round
		record.Turns = snap.Turns.Turn
		discardJSON, err := json.Marshal(snap.Turns.DiscardPile)
		if err != nil {
			return nil, err
		}
		record.DiscardPile = discardJSON
	}

	if err := s.matchRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *HistoryService) GetMatch(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error) {
	return s.matchRepo.GetByID(ctx, id)
}

func (s *HistoryService) GetRoomHistory(ctx context.Context, roomCode string) ([]*domain.MatchRecord, error) {
	return s.matchRepo.GetByRoomCode(ctx, roomCode)
}

func (s *HistoryService) GetPlayerHistory(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]*domain.MatchRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.matchRepo.GetByPlayerID(ctx, playerID, limit, offset)
}
