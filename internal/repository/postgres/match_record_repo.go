package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"gorm.io/gorm"
)

type matchRecordRepository struct {
	db *gorm.DB
}

func NewMatchRecordRepository(db *gorm.DB) *matchRecordRepository {
	return &matchRecordRepository{db: db}
}

func (r *matchRecordRepository) Create(ctx context.Context, record *domain.MatchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *matchRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error) {
	var record domain.MatchRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *matchRecordRepository) GetByRoomCode(ctx context.Context, roomCode string) ([]*domain.MatchRecord, error) {
	var records []*domain.MatchRecord
	err := r.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("finished_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *matchRecordRepository) GetByPlayerID(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]*domain.MatchRecord, error) {
	// Players is a jsonb array of participant summaries; match on containment.
	needle, err := json.Marshal([]map[string]string{{"playerId": playerID.String()}})
	if err != nil {
		return nil, err
	}

	var records []*domain.MatchRecord
	err = r.db.WithContext(ctx).
		Where("players @> ?", string(needle)).
		Order("finished_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
