package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
	"convoeval/internal/model"
	"convoeval/internal/util"
)

// HistoryRepository owns the append-only evaluation log. Ordering is
// newest-first by submission time for every read operation.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db}
}

// Append persists one evaluation, encoding the audio when present. The
// entry gets a ULID id (timestamp plus randomness) and the current time.
func (r *HistoryRepository) Append(question string, result *domain.EvaluationResult, clip *audio.Clip) (*model.HistoryEntry, error) {
	evaluation, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("serialize evaluation: %w", err)
	}

	entry := &model.HistoryEntry{
		ID:           util.NewULID(),
		Question:     question,
		Evaluation:   string(evaluation),
		AudioEncoded: audio.Encode(clip),
		SubmittedAt:  time.Now(),
	}
	if err := r.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns one page of entries, newest first, plus the total count.
func (r *HistoryRepository) List(page, pageSize int) ([]model.HistoryEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := r.db.Model(&model.HistoryEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.HistoryEntry
	err := r.db.
		Order("submitted_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	return entries, total, err
}

func (r *HistoryRepository) FindByID(id string) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := r.db.First(&entry, "id = ?", id).Error
	return &entry, err
}

// Clear empties the log. Irreversible.
func (r *HistoryRepository) Clear() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.HistoryEntry{}).Error
}

// Rehydrate reconstructs the result and, when the entry carried audio, a
// playable clip. A text-only entry yields a nil clip, not an error.
func (r *HistoryRepository) Rehydrate(entry *model.HistoryEntry) (*domain.EvaluationResult, *audio.Clip, error) {
	var result domain.EvaluationResult
	if err := json.Unmarshal([]byte(entry.Evaluation), &result); err != nil {
		return nil, nil, fmt.Errorf("deserialize evaluation %s: %w", entry.ID, err)
	}
	return &result, audio.Decode(entry.AudioEncoded), nil
}
