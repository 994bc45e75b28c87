package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
	"convoeval/internal/dto"
	"convoeval/internal/model"
	"convoeval/internal/repository"
	"convoeval/internal/response"
	"convoeval/internal/service"
)

// EvaluationUsecase orchestrates the pipeline: build the multimodal
// payload, score it, validate the structured response, enforce the
// text-only sentinel, and persist the result to history.
type EvaluationUsecase struct {
	historyRepo *repository.HistoryRepository
	provider    domain.EvaluationProvider
	catalog     *service.Catalog
	logger      *zap.Logger
}

func NewEvaluationUsecase(historyRepo *repository.HistoryRepository, provider domain.EvaluationProvider, catalog *service.Catalog, logger *zap.Logger) *EvaluationUsecase {
	return &EvaluationUsecase{
		historyRepo: historyRepo,
		provider:    provider,
		catalog:     catalog,
		logger:      logger,
	}
}

// Submit evaluates one answer. The submission must carry text, audio, or
// both; the invariant is checked before any network activity.
func (uc *EvaluationUsecase) Submit(ctx context.Context, question, textAnswer string, clip *audio.Clip) (*dto.EvaluationDTO, error) {
	payload, err := service.BuildPayload(question, textAnswer, clip)
	if err != nil {
		return nil, err
	}
	if payload.Audio == nil {
		clip = nil
	}

	raw, err := uc.provider.Evaluate(ctx, payload)
	if err != nil {
		uc.logger.Warn("evaluation failed",
			zap.String("question", question),
			zap.Error(err))
		return nil, err
	}

	result, err := service.ValidateEvaluation(raw)
	if err != nil {
		uc.logger.Warn("evaluation response failed validation",
			zap.String("question", question),
			zap.Int("response_len", len(raw)),
			zap.Error(err))
		return nil, err
	}

	if payload.Audio == nil {
		domain.ApplyTextOnlySentinel(result)
	}

	entry, err := uc.historyRepo.Append(question, result, clip)
	if err != nil {
		return nil, fmt.Errorf("persist evaluation history: %w", err)
	}

	uc.logger.Info("evaluation stored",
		zap.String("history_id", entry.ID),
		zap.Bool("has_audio", clip != nil),
		zap.Float64("overall_score", result.ScoreSummary.OverallScore))

	return &dto.EvaluationDTO{
		HistoryID:   entry.ID,
		Question:    question,
		Evaluation:  result,
		SubmittedAt: entry.SubmittedAt,
	}, nil
}

// GenerateQuestion fetches one novel question from the provider and adds
// it to the catalog, deduplicated by exact text.
func (uc *EvaluationUsecase) GenerateQuestion(ctx context.Context) (string, error) {
	question, err := uc.provider.GenerateQuestion(ctx)
	if err != nil {
		uc.logger.Warn("question generation failed", zap.Error(err))
		return "", err
	}
	if uc.catalog.Add(question) {
		uc.logger.Info("question added to catalog", zap.String("question", question))
	}
	return question, nil
}

// Questions lists the catalog, newest first.
func (uc *EvaluationUsecase) Questions() []string {
	return uc.catalog.List()
}

// History returns one page of past evaluations, newest first.
func (uc *EvaluationUsecase) History(page, pageSize int) ([]dto.HistoryEntryDTO, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	entries, total, err := uc.historyRepo.List(page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	items := make([]dto.HistoryEntryDTO, 0, len(entries))
	for i := range entries {
		item, err := uc.toHistoryDTO(&entries[i])
		if err != nil {
			return nil, nil, err
		}
		items = append(items, *item)
	}

	totalPages := int64(math.Ceil(float64(total) / float64(pageSize)))
	from, to := (page-1)*pageSize+1, (page-1)*pageSize+len(items)
	if len(items) == 0 {
		// An empty page has no range to report.
		from, to = 0, 0
	}
	pagination := &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
		From:       from,
		To:         to,
	}
	return items, pagination, nil
}

// HistoryEntry returns one rehydrated entry.
func (uc *EvaluationUsecase) HistoryEntry(id string) (*dto.HistoryEntryDTO, error) {
	entry, err := uc.historyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("history entry %s not found", id))
		}
		return nil, err
	}
	return uc.toHistoryDTO(entry)
}

// HistoryAudio rehydrates the audio of one entry for replay. Entries
// without audio yield NOT_FOUND.
func (uc *EvaluationUsecase) HistoryAudio(id string) (*audio.Clip, error) {
	entry, err := uc.historyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("history entry %s not found", id))
		}
		return nil, err
	}
	_, clip, err := uc.historyRepo.Rehydrate(entry)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("history entry %s has no audio", id))
	}
	return clip, nil
}

// ClearHistory empties the log. Irreversible.
func (uc *EvaluationUsecase) ClearHistory() error {
	if err := uc.historyRepo.Clear(); err != nil {
		return err
	}
	uc.logger.Info("evaluation history cleared")
	return nil
}

func (uc *EvaluationUsecase) toHistoryDTO(entry *model.HistoryEntry) (*dto.HistoryEntryDTO, error) {
	result, clip, err := uc.historyRepo.Rehydrate(entry)
	if err != nil {
		return nil, err
	}
	return &dto.HistoryEntryDTO{
		ID:           entry.ID,
		Question:     entry.Question,
		Evaluation:   result,
		OverallScore: result.ScoreSummary.OverallScore,
		HasAudio:     clip != nil,
		SubmittedAt:  entry.SubmittedAt,
	}, nil
}
