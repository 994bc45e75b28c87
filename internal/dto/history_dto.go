package dto

import (
	"time"

	"convoeval/internal/domain"
)

// EvaluationDTO is returned by POST /evaluate: the structured result plus
// the id of the history entry it was stored under.
type EvaluationDTO struct {
	HistoryID   string                   `json:"history_id"`
	Question    string                   `json:"question"`
	Evaluation  *domain.EvaluationResult `json:"evaluation"`
	SubmittedAt time.Time                `json:"submitted_at"`
}

// HistoryEntryDTO is one replayable history entry. OverallScore is lifted
// out of the evaluation so list views need not parse the full result.
type HistoryEntryDTO struct {
	ID           string                   `json:"id"`
	Question     string                   `json:"question"`
	Evaluation   *domain.EvaluationResult `json:"evaluation"`
	OverallScore float64                  `json:"overall_score"`
	HasAudio     bool                     `json:"has_audio"`
	SubmittedAt  time.Time                `json:"submitted_at"`
}

// QuestionDTO is one catalog question.
type QuestionDTO struct {
	Question string `json:"question"`
}
