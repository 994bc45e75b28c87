package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
	"convoeval/internal/model"
	"convoeval/internal/repository"
	"convoeval/internal/service"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Evaluate(ctx context.Context, payload domain.EvaluationPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) GenerateQuestion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// conformingResponse is a schema-complete model reply. The speech fields
// carry real values so sentinel tests can observe them being overwritten.
const conformingResponse = `{
  "formality": "Formal",
  "grammar": "Mostly Correct",
  "technical_correctness": "Accurate",
  "speech_delivery": {
    "clarity": "Clear",
    "confidence": "Confident",
    "pronunciation": "Good",
    "tone": "Professional",
    "tone_feedback": "Calm and steady.",
    "feedback": "Well paced."
  },
  "feedback": {
    "formality_explanation": "Consistent professional register.",
    "grammar_explanation": "One minor agreement slip.",
    "technical_explanation": "Definitions are accurate."
  },
  "score_summary": {
    "formality_score": 8,
    "grammar_score": 7,
    "technical_score": 9,
    "speech_delivery_score": 8,
    "overall_score": 8
  },
  "follow_up_questions": ["How would you scale it?"]
}`

func newTestUsecase(t *testing.T) (*EvaluationUsecase, *mockProvider, *repository.HistoryRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.HistoryEntry{}))

	provider := new(mockProvider)
	repo := repository.NewHistoryRepository(db)
	catalog := service.NewCatalog(service.DefaultQuestions)
	return NewEvaluationUsecase(repo, provider, catalog, zap.NewNop()), provider, repo
}

func TestSubmitTextOnlyForcesSentinel(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	// The model ignored the text-only instruction and scored speech anyway.
	provider.On("Evaluate", mock.Anything, mock.Anything).Return(conformingResponse, nil)

	got, err := uc.Submit(context.Background(), "Explain REST.", "Answer text.", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.NotApplicable, got.Evaluation.SpeechDelivery.Clarity)
	assert.Equal(t, domain.NotApplicable, got.Evaluation.SpeechDelivery.Feedback)
	assert.Equal(t, float64(0), got.Evaluation.ScoreSummary.SpeechDeliveryScore)
	assert.Equal(t, "Formal", got.Evaluation.Formality, "text criteria are untouched")
	assert.NotEmpty(t, got.HistoryID)
	provider.AssertExpectations(t)
}

func TestSubmitWithAudioKeepsSpeechScores(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	clip := &audio.Clip{MIMEType: "audio/webm", Data: []byte{0x1a, 0x45, 0xdf, 0xa3}}
	provider.On("Evaluate", mock.Anything, mock.MatchedBy(func(p domain.EvaluationPayload) bool {
		return p.Audio != nil && p.Audio.MIMEType == "audio/webm"
	})).Return(conformingResponse, nil)

	got, err := uc.Submit(context.Background(), "Explain REST.", "Answer text.", clip)
	require.NoError(t, err)
	assert.Equal(t, "Clear", got.Evaluation.SpeechDelivery.Clarity)
	assert.Equal(t, float64(8), got.Evaluation.ScoreSummary.SpeechDeliveryScore)

	replay, err := uc.HistoryAudio(got.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, clip.Data, replay.Data)
	assert.Equal(t, clip.MIMEType, replay.MIMEType)
}

func TestSubmitEmptyRejectedBeforeProviderCall(t *testing.T) {
	uc, provider, repo := newTestUsecase(t)

	_, err := uc.Submit(context.Background(), "Explain REST.", "   ", nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, domain.CodeOf(err))
	provider.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)

	_, total, err := repo.List(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestSubmitPropagatesProviderError(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).
		Return("", domain.NewInvalidCredentialsError("evaluation", nil))

	_, err := uc.Submit(context.Background(), "Explain REST.", "Answer.", nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrInvalidCredentials, domain.CodeOf(err))
}

func TestSubmitMalformedResponseNotPersisted(t *testing.T) {
	uc, provider, repo := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).
		Return("I cannot evaluate this answer.", nil)

	_, err := uc.Submit(context.Background(), "Explain REST.", "Answer.", nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrMalformedResponse, domain.CodeOf(err))

	_, total, err := repo.List(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "rejected responses never reach history")
}

func TestGenerateQuestionDeduplicates(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("GenerateQuestion", mock.Anything).Return("What is idempotency?", nil).Twice()

	q1, err := uc.GenerateQuestion(context.Background())
	require.NoError(t, err)
	q2, err := uc.GenerateQuestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, q1, q2)

	questions := uc.Questions()
	assert.Equal(t, "What is idempotency?", questions[0], "new questions go to the front")
	assert.Len(t, questions, len(service.DefaultQuestions)+1)
}

func TestHistoryPaginationAndOrdering(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).Return(conformingResponse, nil)

	var lastID string
	for i := 0; i < 3; i++ {
		got, err := uc.Submit(context.Background(), "Q", "A", nil)
		require.NoError(t, err)
		lastID = got.HistoryID
		time.Sleep(2 * time.Millisecond)
	}

	items, pagination, err := uc.History(1, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, lastID, items[0].ID, "newest entry comes first")
	assert.False(t, items[0].HasAudio)
	assert.Equal(t, int64(3), pagination.TotalItems)
	assert.Equal(t, int64(2), pagination.TotalPages)
	assert.True(t, pagination.HasMore)
}

func TestHistoryEmptyPageRange(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).Return(conformingResponse, nil)

	items, pagination, err := uc.History(1, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, pagination.From, "an empty page reports an empty range")
	assert.Equal(t, 0, pagination.To)

	_, err = uc.Submit(context.Background(), "Q", "A", nil)
	require.NoError(t, err)

	// A page past the end is empty too, regardless of total.
	items, pagination, err = uc.History(3, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, pagination.From)
	assert.Equal(t, 0, pagination.To)

	items, pagination, err = uc.History(1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, pagination.From)
	assert.Equal(t, 1, pagination.To)
}

func TestHistoryEntryNotFound(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	_, err := uc.HistoryEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, domain.CodeOf(err))
}

func TestHistoryAudioMissingForTextOnlyEntry(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).Return(conformingResponse, nil)

	got, err := uc.Submit(context.Background(), "Q", "A", nil)
	require.NoError(t, err)

	_, err = uc.HistoryAudio(got.HistoryID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, domain.CodeOf(err))
}

func TestClearHistory(t *testing.T) {
	uc, provider, _ := newTestUsecase(t)
	provider.On("Evaluate", mock.Anything, mock.Anything).Return(conformingResponse, nil)

	_, err := uc.Submit(context.Background(), "Q", "A", nil)
	require.NoError(t, err)
	require.NoError(t, uc.ClearHistory())

	items, pagination, err := uc.History(1, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(0), pagination.TotalItems)
}
