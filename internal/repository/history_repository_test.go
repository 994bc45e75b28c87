package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
	"convoeval/internal/model"
)

func setupHistoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.HistoryEntry{}))
	return db
}

func sampleResult() *domain.EvaluationResult {
	return &domain.EvaluationResult{
		Formality:            "Formal",
		Grammar:              "Correct",
		TechnicalCorrectness: "Accurate",
		SpeechDelivery: domain.SpeechDelivery{
			Clarity:       domain.NotApplicable,
			Confidence:    domain.NotApplicable,
			Pronunciation: domain.NotApplicable,
			Tone:          domain.NotApplicable,
			ToneFeedback:  domain.NotApplicable,
			Feedback:      domain.NotApplicable,
		},
		Feedback: domain.Feedback{
			FormalityExplanation: "Consistent register.",
			GrammarExplanation:   "No errors.",
			TechnicalExplanation: "Accurate.",
		},
		ScoreSummary: domain.ScoreSummary{
			FormalityScore: 8, GrammarScore: 9, TechnicalScore: 8,
			SpeechDeliveryScore: 0, OverallScore: 8.3,
		},
		FollowUpQuestions: []string{"Why?"},
	}
}

func TestHistoryAppendAndRehydrateAudio(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	clip := &audio.Clip{MIMEType: "audio/webm", Data: []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00}}

	entry, err := repo.Append("Explain X", sampleResult(), clip)
	require.NoError(t, err)
	assert.Len(t, entry.ID, 26, "ids are ULIDs")
	assert.NotEmpty(t, entry.AudioEncoded)

	entries, total, err := repo.List(1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, entries, 1)

	result, rehydrated, err := repo.Rehydrate(&entries[0])
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), result)
	require.NotNil(t, rehydrated)
	assert.Equal(t, clip.MIMEType, rehydrated.MIMEType)
	assert.Equal(t, clip.Data, rehydrated.Data, "stored audio must replay byte-identically")
}

func TestHistoryAppendAudioWithoutMIMETypeRehydrates(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	clip := &audio.Clip{MIMEType: "", Data: []byte{0x01, 0x02, 0x03}}

	entry, err := repo.Append("Explain X", sampleResult(), clip)
	require.NoError(t, err)
	require.NotEmpty(t, entry.AudioEncoded)

	_, rehydrated, err := repo.Rehydrate(entry)
	require.NoError(t, err)
	require.NotNil(t, rehydrated, "audio that was appended must rehydrate")
	assert.Equal(t, clip.Data, rehydrated.Data)
	assert.NotEmpty(t, rehydrated.MIMEType)
}

func TestHistoryAppendWithoutAudio(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))

	entry, err := repo.Append("Explain X", sampleResult(), nil)
	require.NoError(t, err)
	assert.Empty(t, entry.AudioEncoded)

	_, clip, err := repo.Rehydrate(entry)
	require.NoError(t, err)
	assert.Nil(t, clip, "a text-only entry rehydrates with no audio, not an error")
}

func TestHistoryListNewestFirst(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))

	first, err := repo.Append("first", sampleResult(), nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Append("second", sampleResult(), nil)
	require.NoError(t, err)

	entries, total, err := repo.List(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestHistoryListPaginates(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	for i := 0; i < 5; i++ {
		_, err := repo.Append("q", sampleResult(), nil)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, total, err := repo.List(2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)
}

func TestHistoryClear(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	_, err := repo.Append("q", sampleResult(), &audio.Clip{MIMEType: "audio/webm", Data: []byte{1}})
	require.NoError(t, err)

	require.NoError(t, repo.Clear())

	entries, total, err := repo.List(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, entries)
}

func TestHistoryFindByIDMissing(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	_, err := repo.FindByID("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
