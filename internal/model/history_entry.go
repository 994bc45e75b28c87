package model

import "time"

// HistoryEntry is one persisted evaluation. Entries are created on
// successful evaluation, never mutated, and removed only by a full clear.
// Evaluation holds the result serialized as JSON; AudioEncoded holds the
// data-URL encoding of the submitted audio, empty when the submission was
// text-only.
type HistoryEntry struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"`
	Question     string    `gorm:"type:text" json:"question"`
	Evaluation   string    `gorm:"type:text" json:"evaluation"`
	AudioEncoded string    `gorm:"type:text" json:"audio_encoded,omitempty"`
	SubmittedAt  time.Time `gorm:"index" json:"submitted_at"`
}

func (e *HistoryEntry) TableName() string {
	return "history_entries"
}
