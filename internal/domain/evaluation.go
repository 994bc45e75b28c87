package domain

import "context"

// NotApplicable is the sentinel the rubric mandates for speech-delivery
// fields of a text-only submission. Consumers check it before rendering
// any speech metrics.
const NotApplicable = "N/A"

// SpeechDelivery holds the vocal metrics of an evaluation. Every field is
// NotApplicable when the submission carried no audio.
type SpeechDelivery struct {
	Clarity       string `json:"clarity"`
	Confidence    string `json:"confidence"`
	Pronunciation string `json:"pronunciation"`
	Tone          string `json:"tone"`
	ToneFeedback  string `json:"tone_feedback"`
	Feedback      string `json:"feedback"`
}

// Feedback carries the per-axis explanations.
type Feedback struct {
	FormalityExplanation string `json:"formality_explanation"`
	GrammarExplanation   string `json:"grammar_explanation"`
	TechnicalExplanation string `json:"technical_explanation"`
}

// ScoreSummary carries the five 0-10 scores.
type ScoreSummary struct {
	FormalityScore      float64 `json:"formality_score"`
	GrammarScore        float64 `json:"grammar_score"`
	TechnicalScore      float64 `json:"technical_score"`
	SpeechDeliveryScore float64 `json:"speech_delivery_score"`
	OverallScore        float64 `json:"overall_score"`
}

// EvaluationResult is the structured judgment returned by the scoring
// model. Immutable once produced; the JSON tags are the wire schema the
// provider is required to emit.
type EvaluationResult struct {
	Formality            string         `json:"formality"`
	Grammar              string         `json:"grammar"`
	TechnicalCorrectness string         `json:"technical_correctness"`
	SpeechDelivery       SpeechDelivery `json:"speech_delivery"`
	Feedback             Feedback       `json:"feedback"`
	ScoreSummary         ScoreSummary   `json:"score_summary"`
	FollowUpQuestions    []string       `json:"follow_up_questions,omitempty"`
}

// HasSpeechDelivery reports whether the result carries real vocal metrics,
// i.e. the submission included audio.
func (r *EvaluationResult) HasSpeechDelivery() bool {
	return r.SpeechDelivery.Clarity != NotApplicable
}

// ApplyTextOnlySentinel forces the speech-delivery sentinel on a result:
// every vocal field becomes NotApplicable and the speech score becomes 0.
// The rubric asks the model to do this for text-only submissions, but
// enforcement is local rather than trust-based.
func ApplyTextOnlySentinel(r *EvaluationResult) {
	r.SpeechDelivery = SpeechDelivery{
		Clarity:       NotApplicable,
		Confidence:    NotApplicable,
		Pronunciation: NotApplicable,
		Tone:          NotApplicable,
		ToneFeedback:  NotApplicable,
		Feedback:      NotApplicable,
	}
	r.ScoreSummary.SpeechDeliveryScore = 0
}

// AudioSegment is the binary half of a multimodal payload.
type AudioSegment struct {
	MIMEType string
	Data     []byte
}

// EvaluationPayload is the provider-agnostic request: one text segment and
// an optional audio segment.
type EvaluationPayload struct {
	Text  string
	Audio *AudioSegment
}

// EvaluationProvider is the port every scoring backend implements.
// Evaluate returns the raw JSON text for the validator; GenerateQuestion
// returns trimmed plain text. Neither retries: retry policy belongs to
// the caller.
type EvaluationProvider interface {
	Evaluate(ctx context.Context, payload EvaluationPayload) (string, error)
	GenerateQuestion(ctx context.Context) (string, error)
}
