package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"convoeval/internal/domain"
)

// requiredFields is the structural contract of the response schema. Enum
// values are not checked here: the scoring model is the authority on
// content, this layer only guards shape.
var requiredFields = []string{
	"formality",
	"grammar",
	"technical_correctness",
	"speech_delivery.clarity",
	"speech_delivery.confidence",
	"speech_delivery.pronunciation",
	"speech_delivery.tone",
	"speech_delivery.tone_feedback",
	"speech_delivery.feedback",
	"feedback.formality_explanation",
	"feedback.grammar_explanation",
	"feedback.technical_explanation",
	"score_summary.formality_score",
	"score_summary.grammar_score",
	"score_summary.technical_score",
	"score_summary.speech_delivery_score",
	"score_summary.overall_score",
}

// ValidateEvaluation parses the model's raw text and structurally validates
// it against the evaluation schema. Every failure here is MALFORMED_RESPONSE,
// kept distinct from the transport kinds so the user is told "try again"
// instead of "check your connection".
func ValidateEvaluation(raw string) (*domain.EvaluationResult, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, domain.NewMalformedResponseError("the model returned an empty response, please try again", nil)
	}
	if !gjson.Valid(text) {
		return nil, domain.NewMalformedResponseError("the model returned malformed output (not valid JSON), please try again", nil)
	}
	for _, field := range requiredFields {
		if !gjson.Get(text, field).Exists() {
			return nil, domain.NewMalformedResponseError(
				fmt.Sprintf("the model response is missing the required field %q, please try again", field), nil)
		}
	}

	var result domain.EvaluationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, domain.NewMalformedResponseError("the model response does not match the expected schema, please try again", err)
	}
	return &result, nil
}

// stripCodeFence removes a markdown fence some models wrap around JSON
// despite the JSON-only instruction.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
