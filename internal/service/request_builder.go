package service

import (
	"fmt"
	"strings"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
)

// noTextAnswer is substituted into the text segment when the user only
// answered by voice, so the rubric still sees an explicit marker.
const noTextAnswer = "(No text answer provided)"

// BuildPayload assembles the provider-agnostic multimodal payload for one
// submission: a single text segment with the question and answer, plus an
// optional audio segment. It fails with INVALID_INPUT before any network
// activity when the submission carries neither text nor audio.
func BuildPayload(question, textAnswer string, clip *audio.Clip) (domain.EvaluationPayload, error) {
	hasText := strings.TrimSpace(textAnswer) != ""
	hasAudio := clip != nil && len(clip.Data) > 0

	if !hasText && !hasAudio {
		return domain.EvaluationPayload{}, domain.NewInvalidInputError("please provide an answer either by text or voice")
	}

	answer := textAnswer
	if !hasText {
		answer = noTextAnswer
	}

	payload := domain.EvaluationPayload{
		Text: fmt.Sprintf("Question: %s\nUser's Text Answer: %s", question, answer),
	}
	if hasAudio {
		payload.Audio = &domain.AudioSegment{
			MIMEType: clip.MIMEType,
			Data:     clip.Data,
		}
	}
	return payload, nil
}
