package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"convoeval/internal/config"
	"convoeval/internal/domain"
)

const (
	opEvaluate         = "evaluation"
	opGenerateQuestion = "question generation"
)

// GeminiService scores answers and generates questions against the Gemini
// API. The client handle is built once at construction and reused; no
// retries happen here because a rate limit needs caller-controlled backoff
// and a malformed response is pointless to replay.
type GeminiService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiService fails immediately when the API key is absent so that a
// missing credential never shows up later as a confusing request error.
func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{
		client:  client,
		model:   cfg.Model,
		timeout: 90 * time.Second,
		logger:  logger,
	}, nil
}

// Evaluate sends the multimodal payload with the fixed rubric and the
// structured-output schema and returns the raw JSON text for validation.
func (s *GeminiService) Evaluate(ctx context.Context, payload domain.EvaluationPayload) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(payload.Text)}
	if payload.Audio != nil {
		parts = append(parts, genai.NewPartFromBytes(payload.Audio.Data, payload.Audio.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema,
		Temperature:       genai.Ptr(float32(0.1)),
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.Models.GenerateContent(timeoutCtx, s.model, contents, genConfig)
	if err != nil {
		return "", classifyGeminiError(opEvaluate, err)
	}
	if err := validateGenerateResponse(result); err != nil {
		return "", domain.NewServiceError(opEvaluate, err)
	}

	text := strings.TrimSpace(result.Text())
	s.logger.Debug("evaluation response received",
		zap.String("model", s.model),
		zap.Int("response_len", len(text)))
	return text, nil
}

// GenerateQuestion asks for one novel interview-style question and returns
// the trimmed text verbatim.
func (s *GeminiService) GenerateQuestion(ctx context.Context) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.Models.GenerateContent(timeoutCtx, s.model, genai.Text(questionPrompt), nil)
	if err != nil {
		return "", classifyGeminiError(opGenerateQuestion, err)
	}
	if err := validateGenerateResponse(result); err != nil {
		return "", domain.NewServiceError(opGenerateQuestion, err)
	}

	question := strings.TrimSpace(result.Text())
	if question == "" {
		return "", domain.NewServiceError(opGenerateQuestion, fmt.Errorf("model returned an empty question"))
	}
	return question, nil
}

// classifyGeminiError maps SDK failures into the closed taxonomy. Gemini
// reports a bad API key as 400 INVALID_ARGUMENT, so the message is checked
// too, not just the status code.
func classifyGeminiError(operation string, err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return domain.NewInvalidCredentialsError(operation, err)
		case 429:
			return domain.NewRateLimitedError(operation, err)
		case 400:
			if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
				return domain.NewInvalidCredentialsError(operation, err)
			}
		}
		return domain.NewServiceError(operation, err)
	}
	if isNetworkError(err) {
		return domain.NewNetworkFailureError(operation, err)
	}
	return domain.NewServiceError(operation, err)
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}
