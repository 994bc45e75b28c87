package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"convoeval/internal/config"
	"convoeval/internal/domain"
)

// OpenRouterService is the alternate scoring backend, speaking the
// chat-completions dialect. Audio travels as a base64 input_audio content
// part; the rubric goes in the system message and JSON-only output is
// requested via response_format.
type OpenRouterService struct {
	client *resty.Client
	apiKey string
	model  string
	logger *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, logger *zap.Logger) (*OpenRouterService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(90 * time.Second)
	return &OpenRouterService{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (s *OpenRouterService) Evaluate(ctx context.Context, payload domain.EvaluationPayload) (string, error) {
	content := []map[string]any{
		{"type": "text", "text": payload.Text},
	}
	if payload.Audio != nil {
		content = append(content, map[string]any{
			"type": "input_audio",
			"input_audio": map[string]string{
				"data":   base64.StdEncoding.EncodeToString(payload.Audio.Data),
				"format": audioFormatFromMIME(payload.Audio.MIMEType),
			},
		})
	}

	body := map[string]any{
		"model": s.model,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": content},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	text, err := s.complete(ctx, opEvaluate, body)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *OpenRouterService) GenerateQuestion(ctx context.Context) (string, error) {
	body := map[string]any{
		"model": s.model,
		"messages": []map[string]any{
			{"role": "user", "content": questionPrompt},
		},
	}

	question, err := s.complete(ctx, opGenerateQuestion, body)
	if err != nil {
		return "", err
	}
	if question == "" {
		return "", domain.NewServiceError(opGenerateQuestion, fmt.Errorf("model returned an empty question"))
	}
	return question, nil
}

func (s *OpenRouterService) complete(ctx context.Context, operation string, body map[string]any) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", domain.NewNetworkFailureError(operation, err)
	}
	if err := classifyHTTPStatus(operation, resp.StatusCode(), resp.String()); err != nil {
		return "", err
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", domain.NewServiceError(operation, fmt.Errorf("no completion in provider response"))
	}
	s.logger.Debug("completion received",
		zap.String("operation", operation),
		zap.String("model", s.model))
	return strings.TrimSpace(text), nil
}

func classifyHTTPStatus(operation string, code int, body string) error {
	switch {
	case code < 400:
		return nil
	case code == 401 || code == 403:
		return domain.NewInvalidCredentialsError(operation, fmt.Errorf("status %d: %s", code, snippet(body)))
	case code == 429:
		return domain.NewRateLimitedError(operation, fmt.Errorf("status %d: %s", code, snippet(body)))
	default:
		return domain.NewServiceError(operation, fmt.Errorf("status %d: %s", code, snippet(body)))
	}
}

func snippet(body string) string {
	if len(body) > 200 {
		return body[:200]
	}
	return body
}

func audioFormatFromMIME(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/ogg":
		return "ogg"
	case "audio/webm":
		return "webm"
	default:
		format, _, _ := strings.Cut(strings.TrimPrefix(mime, "audio/"), ";")
		return format
	}
}
