package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"convoeval/internal/audio"
	"convoeval/internal/domain"
	"convoeval/internal/dto"
	"convoeval/internal/middleware"
	"convoeval/internal/usecase"
	"convoeval/internal/util"
)

// EvaluateHandler exposes the evaluation pipeline over HTTP. It is a pure
// consumer of the result data structure; everything interesting happens in
// the usecase.
type EvaluateHandler struct {
	uc *usecase.EvaluationUsecase
}

func NewEvaluateHandler(uc *usecase.EvaluationUsecase) *EvaluateHandler {
	return &EvaluateHandler{uc: uc}
}

func (h *EvaluateHandler) RegisterRoutes(app *fiber.App) {
	// One submission per 4s serializes in-flight evaluations.
	app.Post("/evaluate", middleware.RateLimiter(1, 4*time.Second), h.Evaluate)
	app.Post("/questions/generate", middleware.RateLimiter(1, 4*time.Second), h.GenerateQuestion)
	app.Get("/questions", h.Questions)
	app.Get("/history", h.History)
	app.Get("/history/:id", h.HistoryEntry)
	app.Get("/history/:id/audio", h.HistoryAudio)
	app.Delete("/history", h.ClearHistory)
}

// Evaluate accepts a multipart submission: question, text_answer and an
// optional audio file.
func (h *EvaluateHandler) Evaluate(c *fiber.Ctx) error {
	question := c.FormValue("question")
	if question == "" {
		return h.fail(c, "a question is required", domain.NewInvalidInputError("a question is required"))
	}
	textAnswer := c.FormValue("text_answer")

	clip, err := h.readAudio(c)
	if err != nil {
		return h.fail(c, "could not read the uploaded audio", err)
	}

	result, err := h.uc.Submit(c.Context(), question, textAnswer, clip)
	if err != nil {
		return h.fail(c, "failed to evaluate the answer", err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Answer evaluated",
		Data:    result,
	})
}

func (h *EvaluateHandler) GenerateQuestion(c *fiber.Ctx) error {
	question, err := h.uc.GenerateQuestion(c.Context())
	if err != nil {
		return h.fail(c, "failed to generate a question", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Question generated",
		Data:    dto.QuestionDTO{Question: question},
	})
}

func (h *EvaluateHandler) Questions(c *fiber.Ctx) error {
	questions := h.uc.Questions()
	items := make([]dto.QuestionDTO, 0, len(questions))
	for _, q := range questions {
		items = append(items, dto.QuestionDTO{Question: q})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Questions retrieved",
		Data:    items,
	})
}

func (h *EvaluateHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	items, pagination, err := h.uc.History(page, pageSize)
	if err != nil {
		return h.fail(c, "failed to load evaluation history", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "History retrieved",
		Data:       items,
		Pagination: pagination,
	})
}

func (h *EvaluateHandler) HistoryEntry(c *fiber.Ctx) error {
	entry, err := h.uc.HistoryEntry(c.Params("id"))
	if err != nil {
		return h.fail(c, "failed to load the history entry", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "History entry retrieved",
		Data:    entry,
	})
}

// HistoryAudio streams the rehydrated recording with its original MIME type.
func (h *EvaluateHandler) HistoryAudio(c *fiber.Ctx) error {
	clip, err := h.uc.HistoryAudio(c.Params("id"))
	if err != nil {
		return h.fail(c, "failed to load the recording", err)
	}
	c.Set(fiber.HeaderContentType, clip.MIMEType)
	return c.Send(clip.Data)
}

func (h *EvaluateHandler) ClearHistory(c *fiber.Ctx) error {
	if err := h.uc.ClearHistory(); err != nil {
		return h.fail(c, "failed to clear evaluation history", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "History cleared",
	})
}

func (h *EvaluateHandler) readAudio(c *fiber.Ctx) (*audio.Clip, error) {
	file, err := c.FormFile("audio")
	if err != nil {
		// fasthttp reports a missing part as a plain error; absence of
		// audio is a normal non-audio submission.
		return nil, nil
	}
	return clipFromUpload(file)
}

func clipFromUpload(file *multipart.FileHeader) (*audio.Clip, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	mime := file.Header.Get(fiber.HeaderContentType)
	if mime == "" {
		// Some clients omit the part's Content-Type; sniff so the stored
		// recording stays replayable.
		mime = audio.SniffMIME(data)
	}
	return &audio.Clip{
		MIMEType: mime,
		Data:     data,
	}, nil
}

// fail maps the error taxonomy onto HTTP statuses and the standard error
// envelope. The malformed-response and network kinds get different status
// text so the client can message "try again" vs "check your connection".
func (h *EvaluateHandler) fail(c *fiber.Ctx, fallback string, err error) error {
	status := fiber.StatusInternalServerError
	message := fallback

	var de *domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
		switch de.Code {
		case domain.ErrInvalidInput:
			status = fiber.StatusBadRequest
		case domain.ErrNotFound:
			status = fiber.StatusNotFound
		case domain.ErrInvalidCredentials:
			status = fiber.StatusUnauthorized
		case domain.ErrPermissionDenied:
			status = fiber.StatusForbidden
		case domain.ErrInvalidState:
			status = fiber.StatusConflict
		case domain.ErrRateLimited:
			status = fiber.StatusTooManyRequests
		case domain.ErrNetworkFailure, domain.ErrServiceError, domain.ErrMalformedResponse:
			status = fiber.StatusBadGateway
		}
	}

	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    status,
		Message: message,
	}, err)
}
