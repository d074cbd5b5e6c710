package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/report"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/encoder"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/pipeline"
	"github.com/gofiber/fiber/v2"
)

const formFileField = "file"

type IBriefController interface {
	RegisterRoutes(r fiber.Router)
	SaveCredential(ctx *fiber.Ctx) error
	ClearCredential(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	Transcribe(ctx *fiber.Ctx) error
}

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type resultResponse struct {
	Result         model.PipelineResult `json:"result"`
	Summary        *model.Summary       `json:"summary,omitempty"`
	TranscriptHTML string               `json:"transcriptHtml,omitempty"`
}

type briefController struct {
	service      service.Service
	summarizing  atomic.Bool
	transcribing atomic.Bool
	now          func() time.Time
}

func NewBriefController(svc service.Service) IBriefController {
	return &briefController{service: svc, now: time.Now}
}

func (c *briefController) RegisterRoutes(r fiber.Router) {
	r.Put("/credential", c.SaveCredential)
	r.Delete("/credential", c.ClearCredential)
	r.Post("/summarize", c.Summarize)
	r.Post("/transcribe", c.Transcribe)
}

func (c *briefController) SaveCredential(ctx *fiber.Ctx) error {
	var req credentialRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if err := c.service.SaveCredential(req.APIKey); err != nil {
		if errors.Is(err, pipeline.ErrEmptyCredential) {
			return fail(ctx, fiber.StatusBadRequest, "please enter an API key")
		}
		logging.NewLogger(ctx.UserContext()).Errorf("error: %v", err)
		return fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(successResponse("API key saved", nil))
}

func (c *briefController) ClearCredential(ctx *fiber.Ctx) error {
	if err := c.service.ClearCredential(); err != nil {
		logging.NewLogger(ctx.UserContext()).Errorf("error: %v", err)
		return fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(successResponse("API key removed", nil))
}

func (c *briefController) Summarize(ctx *fiber.Ctx) error {
	if !c.summarizing.CompareAndSwap(false, true) {
		return fail(ctx, fiber.StatusConflict, "a summary is already running")
	}
	defer c.summarizing.Store(false)

	file, err := readFormFile(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}

	result, err := c.service.Summarize(ctx.UserContext(), file)
	if err != nil {
		return c.runError(ctx, err)
	}
	if result.IsFailed() {
		return ctx.Status(fiber.StatusBadGateway).JSON(errorResponse(report.FailureMessage(result), resultResponse{Result: result}))
	}

	data := resultResponse{Result: result}
	if view, ok := result.SummaryView(); ok {
		data.Summary = &view
	}
	return ctx.JSON(successResponse("summary complete", data))
}

func (c *briefController) Transcribe(ctx *fiber.Ctx) error {
	if !c.transcribing.CompareAndSwap(false, true) {
		return fail(ctx, fiber.StatusConflict, "a transcription is already running")
	}
	defer c.transcribing.Store(false)

	file, err := readFormFile(ctx)
	if err != nil {
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	if !service.IsAudio(file) {
		return fail(ctx, fiber.StatusBadRequest, service.ErrNotAudio.Error())
	}

	result, err := c.service.Transcribe(ctx.UserContext(), file)
	if err != nil {
		return c.runError(ctx, err)
	}
	if result.IsFailed() {
		return ctx.Status(fiber.StatusBadGateway).JSON(errorResponse(report.FailureMessage(result), resultResponse{Result: result}))
	}

	text := report.Text(result)
	if ctx.QueryBool("download") {
		now := c.now()
		ctx.Attachment(report.FileName(now))
		ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return ctx.SendString(report.Transcript(file.Name, now, text))
	}

	return ctx.JSON(successResponse("transcription complete", resultResponse{
		Result:         result,
		TranscriptHTML: report.TranscriptHTML(text),
	}))
}

func (c *briefController) runError(ctx *fiber.Ctx, err error) error {
	var encodingErr *encoder.EncodingError
	switch {
	case errors.Is(err, pipeline.ErrEmptyCredential):
		return fail(ctx, fiber.StatusBadRequest, "please set the Gemini API key first")
	case errors.Is(err, service.ErrNotAudio):
		return fail(ctx, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &encodingErr):
		return fail(ctx, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fail(ctx, fiber.StatusRequestTimeout, err.Error())
	default:
		logging.NewLogger(ctx.UserContext()).Errorf("error: %v", err)
		return fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
}

func readFormFile(ctx *fiber.Ctx) (*model.SourceFile, error) {
	header, err := ctx.FormFile(formFileField)
	if err != nil {
		return nil, errors.New("a file is required")
	}
	content, err := readMultipartFile(header)
	if err != nil {
		return nil, err
	}

	mimeType := strings.TrimSpace(header.Header.Get(fiber.HeaderContentType))
	if mimeType == "" || strings.HasPrefix(mimeType, fiber.MIMEOctetStream) {
		mimeType = encoder.DetectMIMEType(header.Filename, content)
	}
	return &model.SourceFile{Name: header.Filename, MIMEType: mimeType, Content: content}, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
