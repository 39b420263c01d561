package public

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/echoverse/gateway/internal/app"
	"github.com/echoverse/gateway/internal/httpserver/httputil"
	"github.com/echoverse/gateway/internal/models"
)

type studioHandler struct {
	container *app.Container
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Task   string `json:"task"`
	Tone   string `json:"tone"`
}

func (h *studioHandler) generate(c *fiber.Ctx) error {
	var payload generateRequest
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(payload.Prompt) == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "prompt is required")
	}

	result, err := h.container.Studio.Generate(c.UserContext(), models.GenerationRequest{
		Prompt: payload.Prompt,
		Task:   payload.Task,
		Tone:   payload.Tone,
	})
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"text": result.Text})
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

func (h *studioHandler) synthesize(c *fiber.Ctx) error {
	var payload synthesizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(payload.Text) == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "text is required")
	}

	result, err := h.container.Studio.Synthesize(c.UserContext(), models.SpeechRequest{
		Text:   payload.Text,
		Voice:  strings.TrimSpace(payload.Voice),
		Format: strings.TrimSpace(payload.Format),
	})
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, result.MimeType)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(result.Audio)))
	c.Set(fiber.HeaderContentDisposition, `inline; filename="speech.`+audioFileExt(result.MimeType)+`"`)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(result.Audio)
}

func (h *studioHandler) transcribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "audio file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "failed to open file")
	}
	defer src.Close()

	result, err := h.container.Studio.Transcribe(c.UserContext(), src, fh.Header.Get("Content-Type"), fh.Filename)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"transcript": result.Transcript})
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

func (h *studioHandler) translate(c *fiber.Ctx) error {
	var payload translateRequest
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(payload.Text) == "" || strings.TrimSpace(payload.Source) == "" || strings.TrimSpace(payload.Target) == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "text, source, and target are required")
	}

	result, err := h.container.Studio.Translate(c.UserContext(), models.TranslationRequest{
		Text:   payload.Text,
		Source: strings.TrimSpace(payload.Source),
		Target: strings.TrimSpace(payload.Target),
	})
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"translation": result.Translation})
}

func (h *studioHandler) voices(c *fiber.Ctx) error {
	voices, err := h.container.Studio.Voices(c.UserContext())
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"voices": voices})
}

func audioFileExt(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/mp3", "audio/mpeg":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/ogg", "audio/ogg;codecs=opus":
		return "ogg"
	case "audio/flac":
		return "flac"
	case "audio/webm", "audio/webm;codecs=opus":
		return "webm"
	default:
		return "audio"
	}
}
