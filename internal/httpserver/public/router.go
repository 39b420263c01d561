package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/echoverse/gateway/internal/app"
)

// Register wires up the studio API routes.
func Register(app *fiber.App, container *app.Container) {
	group := app.Group("/api")
	handler := &studioHandler{container: container}
	group.Post("/generate", handler.generate)
	group.Post("/tts", handler.synthesize)
	group.Post("/stt", handler.transcribe)
	group.Post("/translate", handler.translate)
	group.Get("/voices", handler.voices)
}
