package handler

import (
	"vowel-quiz/internal/middleware"
	"vowel-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SoundHandler streams vowel and word audio.
type SoundHandler struct {
	sessions service.SessionService
	sounds   service.SoundService
}

// NewSoundHandler creates a SoundHandler.
func NewSoundHandler(sessions service.SessionService, sounds service.SoundService) *SoundHandler {
	return &SoundHandler{sessions: sessions, sounds: sounds}
}

// SessionSound handles GET /api/sessions/:id/sound, the current question's
// vowel audio.
func (h *SoundHandler) SessionSound(c *fiber.Ctx) error {
	key, err := h.sessions.CurrentQuestionKey(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	snd, err := h.sounds.VowelSound(c.UserContext(), key)
	if err != nil {
		return err
	}
	return send(c, snd)
}

// WordSound handles GET /api/words/:word/sound
func (h *SoundHandler) WordSound(c *fiber.Ctx) error {
	word, _ := c.Locals(middleware.LocalWord).(string)
	if word == "" {
		word = c.Params("word")
	}
	snd, err := h.sounds.WordSound(c.UserContext(), word)
	if err != nil {
		return err
	}
	return send(c, snd)
}

func send(c *fiber.Ctx, snd *service.Sound) error {
	c.Set(fiber.HeaderContentType, snd.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	// fiber closes the stream once the response is written.
	return c.SendStream(snd.Body)
}
