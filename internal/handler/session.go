package handler

import (
	"strings"

	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/dto"
	"vowel-quiz/internal/middleware"
	"vowel-quiz/internal/service"
	"vowel-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler serves the quiz session endpoints.
type SessionHandler struct {
	sessions  service.SessionService
	choices   []string
	validator *validation.Validator
}

// NewSessionHandler creates a SessionHandler. choices is the display order
// returned by GET /api/choices.
func NewSessionHandler(sessions service.SessionService, choices []string) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		choices:   choices,
		validator: validation.NewValidator(),
	}
}

func sessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.LocalSessionID).(string); ok {
		return id
	}
	return c.Params("id")
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	view, err := h.sessions.Create(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	view, err := h.sessions.Get(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// SubmitAnswer handles POST /api/sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	req.Label = strings.TrimSpace(req.Label)
	if errs := h.validator.ValidateAnswerRequest(req.Label); len(errs) > 0 {
		return errs
	}

	resp, err := h.sessions.Answer(c.UserContext(), sessionID(c), req.Label)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// PlayVowel handles POST /api/sessions/:id/play. Playback is resolved in the
// background; poll the session for now_playing.
func (h *SessionHandler) PlayVowel(c *fiber.Ctx) error {
	view, err := h.sessions.PlayVowel(c.UserContext(), sessionID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(view)
}

// PlayWord handles POST /api/sessions/:id/words/:word/play
func (h *SessionHandler) PlayWord(c *fiber.Ctx) error {
	word, _ := c.Locals(middleware.LocalWord).(string)
	if word == "" {
		word = c.Params("word")
	}
	view, err := h.sessions.PlayWord(c.UserContext(), sessionID(c), word)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(view)
}

// CloseSession handles DELETE /api/sessions/:id
func (h *SessionHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.sessions.Close(c.UserContext(), sessionID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetChoices handles GET /api/choices
func (h *SessionHandler) GetChoices(c *fiber.Ctx) error {
	out := make([]string, len(h.choices))
	copy(out, h.choices)
	return c.JSON(dto.ChoicesResponse{Choices: out})
}
