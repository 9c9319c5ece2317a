package handler

import (
	"context"
	"strconv"

	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/speech"
	"vowel-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Speaker synthesizes text to audio.
type Speaker interface {
	Speak(ctx context.Context, text string, opts ...speech.Option) ([]byte, error)
}

// SpeechHandler serves synthesized speech.
type SpeechHandler struct {
	speaker     Speaker
	contentType string
	validator   *validation.Validator
}

// NewSpeechHandler creates a SpeechHandler. A nil speaker answers every
// request with SPEECH_UNAVAILABLE.
func NewSpeechHandler(speaker Speaker, contentType string) *SpeechHandler {
	return &SpeechHandler{speaker: speaker, contentType: contentType, validator: validation.NewValidator()}
}

var intParams = []struct {
	name  string
	min   int
	max   int
	apply func(int) speech.Option
}{
	{"amplitude", 0, 200, speech.WithAmplitude},
	{"speed", 80, 450, speech.WithSpeed},
	{"pitch", 0, 99, speech.WithPitch},
}

// Speak handles GET /api/speech?text=...&amplitude=&speed=&pitch=&variant=
func (h *SpeechHandler) Speak(c *fiber.Ctx) error {
	text := c.Query("text")
	errs := h.validator.ValidateSpeechText(text)

	var opts []speech.Option
	for _, p := range intParams {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, domain.NewInvalidFormatError(p.name, raw))
			continue
		}
		if n < p.min || n > p.max {
			errs = append(errs, domain.NewOutOfRangeError(p.name, n, p.min, p.max))
			continue
		}
		opts = append(opts, p.apply(n))
	}
	if v := c.Query("variant"); v != "" {
		opts = append(opts, speech.WithVariant(v))
	}
	if len(errs) > 0 {
		return errs
	}

	if h.speaker == nil {
		return domain.NewSpeechUnavailableError(nil)
	}
	audio, err := h.speaker.Speak(c.UserContext(), text, opts...)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, h.contentType)
	return c.Send(audio)
}
