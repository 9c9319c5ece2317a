package middleware

import (
	"vowel-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the validation middleware.
const (
	LocalSessionID = "validated_session_id"
	LocalWord      = "validated_word"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateSessionID checks the :id path parameter.
func (vm *ValidationMiddleware) ValidateSessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errs := vm.validator.ValidateSessionID(id); len(errs) > 0 {
			return errs
		}
		c.Locals(LocalSessionID, id)
		return c.Next()
	}
}

// ValidateWord checks the :word path parameter.
func (vm *ValidationMiddleware) ValidateWord() fiber.Handler {
	return func(c *fiber.Ctx) error {
		word := c.Params("word")
		if errs := vm.validator.ValidateWord(word); len(errs) > 0 {
			return errs
		}
		c.Locals(LocalWord, word)
		return c.Next()
	}
}
