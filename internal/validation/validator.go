package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/util"
)

const (
	MaxLabelLength      = 64
	MaxWordLength       = 32
	MaxSpeechTextLength = 200
)

var wordPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z'-]*$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSessionID checks that id is a ULID.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !util.IsValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", id))
	}
	return errors
}

// ValidateAnswerRequest checks the shape of a submitted label. Whether the
// label is a known choice is decided by the quiz, not here.
func (v *Validator) ValidateAnswerRequest(label string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(label) == "" {
		errors = append(errors, domain.NewMissingFieldError("label"))
	} else if n := utf8.RuneCountInString(label); n > MaxLabelLength {
		errors = append(errors, domain.NewOutOfRangeError("label", n, 1, MaxLabelLength))
	}
	return errors
}

// ValidateWord checks an example word path parameter.
func (v *Validator) ValidateWord(word string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(word) == "" {
		errors = append(errors, domain.NewMissingFieldError("word"))
	} else if len(word) > MaxWordLength {
		errors = append(errors, domain.NewOutOfRangeError("word", len(word), 1, MaxWordLength))
	} else if !wordPattern.MatchString(word) {
		errors = append(errors, domain.NewInvalidFormatError("word", word))
	}
	return errors
}

// ValidateSpeechText checks text submitted for synthesis.
func (v *Validator) ValidateSpeechText(text string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(text) == "" {
		errors = append(errors, domain.NewMissingFieldError("text"))
	} else if n := utf8.RuneCountInString(text); n > MaxSpeechTextLength {
		errors = append(errors, domain.NewOutOfRangeError("text", n, 1, MaxSpeechTextLength))
	}
	return errors
}
