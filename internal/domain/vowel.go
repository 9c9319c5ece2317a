package domain

import "strings"

// ExampleWord is a word illustrating a vowel sound. Highlights are the
// substrings to mark, checked in priority order.
type ExampleWord struct {
	Word       string
	Highlights []string
}

// VowelItem is one question: a vowel sound to identify by name.
type VowelItem struct {
	Key      string
	Label    string
	Sound    string // base resource name, e.g. long_oo.mp3
	Examples []ExampleWord
}

// Validate validates the vowel item
func (v VowelItem) Validate() error {
	if strings.TrimSpace(v.Key) == "" {
		return NewInvalidInputError("vowel key is required")
	}
	if strings.TrimSpace(v.Label) == "" {
		return NewInvalidInputError("vowel label is required")
	}
	if strings.TrimSpace(v.Sound) == "" {
		return NewInvalidInputError("vowel sound is required")
	}
	for _, ex := range v.Examples {
		if strings.TrimSpace(ex.Word) == "" {
			return NewInvalidInputError("example word is required")
		}
	}
	return nil
}

// ChoiceOption is a selectable answer; IsAnswer is derived from the current question.
type ChoiceOption struct {
	Label    string
	IsAnswer bool
}

// ChoicesFor derives the choice options for the given question.
func ChoicesFor(labels []string, current VowelItem) []ChoiceOption {
	out := make([]ChoiceOption, len(labels))
	for i, label := range labels {
		out[i] = ChoiceOption{Label: label, IsAnswer: label == current.Label}
	}
	return out
}
