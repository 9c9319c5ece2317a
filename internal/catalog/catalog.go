// Package catalog holds the fixed table of vowel questions and the
// multiple-choice labels offered for every question.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"vowel-quiz/internal/domain"
)

// DefaultItems is the built-in question table. The first item is the
// initial question of a new session.
var DefaultItems = []domain.VowelItem{
	{
		Key:   "long-oo",
		Label: "long oo",
		Sound: "long_oo.mp3",
		Examples: []domain.ExampleWord{
			{Word: "too", Highlights: []string{"oo"}},
			{Word: "loose", Highlights: []string{"oo"}},
			{Word: "through", Highlights: []string{"ough", "oo"}},
		},
	},
	{
		Key:   "short-e",
		Label: "short e",
		Sound: "short_e.mp3",
		Examples: []domain.ExampleWord{
			{Word: "let", Highlights: []string{"e"}},
			{Word: "get", Highlights: []string{"e"}},
			{Word: "egg", Highlights: []string{"e"}},
		},
	},
	{
		Key:   "long-a",
		Label: "long a",
		Sound: "long_a.mp3",
		Examples: []domain.ExampleWord{
			{Word: "fate", Highlights: []string{"a"}},
			{Word: "they", Highlights: []string{"ey"}},
			{Word: "great", Highlights: []string{"ea", "a"}},
		},
	},
	{
		Key:   "or-sound",
		Label: "or sound",
		Sound: "or_sound.mp3",
		Examples: []domain.ExampleWord{
			{Word: "for", Highlights: []string{"or"}},
			{Word: "sort", Highlights: []string{"or"}},
			{Word: "storm", Highlights: []string{"or"}},
		},
	},
}

// DefaultChoices is the display order of the answer buttons.
var DefaultChoices = []string{"or sound", "long a", "short e", "long oo"}

// Catalog is an immutable, validated question table.
type Catalog struct {
	items   []domain.VowelItem
	choices []string
	byKey   map[string]int
	byLabel map[string]int
}

// New validates items and choices and builds the lookup indexes.
// The choice set must equal the set of item labels.
func New(items []domain.VowelItem, choices []string) (*Catalog, error) {
	if len(items) == 0 {
		return nil, domain.NewInvalidInputError("catalog requires at least one question")
	}

	c := &Catalog{
		items:   make([]domain.VowelItem, len(items)),
		choices: append([]string(nil), choices...),
		byKey:   make(map[string]int, len(items)),
		byLabel: make(map[string]int, len(items)),
	}
	copy(c.items, items)

	for i, item := range c.items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[item.Key]; dup {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("duplicate question key: %s", item.Key))
		}
		if _, dup := c.byLabel[item.Label]; dup {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("duplicate question label: %s", item.Label))
		}
		c.byKey[item.Key] = i
		c.byLabel[item.Label] = i
	}

	if len(c.choices) != len(c.items) {
		return nil, domain.NewInvalidInputError("choices must list every question label exactly once")
	}
	seen := make(map[string]struct{}, len(c.choices))
	for _, label := range c.choices {
		if _, ok := c.byLabel[label]; !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("choice %q has no question", label))
		}
		if _, dup := seen[label]; dup {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("duplicate choice: %s", label))
		}
		seen[label] = struct{}{}
	}

	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultItems, DefaultChoices)
	if err != nil {
		panic(err)
	}
	return c
}

// Items returns the questions in table order.
func (c *Catalog) Items() []domain.VowelItem {
	out := make([]domain.VowelItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.items)
}

// At returns the i-th question in table order.
func (c *Catalog) At(i int) domain.VowelItem {
	return c.items[i]
}

// First returns the initial question.
func (c *Catalog) First() domain.VowelItem {
	return c.items[0]
}

// ByKey looks a question up by key.
func (c *Catalog) ByKey(key string) (domain.VowelItem, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return domain.VowelItem{}, false
	}
	return c.items[i], true
}

// ByLabel looks a question up by its display label.
func (c *Catalog) ByLabel(label string) (domain.VowelItem, bool) {
	i, ok := c.byLabel[label]
	if !ok {
		return domain.VowelItem{}, false
	}
	return c.items[i], true
}

// IsChoice reports whether label is one of the offered choices.
func (c *Catalog) IsChoice(label string) bool {
	_, ok := c.byLabel[label]
	return ok
}

// Choices returns the answer labels in display order.
func (c *Catalog) Choices() []string {
	return append([]string(nil), c.choices...)
}

// Keys returns the question keys sorted alphabetically.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Word returns the catalog spelling of an example word, matched case-insensitively.
// Asset names follow the catalog spelling.
func (c *Catalog) Word(word string) (string, bool) {
	for _, item := range c.items {
		for _, ex := range item.Examples {
			if strings.EqualFold(ex.Word, word) {
				return ex.Word, true
			}
		}
	}
	return "", false
}

// HasWord reports whether word appears among any question's examples.
func (c *Catalog) HasWord(word string) bool {
	_, ok := c.Word(word)
	return ok
}
