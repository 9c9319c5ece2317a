// Package highlight marks the part of an example word that carries the
// vowel sound.
package highlight

import (
	"html"
	"strings"
	"unicode/utf8"
)

// ClassName is the CSS class used by Markup for the highlighted span.
const ClassName = "vowel-red"

// Segment is a run of the original word, flagged when it is the highlighted span.
type Segment struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

// HighlightFirst scans candidates in order and flags the first occurrence of
// the first candidate found in word, compared case-insensitively. Only one
// span is ever flagged. Casing of word is preserved. Empty candidates never
// match. When nothing matches the word is returned as a single plain segment.
func HighlightFirst(word string, candidates []string) []Segment {
	if word == "" {
		return nil
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		start, end, ok := indexFold(word, c)
		if !ok {
			continue
		}
		segs := make([]Segment, 0, 3)
		if start > 0 {
			segs = append(segs, Segment{Text: word[:start]})
		}
		segs = append(segs, Segment{Text: word[start:end], Highlighted: true})
		if end < len(word) {
			segs = append(segs, Segment{Text: word[end:]})
		}
		return segs
	}
	return []Segment{{Text: word}}
}

// indexFold returns the byte span of the lowest-index case-insensitive
// occurrence of sub in s.
func indexFold(s, sub string) (int, int, bool) {
	for i := 0; i < len(s); {
		if n, ok := prefixFold(s[i:], sub); ok {
			return i, i + n, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

// prefixFold reports whether s starts with prefix under simple case folding
// and how many bytes of s the match spans.
func prefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if sr != pr && !strings.EqualFold(string(sr), string(pr)) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// Plain joins the segments back into the original word.
func Plain(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Markup renders segments as escaped HTML, wrapping the highlighted span in
// a span with ClassName.
func Markup(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		text := html.EscapeString(s.Text)
		if s.Highlighted {
			b.WriteString(`<span class="` + ClassName + `">`)
			b.WriteString(text)
			b.WriteString(`</span>`)
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

// Highlighted returns the flagged span, or "" when nothing matched.
func Highlighted(segs []Segment) string {
	for _, s := range segs {
		if s.Highlighted {
			return s.Text
		}
	}
	return ""
}
