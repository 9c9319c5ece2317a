package audio

import (
	"path"
	"strings"
)

// VowelCandidates lists the paths tried for a vowel sound: base verbatim,
// then with "_" replaced by "-", then with "-" replaced by "_". Repeats are
// dropped, order is kept.
func VowelCandidates(dir, base string) []string {
	variants := []string{
		base,
		strings.ReplaceAll(base, "_", "-"),
		strings.ReplaceAll(base, "-", "_"),
	}
	out := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		p := path.Join(dir, v)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// WordCandidates lists the single path tried for an example word's sound.
func WordCandidates(word, ext string) []string {
	return []string{word + ext}
}
