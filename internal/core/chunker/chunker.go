// Package chunker splits unit text into sentence-aligned chunks sized
// for a target reading level. Splitting is deterministic for a given
// (text, level): the same input always produces the same chunk list, so
// chunk indexes stay stable across runs and cache keys stay valid
package chunker

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"leveler/internal/core/levels"
)

// Version identifies the chunking algorithm. Bump on any change that can
// alter chunk boundaries, since cached entries key on chunk index
const Version = 3

// Chunk is one contiguous slice of a unit's text
type Chunk struct {
	Index int
	Text  string
	Words int
}

// targetWords returns the soft chunk size for a level. Lower levels get
// smaller chunks so generated output stays within attention budget for
// early readers
func targetWords(lvl levels.Level) int {
	switch lvl {
	case levels.L1:
		return 60
	case levels.L2:
		return 90
	case levels.L3:
		return 140
	case levels.L4:
		return 200
	case levels.L5:
		return 280
	default:
		return 360
	}
}

// Split canonicalizes text and cuts it into chunks at sentence
// boundaries, packing sentences until the level's target word count is
// reached. A single sentence longer than the target becomes its own
// chunk rather than being cut mid-sentence
func Split(text string, lvl levels.Level) []Chunk {
	canon := Canonicalize(text)
	if canon == "" {
		return nil
	}

	target := targetWords(lvl)
	sents := sentences(canon)

	var out []Chunk
	var cur []string
	words := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, Chunk{
			Index: len(out),
			Text:  strings.Join(cur, " "),
			Words: words,
		})
		cur = cur[:0]
		words = 0
	}

	for _, s := range sents {
		n := len(strings.Fields(s))
		if words > 0 && words+n > target {
			flush()
		}
		cur = append(cur, s)
		words += n
	}
	flush()

	return out
}

// Shrink returns the leading portion of a chunk's text reduced by ratio,
// cut at the nearest sentence boundary at or after the reduced length.
// Used when escalation asks for a smaller generation payload. A ratio
// outside (0,1) or a single-sentence chunk returns the text unchanged
func Shrink(text string, ratio float64) string {
	if ratio <= 0 || ratio >= 1 {
		return text
	}
	sents := sentences(text)
	if len(sents) <= 1 {
		return text
	}

	total := 0
	for _, s := range sents {
		total += len(strings.Fields(s))
	}
	keep := int(float64(total) * (1 - ratio))

	var b []string
	acc := 0
	for _, s := range sents {
		b = append(b, s)
		acc += len(strings.Fields(s))
		if acc >= keep {
			break
		}
	}
	return strings.Join(b, " ")
}

// Canonicalize applies NFKC, repairs invalid UTF-8 and collapses
// whitespace runs to single spaces. This is the canonical form hashed
// into cache keys, so formatting-only edits to source text do not
// invalidate cached transformations
func Canonicalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s, _, _ = transform.String(norm.NFKC, s)
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}

// sentences splits canonical text on terminal punctuation, keeping the
// punctuation with its sentence. Abbreviation handling is intentionally
// minimal: a wrong split only moves a chunk boundary, it never loses text
func sentences(s string) []string {
	var out []string
	start := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// consume trailing closers and repeats ("?!", ".'", ".\"")
		j := i + 1
		for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?' ||
			runes[j] == '"' || runes[j] == '\'' || runes[j] == ')' || runes[j] == '”') {
			j++
		}
		if j < len(runes) && runes[j] != ' ' {
			i = j - 1
			continue
		}
		sent := strings.TrimSpace(string(runes[start:j]))
		if sent != "" {
			out = append(out, sent)
		}
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}
