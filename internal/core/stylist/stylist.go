// Package stylist implements style classification over chunk text.
// Classification is a pure function of the text and the compiled signal
// pack: no I/O, no clocks, no randomness, so results can be cached until
// the pack version changes
package stylist

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"leveler/internal/core/levels"
	"leveler/internal/core/signalpack"
)

// Evidence records one signal that contributed to the winning score
type Evidence struct {
	Signal string       `json:"signal"`
	Style  levels.Style `json:"style"`
	Count  int          `json:"count"`
	Weight float64      `json:"weight"` // total contribution (per-hit weight * count)
}

// Result is a classification outcome
type Result struct {
	Style levels.Style `json:"style"`
	// Confidence is the winning score's share of the total score mass,
	// in (0,1]; a bare contemporary default reports 1
	Confidence     float64    `json:"confidence"`
	Evidence       []Evidence `json:"evidence"`
	SignalsVersion int        `json:"signals_version"`
}

// Stylist classifies chunk text against a compiled signal pack
type Stylist struct {
	p *signalpack.Pack
}

// New constructs a Stylist
func New(p *signalpack.Pack) *Stylist { return &Stylist{p: p} }

// SignalsVersion returns the version of the loaded signal pack
func (s *Stylist) SignalsVersion() int { return s.p.Version }

// Classify assigns a style category with confidence and evidence.
// Ties go to the higher-priority (rarer) style since its signals carry
// more specific evidence
func (s *Stylist) Classify(text string) Result {
	scores := map[levels.Style]float64{}
	var evidence []Evidence

	folded := fold(text)
	tokens := tokenize(folded)

	// lexical term signals
	counts := map[string]int{}
	for _, tok := range tokens {
		if _, ok := s.p.LexIndex[tok]; ok {
			counts[tok]++
		}
	}
	for term, n := range counts {
		lx := s.p.Lexical[s.p.LexIndex[term]]
		w := lx.Weight * float64(n)
		scores[lx.Style] += w
		evidence = append(evidence, Evidence{Signal: "term:" + term, Style: lx.Style, Count: n, Weight: w})
	}

	// regex pattern signals
	for _, pt := range s.p.Patterns {
		ms := pt.Compiled.FindAllStringIndex(folded, -1)
		if len(ms) == 0 {
			continue
		}
		w := pt.Weight * float64(len(ms))
		scores[pt.Style] += w
		evidence = append(evidence, Evidence{Signal: "pattern:" + pt.ID, Style: pt.Style, Count: len(ms), Weight: w})
	}

	// sentence-length statistic, capped so one run-on paragraph cannot
	// outvote lexical evidence
	if st := s.p.Stats; st.LongSentenceWords > 0 {
		long := countLongSentences(text, st.LongSentenceWords)
		if long > 0 {
			w := min(st.LongSentenceWeight*float64(long), st.MaxStatWeight)
			scores[st.LongSentenceStyle] += w
			evidence = append(evidence, Evidence{
				Signal: "stat:long_sentences", Style: st.LongSentenceStyle, Count: long, Weight: w,
			})
		}
	}

	winner := levels.StyleContemporary
	best := 0.0
	total := 0.0
	for _, c := range levels.AllStyles() {
		sc := scores[c]
		total += sc
		// strict > keeps the earlier (higher-priority) style on ties
		if sc > best {
			best = sc
			winner = c
		}
	}

	if best < s.p.MinScore {
		return Result{
			Style:          levels.StyleContemporary,
			Confidence:     1,
			SignalsVersion: s.p.Version,
		}
	}

	// only keep evidence for the winning style; losing signals are noise
	kept := evidence[:0]
	for _, e := range evidence {
		if e.Style == winner {
			kept = append(kept, e)
		}
	}

	return Result{
		Style:          winner,
		Confidence:     best / total,
		Evidence:       kept,
		SignalsVersion: s.p.Version,
	}
}

// fold lowercases with unicode case folding and NFKC so lexical lookups
// behave across typographic variants
func fold(s string) string {
	out, _, _ := transform.String(transform.Chain(norm.NFKC, cases.Fold()), s)
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		// keep apostrophes so dialect contractions (warn't, ain't) survive
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func countLongSentences(text string, words int) int {
	n := 0
	for _, sent := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if len(strings.Fields(sent)) >= words {
			n++
		}
	}
	return n
}
