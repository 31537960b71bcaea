// Package textcheck runs structural meaning-preservation checks between
// an original chunk and a rewritten candidate. The checks are cheap and
// deterministic and catch the sharpest rewrite failures that a numeric
// similarity score can miss, like a dropped "not" or an altered number
package textcheck

import (
	"strconv"
	"strings"
	"unicode"
)

// Check names
const (
	CheckNegation = "negation"
	CheckEntities = "entities"
	CheckNumbers  = "numbers"
	CheckPolarity = "polarity"
)

// Result is the outcome of one rule-check
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// negators that flip sentence meaning when dropped or introduced
var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nothing": {},
	"nobody": {}, "nowhere": {}, "neither": {}, "nor": {}, "cannot": {},
	"n't": {},
}

// Run executes all rule-checks and returns one Result per check
func Run(original, candidate string) []Result {
	return []Result{
		Negation(original, candidate),
		Entities(original, candidate),
		Numbers(original, candidate),
		Polarity(original, candidate),
	}
}

// AllPass reports whether every check in rs passed
func AllPass(rs []Result) bool {
	for _, r := range rs {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failures returns the names of failed checks
func Failures(rs []Result) []string {
	var out []string
	for _, r := range rs {
		if !r.Passed {
			out = append(out, r.Name)
		}
	}
	return out
}

// Negation verifies the candidate preserves the presence of negation.
// It compares counts coarsely: a rewrite may rephrase "is not able" as
// "cannot", so it checks that negation exists on both sides or neither,
// not that the exact words survive
func Negation(original, candidate string) Result {
	o := countNegators(original)
	c := countNegators(candidate)
	if (o == 0) != (c == 0) {
		return Result{
			Name:   CheckNegation,
			Detail: "negation present on one side only",
		}
	}
	return Result{Name: CheckNegation, Passed: true}
}

// Entities verifies that capitalized proper-noun tokens from the
// original appear verbatim in the candidate. Sentence-initial words are
// skipped since capitalization there is positional, not semantic
func Entities(original, candidate string) Result {
	want := properNouns(original)
	if len(want) == 0 {
		return Result{Name: CheckEntities, Passed: true}
	}
	have := map[string]struct{}{}
	for _, tok := range tokens(candidate) {
		have[strings.Trim(tok, ".,'")] = struct{}{}
	}
	var missing []string
	for e := range want {
		if _, ok := have[e]; !ok {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		return Result{
			Name:   CheckEntities,
			Detail: "missing: " + strings.Join(missing, ", "),
		}
	}
	return Result{Name: CheckEntities, Passed: true}
}

// Numbers verifies every numeric literal in the original appears in the
// candidate. Rewrites may add numbers (spelling out "a dozen" as "12")
// but must not lose or change the originals
func Numbers(original, candidate string) Result {
	want := numerics(original)
	if len(want) == 0 {
		return Result{Name: CheckNumbers, Passed: true}
	}
	have := map[string]struct{}{}
	for _, n := range numerics(candidate) {
		have[n] = struct{}{}
	}
	var missing []string
	for _, n := range want {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return Result{
			Name:   CheckNumbers,
			Detail: "missing: " + strings.Join(missing, ", "),
		}
	}
	return Result{Name: CheckNumbers, Passed: true}
}

// Polarity catches gross sentiment inversion by comparing the balance
// of strongly-valenced words. It only fails when the original leans
// clearly one way and the candidate leans clearly the other
func Polarity(original, candidate string) Result {
	o := valence(original)
	c := valence(candidate)
	if (o > 0 && c < 0) || (o < 0 && c > 0) {
		return Result{
			Name:   CheckPolarity,
			Detail: "valence inverted",
		}
	}
	return Result{Name: CheckPolarity, Passed: true}
}

var positives = map[string]struct{}{
	"good": {}, "happy": {}, "glad": {}, "love": {}, "loved": {},
	"beautiful": {}, "wonderful": {}, "kind": {}, "safe": {}, "alive": {},
}

var negatives = map[string]struct{}{
	"bad": {}, "sad": {}, "hate": {}, "hated": {}, "ugly": {},
	"terrible": {}, "cruel": {}, "dangerous": {}, "dead": {}, "afraid": {},
}

func valence(s string) int {
	v := 0
	for _, tok := range tokens(strings.ToLower(s)) {
		if _, ok := positives[tok]; ok {
			v++
		}
		if _, ok := negatives[tok]; ok {
			v--
		}
	}
	return v
}

func countNegators(s string) int {
	n := 0
	for _, tok := range tokens(strings.ToLower(s)) {
		if _, ok := negators[tok]; ok {
			n++
		}
		if strings.HasSuffix(tok, "n't") {
			n++
		}
	}
	return n
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '.' && r != ','
	})
}

// properNouns collects capitalized tokens that are not sentence-initial.
// Boundaries are found before tokenizing because tokens() splits on the
// enders themselves, so a token never carries a "!" or "?" suffix
func properNouns(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, sentence := range sentences(s) {
		sentStart := true
		for _, raw := range tokens(sentence) {
			tok := strings.Trim(raw, ".,'")
			if tok == "" {
				continue
			}
			if unicode.IsUpper([]rune(tok)[0]) && !sentStart && len(tok) > 1 {
				out[tok] = struct{}{}
			}
			sentStart = false
		}
	}
	return out
}

func sentences(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

// numerics extracts numeric literals, normalizing away grouping commas
// so "1,000" and "1000" compare equal
func numerics(s string) []string {
	var out []string
	for _, tok := range tokens(s) {
		tok = strings.Trim(tok, ".,'")
		tok = strings.ReplaceAll(tok, ",", "")
		if tok == "" {
			continue
		}
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			out = append(out, tok)
		}
	}
	return out
}
