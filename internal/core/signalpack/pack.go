// Package signalpack loads and compiles style signals from the embedded
// signals.json. It prepares lexical term sets and regex patterns for the
// stylist
package signalpack

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"leveler/internal/core/levels"
)

//go:embed signals.json
var embedded []byte

type rawLexical struct {
	Term   string  `json:"term"`
	Style  string  `json:"style"`
	Weight float64 `json:"weight"`
}

type rawPattern struct {
	ID      string  `json:"id"`
	Pattern string  `json:"pattern"`
	Style   string  `json:"style"`
	Weight  float64 `json:"weight"`
}

type rawStats struct {
	LongSentenceWords  int     `json:"long_sentence_words"`
	LongSentenceStyle  string  `json:"long_sentence_style"`
	LongSentenceWeight float64 `json:"long_sentence_weight"`
	MaxStatWeight      float64 `json:"max_stat_weight"`
}

type rawPack struct {
	Version  int            `json:"version"`
	MinScore float64        `json:"min_score"`
	Meta     map[string]any `json:"meta"`
	Lexical  []rawLexical   `json:"lexical"`
	Patterns []rawPattern   `json:"patterns"`
	Stats    rawStats       `json:"sentence_stats"`
}

// Lexical is a single weighted term signal
type Lexical struct {
	Term   string
	Style  levels.Style
	Weight float64
}

// Pattern is a compiled weighted regex signal
type Pattern struct {
	ID       string
	Style    levels.Style
	Weight   float64
	Compiled *regexp.Regexp
}

// Stats configures the sentence-length statistic signal
type Stats struct {
	LongSentenceWords  int
	LongSentenceStyle  levels.Style
	LongSentenceWeight float64
	MaxStatWeight      float64
}

// Pack is a compiled signal pack for the stylist
type Pack struct {
	Version int
	// MinScore is the floor a category total must clear before it can win;
	// below it the stylist defaults to contemporary
	MinScore float64

	Lexical  []Lexical
	LexIndex map[string]int // lowercased term -> index into Lexical
	Patterns []Pattern
	Stats    Stats
}

// Load parses and compiles the embedded signals.json
func Load() (*Pack, error) {
	return Parse(embedded)
}

// Parse compiles a signal pack from raw JSON; exported for tests with
// alternate packs
func Parse(data []byte) (*Pack, error) {
	var raw rawPack
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("signalpack: parse: %w", err)
	}
	if raw.Version <= 0 {
		return nil, fmt.Errorf("signalpack: missing version")
	}

	p := &Pack{
		Version:  raw.Version,
		MinScore: raw.MinScore,
		LexIndex: make(map[string]int, len(raw.Lexical)),
	}

	for _, l := range raw.Lexical {
		st, err := levels.ParseStyle(l.Style)
		if err != nil {
			return nil, fmt.Errorf("signalpack: lexical %q: %w", l.Term, err)
		}
		term := strings.ToLower(strings.TrimSpace(l.Term))
		if term == "" || l.Weight <= 0 {
			return nil, fmt.Errorf("signalpack: invalid lexical entry %+v", l)
		}
		p.LexIndex[term] = len(p.Lexical)
		p.Lexical = append(p.Lexical, Lexical{Term: term, Style: st, Weight: l.Weight})
	}

	for _, r := range raw.Patterns {
		st, err := levels.ParseStyle(r.Style)
		if err != nil {
			return nil, fmt.Errorf("signalpack: pattern %q: %w", r.ID, err)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("signalpack: pattern %q: %w", r.ID, err)
		}
		p.Patterns = append(p.Patterns, Pattern{ID: r.ID, Style: st, Weight: r.Weight, Compiled: re})
	}

	st, err := levels.ParseStyle(raw.Stats.LongSentenceStyle)
	if err != nil {
		return nil, fmt.Errorf("signalpack: sentence_stats: %w", err)
	}
	p.Stats = Stats{
		LongSentenceWords:  raw.Stats.LongSentenceWords,
		LongSentenceStyle:  st,
		LongSentenceWeight: raw.Stats.LongSentenceWeight,
		MaxStatWeight:      raw.Stats.MaxStatWeight,
	}

	return p, nil
}
