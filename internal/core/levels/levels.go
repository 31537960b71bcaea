// Package levels defines the closed reading-level and style enums plus the
// versioned threshold and generation-parameter tables keyed by them
package levels

import (
	"fmt"
	"strings"
)

// Level is one of six ordered reading proficiency tiers, L1 (beginner)
// through L6 (native)
type Level uint8

const (
	// L1 is the lowest tier
	L1 Level = iota + 1
	L2
	L3
	L4
	L5
	// L6 is the highest tier
	L6
)

// AllLevels returns every level in ascending order
func AllLevels() []Level { return []Level{L1, L2, L3, L4, L5, L6} }

// Valid reports whether l is a known tier
func (l Level) Valid() bool { return l >= L1 && l <= L6 }

// String implements fmt.Stringer
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("L?(%d)", uint8(l))
	}
	return fmt.Sprintf("L%d", uint8(l))
}

// ParseLevel parses "L1".."L6" or bare "1".."6"
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimPrefix(s, "L")
	switch s {
	case "1":
		return L1, nil
	case "2":
		return L2, nil
	case "3":
		return L3, nil
	case "4":
		return L4, nil
	case "5":
		return L5, nil
	case "6":
		return L6, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

// Style is a closed set of historical/register profiles for source text
type Style string

const (
	// StyleArchaic covers pre-modern prose (thee/thou forms, -eth verbs)
	StyleArchaic Style = "archaic"
	// StyleFormalPeriod covers 18th-19th century formal register
	StyleFormalPeriod Style = "formal_period"
	// StyleDialectPeriod covers period dialect-heavy prose
	StyleDialectPeriod Style = "dialect_period"
	// StyleContemporary is the default when no period signal dominates
	StyleContemporary Style = "contemporary"
)

// AllStyles returns styles in priority order; rarer categories first since
// their evidence is stronger and wins ties
func AllStyles() []Style {
	return []Style{StyleArchaic, StyleFormalPeriod, StyleDialectPeriod, StyleContemporary}
}

// Valid reports whether s is a known style
func (s Style) Valid() bool {
	switch s {
	case StyleArchaic, StyleFormalPeriod, StyleDialectPeriod, StyleContemporary:
		return true
	}
	return false
}

// Priority returns the tie-break rank of s; lower wins
func (s Style) Priority() int {
	for i, c := range AllStyles() {
		if c == s {
			return i
		}
	}
	return len(AllStyles())
}

// ParseStyle parses a style name
func ParseStyle(v string) (Style, error) {
	s := Style(strings.TrimSpace(strings.ToLower(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown style %q", v)
	}
	return s, nil
}
