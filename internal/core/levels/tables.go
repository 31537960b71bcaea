package levels

import "fmt"

// Threshold is the pass bar and acceptable band for one (style, level) cell.
// A candidate scoring >= Pass passes outright; a score inside [Pass-Band, Pass)
// can still qualify as acceptable when every structural rule-check passes.
// Pass == 0 means "trust the generator": no similarity floor, rule-checks only
type Threshold struct {
	Pass float64
	Band float64
}

// ThresholdTable is an immutable, versioned similarity threshold table with
// exhaustive (style, level) coverage. Lookups always go through an explicit
// table value so tests can inject alternates; there is no process singleton
type ThresholdTable struct {
	version int
	cells   map[Style]map[Level]Threshold
}

// NewThresholdTable validates exhaustive coverage and returns the table
func NewThresholdTable(version int, cells map[Style]map[Level]Threshold) (ThresholdTable, error) {
	if version <= 0 {
		return ThresholdTable{}, fmt.Errorf("threshold table version must be positive, got %d", version)
	}
	for _, s := range AllStyles() {
		row, ok := cells[s]
		if !ok {
			return ThresholdTable{}, fmt.Errorf("threshold table v%d missing style %s", version, s)
		}
		for _, l := range AllLevels() {
			th, ok := row[l]
			if !ok {
				return ThresholdTable{}, fmt.Errorf("threshold table v%d missing cell (%s, %s)", version, s, l)
			}
			if th.Pass < 0 || th.Pass > 1 || th.Band < 0 || th.Band > th.Pass {
				return ThresholdTable{}, fmt.Errorf("threshold table v%d invalid cell (%s, %s): %+v", version, s, l, th)
			}
		}
	}
	return ThresholdTable{version: version, cells: cells}, nil
}

// MustThresholdTable panics on validation failure; for compiled-in defaults
func MustThresholdTable(version int, cells map[Style]map[Level]Threshold) ThresholdTable {
	t, err := NewThresholdTable(version, cells)
	if err != nil {
		panic(err)
	}
	return t
}

// Version returns the table version bound into cache keys
func (t ThresholdTable) Version() int { return t.version }

// Lookup returns the threshold for (style, level); coverage is guaranteed by
// construction so the second return only guards zero-value tables
func (t ThresholdTable) Lookup(s Style, l Level) (Threshold, bool) {
	row, ok := t.cells[s]
	if !ok {
		return Threshold{}, false
	}
	th, ok := row[l]
	return th, ok
}

// AttemptParams is one generation attempt's parameter tuple
type AttemptParams struct {
	Temperature   float32
	PromptVariant string
	ModelHint     string
	// ShrinkRatio > 0 trims the chunk before generating, trading context for
	// compliance on late attempts (e.g. 0.25 cuts roughly a quarter)
	ShrinkRatio float64
}

// ParamTable is the immutable, versioned escalation plan table. Each
// (style, level) cell is an ordered list of parameter tuples tried in
// sequence; its version is the prompt version bound into cache keys
type ParamTable struct {
	version int
	plans   map[Style]map[Level][]AttemptParams
}

// NewParamTable validates exhaustive coverage with non-empty plans
func NewParamTable(version int, plans map[Style]map[Level][]AttemptParams) (ParamTable, error) {
	if version <= 0 {
		return ParamTable{}, fmt.Errorf("param table version must be positive, got %d", version)
	}
	for _, s := range AllStyles() {
		row, ok := plans[s]
		if !ok {
			return ParamTable{}, fmt.Errorf("param table v%d missing style %s", version, s)
		}
		for _, l := range AllLevels() {
			plan, ok := row[l]
			if !ok || len(plan) == 0 {
				return ParamTable{}, fmt.Errorf("param table v%d missing plan (%s, %s)", version, s, l)
			}
		}
	}
	return ParamTable{version: version, plans: plans}, nil
}

// MustParamTable panics on validation failure; for compiled-in defaults
func MustParamTable(version int, plans map[Style]map[Level][]AttemptParams) ParamTable {
	t, err := NewParamTable(version, plans)
	if err != nil {
		panic(err)
	}
	return t
}

// Version returns the prompt version bound into cache keys
func (t ParamTable) Version() int { return t.version }

// Plan returns the ordered escalation plan for (style, level)
func (t ParamTable) Plan(s Style, l Level) []AttemptParams {
	row, ok := t.plans[s]
	if !ok {
		return nil
	}
	return row[l]
}

// MaxAttempts returns the plan length for (style, level)
func (t ParamTable) MaxAttempts(s Style, l Level) int { return len(t.Plan(s, l)) }

// DefaultThresholds is the active compiled-in threshold table.
// Archaic/low-level cells sit far below contemporary/high-level cells because
// aggressive rewriting is required there, not merely tolerated. Archaic L1/L2
// run in trust-the-generator mode (Pass 0) with mandatory rule-checks
func DefaultThresholds() ThresholdTable {
	return MustThresholdTable(4, map[Style]map[Level]Threshold{
		StyleArchaic: {
			L1: {Pass: 0, Band: 0},
			L2: {Pass: 0, Band: 0},
			L3: {Pass: 0.45, Band: 0.04},
			L4: {Pass: 0.52, Band: 0.04},
			L5: {Pass: 0.60, Band: 0.04},
			L6: {Pass: 0.66, Band: 0.04},
		},
		StyleFormalPeriod: {
			L1: {Pass: 0.42, Band: 0.04},
			L2: {Pass: 0.48, Band: 0.04},
			L3: {Pass: 0.56, Band: 0.04},
			L4: {Pass: 0.63, Band: 0.04},
			L5: {Pass: 0.70, Band: 0.04},
			L6: {Pass: 0.75, Band: 0.04},
		},
		StyleDialectPeriod: {
			L1: {Pass: 0.40, Band: 0.04},
			L2: {Pass: 0.46, Band: 0.04},
			L3: {Pass: 0.54, Band: 0.04},
			L4: {Pass: 0.61, Band: 0.04},
			L5: {Pass: 0.68, Band: 0.04},
			L6: {Pass: 0.73, Band: 0.04},
		},
		StyleContemporary: {
			L1: {Pass: 0.55, Band: 0.04},
			L2: {Pass: 0.62, Band: 0.04},
			L3: {Pass: 0.68, Band: 0.04},
			L4: {Pass: 0.74, Band: 0.04},
			L5: {Pass: 0.78, Band: 0.04},
			L6: {Pass: 0.82, Band: 0.04},
		},
	})
}

// DefaultParams is the active compiled-in escalation plan table (prompt v3).
// Later attempts raise temperature, swap the prompt variant, and finally
// shrink the chunk
func DefaultParams() ParamTable {
	plan := func(variant string) []AttemptParams {
		return []AttemptParams{
			{Temperature: 0.3, PromptVariant: variant, ModelHint: "standard"},
			{Temperature: 0.6, PromptVariant: variant, ModelHint: "standard"},
			{Temperature: 0.6, PromptVariant: variant + "_literal", ModelHint: "standard"},
			{Temperature: 0.8, PromptVariant: variant + "_literal", ModelHint: "strong", ShrinkRatio: 0.25},
		}
	}
	rows := func(variant string) map[Level][]AttemptParams {
		out := make(map[Level][]AttemptParams, len(AllLevels()))
		for _, l := range AllLevels() {
			out[l] = plan(variant)
		}
		return out
	}
	return MustParamTable(3, map[Style]map[Level][]AttemptParams{
		StyleArchaic:       rows("modernize"),
		StyleFormalPeriod:  rows("deformalize"),
		StyleDialectPeriod: rows("standardize"),
		StyleContemporary:  rows("simplify"),
	})
}
