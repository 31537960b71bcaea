package genai

import (
	"fmt"
	"strings"

	"leveler/internal/core/levels"
)

// Prompt templates are versioned through the escalation param table:
// any wording change here must bump the table version, since cached
// entries key on it
const systemPrompt ="You rewrite passages of literature for readers at a target reading level. " +
	"Preserve the meaning, the named people and places, all numbers, and any negation exactly. " +
	"Never summarize, never add commentary, and reply with the rewritten passage only."

// variant instructions keyed by the escalation plan's prompt variant
var variantInstruction = map[string]string{
	"modernize": "Rewrite this passage in modern everyday English. Replace archaic pronouns, " +
		"verb forms, and vocabulary with their current equivalents.",
	"deformalize": "Rewrite this passage in plain, direct English. Break up long formal " +
		"sentences and replace ornate vocabulary with common words.",
	"standardize": "Rewrite this passage in standard English. Convert dialect spellings and " +
		"nonstandard grammar to their conventional forms while keeping the speaker's voice.",
	"simplify": "Rewrite this passage using simpler words and shorter sentences.",

	// _literal variants for late escalation attempts: tighter leash on a
	// generator that drifted from the source on earlier tries
	"modernize_literal": "Rewrite this passage in modern everyday English, sentence by sentence. " +
		"Translate each sentence as directly as possible without reordering or combining sentences.",
	"deformalize_literal": "Rewrite this passage in plain English, sentence by sentence. " +
		"Translate each sentence as directly as possible without reordering or combining sentences.",
	"standardize_literal": "Rewrite this passage in standard English, sentence by sentence. " +
		"Convert each sentence as directly as possible without reordering or combining sentences.",
	"simplify_literal": "Rewrite this passage with simpler words, sentence by sentence. " +
		"Simplify each sentence as directly as possible without reordering or combining sentences.",
}

var levelGuidance = map[levels.Level]string{
	levels.L1: "Target an early reader: very short sentences, only the most common words.",
	levels.L2: "Target a beginning reader: short sentences, simple everyday vocabulary.",
	levels.L3: "Target a developing reader: plain sentences, avoid uncommon words.",
	levels.L4: "Target an intermediate reader: natural sentences, moderately rich vocabulary.",
	levels.L5: "Target an advanced reader: keep nuance, simplify only what obscures meaning.",
	levels.L6: "Target a fluent reader: lightest touch, resolve only genuinely difficult language.",
}

// BuildPrompt renders the user prompt for one attempt. Unknown variants
// fall back to the simplify instruction so an escalation-table typo
// degrades output quality instead of failing the attempt
func BuildPrompt(text string, p Params) string {
	instr, ok := variantInstruction[p.Variant]
	if !ok {
		instr = variantInstruction["simplify"]
	}
	var b strings.Builder
	b.WriteString(instr)
	b.WriteString(" ")
	b.WriteString(levelGuidance[p.Level])
	b.WriteString("\n\nPassage:\n")
	b.WriteString(text)
	return b.String()
}

// Variants returns the known prompt variant names
func Variants() []string {
	return []string{
		"modernize", "deformalize", "standardize", "simplify",
		"modernize_literal", "deformalize_literal", "standardize_literal", "simplify_literal",
	}
}

// KnownVariant reports whether v has a dedicated instruction
func KnownVariant(v string) bool {
	_, ok := variantInstruction[v]
	return ok
}

func describeParams(p Params) string {
	return fmt.Sprintf("variant=%s temp=%.2f hint=%s level=%s", p.Variant, p.Temperature, p.ModelHint, p.Level)
}
