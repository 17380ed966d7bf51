package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// maxPasses bounds the fixpoint loop so a pair of rules that
// (incorrectly) rewrite each other's output back and forth cannot hang
// the compiler; a correctly authored rule set converges in a handful
// of passes on any real function body.
const maxPasses = 64

// onePass scans lines once, left to right, trying every rule in every
// set at each position; the first rule that matches and whose
// precondition holds replaces its matched window and scanning resumes
// just after the replacement (never re-examining within it, so a rule
// cannot match its own output inside the same pass). Reports the
// resulting lines and whether anything changed.
func onePass(lines []isa.AssemblyLine, sets []RuleSet) ([]isa.AssemblyLine, bool) {
	ev := nopEvaluator{}
	states := dataflow.Analyze(lines, ev)

	var out []isa.AssemblyLine
	changed := false
	i := 0
	for i < len(lines) {
		matched := false
	ruleLoop:
		for _, set := range sets {
			for _, rule := range set.Rules {
				window, ok := rule.Pattern.Match(lines, i)
				if !ok {
					continue
				}
				if !rule.applies(states[i:i+len(window)], window) {
					continue
				}
				replacement := rule.Transform(window)
				if !consumesOnlyElidable(window, replacement) {
					continue
				}
				out = append(out, replacement...)
				i += len(window)
				changed = true
				matched = true
				break ruleLoop
			}
		}
		if !matched {
			out = append(out, lines[i])
			i++
		}
	}
	return out, changed
}

// consumesOnlyElidable is the engine's enforcement of the elidability
// contract: a rule may delete or rewrite only lines marked elidable.
// Rather than requiring every rule to restate the flag in its matchers,
// the engine compares the matched window against the transform's output
// and refuses the rewrite if any non-elidable line failed to survive
// verbatim -- pinned lines (user inline assembly, entry labels,
// interrupt prologues) thereby pass through every rule untouched no
// matter how the rule was written.
func consumesOnlyElidable(window, replacement []isa.AssemblyLine) bool {
	used := make([]bool, len(replacement))
	for _, w := range window {
		if w.Elidable {
			continue
		}
		survived := false
		for i, r := range replacement {
			if !used[i] && w.Equal(r) {
				used[i] = true
				survived = true
				break
			}
		}
		if !survived {
			return false
		}
	}
	return true
}

// nopEvaluator always reports "no additional knowledge"; the peephole
// engine does not currently track memory contents, only registers and
// flags, matching the scope of the CPU-state abstraction (memory-
// content tracking would require an alias analysis this codebase does
// not attempt).
type nopEvaluator struct{}

func (nopEvaluator) KnownByteAt(isa.Operand) (byte, bool) { return 0, false }

// Apply runs every rule in sets against lines repeatedly until a pass
// produces no change or maxPasses is reached, then removes dead local
// labels (see labels.go).
func Apply(lines []isa.AssemblyLine, sets ...RuleSet) []isa.AssemblyLine {
	for pass := 0; pass < maxPasses; pass++ {
		next, changed := onePass(lines, sets)
		lines = next
		if !changed {
			break
		}
	}
	return RemoveDeadLocalLabels(lines)
}

// ApplyInterleaved runs good, then ass, then good again -- the
// "good·(ass)·good" sequencing -O2 and above use, where ass (the
// assembly-specific, riskier rewrites) runs sandwiched between two
// passes of the always-safe "good" rules so any awkward code ass's
// rewrites leave behind gets cleaned up immediately rather than
// surviving to the output.
func ApplyInterleaved(lines []isa.AssemblyLine, good, ass RuleSet) []isa.AssemblyLine {
	lines = Apply(lines, good)
	lines = Apply(lines, ass)
	lines = Apply(lines, good)
	return lines
}
