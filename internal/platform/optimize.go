package platform

import (
	"sixc/internal/isa"
	"sixc/internal/peephole"
)

// Optimize runs the peephole engine over one function's lines with
// the rule sets assigned to the requested optimization level: -O0 is
// a no-op (aside from dead-label
// removal), -O1 runs QuickPreset only, and -O2 and above interleave
// Good and AssOpt in the "good·(ass)·good" order before a final
// LaterOptimizations cleanup pass. The architecture- and flag-gated
// sets run at every level >= 1 (after QuickPreset at -O1, folded into
// the Good pass above that) so something like CMOS TSB fusion is
// available as soon as any optimization runs at all.
func Optimize(lines []isa.AssemblyLine, arch isa.Architecture, f Flags) []isa.AssemblyLine {
	if f.OptLevel <= 0 {
		return peephole.RemoveDeadLocalLabels(lines)
	}

	gated := f.ruleSets(arch)

	if f.OptLevel == 1 {
		sets := append([]peephole.RuleSet{peephole.QuickPreset}, gated...)
		return peephole.Apply(lines, sets...)
	}

	good := peephole.RuleSet{
		Name:  "good+gated",
		Rules: append(append([]peephole.Rule(nil), peephole.Good.Rules...), flatten(gated)...),
	}
	lines = peephole.ApplyInterleaved(lines, good, peephole.AssOpt)
	lines = peephole.Apply(lines, peephole.LaterOptimizations)
	return lines
}

func flatten(sets []peephole.RuleSet) []peephole.Rule {
	var rules []peephole.Rule
	for _, s := range sets {
		rules = append(rules, s.Rules...)
	}
	return rules
}
