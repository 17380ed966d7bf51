package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// QuickPreset collects the cheapest, always-safe rewrites -- the set
// applied at the lowest optimization level that optimizes (-O1), never
// requiring more than local pattern matching and never risking a
// semantic change under any architecture.
var QuickPreset = RuleSet{
	Name: "quick",
	Rules: []Rule{
		{
			Name:    "remove-elidable-nop",
			Pattern: Pattern{LineMatcher{Ops: []isa.Opcode{isa.NOP}, SameOperandAs: -1, Elidable: true}},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return nil
			},
		},
		{
			// LDA addr followed immediately by STA to the same
			// address writes back exactly what was just read: the
			// store changes nothing.
			Name: "elide-self-store",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, Modes: []isa.Mode{isa.Absolute, isa.ZeroPage}, SameOperandAs: -1},
				LineMatcher{Ops: []isa.Opcode{isa.STA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return matched[1].Mode == matched[0].Mode
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			// Two consecutive loads into A from the same place: the
			// first is immediately overwritten by the second before
			// anything could read it, so it is dead.
			Name: "elide-redundant-double-load",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, SameOperandAs: -1},
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return matched[1].Mode == matched[0].Mode
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[1:]
			},
		},
	},
}
