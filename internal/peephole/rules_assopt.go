package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// AssOpt collects rewrites grounded in raw instruction-sequence shapes
// rather than any single source construct -- the kind of pattern that
// only becomes visible after the compiler has already lowered several
// statements and their outputs sit next to each other by accident of
// codegen order. These run sandwiched between two passes of Good (see
// ApplyInterleaved) at -O2 and above.
var AssOpt = RuleSet{
	Name: "assopt",
	Rules: []Rule{
		{
			// A flag-setting accumulator op (load or logical op)
			// immediately followed by "CMP #0" is comparing A against
			// zero using flags the prior instruction already set
			// identically (N/Z track exactly the same condition CMP
			// #0 would establish).
			Name:    "elide-cmp-zero-after-flag-setting-op",
			Pattern: Pattern{op(isa.LDA, isa.TXA, isa.TYA, isa.AND, isa.ORA, isa.EOR), opMode(isa.CMP, isa.Immediate)},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				c, ok := matched[1].Operand.(interface{ Eval() (int64, bool) })
				if !ok {
					return false
				}
				v, known := c.Eval()
				return known && v == 0
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			// Two consecutive EOR #k with the same mask cancel: XOR
			// is its own inverse, so the net effect on A is none.
			Name: "elide-double-eor-same-mask",
			Pattern: Pattern{
				opMode(isa.EOR, isa.Immediate),
				LineMatcher{Ops: []isa.Opcode{isa.EOR}, Modes: []isa.Mode{isa.Immediate}, SameOperandAs: 0},
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return nil
			},
		},
	},
}
