package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// LaterOptimizations collects rewrites that look across a longer
// window than Good or AssOpt are willing to -- run only at -O2 and
// above, where the extra matching cost is worth it because the
// function bodies being optimized are assumed larger.
var LaterOptimizations = RuleSet{
	Name: "later",
	Rules: []Rule{
		{
			// The classic load/add-one/store-back idiom is an
			// in-place increment: fuse it into a single read-modify-
			// write INC, which is both smaller and does not disturb A.
			Name: "fuse-load-add-one-store-into-inc",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, Modes: []isa.Mode{isa.Absolute, isa.ZeroPage}, SameOperandAs: -1},
				op(isa.CLC),
				opMode(isa.ADC, isa.Immediate),
				LineMatcher{Ops: []isa.Opcode{isa.STA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				if matched[3].Mode != matched[0].Mode {
					return false
				}
				c, ok := matched[2].Operand.(interface{ Eval() (int64, bool) })
				if !ok {
					return false
				}
				v, known := c.Eval()
				return known && v == 1
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.INC, matched[0].Mode, matched[0].Operand)}
			},
		},
		{
			// Load/subtract-one/store-back is the matching in-place
			// decrement.
			Name: "fuse-load-sub-one-store-into-dec",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, Modes: []isa.Mode{isa.Absolute, isa.ZeroPage}, SameOperandAs: -1},
				op(isa.SEC),
				opMode(isa.SBC, isa.Immediate),
				LineMatcher{Ops: []isa.Opcode{isa.STA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				if matched[3].Mode != matched[0].Mode {
					return false
				}
				c, ok := matched[2].Operand.(interface{ Eval() (int64, bool) })
				if !ok {
					return false
				}
				v, known := c.Eval()
				return known && v == 1
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.DEC, matched[0].Mode, matched[0].Operand)}
			},
		},
	},
}
