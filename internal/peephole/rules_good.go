package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// Good collects rewrites that are always semantically safe on every
// architecture but look a little further than QuickPreset's strictly
// local patterns -- this is the set -O2 and above interleave with the
// riskier AssOpt set (see ApplyInterleaved).
var Good = RuleSet{
	Name: "good",
	Rules: []Rule{
		{
			// STA addr; LDA addr: A already holds the value that was
			// just stored, so reloading it is redundant.
			Name: "elide-reload-after-store",
			Pattern: Pattern{
				op(isa.STA),
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return matched[1].Mode == matched[0].Mode
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			// TAX; TXA: X ends up holding A's original value (as
			// intended), but TXA then reassigns A from X -- which
			// still holds A's original value. The TXA is a no-op.
			Name: "elide-txa-after-tax",
			Pattern: Pattern{op(isa.TAX), op(isa.TXA)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			// TXA; TAX: A is set from X (as intended), then TAX
			// reassigns X from A -- which still holds X's original
			// value. The TAX is a no-op.
			Name: "elide-tax-after-txa",
			Pattern: Pattern{op(isa.TXA), op(isa.TAX)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			Name:    "elide-tay-after-tya",
			Pattern: Pattern{op(isa.TYA), op(isa.TAY)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			Name:    "elide-tya-after-tay",
			Pattern: Pattern{op(isa.TAY), op(isa.TYA)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[:1]
			},
		},
		{
			// CLC followed by ADC #0 leaves A unchanged (carry-in is
			// forced clear, so there is nothing to add and nothing to
			// carry); the CLC's flag effect is real and kept, but the
			// ADC is pure overhead.
			Name: "elide-adc-zero-after-clc",
			Pattern: Pattern{
				op(isa.CLC),
				opMode(isa.ADC, isa.Immediate),
			},
			Precondition: func(before []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				// ADC #0 is only a no-op outside decimal mode: with D
				// set it still BCD-normalizes whatever is in A. Unknown
				// is not good enough.
				if before[0].Decimal != dataflow.TriClear {
					return false
				}
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
	},
}
