package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
	"sixc/internal/konst"
)

// CmosOptimizations exploits the 65C02's read-modify-write additions
// (INC/DEC A, and TSB for setting bits in memory) that have no NMOS
// equivalent, so it may only run when the target architecture is
// CMOS or newer.
var CmosOptimizations = RuleSet{
	Name: "cmos",
	Rules: []Rule{
		{
			Name:    "clc-adc-one-accumulator-to-inc-a",
			Pattern: Pattern{op(isa.CLC), opMode(isa.ADC, isa.Immediate)},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				c, ok := matched[1].Operand.(interface{ Eval() (int64, bool) })
				return ok && mustEqual(c, 1)
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.INC, isa.Accumulator, isa.NoOperand{})}
			},
		},
		{
			// LDA zp; ORA #mask; STA zp (set bits in a memory cell)
			// collapses to LDA #mask; TSB zp, which sets the same
			// bits without needing the memory cell's current value in
			// A first.
			Name: "load-or-store-to-tsb",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, Modes: []isa.Mode{isa.ZeroPage, isa.Absolute}, SameOperandAs: -1},
				opMode(isa.ORA, isa.Immediate),
				LineMatcher{Ops: []isa.Opcode{isa.STA}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return matched[2].Mode == matched[0].Mode
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{
					isa.ElidableLine(isa.LDA, isa.Immediate, matched[1].Operand),
					isa.ElidableLine(isa.TSB, matched[0].Mode, matched[0].Operand),
				}
			},
		},
	},
}

// CE02Optimizations exploits the 65CE02's 16-bit INW/DEW instructions
// to fuse increments/decrements of adjacent zero-page byte pairs
// (typically a compiler-synthesized 16-bit pointer or counter) into
// one instruction.
var CE02Optimizations = RuleSet{
	Name: "ce02",
	Rules: []Rule{
		{
			Name: "fuse-adjacent-decrements-into-dew",
			Pattern: Pattern{
				opMode(isa.DEC, isa.ZeroPage),
				opMode(isa.DEC, isa.ZeroPage),
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				offset, ok := konst.Related(matched[0].Operand.(konst.Constant), matched[1].Operand.(konst.Constant))
				return ok && offset == 1
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.DEW, isa.ZeroPage, matched[0].Operand)}
			},
		},
		{
			Name: "fuse-adjacent-increments-into-inw",
			Pattern: Pattern{
				opMode(isa.INC, isa.ZeroPage),
				opMode(isa.INC, isa.ZeroPage),
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				offset, ok := konst.Related(matched[0].Operand.(konst.Constant), matched[1].Operand.(konst.Constant))
				return ok && offset == 1
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.INW, isa.ZeroPage, matched[0].Operand)}
			},
		},
	},
}

// HudsonOptimizations exploits the HuC6280's SAY instruction (a
// direct, one-cycle swap of A and Y) to replace the three-instruction
// swap-through-zero-page idiom every other member of the family needs.
var HudsonOptimizations = RuleSet{
	Name: "huc6280",
	Rules: []Rule{
		{
			Name: "fuse-swap-through-zeropage-into-say",
			Pattern: Pattern{
				opMode(isa.STA, isa.ZeroPage),
				op(isa.TYA),
				LineMatcher{Ops: []isa.Opcode{isa.LDY}, Modes: []isa.Mode{isa.ZeroPage}, SameOperandAs: 0},
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.SAY, isa.Implied, isa.NoOperand{})}
			},
		},
	},
}

// SixteenOptimizations exploits 65816-only direct register-to-register
// transfers (TXY skips the round trip through A that every other
// family member needs).
var SixteenOptimizations = RuleSet{
	Name: "65816",
	Rules: []Rule{
		{
			Name:    "fuse-txa-tay-into-txy",
			Pattern: Pattern{op(isa.TXA), op(isa.TAY)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.TXY, isa.Implied, isa.NoOperand{})}
			},
		},
		{
			Name:    "fuse-tya-tax-into-tyx",
			Pattern: Pattern{op(isa.TYA), op(isa.TAX)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.TYX, isa.Implied, isa.NoOperand{})}
			},
		},
	},
}

// UndocumentedOptimizations exploits well-known NMOS illegal opcodes,
// gated behind -fillegals the way the platform descriptor's dialect
// selection requires (undocumented opcodes behave differently across
// individual chip revisions, so a program relying on them is opting
// into a narrower compatibility guarantee).
var UndocumentedOptimizations = RuleSet{
	Name: "undocumented",
	Rules: []Rule{
		{
			// LAX loads both A and X from the same location in one
			// instruction and one memory access.
			Name: "fuse-lda-ldx-same-address-into-lax",
			Pattern: Pattern{
				LineMatcher{Ops: []isa.Opcode{isa.LDA}, Modes: []isa.Mode{isa.ZeroPage, isa.Absolute}, SameOperandAs: -1},
				LineMatcher{Ops: []isa.Opcode{isa.LDX}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return matched[1].Mode == matched[0].Mode
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return []isa.AssemblyLine{isa.ElidableLine(isa.LAX, matched[0].Mode, matched[0].Operand)}
			},
		},
	},
}

// DangerousOptimizations collects rewrites that are not universally
// safe: they hold under a common but not guaranteed assumption, and
// are only enabled at -Ob (speed regardless of size).
var DangerousOptimizations = RuleSet{
	Name: "dangerous",
	Rules: []Rule{
		{
			// Assumes the carry flag is never used as an input
			// convention by a called routine, which is common but not
			// universal -- some libraries read incoming carry as a
			// parameter. Dropping a CLC immediately before a JSR saves
			// a byte and a cycle whenever that assumption holds.
			Name:    "drop-clc-before-call-assuming-no-flag-convention",
			Pattern: Pattern{op(isa.CLC), op(isa.JSR)},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[1:]
			},
		},
	},
}

// ZeropageRegisterOptimizations treats zero-page locations the
// compiler uses as pseudo-registers (scratch cells, loop counters) as
// targets for zero-page-specific rewrites. It holds a single rule, a
// dead-store elimination, and is kept apart from CMOS's TSB fusion so
// a target without TSB (plain NMOS) still gets it.
var ZeropageRegisterOptimizations = RuleSet{
	Name: "zp-register",
	Rules: []Rule{
		{
			// Two transfers into the same zero-page scratch cell with
			// nothing read from it in between: the first store is
			// dead.
			Name: "elide-dead-store-to-scratch-before-overwrite",
			Pattern: Pattern{
				opMode(isa.STA, isa.ZeroPage),
				LineMatcher{SameOperandAs: -1},
				LineMatcher{Ops: []isa.Opcode{isa.STA}, Modes: []isa.Mode{isa.ZeroPage}, SameOperandAs: 0},
			},
			Precondition: func(_ []dataflow.CPUState, matched []isa.AssemblyLine) bool {
				return !touchesOperand(matched[1], matched[0].Operand)
			},
			Transform: func(matched []isa.AssemblyLine) []isa.AssemblyLine {
				return matched[1:]
			},
		},
	},
}

func mustEqual(c interface{ Eval() (int64, bool) }, want int64) bool {
	v, ok := c.Eval()
	return ok && v == want
}

// touchesOperand conservatively reports whether line could reference
// operand: true unless line plainly addresses a different location
// (any register-only instruction, or a memory instruction whose
// operand differs).
func touchesOperand(line isa.AssemblyLine, operand isa.Operand) bool {
	if line.Operand == nil || operand == nil {
		return false
	}
	if line.Mode == isa.Implied || line.Mode == isa.Accumulator || line.Mode == isa.Immediate {
		return false
	}
	return line.Operand.String() == operand.String()
}
