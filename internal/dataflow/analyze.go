package dataflow

import "sixc/internal/isa"

// Evaluator is consulted for the concrete value of an operand when
// the line addresses something other than an immediate (e.g. a
// zero-page location known to be a compile-time constant because it
// holds a `const` the compiler folded). The peephole engine passes
// nil when no such knowledge is available, in which case every
// non-immediate operand is treated as Unknown -- the safe default.
type Evaluator interface {
	KnownByteAt(operand isa.Operand) (byte, bool)
}

func operandByte(line isa.AssemblyLine, ev Evaluator) (byte, bool) {
	if line.Mode == isa.Immediate {
		if c, ok := line.Operand.(interface{ Eval() (int64, bool) }); ok {
			if v, known := c.Eval(); known {
				return byte(v), true
			}
		}
		return 0, false
	}
	if ev != nil {
		return ev.KnownByteAt(line.Operand)
	}
	return 0, false
}

// Step applies one instruction's abstract semantics to in, returning
// the resulting state. Opcodes this package does not model (most
// addressing-mode variants of loads/stores to memory, and anything
// architecture-specific) fall to the conservative default: every
// register and flag becomes Unknown. Labels clear every register and
// flag, since control can resume at a label from any predecessor, and
// so do subroutine calls, since the callee may change any of them;
// other branches and jumps leave the state unchanged.
func Step(in CPUState, line isa.AssemblyLine, ev Evaluator) CPUState {
	if line.Op == isa.LABEL {
		return CPUState{}
	}
	if line.Op == isa.JSR || line.Op == isa.JSR_ABS || line.Op == isa.BSR {
		return CPUState{}
	}
	if isBranchOrJump(line.Op) {
		// A branch doesn't clobber registers on the fall-through edge,
		// but the taken edge may arrive at a label with different
		// history, so conservatively the analyzer resets at the next
		// label rather than here; along the fall-through edge state is
		// unchanged.
		return in
	}

	out := in
	switch line.Op {
	case isa.LDA:
		if b, ok := operandByte(line, ev); ok {
			out.A = known(b)
		} else {
			out.A = valueUnknown
		}
		out.Zero, out.Negative = zeroNegOf(out.A)

	case isa.LDX:
		if b, ok := operandByte(line, ev); ok {
			out.X = known(b)
		} else {
			out.X = valueUnknown
		}
		out.Zero, out.Negative = zeroNegOf(out.X)

	case isa.LDY:
		if b, ok := operandByte(line, ev); ok {
			out.Y = known(b)
		} else {
			out.Y = valueUnknown
		}
		out.Zero, out.Negative = zeroNegOf(out.Y)

	case isa.STA, isa.STX, isa.STY, isa.STZ:
		// No register effect; flags unaffected.

	case isa.TAX:
		out.X = Value{Kind: SameAsA}
		if in.A.Kind == KnownByte {
			out.X = known(in.A.Byte)
		}
		out.Zero, out.Negative = zeroNegOf(out.X)
	case isa.TXA:
		out.A = Value{Kind: SameAsX}
		if in.X.Kind == KnownByte {
			out.A = known(in.X.Byte)
		}
		out.Zero, out.Negative = zeroNegOf(out.A)
	case isa.TAY:
		out.Y = Value{Kind: SameAsA}
		if in.A.Kind == KnownByte {
			out.Y = known(in.A.Byte)
		}
		out.Zero, out.Negative = zeroNegOf(out.Y)
	case isa.TYA:
		out.A = Value{Kind: SameAsY}
		if in.Y.Kind == KnownByte {
			out.A = known(in.Y.Byte)
		}
		out.Zero, out.Negative = zeroNegOf(out.A)

	case isa.INX:
		out.X = addKnown(in.X, 1)
		out.Zero, out.Negative = zeroNegOf(out.X)
	case isa.DEX:
		out.X = addKnown(in.X, -1)
		out.Zero, out.Negative = zeroNegOf(out.X)
	case isa.INY:
		out.Y = addKnown(in.Y, 1)
		out.Zero, out.Negative = zeroNegOf(out.Y)
	case isa.DEY:
		out.Y = addKnown(in.Y, -1)
		out.Zero, out.Negative = zeroNegOf(out.Y)

	case isa.CLC:
		out.Carry = TriClear
	case isa.SEC:
		out.Carry = TriSet
	case isa.CLD:
		out.Decimal = TriClear
	case isa.SED:
		out.Decimal = TriSet
	case isa.CLV:
		out.Overflow = TriClear

	case isa.ADC:
		b, bok := operandByte(line, ev)
		if bok && in.A.Kind == KnownByte && in.Carry != TriUnknown && in.Decimal == TriClear {
			carry := 0
			if in.Carry == TriSet {
				carry = 1
			}
			sum := int(in.A.Byte) + int(b) + carry
			out.A = known(byte(sum))
			out.Carry = triOf(sum > 0xff)
		} else {
			out.A = valueUnknown
			out.Carry = TriUnknown
		}
		out.Zero, out.Negative = zeroNegOf(out.A)
		out.Overflow = TriUnknown

	case isa.SBC:
		b, bok := operandByte(line, ev)
		if bok && in.A.Kind == KnownByte && in.Carry != TriUnknown && in.Decimal == TriClear {
			borrow := 0
			if in.Carry == TriClear {
				borrow = 1
			}
			diff := int(in.A.Byte) - int(b) - borrow
			out.A = known(byte(diff))
			out.Carry = triOf(diff >= 0)
		} else {
			out.A = valueUnknown
			out.Carry = TriUnknown
		}
		out.Zero, out.Negative = zeroNegOf(out.A)
		out.Overflow = TriUnknown

	case isa.AND:
		out.A = combine(in.A, line, ev, func(a, b byte) byte { return a & b })
		out.Zero, out.Negative = zeroNegOf(out.A)
	case isa.ORA:
		out.A = combine(in.A, line, ev, func(a, b byte) byte { return a | b })
		out.Zero, out.Negative = zeroNegOf(out.A)
	case isa.EOR:
		out.A = combine(in.A, line, ev, func(a, b byte) byte { return a ^ b })
		out.Zero, out.Negative = zeroNegOf(out.A)

	case isa.CMP:
		b, bok := operandByte(line, ev)
		if bok && in.A.Kind == KnownByte {
			out.Carry = triOf(in.A.Byte >= b)
			out.Zero = triOf(in.A.Byte == b)
			out.Negative = triOf(int8(in.A.Byte-b) < 0)
		} else {
			out.Carry, out.Zero, out.Negative = TriUnknown, TriUnknown, TriUnknown
		}

	case isa.NOP:
		// No effect at all; this is the case peephole rules exploit to
		// elide a NOP outright without consulting the analyzer.

	default:
		// Unmodeled opcode: conservatively scramble everything it
		// could plausibly have touched.
		out = CPUState{}
	}
	return out
}

func zeroNegOf(v Value) (Tri, Tri) {
	if v.Kind != KnownByte {
		return TriUnknown, TriUnknown
	}
	return triOf(v.Byte == 0), triOf(int8(v.Byte) < 0)
}

func addKnown(v Value, delta int) Value {
	if v.Kind != KnownByte {
		return valueUnknown
	}
	return known(byte(int(v.Byte) + delta))
}

func combine(a Value, line isa.AssemblyLine, ev Evaluator, f func(a, b byte) byte) Value {
	b, bok := operandByte(line, ev)
	if !bok || a.Kind != KnownByte {
		return valueUnknown
	}
	return known(f(a.Byte, b))
}

// Analyze runs Step across an entire line list, returning the state
// that holds immediately *before* each line (so Analyze(lines)[i]
// describes the machine state a peephole rule matching at lines[i]
// can rely on). The initial state is entirely Unknown, matching a
// function entry point whose caller's register contents are never
// assumed.
func Analyze(lines []isa.AssemblyLine, ev Evaluator) []CPUState {
	states := make([]CPUState, len(lines))
	state := CPUState{}
	for i, l := range lines {
		states[i] = state
		state = Step(state, l, ev)
	}
	return states
}
