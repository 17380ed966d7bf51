// Package dataflow abstractly interprets a straight-line run of
// isa.AssemblyLine values to track what is known about the CPU's
// registers and flags at each point, the way the peephole engine needs
// to in order to tell whether eliding an instruction (e.g. a redundant
// LDA) is safe. It is a forward abstract interpreter over the
// per-opcode semantics an emulator executes concretely;
// dataflow keeps the concrete values only when they are known at
// compile time and falls back to Unknown otherwise, rather than
// simulating the full machine.
package dataflow

import "sixc/internal/isa"

// ValueKind classifies what is known about a register or flag.
type ValueKind byte

const (
	Unknown ValueKind = iota
	KnownByte
	SameAsA
	SameAsX
	SameAsY
)

// Value is one lattice element: either nothing is known, a concrete
// byte is known, or the register is known to hold the same value as
// another register (tracked across transfer instructions like TAX
// without needing to know the actual byte).
type Value struct {
	Kind  ValueKind
	Byte  byte
}

var valueUnknown = Value{Kind: Unknown}

func known(b byte) Value { return Value{Kind: KnownByte, Byte: b} }

// Equal reports whether two Value lattice elements describe the same
// fact. Two Unknowns are NOT equal in the lattice-join sense (neither
// proves anything), but Equal here asks the simpler "are these two
// facts identical" question the peephole engine's precondition
// matchers need.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KnownByte {
		return v.Byte == o.Byte
	}
	return true
}

// Tri is a three-valued flag: unknown, known-set, known-clear.
type Tri byte

const (
	TriUnknown Tri = iota
	TriSet
	TriClear
)

func triOf(b bool) Tri {
	if b {
		return TriSet
	}
	return TriClear
}

// CPUState is one point in the abstract interpretation: what is known
// about each register and processor flag. The zero value is "nothing
// known about anything", the safe starting assumption at a label
// (a jump target merges in from every possible predecessor, so no
// fact about the register values survives across it).
type CPUState struct {
	A, X, Y Value
	Carry, Zero, Negative, Overflow, Decimal Tri
}

// Join computes the meet of two states across a control-flow merge:
// a fact survives only if both predecessors agree on it exactly.
func Join(a, b CPUState) CPUState {
	return CPUState{
		A: joinValue(a.A, b.A), X: joinValue(a.X, b.X), Y: joinValue(a.Y, b.Y),
		Carry:    joinTri(a.Carry, b.Carry),
		Zero:     joinTri(a.Zero, b.Zero),
		Negative: joinTri(a.Negative, b.Negative),
		Overflow: joinTri(a.Overflow, b.Overflow),
		Decimal:  joinTri(a.Decimal, b.Decimal),
	}
}

func joinValue(a, b Value) Value {
	if a.Equal(b) {
		return a
	}
	return valueUnknown
}

func joinTri(a, b Tri) Tri {
	if a == b {
		return a
	}
	return TriUnknown
}

// isBranchOrJump reports whether op transfers control. The analyzer
// keeps register facts across the fall-through edge of a branch but
// resets at every label, since a label merges in from predecessors it
// cannot see (see Step).
func isBranchOrJump(op isa.Opcode) bool {
	switch op {
	case isa.BCC, isa.BCS, isa.BEQ, isa.BNE, isa.BMI, isa.BPL, isa.BVC, isa.BVS, isa.BRA,
		isa.JMP, isa.JSR, isa.JSR_ABS, isa.RTS, isa.RTI, isa.BBR, isa.BBS, isa.BSR, isa.RTN:
		return true
	default:
		return false
	}
}
