// Package superopt implements the exhaustive peephole search run at
// -O9: for a short basic block (no more than a handful of
// instructions, since the search space grows exponentially with
// length), enumerate candidate replacement sequences strictly shorter
// than the input and accept the first one the equiv package proves
// behaviorally identical across a representative input sweep. This
// trades compile time for code size/speed in a way none of the
// pattern-matched peephole rules can, since it isn't limited to shapes
// anyone thought to write a Rule for.
package superopt

import (
	"sixc/internal/equiv"
	"sixc/internal/isa"
	"sixc/internal/konst"
)

// MaxCandidateLength bounds how long a synthesized replacement may be:
// Search tries candidate lengths up to the smaller of this and one
// less than the target's own length.
const MaxCandidateLength = 4

// candidateImmediates are the immediate operand values the search
// tries; real programs overwhelmingly combine accumulator contents
// with 0, 1, -1 and a handful of other small constants, and searching
// all 256 values for every slot multiplies the space by 256 per
// instruction, which is not worth it for the marginal candidates it
// would add.
var candidateImmediates = []int64{0, 1, 0xff}

type templateOp struct {
	op          isa.Opcode
	mode        isa.Mode
	needsOperand bool
}

var templates = []templateOp{
	{isa.LDA, isa.Immediate, true},
	{isa.ADC, isa.Immediate, true},
	{isa.SBC, isa.Immediate, true},
	{isa.AND, isa.Immediate, true},
	{isa.ORA, isa.Immediate, true},
	{isa.EOR, isa.Immediate, true},
	{isa.CLC, isa.Implied, false},
	{isa.SEC, isa.Implied, false},
	{isa.TAX, isa.Implied, false},
	{isa.TXA, isa.Implied, false},
	{isa.INX, isa.Implied, false},
	{isa.DEX, isa.Implied, false},
	{isa.NOP, isa.Implied, false},
}

// candidateLines expands templates into concrete AssemblyLine choices
// for one instruction slot.
func candidateLines() []isa.AssemblyLine {
	var out []isa.AssemblyLine
	for _, tpl := range templates {
		if !tpl.needsOperand {
			out = append(out, isa.Line(tpl.op, tpl.mode, isa.NoOperand{}))
			continue
		}
		for _, v := range candidateImmediates {
			out = append(out, isa.Line(tpl.op, tpl.mode, konst.Byte(v)))
		}
	}
	return out
}

// Search looks for a sequence shorter than target that equiv proves
// equivalent to it over a full single-byte accumulator sweep. It tries
// every length from 1 up to len(target)-1 (capped at
// MaxCandidateLength) in order, returning the first (and therefore
// shortest) equivalent candidate found. Reports ok=false if target has
// at most one line, or if the search exhausts its space without
// finding anything provably equivalent.
func Search(target []isa.AssemblyLine) (best []isa.AssemblyLine, ok bool) {
	if len(target) <= 1 {
		return nil, false
	}
	pool := candidateLines()
	trials := equiv.TrialsOverByte()

	maxLen := len(target) - 1
	if maxLen > MaxCandidateLength {
		maxLen = MaxCandidateLength
	}

	for length := 1; length <= maxLen; length++ {
		found, ok := searchLength(target, pool, trials, length)
		if ok {
			return found, true
		}
	}
	return nil, false
}

func searchLength(target, pool []isa.AssemblyLine, trials []equiv.Machine, length int) ([]isa.AssemblyLine, bool) {
	indices := make([]int, length)
	for {
		candidate := make([]isa.AssemblyLine, length)
		for i, idx := range indices {
			candidate[i] = pool[idx]
		}
		if ok, _, err := equiv.CheckEquivalent(target, candidate, trials); err == nil && ok {
			return candidate, true
		}
		if !increment(indices, len(pool)) {
			return nil, false
		}
	}
}

// increment advances indices as a base-`base` odometer; returns false
// once every combination has been produced.
func increment(indices []int, base int) bool {
	for i := len(indices) - 1; i >= 0; i-- {
		indices[i]++
		if indices[i] < base {
			return true
		}
		indices[i] = 0
	}
	return false
}
