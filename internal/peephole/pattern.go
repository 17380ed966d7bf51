// Package peephole implements the optimizer: a fixed-point loop over
// named rule sets, each rule a declarative pattern plus a transform,
// configured per optimization level and per target architecture.
package peephole

import "sixc/internal/isa"

// LineMatcher matches one isa.AssemblyLine within a Pattern. A nil/
// empty Ops or Modes list matches any opcode/mode; SameOperandAs, when
// >= 0, requires this line's operand to print identically to the
// operand of the matcher at that earlier index in the same Pattern --
// e.g. matching "STA $10" followed later by "LDA $10" without needing
// to know what address $10 resolves to.
type LineMatcher struct {
	Ops           []isa.Opcode
	Modes         []isa.Mode
	SameOperandAs int
	Elidable      bool // require the matched line be marked elidable
}

func (m LineMatcher) matches(line isa.AssemblyLine, prior []isa.AssemblyLine) bool {
	if m.Elidable && !line.Elidable {
		return false
	}
	if len(m.Ops) > 0 && !opIn(line.Op, m.Ops) {
		return false
	}
	if len(m.Modes) > 0 && !modeIn(line.Mode, m.Modes) {
		return false
	}
	if m.SameOperandAs >= 0 {
		if m.SameOperandAs >= len(prior) {
			return false
		}
		if line.Operand == nil || prior[m.SameOperandAs].Operand == nil {
			return line.Operand == prior[m.SameOperandAs].Operand
		}
		if line.Operand.String() != prior[m.SameOperandAs].Operand.String() {
			return false
		}
	}
	return true
}

func opIn(op isa.Opcode, ops []isa.Opcode) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func modeIn(mode isa.Mode, modes []isa.Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Pattern is an ordered sequence of LineMatchers a rule tries to match
// starting at each position in a line list.
type Pattern []LineMatcher

// Match reports whether Pattern matches lines[start:], returning the
// matched slice when it does.
func (p Pattern) Match(lines []isa.AssemblyLine, start int) ([]isa.AssemblyLine, bool) {
	if start+len(p) > len(lines) {
		return nil, false
	}
	window := lines[start : start+len(p)]
	for i, m := range p {
		if !m.matches(window[i], window[:i]) {
			return nil, false
		}
	}
	return window, true
}

// any builds a LineMatcher with no opcode/mode restriction beyond
// whatever else is set, used by rules that only care about an
// operand relationship (e.g. "any instruction, then the same operand
// again").
func any() LineMatcher { return LineMatcher{SameOperandAs: -1} }

func op(ops ...isa.Opcode) LineMatcher { return LineMatcher{Ops: ops, SameOperandAs: -1} }

func opMode(o isa.Opcode, modes ...isa.Mode) LineMatcher {
	return LineMatcher{Ops: []isa.Opcode{o}, Modes: modes, SameOperandAs: -1}
}
