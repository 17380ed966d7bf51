package dataflow

import (
	"testing"

	"sixc/internal/isa"
	"sixc/internal/konst"
)

func TestLDAImmediateIsKnown(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.Immediate, konst.Byte(5)),
	}
	states := Analyze(lines, nil)
	after := Step(states[0], lines[0], nil)
	if after.A.Kind != KnownByte || after.A.Byte != 5 {
		t.Fatalf("expected A=5 known, got %+v", after.A)
	}
	if after.Zero != TriClear || after.Negative != TriClear {
		t.Errorf("expected Z=0 N=0 for A=5, got Z=%v N=%v", after.Zero, after.Negative)
	}
}

func TestLDAZeroSetsZeroFlag(t *testing.T) {
	after := Step(CPUState{}, isa.Line(isa.LDA, isa.Immediate, konst.Byte(0)), nil)
	if after.Zero != TriSet {
		t.Errorf("expected Z=1 for A=0, got %v", after.Zero)
	}
}

func TestTAXPropagatesKnownValue(t *testing.T) {
	s := CPUState{A: known(0x42)}
	after := Step(s, isa.Line(isa.TAX, isa.Implied, isa.NoOperand{}), nil)
	if after.X.Kind != KnownByte || after.X.Byte != 0x42 {
		t.Errorf("expected X=0x42 after TAX, got %+v", after.X)
	}
}

func TestAddWithKnownCarryFoldsResult(t *testing.T) {
	s := CPUState{A: known(0x10), Carry: TriClear, Decimal: TriClear}
	after := Step(s, isa.Line(isa.ADC, isa.Immediate, konst.Byte(0x05)), nil)
	if after.A.Kind != KnownByte || after.A.Byte != 0x15 {
		t.Errorf("expected A=0x15 after ADC #5, got %+v", after.A)
	}
	if after.Carry != TriClear {
		t.Errorf("expected no carry out of 0x10+0x05, got %v", after.Carry)
	}
}

func TestAddWithUnknownCarryStaysUnknown(t *testing.T) {
	s := CPUState{A: known(0x10), Carry: TriUnknown, Decimal: TriClear}
	after := Step(s, isa.Line(isa.ADC, isa.Immediate, konst.Byte(0x05)), nil)
	if after.A.Kind != Unknown {
		t.Errorf("ADC with unknown carry-in should yield Unknown A, got %+v", after.A)
	}
}

func TestLabelResetsAllKnowledge(t *testing.T) {
	s := CPUState{A: known(1), X: known(2), Carry: TriSet}
	after := Step(s, isa.LabelLine("loop", false), nil)
	if after.A.Kind != Unknown || after.X.Kind != Unknown || after.Carry != TriUnknown {
		t.Errorf("label should clear all knowledge, got %+v", after)
	}
}

func TestBranchPreservesStateOnFallThrough(t *testing.T) {
	s := CPUState{A: known(9)}
	after := Step(s, isa.Line(isa.BEQ, isa.Relative, konst.Symbol(".somewhere")), nil)
	if after.A.Kind != KnownByte || after.A.Byte != 9 {
		t.Error("fall-through edge of a branch should preserve prior state")
	}
}

func TestJoinKeepsOnlyAgreeingFacts(t *testing.T) {
	a := CPUState{A: known(1), Carry: TriSet}
	b := CPUState{A: known(1), Carry: TriClear}
	j := Join(a, b)
	if j.A.Kind != KnownByte || j.A.Byte != 1 {
		t.Error("Join should keep a fact both predecessors agree on")
	}
	if j.Carry != TriUnknown {
		t.Error("Join should drop a fact predecessors disagree on")
	}
}

func TestUnmodeledOpcodeScramblesState(t *testing.T) {
	s := CPUState{A: known(1), X: known(2), Y: known(3)}
	after := Step(s, isa.Line(isa.JML, isa.LongAbsolute, konst.Word(0x1000)), nil)
	if after.A.Kind != Unknown {
		t.Error("unmodeled-opcode default should scramble A")
	}
}
