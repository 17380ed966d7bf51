package equiv

import (
	"testing"

	"sixc/internal/isa"
	"sixc/internal/konst"
)

func TestRunLoadAndStore(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.Immediate, konst.Byte(5)),
		isa.Line(isa.STA, isa.ZeroPage, konst.Symbol("x")),
	}
	m, err := Run(lines, NewMachine())
	if err != nil {
		t.Fatal(err)
	}
	if m.Mem["x"] != 5 {
		t.Errorf("expected x=5, got %d", m.Mem["x"])
	}
}

func TestRunBranchLoop(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.Line(isa.LDX, isa.Immediate, konst.Byte(3)),
		isa.LabelLine(".loop", false),
		isa.Line(isa.DEX, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.BNE, isa.Relative, konst.Symbol(".loop")),
	}
	m, err := Run(lines, NewMachine())
	if err != nil {
		t.Fatal(err)
	}
	if m.X != 0 {
		t.Errorf("expected X=0 after loop, got %d", m.X)
	}
}

func TestCheckEquivalentAcceptsIdenticalSequences(t *testing.T) {
	addr := konst.Symbol("counter")
	ref := []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.ZeroPage, addr),
		isa.Line(isa.CLC, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.ADC, isa.Immediate, konst.Byte(1)),
		isa.Line(isa.STA, isa.ZeroPage, addr),
	}
	candidate := []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.ZeroPage, addr),
		isa.Line(isa.CLC, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.ADC, isa.Immediate, konst.Byte(1)),
		isa.Line(isa.STA, isa.ZeroPage, addr),
	}
	trials := make([]Machine, 0, 256)
	for i := 0; i < 256; i++ {
		m := NewMachine()
		m.Mem["counter"] = byte(i)
		trials = append(trials, m)
	}
	ok, mismatch, err := CheckEquivalent(ref, candidate, trials)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected identical sequences to be equivalent, mismatch: %v", mismatch)
	}
}

func TestCheckEquivalentRejectsDifferentSequences(t *testing.T) {
	ref := []isa.AssemblyLine{isa.Line(isa.LDA, isa.Immediate, konst.Byte(1))}
	candidate := []isa.AssemblyLine{isa.Line(isa.LDA, isa.Immediate, konst.Byte(2))}
	ok, mismatch, err := CheckEquivalent(ref, candidate, []Machine{NewMachine()})
	if err != nil {
		t.Fatal(err)
	}
	if ok || mismatch == nil {
		t.Fatal("expected a mismatch between LDA #1 and LDA #2")
	}
}
