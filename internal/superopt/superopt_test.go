package superopt

import (
	"testing"

	"sixc/internal/equiv"
	"sixc/internal/isa"
	"sixc/internal/konst"
)

func TestSearchFindsShorterEquivalentForDoubleNegation(t *testing.T) {
	target := []isa.AssemblyLine{
		isa.Line(isa.EOR, isa.Immediate, konst.Byte(0xff)),
		isa.Line(isa.EOR, isa.Immediate, konst.Byte(0xff)),
		isa.Line(isa.NOP, isa.Implied, isa.NoOperand{}),
	}
	found, ok := Search(target)
	if !ok {
		t.Fatal("expected the superoptimizer to find a shorter equivalent")
	}
	if len(found) >= len(target) {
		t.Errorf("expected a strictly shorter candidate, got %d instructions for a %d-instruction target", len(found), len(target))
	}
	eqOk, mismatch, err := equiv.CheckEquivalent(target, found, equiv.TrialsOverByte())
	if err != nil {
		t.Fatal(err)
	}
	if !eqOk {
		t.Fatalf("search returned a non-equivalent candidate: %v", mismatch)
	}
}

func TestSearchReportsFailureWhenNothingShorterExists(t *testing.T) {
	target := []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.Immediate, konst.Byte(1)),
	}
	if _, ok := Search(target); ok {
		t.Error("a single-instruction target has nothing shorter to find")
	}
}

func TestOptimizeFunctionRewritesOnlyElidableBlocks(t *testing.T) {
	double := func() []isa.AssemblyLine {
		return []isa.AssemblyLine{
			isa.ElidableLine(isa.EOR, isa.Immediate, konst.Byte(0xff)),
			isa.ElidableLine(isa.EOR, isa.Immediate, konst.Byte(0xff)),
			isa.ElidableLine(isa.NOP, isa.Implied, isa.NoOperand{}),
		}
	}
	lines := append(double(), isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}))
	out := OptimizeFunction(lines)
	if len(out) >= len(lines) {
		t.Errorf("expected the double-negation block shortened, got %d lines", len(out))
	}
	if out[len(out)-1].Op != isa.RTS {
		t.Errorf("block boundary must survive, got %v", out)
	}

	pinned := double()
	pinned[1].Elidable = false
	pinned = append(pinned, isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}))
	out = OptimizeFunction(pinned)
	if len(out) != len(pinned) {
		t.Errorf("a block containing a pinned line must be left alone, got %d lines", len(out))
	}
}

func TestOptimizeFunctionSplitsBlocksAtBranches(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.EOR, isa.Immediate, konst.Byte(0xff)),
		isa.ElidableLine(isa.BNE, isa.Relative, konst.Symbol(".x")),
		isa.ElidableLine(isa.EOR, isa.Immediate, konst.Byte(0xff)),
	}
	out := OptimizeFunction(lines)
	if len(out) != 3 {
		t.Errorf("single-instruction blocks around a branch have nothing to shorten, got %v", out)
	}
}
