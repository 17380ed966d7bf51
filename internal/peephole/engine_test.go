package peephole

import (
	"testing"

	"sixc/internal/isa"
	"sixc/internal/konst"
)

func TestRemoveElidableNop(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.NOP, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	}
	out := Apply(lines, QuickPreset)
	if len(out) != 1 || out[0].Op != isa.RTS {
		t.Fatalf("expected NOP removed, got %v", out)
	}
}

func TestElideSelfStore(t *testing.T) {
	addr := konst.Symbol("x")
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.LDA, isa.Absolute, addr),
		isa.ElidableLine(isa.STA, isa.Absolute, addr),
	}
	out := Apply(lines, QuickPreset)
	if len(out) != 1 || out[0].Op != isa.LDA {
		t.Fatalf("expected self-store elided, got %v", out)
	}
}

func TestElideTaxTxaPair(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.TAX, isa.Implied, isa.NoOperand{}),
		isa.ElidableLine(isa.TXA, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	}
	out := Apply(lines, Good)
	if len(out) != 2 || out[0].Op != isa.TAX || out[1].Op != isa.RTS {
		t.Fatalf("expected TXA elided, got %v", out)
	}
}

func TestFuseLoadAddOneStoreIntoInc(t *testing.T) {
	addr := konst.Symbol("counter")
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.LDA, isa.Absolute, addr),
		isa.ElidableLine(isa.CLC, isa.Implied, isa.NoOperand{}),
		isa.ElidableLine(isa.ADC, isa.Immediate, konst.Byte(1)),
		isa.ElidableLine(isa.STA, isa.Absolute, addr),
	}
	out := Apply(lines, LaterOptimizations)
	if len(out) != 1 || out[0].Op != isa.INC {
		t.Fatalf("expected fused INC, got %v", out)
	}
}

func TestFuseAdjacentDecDecIntoDewOnCE02(t *testing.T) {
	lo := konst.Symbol("ptr")
	hi := konst.CompoundConstant{Op: konst.Add, Left: konst.Symbol("ptr"), Right: konst.Byte(1)}
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.DEC, isa.ZeroPage, lo),
		isa.ElidableLine(isa.DEC, isa.ZeroPage, konst.QuickSimplify(hi)),
	}
	out := Apply(lines, CE02Optimizations)
	if len(out) != 1 || out[0].Op != isa.DEW {
		t.Fatalf("expected fused DEW, got %v", out)
	}
}

func TestRemoveDeadLocalLabelsDropsUnreferenced(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.LabelLine(".unused", true),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	}
	out := RemoveDeadLocalLabels(lines)
	if len(out) != 1 {
		t.Fatalf("expected dead label removed, got %v", out)
	}
}

func TestRemoveDeadLocalLabelsKeepsReferenced(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.Line(isa.JMP, isa.Absolute, konst.Symbol(".target")),
		isa.LabelLine(".target", true),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	}
	out := RemoveDeadLocalLabels(lines)
	if len(out) != 3 {
		t.Fatalf("expected referenced label kept, got %v", out)
	}
}

func TestApplyInterleavedRunsGoodAssGood(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.ElidableLine(isa.LDA, isa.ZeroPage, konst.Symbol("x")),
		isa.ElidableLine(isa.CMP, isa.Immediate, konst.Byte(0)),
	}
	out := ApplyInterleaved(lines, Good, AssOpt)
	if len(out) != 1 || out[0].Op != isa.LDA {
		t.Fatalf("expected redundant CMP #0 elided by the sandwiched ass pass, got %v", out)
	}
}

func TestNonElidableLinesSurviveEveryRule(t *testing.T) {
	// The same shapes the rules above rewrite, but pinned: the engine
	// must refuse to consume any of them.
	lines := []isa.AssemblyLine{
		isa.Line(isa.NOP, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.TAX, isa.Implied, isa.NoOperand{}),
		isa.Line(isa.TXA, isa.Implied, isa.NoOperand{}),
	}
	out := Apply(lines, QuickPreset, Good, AssOpt, LaterOptimizations)
	if len(out) != len(lines) {
		t.Fatalf("pinned lines must pass through untouched, got %v", out)
	}
}
