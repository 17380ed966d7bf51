package compiler

import (
	"testing"

	"sixc/internal/diag"
	"sixc/internal/env"
	"sixc/internal/env/fixtures"
	"sixc/internal/equiv"
	"sixc/internal/isa"
	"sixc/internal/konst"
)

func newTestContext() CompilationContext {
	e := fixtures.New("main")
	e.Define(fixtures.NewThing("counter", env.Variable, 1, konst.Symbol("counter"), true, false))
	e.Define(fixtures.NewThing("table", env.Array, 4, konst.Symbol("table"), false, false))
	var bag diag.Bag
	return NewContext(e, Options{Arch: isa.CMOS}, &bag, "main")
}

func TestLowerConstFoldsBinaryExpr(t *testing.T) {
	c := newTestContext()
	e := &Expr{
		Kind: ExprBinary,
		Op:   konst.Add,
		Left: &Expr{Kind: ExprConst, Const: konst.Byte(3)},
		Right: &Expr{Kind: ExprConst, Const: konst.Byte(4)},
	}
	c = Lower(c, e)
	if len(c.Lines) != 1 {
		t.Fatalf("expected one folded LDA, got %d lines", len(c.Lines))
	}
	if c.Lines[0].Op != isa.LDA || c.Lines[0].Mode != isa.Immediate {
		t.Errorf("expected LDA #n, got %s", c.Lines[0].String())
	}
	v, ok := c.Lines[0].Operand.(konst.Constant).Eval()
	if !ok || v != 7 {
		t.Errorf("expected folded value 7, got %v ok=%v", v, ok)
	}
}

func TestLowerIdentEmitsLoadFromAddress(t *testing.T) {
	c := newTestContext()
	e := &Expr{Kind: ExprIdent, Name: "counter"}
	c = Lower(c, e)
	if len(c.Lines) != 1 || c.Lines[0].Op != isa.LDA || c.Lines[0].Mode != isa.Absolute {
		t.Fatalf("expected a single LDA absolute, got %v", c.Lines)
	}
}

func TestLowerUndefinedIdentRecordsDiagnostic(t *testing.T) {
	c := newTestContext()
	e := &Expr{Kind: ExprIdent, Name: "nope"}
	c = Lower(c, e)
	if !c.Bag.HasErrors() {
		t.Error("expected an undefined-identifier diagnostic")
	}
}

func TestPrologueSmallFrameUsesPHA(t *testing.T) {
	c := newTestContext()
	c = Prologue(c, Signature{Name: "f", LocalsBytes: 3})
	count := 0
	for _, l := range c.Lines {
		if l.Op == isa.PHA {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 PHA instructions for a 3-byte frame, got %d", count)
	}
	for _, l := range c.Lines {
		if l.Op == isa.SBC {
			t.Error("small frame should not use SBC-based allocation")
		}
	}
}

func TestPrologueLargeFrameUsesStackPointerAdjustment(t *testing.T) {
	c := newTestContext()
	c = Prologue(c, Signature{Name: "f", LocalsBytes: pushRunThreshold + 1})
	found := false
	for _, l := range c.Lines {
		if l.Op == isa.SBC {
			found = true
		}
	}
	if !found {
		t.Error("frame above the push-run threshold should use SBC-based allocation")
	}
}

func opCount(lines []isa.AssemblyLine, op isa.Opcode) int {
	n := 0
	for _, l := range lines {
		if l.Op == op {
			n++
		}
	}
	return n
}

func TestInterruptPrologueOnCMOSUsesPushXY(t *testing.T) {
	c := newTestContext() // CMOS
	c = Prologue(c, Signature{Name: "irq", Interrupt: true})
	if opCount(c.Lines, isa.PHA) != 1 || opCount(c.Lines, isa.PHX) != 1 || opCount(c.Lines, isa.PHY) != 1 {
		t.Errorf("CMOS interrupt prologue should push A, X, Y via PHA/PHX/PHY, got %v", c.Lines)
	}
	if opCount(c.Lines, isa.TXA) != 0 {
		t.Error("CMOS interrupt prologue should not route X through A")
	}
	if opCount(c.Lines, isa.CLD) != 1 {
		t.Error("interrupt prologue must clear decimal mode")
	}
}

func TestInterruptPrologueOnNMOSSavesAllRegistersThroughA(t *testing.T) {
	e := fixtures.New("main")
	var bag diag.Bag
	c := NewContext(e, Options{Arch: isa.NMOS}, &bag, "main")
	c = Prologue(c, Signature{Name: "irq", Interrupt: true})
	if opCount(c.Lines, isa.PHA) != 3 {
		t.Errorf("NMOS interrupt prologue should push A, X and Y via PHA x3, got %d", opCount(c.Lines, isa.PHA))
	}
	if opCount(c.Lines, isa.TXA) != 1 || opCount(c.Lines, isa.TYA) != 1 {
		t.Error("NMOS interrupt prologue should route X and Y through A")
	}
	if opCount(c.Lines, isa.CLD) != 1 {
		t.Error("interrupt prologue must clear decimal mode")
	}
}

func TestInterruptEpilogueMatchesPrologue(t *testing.T) {
	c := newTestContext() // CMOS
	c = Epilogue(c, Signature{Name: "irq", Interrupt: true})
	if opCount(c.Lines, isa.PLY) != 1 || opCount(c.Lines, isa.PLX) != 1 || opCount(c.Lines, isa.PLA) != 1 {
		t.Errorf("CMOS interrupt epilogue should pop Y, X, A via PLY/PLX/PLA, got %v", c.Lines)
	}
	if c.Lines[len(c.Lines)-1].Op != isa.RTI {
		t.Errorf("interrupt epilogue must end in RTI, got %s", c.Lines[len(c.Lines)-1].String())
	}
}

func TestRuntimeIndexGuardEmittedByDefault(t *testing.T) {
	c := newTestContext()
	arr, _ := c.Env.LookupThing("table")
	c = checkRuntimeIndex(c, isa.Pos{}, arr)
	if opCount(c.Lines, isa.CPX) != 1 || opCount(c.Lines, isa.BCC) != 1 || opCount(c.Lines, isa.JSR) != 1 {
		t.Errorf("bounds guard should be emitted unless suppressed, got %v", c.Lines)
	}
	for _, l := range c.Lines {
		if l.Elidable {
			t.Errorf("bounds guard line %s must be pinned", l.String())
		}
	}
}

func TestRuntimeIndexGuardSuppressedPerContext(t *testing.T) {
	e := fixtures.New("main")
	e.Define(fixtures.NewThing("table", env.Array, 4, konst.Symbol("table"), false, false))
	var bag diag.Bag
	c := NewContext(e, Options{Arch: isa.CMOS, NeverCheckArrayBounds: true}, &bag, "main")
	arr, _ := c.Env.LookupThing("table")
	c = checkRuntimeIndex(c, isa.Pos{}, arr)
	if len(c.Lines) != 0 {
		t.Errorf("suppressed bounds check should emit nothing, got %v", c.Lines)
	}
}

func TestCheckConstIndexOutOfBoundsIsAnError(t *testing.T) {
	c := newTestContext()
	arr, _ := c.Env.LookupThing("table")
	c = checkConstIndex(c, isa.Pos{}, arr, 10)
	if !c.Bag.HasErrors() {
		t.Error("expected an out-of-bounds diagnostic")
	}
}

func TestCheckConstIndexInBoundsIsClean(t *testing.T) {
	c := newTestContext()
	arr, _ := c.Env.LookupThing("table")
	c = checkConstIndex(c, isa.Pos{}, arr, 2)
	if c.Bag.HasErrors() {
		t.Error("in-bounds index should not record a diagnostic")
	}
}

func TestLowerIfEmitsElseAndEndLabels(t *testing.T) {
	c := newTestContext()
	s := &Stmt{
		Kind: IfStmt,
		Cond: &Expr{Kind: ExprConst, Const: konst.Byte(1)},
		Then: []Stmt{{Kind: ExprStmt, Expr: &Expr{Kind: ExprConst, Const: konst.Byte(0)}}},
		Else: []Stmt{{Kind: ExprStmt, Expr: &Expr{Kind: ExprConst, Const: konst.Byte(0)}}},
	}
	c = LowerStmt(c, s)
	labels := 0
	for _, l := range c.Lines {
		if l.Op == isa.LABEL {
			labels++
		}
	}
	if labels != 2 {
		t.Errorf("if/else should emit 2 labels (else, end), got %d", labels)
	}
}

func TestLowerFunctionEndsWithReturnInstruction(t *testing.T) {
	c := newTestContext()
	c = LowerFunction(c, Signature{Name: "main"}, nil)
	last := c.Lines[len(c.Lines)-1]
	if last.Op != isa.RTS {
		t.Errorf("expected trailing RTS, got %s", last.String())
	}
}

func newLoopContext() CompilationContext {
	e := fixtures.New("main")
	e.Define(fixtures.NewThing("i", env.Variable, 1, konst.Symbol("i"), false, false))
	e.Define(fixtures.NewThing("n", env.Variable, 1, konst.Symbol("n"), false, false))
	e.Define(fixtures.NewThing("out", env.Variable, 1, konst.Symbol("out"), false, false))
	var bag diag.Bag
	return NewContext(e, Options{Arch: isa.NMOS}, &bag, "main")
}

func constExpr(v int64) *Expr { return &Expr{Kind: ExprConst, Const: konst.Byte(v)} }

func incrementOut() Stmt {
	return Stmt{Kind: AssignStmt, Name: "out", Expr: &Expr{
		Kind:  ExprBinary,
		Op:    konst.Add,
		Left:  &Expr{Kind: ExprIdent, Name: "out"},
		Right: constExpr(1),
	}}
}

func runLowered(t *testing.T, c CompilationContext) equiv.Machine {
	t.Helper()
	if c.Bag.HasErrors() {
		t.Fatalf("lowering reported errors: %v", c.Bag.All())
	}
	m, err := equiv.Run(c.Lines, equiv.NewMachine())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestLowerForUntilRunsExclusiveBound(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: ForStmt, For: &ForClause{Var: "i", From: constExpr(0), Dir: Until, Bound: constExpr(5)},
		Then: []Stmt{incrementOut()}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 5 {
		t.Errorf("until-loop body ran %d times, want 5", m.Mem["out"])
	}
}

func TestLowerForToRunsInclusiveBound(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: ForStmt, For: &ForClause{Var: "i", From: constExpr(0), Dir: To, Bound: constExpr(5)},
		Then: []Stmt{incrementOut()}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 6 {
		t.Errorf("to-loop body ran %d times, want 6", m.Mem["out"])
	}
}

func TestLowerForDownToDecrements(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: ForStmt, For: &ForClause{Var: "i", From: constExpr(3), Dir: DownTo, Bound: constExpr(1)},
		Then: []Stmt{incrementOut()}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 3 {
		t.Errorf("downto-loop body ran %d times, want 3", m.Mem["out"])
	}
	if m.Mem["i"] != 1 {
		t.Errorf("loop variable ended at %d, want 1", m.Mem["i"])
	}
}

func TestLowerForVariableBound(t *testing.T) {
	c := newLoopContext()
	body := []Stmt{
		{Kind: AssignStmt, Name: "n", Expr: constExpr(4)},
		{Kind: ForStmt, For: &ForClause{Var: "i", From: constExpr(0), Dir: Until,
			Bound: &Expr{Kind: ExprIdent, Name: "n"}},
			Then: []Stmt{incrementOut()}},
	}
	m := runLowered(t, LowerBlock(c, body))
	if m.Mem["out"] != 4 {
		t.Errorf("variable-bound loop ran %d times, want 4", m.Mem["out"])
	}
}

func TestLowerDoWhileRunsBodyAtLeastOnce(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: DoWhileStmt, Cond: constExpr(0), Then: []Stmt{incrementOut()}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 1 {
		t.Errorf("do-while body ran %d times, want 1", m.Mem["out"])
	}
}

func TestBreakLeavesInnermostLoop(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: WhileStmt, Cond: constExpr(1), Then: []Stmt{
		incrementOut(),
		{Kind: BreakStmt},
	}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 1 {
		t.Errorf("break should leave after one iteration, ran %d", m.Mem["out"])
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: ForStmt, For: &ForClause{Var: "i", From: constExpr(0), Dir: Until, Bound: constExpr(3)},
		Then: []Stmt{
			{Kind: ContinueStmt},
			incrementOut(),
		}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 0 {
		t.Errorf("continue should skip the increment every time, got %d", m.Mem["out"])
	}
	if m.Mem["i"] != 3 {
		t.Errorf("loop should still terminate with i=3, got %d", m.Mem["i"])
	}
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	c := newLoopContext()
	c = LowerStmt(c, &Stmt{Kind: BreakStmt})
	if !c.Bag.HasErrors() {
		t.Error("break outside a loop should be a diagnostic")
	}
}

func TestLabeledBreakLeavesOuterLoop(t *testing.T) {
	c := newLoopContext()
	s := &Stmt{Kind: WhileStmt, Label: "outer", Cond: constExpr(1), Then: []Stmt{
		incrementOut(),
		{Kind: WhileStmt, Cond: constExpr(1), Then: []Stmt{
			{Kind: BreakStmt, Label: "outer"},
		}},
	}}
	m := runLowered(t, LowerStmt(c, s))
	if m.Mem["out"] != 1 {
		t.Errorf("labeled break should leave both loops after one outer iteration, ran %d", m.Mem["out"])
	}
}
