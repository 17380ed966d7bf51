package compiler

import (
	"sixc/internal/isa"
	"sixc/internal/konst"
)

// Stmt is the statement compiler's input tree, the statement-level
// counterpart to Expr.
type Stmt struct {
	Kind  StmtKind
	Pos   isa.Pos
	Expr  *Expr  // ExprStmt, ReturnStmt (nil for bare return)
	Name  string // AssignStmt target identifier
	Index *Expr  // AssignStmt target index, nil for a plain (non-array) target
	Cond  *Expr  // IfStmt, WhileStmt, DoWhileStmt
	Then  []Stmt // IfStmt, loop bodies
	Else  []Stmt // IfStmt
	Label string // loop statements: user-visible loop label; Break/Continue: target loop ("" = innermost)
	For   *ForClause
	Sig   *Signature
}

type StmtKind byte

const (
	ExprStmt StmtKind = iota
	AssignStmt
	IfStmt
	WhileStmt
	DoWhileStmt
	ForStmt
	BreakStmt
	ContinueStmt
	ReturnStmt
)

// ForDirection distinguishes the counting loops the language offers.
// The parallel variants declare the body data-parallel, which licenses
// iteration reordering; this compiler lowers them identically to their
// sequential twins and leaves reordering to the optimizer, which may
// exploit the license but is never obliged to.
type ForDirection byte

const (
	To ForDirection = iota // ascending, inclusive bound
	Until                  // ascending, exclusive bound
	DownTo                 // descending, inclusive bound
	ParallelTo
	ParallelUntil
)

// ForClause is a counting loop's header: the loop variable (a declared
// byte variable), its starting value, the bound, and the direction.
type ForClause struct {
	Var   string
	From  *Expr
	Dir   ForDirection
	Bound *Expr
}

// LowerBlock compiles a sequence of statements in order, threading the
// context through each one.
func LowerBlock(c CompilationContext, stmts []Stmt) CompilationContext {
	for i := range stmts {
		c = LowerStmt(c, &stmts[i])
	}
	return c
}

func LowerStmt(c CompilationContext, s *Stmt) CompilationContext {
	switch s.Kind {
	case ExprStmt:
		return Lower(c, s.Expr)

	case AssignStmt:
		return lowerAssign(c, s)

	case IfStmt:
		return lowerIf(c, s)

	case WhileStmt:
		return lowerWhile(c, s)

	case DoWhileStmt:
		return lowerDoWhile(c, s)

	case ForStmt:
		return lowerFor(c, s)

	case BreakStmt:
		target, ok := c.breakLabels[s.Label]
		if !ok {
			c.errorf(s.Pos, "undefined", "break outside a matching loop")
			return c
		}
		return c.Emit(isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(target)))

	case ContinueStmt:
		target, ok := c.continueLabels[s.Label]
		if !ok {
			c.errorf(s.Pos, "undefined", "continue outside a matching loop")
			return c
		}
		return c.Emit(isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(target)))

	case ReturnStmt:
		if s.Expr != nil {
			c = Lower(c, s.Expr)
		}
		// The caller (the function compiler driving LowerBlock for a
		// whole body) appends Epilogue once at the end; an early
		// return instead jumps to the shared epilogue label so the
		// frame-teardown sequence exists exactly once per function.
		return c.Emit(isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(".epilogue")))

	default:
		c.errorf(s.Pos, "internal", "unhandled statement kind %d", s.Kind)
		return c
	}
}

func lowerAssign(c CompilationContext, s *Stmt) CompilationContext {
	c = Lower(c, s.Expr)

	if s.Index != nil {
		arr, ok := c.Env.LookupThing(s.Name)
		if !ok {
			c.errorf(s.Pos, "undefined", "undefined array %q", s.Name)
			return c
		}
		if s.Index.Kind == ExprConst {
			if v, known := s.Index.Const.Eval(); known {
				c = checkConstIndex(c, s.Pos, arr, int(v))
				addr := konst.QuickSimplify(konst.CompoundConstant{Op: konst.Add, Left: arr.Address(), Right: konst.Byte(v)})
				return c.Emit(isa.ElidableLine(isa.STA, isa.Absolute, addr))
			}
		}
		stash := scratchAt(c.scratchDepth)
		c = c.Emit(isa.ElidableLine(isa.STA, isa.ZeroPage, stash))
		c.scratchDepth++
		c = Lower(c, s.Index)
		c.scratchDepth--
		c = c.Emit(isa.ElidableLine(isa.TAX, isa.Implied, isa.NoOperand{}))
		c = checkRuntimeIndex(c, s.Pos, arr)
		c = c.Emit(isa.ElidableLine(isa.LDA, isa.ZeroPage, stash))
		return c.Emit(isa.ElidableLine(isa.STA, isa.AbsoluteX, arr.Address()))
	}

	thing, ok := c.Env.LookupThing(s.Name)
	if !ok {
		c.errorf(s.Pos, "undefined", "undefined identifier %q", s.Name)
		return c
	}
	return c.Emit(isa.ElidableLine(isa.STA, isa.Absolute, thing.Address()))
}

func lowerIf(c CompilationContext, s *Stmt) CompilationContext {
	var elseLabel, endLabel string
	c, elseLabel = c.FreshLabel("else")
	c, endLabel = c.FreshLabel("endif")

	c = Lower(c, s.Cond)
	c = c.EmitAll(
		isa.ElidableLine(isa.CMP, isa.Immediate, konst.Byte(0)),
		isa.ElidableLine(isa.BEQ, isa.Relative, konst.Symbol(elseLabel)),
	)
	c = LowerBlock(c, s.Then)
	if len(s.Else) > 0 {
		c = c.Emit(isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(endLabel)))
		c = c.Emit(isa.LabelLine(elseLabel, true))
		c = LowerBlock(c, s.Else)
		c = c.Emit(isa.LabelLine(endLabel, true))
	} else {
		c = c.Emit(isa.LabelLine(elseLabel, true))
	}
	return c
}

func lowerWhile(c CompilationContext, s *Stmt) CompilationContext {
	var topLabel, endLabel string
	c, topLabel = c.FreshLabel("loop")
	c, endLabel = c.FreshLabel("endloop")

	c = c.Emit(isa.LabelLine(topLabel, false))
	c = Lower(c, s.Cond)
	c = c.EmitAll(
		isa.ElidableLine(isa.CMP, isa.Immediate, konst.Byte(0)),
		isa.ElidableLine(isa.BEQ, isa.Relative, konst.Symbol(endLabel)),
	)
	c = lowerLoopBody(c, s, endLabel, topLabel)
	c = c.Emit(isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(topLabel)))
	return c.Emit(isa.LabelLine(endLabel, true))
}

// lowerLoopBody compiles a loop's body with break/continue bound to
// the given labels, unbinding them again afterwards.
func lowerLoopBody(c CompilationContext, s *Stmt, breakTo, continueTo string) CompilationContext {
	inner := c.enterLoop(s.Label, breakTo, continueTo)
	inner = LowerBlock(inner, s.Then)
	inner.breakLabels, inner.continueLabels = c.breakLabels, c.continueLabels
	return inner
}

// lowerDoWhile runs the body before the first condition check, so the
// backward branch carries the loop: body, test, branch-if-true back.
func lowerDoWhile(c CompilationContext, s *Stmt) CompilationContext {
	var topLabel, condLabel, endLabel string
	c, topLabel = c.FreshLabel("doloop")
	c, condLabel = c.FreshLabel("docond")
	c, endLabel = c.FreshLabel("enddo")

	c = c.Emit(isa.LabelLine(topLabel, false))
	c = lowerLoopBody(c, s, endLabel, condLabel)
	c = c.Emit(isa.LabelLine(condLabel, false))
	c = Lower(c, s.Cond)
	c = c.EmitAll(
		isa.ElidableLine(isa.CMP, isa.Immediate, konst.Byte(0)),
		isa.ElidableLine(isa.BNE, isa.Relative, konst.Symbol(topLabel)),
	)
	return c.Emit(isa.LabelLine(endLabel, true))
}

// forBoundOperand turns a counting loop's bound into a CMP operand:
// a known constant compares immediate, a plain variable compares
// against its storage. Anything more elaborate is rejected rather
// than silently evaluated per iteration with clobbered scratch cells.
func forBoundOperand(c CompilationContext, s *Stmt) (isa.Mode, konst.Constant, bool) {
	bound := s.For.Bound
	if bound.Kind == ExprConst {
		if v, known := bound.Const.Eval(); known {
			return isa.Immediate, konst.Byte(v), true
		}
	}
	if bound.Kind == ExprIdent {
		if thing, ok := c.Env.LookupThing(bound.Name); ok {
			return isa.Absolute, thing.Address(), true
		}
	}
	c.errorf(s.Pos, "unsupported", "for-loop bound must be a constant or a variable")
	return 0, nil, false
}

// lowerFor compiles the counting loops. Ascending-exclusive (until)
// tests before the body; the inclusive forms (to, downto) test after
// it, running the body at least once and stopping on bound equality.
func lowerFor(c CompilationContext, s *Stmt) CompilationContext {
	v, ok := c.Env.LookupThing(s.For.Var)
	if !ok {
		c.errorf(s.Pos, "undefined", "undefined loop variable %q", s.For.Var)
		return c
	}

	var topLabel, nextLabel, endLabel string
	c, topLabel = c.FreshLabel("for")
	c, nextLabel = c.FreshLabel("fornext")
	c, endLabel = c.FreshLabel("endfor")

	c = Lower(c, s.For.From)
	c = c.Emit(isa.ElidableLine(isa.STA, isa.Absolute, v.Address()))
	c = c.Emit(isa.LabelLine(topLabel, false))

	mode, bound, ok := forBoundOperand(c, s)
	if !ok {
		return c
	}

	step := isa.INC
	if s.For.Dir == DownTo {
		step = isa.DEC
	}

	exclusive := s.For.Dir == Until || s.For.Dir == ParallelUntil
	if exclusive {
		c = c.EmitAll(
			isa.ElidableLine(isa.LDA, isa.Absolute, v.Address()),
			isa.ElidableLine(isa.CMP, mode, bound),
			isa.ElidableLine(isa.BEQ, isa.Relative, konst.Symbol(endLabel)),
		)
	}
	c = lowerLoopBody(c, s, endLabel, nextLabel)
	c = c.Emit(isa.LabelLine(nextLabel, false))
	if !exclusive {
		c = c.EmitAll(
			isa.ElidableLine(isa.LDA, isa.Absolute, v.Address()),
			isa.ElidableLine(isa.CMP, mode, bound),
			isa.ElidableLine(isa.BEQ, isa.Relative, konst.Symbol(endLabel)),
		)
	}
	c = c.EmitAll(
		isa.ElidableLine(step, isa.Absolute, v.Address()),
		isa.ElidableLine(isa.JMP, isa.Absolute, konst.Symbol(topLabel)),
	)
	return c.Emit(isa.LabelLine(endLabel, true))
}

// LowerFunction compiles a complete function body: prologue, the
// statement list, and the epilogue under a shared label so every
// ReturnStmt inside the body can jump to one teardown sequence.
func LowerFunction(c CompilationContext, sig Signature, body []Stmt) CompilationContext {
	c = c.Emit(isa.LabelLine(sig.Name, false))
	c = Prologue(c, sig)
	c = LowerBlock(c, body)
	c = c.Emit(isa.LabelLine(".epilogue", true))
	return Epilogue(c, sig)
}
