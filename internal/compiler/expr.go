package compiler

import (
	"fmt"

	"sixc/internal/isa"
	"sixc/internal/konst"
)

func byteConst(v int) konst.Constant { return konst.Byte(int64(v)) }

// Expr is the statement compiler's input tree: a small, closed set of
// expression shapes built by the parser (not implemented in this
// package; compiler consumes an already-parsed, already-checked
// tree). A node carries a konst.Constant rather than a raw evaluated
// int, so unresolved symbols flow through lowering instead of
// requiring a second evaluation pass.
type Expr struct {
	Kind  ExprKind
	Const konst.Constant // Kind == ExprConst
	Name  string         // Kind == ExprIdent
	Op    konst.BinOp    // Kind == ExprBinary
	Left  *Expr
	Right *Expr // nil for unary negation (Op ignored, value is -Left)
	Pos   isa.Pos
}

type ExprKind byte

const (
	ExprConst ExprKind = iota
	ExprIdent
	ExprBinary
	ExprNegate
	ExprIndex // Left[Right]: array indexing
)

// Lower compiles e into a value left in the accumulator, returning the
// extended context. Binary operators lower their left operand into A,
// stash it in a compiler-reserved zero-page scratch cell (".scratch0",
// resolved by the platform descriptor's zeropage reservation), then
// combine with the right operand.
func Lower(c CompilationContext, e *Expr) CompilationContext {
	switch e.Kind {
	case ExprConst:
		return c.Emit(isa.ElidableLine(isa.LDA, isa.Immediate, e.Const))

	case ExprIdent:
		thing, ok := c.Env.LookupThing(e.Name)
		if !ok {
			c.errorf(e.Pos, "undefined", "undefined identifier %q", e.Name)
			return c.Emit(isa.ElidableLine(isa.LDA, isa.Immediate, byteConst(0)))
		}
		return c.Emit(isa.ElidableLine(isa.LDA, isa.Absolute, thing.Address()))

	case ExprNegate:
		c = Lower(c, e.Left)
		return c.EmitAll(
			isa.ElidableLine(isa.EOR, isa.Immediate, byteConst(0xff)),
			isa.ElidableLine(isa.CLC, isa.Implied, isa.NoOperand{}),
			isa.ElidableLine(isa.ADC, isa.Immediate, byteConst(1)),
		)

	case ExprBinary:
		return lowerBinary(c, e)

	case ExprIndex:
		return lowerIndex(c, e)

	default:
		c.errorf(e.Pos, "internal", "unhandled expression kind %d", e.Kind)
		return c
	}
}

// scratchAt names the n-th zero-page scratch cell. Nested binary
// expressions claim cells by depth: an operation stashes its left
// operand at the current depth and lowers its right subtree one cell
// deeper, so an inner operation can never clobber an outer one's
// stashed value. The platform descriptor's zeropage pseudoregister
// width bounds how many cells exist; an expression nesting past it
// surfaces as an unresolved-symbol diagnostic at link time.
func scratchAt(n int) konst.Constant { return konst.Symbol(fmt.Sprintf(".scratch%d", n)) }

func lowerBinary(c CompilationContext, e *Expr) CompilationContext {
	// Constant-fold eagerly when both sides are already known, which
	// lets later peephole passes see a single LDA #n instead of a
	// load-stash-combine sequence the engine would otherwise have to
	// fold itself.
	if e.Left.Kind == ExprConst && e.Right.Kind == ExprConst {
		lv, lok := e.Left.Const.Eval()
		rv, rok := e.Right.Const.Eval()
		if lok && rok {
			folded := konst.QuickSimplify(konst.CompoundConstant{Op: e.Op, Left: konst.Byte(lv), Right: konst.Byte(rv)})
			return c.Emit(isa.ElidableLine(isa.LDA, isa.Immediate, folded))
		}
	}

	// Shifts, and multiplications by a power of two, lower to a chain
	// of one-bit accumulator shifts when the count is known; no stash
	// round-trip through the scratch cell is needed.
	if e.Right.Kind == ExprConst {
		if v, known := e.Right.Const.Eval(); known {
			switch e.Op {
			case konst.Shl:
				return lowerShiftChain(c, e.Left, isa.ASL, v)
			case konst.Shr:
				return lowerShiftChain(c, e.Left, isa.LSR, v)
			case konst.Mul:
				if v == 0 {
					return c.Emit(isa.ElidableLine(isa.LDA, isa.Immediate, byteConst(0)))
				}
				if v&(v-1) == 0 {
					count := int64(0)
					for 1<<count != v {
						count++
					}
					return lowerShiftChain(c, e.Left, isa.ASL, count)
				}
			}
		}
	}

	depth := c.scratchDepth
	stash := scratchAt(depth)
	c = Lower(c, e.Left)
	c = c.Emit(isa.ElidableLine(isa.STA, isa.ZeroPage, stash))
	c.scratchDepth = depth + 1
	c = Lower(c, e.Right)
	c.scratchDepth = depth

	switch e.Op {
	case konst.Add:
		return c.EmitAll(
			isa.ElidableLine(isa.CLC, isa.Implied, isa.NoOperand{}),
			isa.ElidableLine(isa.ADC, isa.ZeroPage, stash),
		)
	case konst.Sub:
		// Right was loaded into A; subtraction needs left-minus-right,
		// so swap roles: stash right one cell deeper, reload left, then
		// SBC.
		right := scratchAt(depth + 1)
		c = c.Emit(isa.ElidableLine(isa.STA, isa.ZeroPage, right))
		c.scratchDepth = depth + 2
		c = Lower(c, e.Left)
		c.scratchDepth = depth
		return c.EmitAll(
			isa.ElidableLine(isa.SEC, isa.Implied, isa.NoOperand{}),
			isa.ElidableLine(isa.SBC, isa.ZeroPage, right),
		)
	case konst.And:
		return c.Emit(isa.ElidableLine(isa.AND, isa.ZeroPage, stash))
	case konst.Or:
		return c.Emit(isa.ElidableLine(isa.ORA, isa.ZeroPage, stash))
	case konst.Xor:
		return c.Emit(isa.ElidableLine(isa.EOR, isa.ZeroPage, stash))
	case konst.Mul:
		return lowerRuntimeMul(c, stash, scratchAt(depth+1))
	default:
		c.errorf(e.Pos, "unsupported", "operator %s has no accumulator lowering", e.Op.String())
		return c
	}
}

// lowerShiftChain compiles a left-operand load followed by count
// one-bit shifts of the accumulator. Eight or more shifts of a byte
// leave nothing behind, so the chain collapses to loading zero.
func lowerShiftChain(c CompilationContext, left *Expr, op isa.Opcode, count int64) CompilationContext {
	if count >= 8 {
		return c.Emit(isa.ElidableLine(isa.LDA, isa.Immediate, byteConst(0)))
	}
	c = Lower(c, left)
	for i := int64(0); i < count; i++ {
		c = c.Emit(isa.ElidableLine(op, isa.Accumulator, isa.NoOperand{}))
	}
	return c
}

// lowerRuntimeMul emits the shift-and-add byte multiply: on entry the
// left operand sits in the multiplicand cell and the right operand in
// A (the stash preamble shared by every two-operand lowering). The
// multiplicand doubles each round while the multiplier sheds one bit
// per LSR, accumulating into A modulo 256. Clobbers X and both cells.
func lowerRuntimeMul(c CompilationContext, multiplicand, multiplier konst.Constant) CompilationContext {
	var loop, skip string
	c, loop = c.FreshLabel("mul")
	c, skip = c.FreshLabel("mulskip")
	c = c.EmitAll(
		isa.ElidableLine(isa.STA, isa.ZeroPage, multiplier),
		isa.ElidableLine(isa.LDA, isa.Immediate, byteConst(0)),
		isa.ElidableLine(isa.LDX, isa.Immediate, byteConst(8)),
	)
	c = c.Emit(isa.LabelLine(loop, false))
	c = c.EmitAll(
		isa.ElidableLine(isa.LSR, isa.ZeroPage, multiplier),
		isa.ElidableLine(isa.BCC, isa.Relative, konst.Symbol(skip)),
		isa.ElidableLine(isa.CLC, isa.Implied, isa.NoOperand{}),
		isa.ElidableLine(isa.ADC, isa.ZeroPage, multiplicand),
	)
	c = c.Emit(isa.LabelLine(skip, false))
	c = c.EmitAll(
		isa.ElidableLine(isa.ASL, isa.ZeroPage, multiplicand),
		isa.ElidableLine(isa.DEX, isa.Implied, isa.NoOperand{}),
		isa.ElidableLine(isa.BNE, isa.Relative, konst.Symbol(loop)),
	)
	return c
}

// lowerIndex compiles Left[Right] where Left names an array. When
// Right is a known constant within bounds it folds straight to a
// fixed absolute address; otherwise it loads the index into X and
// emits an X-indexed load, consulting bounds.go for the -fbounds-checking
// guard.
func lowerIndex(c CompilationContext, e *Expr) CompilationContext {
	arr, ok := c.Env.LookupThing(e.Left.Name)
	if !ok {
		c.errorf(e.Pos, "undefined", "undefined array %q", e.Left.Name)
		return c
	}

	if e.Right.Kind == ExprConst {
		if v, known := e.Right.Const.Eval(); known {
			c = checkConstIndex(c, e.Pos, arr, int(v))
			addr := konst.QuickSimplify(konst.CompoundConstant{Op: konst.Add, Left: arr.Address(), Right: konst.Byte(v)})
			return c.Emit(isa.ElidableLine(isa.LDA, isa.Absolute, addr))
		}
	}

	c = Lower(c, e.Right)
	c = c.Emit(isa.ElidableLine(isa.TAX, isa.Implied, isa.NoOperand{}))
	c = checkRuntimeIndex(c, e.Pos, arr)
	return c.Emit(isa.ElidableLine(isa.LDA, isa.AbsoluteX, arr.Address()))
}
