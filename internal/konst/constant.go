// Package konst implements the constant algebra shared by the
// compiler, the dataflow analyzer and the assembler backend: a closed
// set of value types representing numbers, memory addresses, and the
// arithmetic combining them, normalized to a canonical form so two
// constants that denote the same value compare and print alike.
//
// The algebra is a closed Constant interface with a handful of
// concrete representations, so the compiler can pattern-match on
// shape without an operator switch scattered through every consumer.
package konst

import (
	"fmt"

	"sixc/internal/isa"
)

// Constant is the closed sum type of the constant algebra. Every
// concrete type in this package implements it; no type outside the
// package may, since peephole rules and the dataflow analyzer type-
// switch over the known set exhaustively, the same closed-enumeration
// discipline isa.Opcode and isa.Mode follow.
type Constant interface {
	isa.Operand

	// Eval returns the constant's value and whether it is presently
	// known. An unknown result is not an error: labels are unknown
	// until the linker's placement pass assigns addresses.
	Eval() (value int64, known bool)

	// Size reports how many bytes are needed to hold the value: 1 for
	// anything proven to fit in a byte, 2 otherwise (3 for 65816 long
	// addresses).
	Size() int

	// IsAddress reports whether the constant denotes a memory address
	// rather than a plain number, the way expr.address does; the
	// compiler widens address-valued operands to a 2-byte addressing
	// mode even when the numeric value would fit in one byte.
	IsAddress() bool
}

// NumericConstant is a fully known numeric literal or folded value.
type NumericConstant struct {
	Value int64
	Bytes int // 1, 2, or 3
}

func Byte(v int64) NumericConstant { return NumericConstant{Value: v & 0xff, Bytes: 1} }
func Word(v int64) NumericConstant { return NumericConstant{Value: v & 0xffff, Bytes: 2} }

func (c NumericConstant) Eval() (int64, bool) { return c.Value, true }
func (c NumericConstant) Size() int {
	if c.Bytes == 0 {
		return 1
	}
	return c.Bytes
}
func (c NumericConstant) IsAddress() bool { return false }
func (c NumericConstant) String() string  { return fmt.Sprintf("%d", c.Value) }

// MemoryAddressConstant names a symbol (a label, a variable's
// storage, a routine's entry point) whose numeric value is assigned
// by the linker's placement pass, optionally offset by a known
// displacement (e.g. "&array + 3").
type MemoryAddressConstant struct {
	Symbol string
	Offset int64

	// Resolved is set by the linker once placement has run; before
	// that Eval reports unknown. Kept as a pointer so copying a
	// MemoryAddressConstant before resolution (the pure-functional
	// CompilationContext discipline, see compiler package) does not
	// alias the resolution into an unrelated copy: placement always
	// resolves through a fresh symbol table lookup, never by mutating
	// an existing Constant in place.
	Resolved *int64
}

func Symbol(name string) MemoryAddressConstant {
	return MemoryAddressConstant{Symbol: name}
}

func (c MemoryAddressConstant) Eval() (int64, bool) {
	if c.Resolved == nil {
		return 0, false
	}
	return *c.Resolved + c.Offset, true
}
func (c MemoryAddressConstant) Size() int      { return 2 }
func (c MemoryAddressConstant) IsAddress() bool { return true }
func (c MemoryAddressConstant) String() string {
	if c.Offset == 0 {
		return c.Symbol
	}
	if c.Offset > 0 {
		return fmt.Sprintf("%s+%d", c.Symbol, c.Offset)
	}
	return fmt.Sprintf("%s%d", c.Symbol, c.Offset)
}

// SubbyteSelector names which slice of a wider constant a
// SubbyteConstant extracts (low byte, high byte, bank byte, top
// byte).
type SubbyteSelector byte

const (
	LowByte SubbyteSelector = iota
	HighByte
	BankByte
	TopByte // byte 3 of a four-byte constant
)

func (s SubbyteSelector) String() string {
	switch s {
	case LowByte:
		return "<"
	case HighByte:
		return ">"
	case BankByte:
		return "^"
	case TopByte:
		return "^^"
	default:
		return "?"
	}
}

// SubbyteConstant extracts one byte out of a wider constant, the
// compile-time analogue of the assembly-level low/high/bank-byte
// operators, with an explicit bank selector for 65816 long
// addresses.
type SubbyteConstant struct {
	Selector SubbyteSelector
	Inner    Constant
}

func (c SubbyteConstant) Eval() (int64, bool) {
	v, ok := c.Inner.Eval()
	if !ok {
		return 0, false
	}
	switch c.Selector {
	case LowByte:
		return v & 0xff, true
	case HighByte:
		return (v >> 8) & 0xff, true
	case BankByte:
		return (v >> 16) & 0xff, true
	case TopByte:
		return (v >> 24) & 0xff, true
	default:
		return 0, false
	}
}
func (c SubbyteConstant) Size() int       { return 1 }
func (c SubbyteConstant) IsAddress() bool { return false }
func (c SubbyteConstant) String() string  { return c.Selector.String() + c.Inner.String() }

// BinOp is a binary operator in the constant algebra. konst only
// carries the operators the compiler can actually lower, so modulo is
// omitted rather than kept as dead code.
type BinOp byte

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	And
	Or
	Xor
	Shl
	Shr

	// Nine-bit variants: the result keeps the carry out of bit 7, so
	// folding forces a two-byte NumericConstant (see QuickSimplify).
	Add9
	Shl9
	Shr9

	// Packed-BCD variants, the compile-time mirrors of decimal-mode
	// ADC/SBC: operands are read as two decimal digits per byte,
	// combined as decimal integers, and re-packed, masked to byte
	// width (Add9Decimal keeps the hundreds digit as a ninth bit).
	AddDecimal
	SubDecimal
	MulDecimal
	ShlDecimal
	ShrDecimal
	Add9Decimal
	Shl9Decimal
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	case Shl:
		return "<<"
	case Shr:
		return ">>"
	case Add9:
		return "+9"
	case Shl9:
		return "<<9"
	case Shr9:
		return ">>9"
	case AddDecimal:
		return "+'"
	case SubDecimal:
		return "-'"
	case MulDecimal:
		return "*'"
	case ShlDecimal:
		return "<<'"
	case ShrDecimal:
		return ">>'"
	case Add9Decimal:
		return "+9'"
	case Shl9Decimal:
		return "<<9'"
	default:
		return "?"
	}
}

// Widens reports whether folding the operator forces a two-byte
// result regardless of operand sizes (the nine-bit family).
func (op BinOp) Widens() bool {
	switch op {
	case Add9, Shl9, Shr9, Add9Decimal, Shl9Decimal:
		return true
	default:
		return false
	}
}

func (op BinOp) apply(a, b int64) int64 {
	switch op {
	case Add:
		return a + b
	case Sub:
		return a - b
	case Mul:
		return a * b
	case Div:
		if b == 0 {
			return 0
		}
		return a / b
	case And:
		return a & b
	case Or:
		return a | b
	case Xor:
		return a ^ b
	case Shl:
		return a << (uint64(b) & 63)
	case Shr:
		return a >> (uint64(b) & 63)
	case Add9:
		return (a + b) & 0x1ff
	case Shl9:
		return (a << (uint64(b) & 63)) & 0x1ff
	case Shr9:
		return (a & 0x1ff) >> (uint64(b) & 63)
	case AddDecimal:
		return foldDecimal(FromBCD(a)+FromBCD(b), 100)
	case SubDecimal:
		return foldDecimal(FromBCD(a)-FromBCD(b), 100)
	case MulDecimal:
		return foldDecimal(FromBCD(a)*FromBCD(b), 100)
	case ShlDecimal:
		return foldDecimal(FromBCD(a)<<(uint64(b)&63), 100)
	case ShrDecimal:
		return foldDecimal(FromBCD(a)>>(uint64(b)&63), 100)
	case Add9Decimal:
		return foldDecimal(FromBCD(a)+FromBCD(b), 200)
	case Shl9Decimal:
		return foldDecimal(FromBCD(a)<<(uint64(b)&63), 200)
	default:
		return 0
	}
}

// CompoundConstant is a binary operation over two constants, kept
// unsimplified until quickSimplify folds it (or a subtree of it) into
// normal form.
type CompoundConstant struct {
	Op          BinOp
	Left, Right Constant
}

func (c CompoundConstant) Eval() (int64, bool) {
	a, aok := c.Left.Eval()
	b, bok := c.Right.Eval()
	if !aok || !bok {
		return 0, false
	}
	return c.Op.apply(a, b), true
}
func (c CompoundConstant) Size() int {
	if c.Left.Size() > c.Right.Size() {
		return c.Left.Size()
	}
	return c.Right.Size()
}
func (c CompoundConstant) IsAddress() bool { return c.Left.IsAddress() || c.Right.IsAddress() }
func (c CompoundConstant) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left.String(), c.Op.String(), c.Right.String())
}

// UnexpandedConstant names an identifier the compiler has not yet
// substituted a definition for -- a forward reference to a `const`
// declaration still being processed. It always evaluates unknown, and
// no pass in this module replaces it with the referenced definition's
// Constant.
type UnexpandedConstant struct {
	Name string
}

func (c UnexpandedConstant) Eval() (int64, bool)  { return 0, false }
func (c UnexpandedConstant) Size() int            { return 2 }
func (c UnexpandedConstant) IsAddress() bool      { return false }
func (c UnexpandedConstant) String() string       { return c.Name }

// AssertByte wraps a constant with a "this must fit in a byte"
// annotation. It evaluates exactly like Inner and performs no range
// check of its own; the statement compiler does not construct it
// (its array-index checks live in compiler/bounds.go).
type AssertByte struct {
	Inner Constant
}

func (c AssertByte) Eval() (int64, bool)  { return c.Inner.Eval() }
func (c AssertByte) Size() int            { return 1 }
func (c AssertByte) IsAddress() bool      { return false }
func (c AssertByte) String() string       { return "byte(" + c.Inner.String() + ")" }
