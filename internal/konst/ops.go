package konst

// Convenience constructors and queries over the algebra, the surface
// the compiler and assembler reach for instead of spelling out tree
// shapes by hand. Every constructor returns an already-normalized
// constant.

// LoByte selects byte 0 of c.
func LoByte(c Constant) Constant {
	return QuickSimplify(SubbyteConstant{Selector: LowByte, Inner: c})
}

// HiByte selects byte 1 of c.
func HiByte(c Constant) Constant {
	return QuickSimplify(SubbyteConstant{Selector: HighByte, Inner: c})
}

// Subbyte selects byte i (0..3) of c.
func Subbyte(c Constant, i int) Constant {
	sel := [...]SubbyteSelector{LowByte, HighByte, BankByte, TopByte}
	if i < 0 || i >= len(sel) {
		return Byte(0)
	}
	return QuickSimplify(SubbyteConstant{Selector: sel[i], Inner: c})
}

// Subword selects the 16-bit slice of c starting at byte i.
func Subword(c Constant, i int) Constant {
	shifted := c
	if i > 0 {
		shifted = CompoundConstant{Op: Shr, Left: c, Right: Byte(int64(8 * i))}
	}
	return QuickSimplify(CompoundConstant{Op: And, Left: shifted, Right: Word(0xffff)})
}

// Asl shifts c left by count bits.
func Asl(c Constant, count int) Constant {
	return QuickSimplify(CompoundConstant{Op: Shl, Left: c, Right: Byte(int64(count))})
}

// IsProvablyZero reports whether c is known to be zero.
func IsProvablyZero(c Constant) bool {
	v, ok := QuickSimplify(c).Eval()
	return ok && v == 0
}

// IsProvablyNonnegative reports whether c cannot be negative: either
// its value is known, or its shape guarantees a byte-ranged result.
func IsProvablyNonnegative(c Constant) bool {
	s := QuickSimplify(c)
	if v, ok := s.Eval(); ok {
		return v >= 0
	}
	switch s.(type) {
	case SubbyteConstant, AssertByte, MemoryAddressConstant:
		return true
	default:
		return false
	}
}

// FitsInto reports whether c can be encoded in size bytes, accepting
// both the unsigned and the two's-complement signed window the way
// NumericConstant's one-byte invariant does ([-128, 255] for size 1).
// For a value not known yet, the constant's own declared size decides.
func FitsInto(c Constant, size int) bool {
	s := QuickSimplify(c)
	v, ok := s.Eval()
	if !ok {
		return s.Size() <= size
	}
	if size >= 8 {
		return true
	}
	lo := -(int64(1) << (8*size - 1))
	hi := (int64(1) << (8 * size)) - 1
	return v >= lo && v <= hi
}
