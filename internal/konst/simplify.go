package konst

// QuickSimplify rewrites a constant into its canonical normal form:
// fully-known subtrees fold to a NumericConstant, a SubbyteConstant
// over a known value folds to the selected byte, and an additive
// chain ending in a symbol is flattened into a single symbol+offset
// MemoryAddressConstant. It is idempotent -- QuickSimplify(QuickSimplify(c))
// always equals QuickSimplify(c) -- so callers may apply it
// opportunistically without tracking whether a constant has already
// been normalized.
func QuickSimplify(c Constant) Constant {
	switch v := c.(type) {
	case CompoundConstant:
		return simplifyCompound(v)
	case SubbyteConstant:
		return simplifySubbyte(v)
	case AssertByte:
		inner := QuickSimplify(v.Inner)
		if n, ok := inner.(NumericConstant); ok {
			return NumericConstant{Value: n.Value & 0xff, Bytes: 1}
		}
		return AssertByte{Inner: inner}
	default:
		return c
	}
}

func simplifyCompound(v CompoundConstant) Constant {
	left := QuickSimplify(v.Left)
	right := QuickSimplify(v.Right)

	ln, lok := left.(NumericConstant)
	rn, rok := right.(NumericConstant)
	if lok && rok {
		value := v.Op.apply(ln.Value, rn.Value)
		size := maxInt(ln.Size(), rn.Size())
		if v.Op.Widens() {
			size = maxInt(size, 2)
		}
		// Times and Shl may outgrow both operands.
		size = maxInt(size, bytesNeeded(value))
		return NumericConstant{Value: value, Bytes: size}
	}

	// Byte reassembly: (hiByte(c) << 8) | loByte(c) is c again.
	if v.Op == Or {
		if c, ok := reassembledWord(left, right); ok {
			return c
		}
		if c, ok := reassembledWord(right, left); ok {
			return c
		}
	}

	// Fold "symbol + known" and "known + symbol" into a single
	// MemoryAddressConstant so that peephole rules recognizing
	// address-plus-offset operands (e.g. collapsing repeated INC on
	// adjacent bytes of the same array) see one shape instead of a
	// CompoundConstant wrapper every time.
	if v.Op == Add {
		if addr, ok := left.(MemoryAddressConstant); ok && rok {
			return MemoryAddressConstant{Symbol: addr.Symbol, Offset: addr.Offset + rn.Value, Resolved: addr.Resolved}
		}
		if addr, ok := right.(MemoryAddressConstant); ok && lok {
			return MemoryAddressConstant{Symbol: addr.Symbol, Offset: addr.Offset + ln.Value, Resolved: addr.Resolved}
		}
	}
	if v.Op == Sub {
		if addr, ok := left.(MemoryAddressConstant); ok && rok {
			return MemoryAddressConstant{Symbol: addr.Symbol, Offset: addr.Offset - rn.Value, Resolved: addr.Resolved}
		}
	}

	return CompoundConstant{Op: v.Op, Left: left, Right: right}
}

// reassembledWord recognizes hi-shifted-left-by-eight OR'd with the
// matching low byte of the same constant, and hands back that
// constant. The pattern appears whenever a word value is split for
// byte-at-a-time handling and then rebuilt.
func reassembledWord(shifted, low Constant) (Constant, bool) {
	sh, ok := shifted.(CompoundConstant)
	if !ok || sh.Op != Shl {
		return nil, false
	}
	count, ok := sh.Right.(NumericConstant)
	if !ok || count.Value != 8 {
		return nil, false
	}
	hi, ok := sh.Left.(SubbyteConstant)
	if !ok || hi.Selector != HighByte {
		return nil, false
	}
	lo, ok := low.(SubbyteConstant)
	if !ok || lo.Selector != LowByte {
		return nil, false
	}
	if hi.Inner.String() != lo.Inner.String() {
		return nil, false
	}
	return hi.Inner, true
}

func simplifySubbyte(v SubbyteConstant) Constant {
	inner := QuickSimplify(v.Inner)
	if n, ok := inner.(NumericConstant); ok {
		val, _ := SubbyteConstant{Selector: v.Selector, Inner: n}.Eval()
		return NumericConstant{Value: val, Bytes: 1}
	}
	return SubbyteConstant{Selector: v.Selector, Inner: inner}
}

// bytesNeeded reports the narrowest encoding for value, accepting both
// the unsigned and the two's-complement window at each width the way
// NumericConstant's size invariant does.
func bytesNeeded(value int64) int {
	for size := 1; size < 8; size++ {
		lo := -(int64(1) << (8*size - 1))
		hi := (int64(1) << (8 * size)) - 1
		if value >= lo && value <= hi {
			return size
		}
	}
	return 8
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Related reports whether a and b are arithmetically related: the
// same symbol at a constant offset from one another. The peephole
// engine's rules use this to recognize, e.g., that
// consecutive STA operations address adjacent array slots even though
// neither operand is fully known yet (their addresses depend on
// linker placement).
func Related(a, b Constant) (offset int64, ok bool) {
	a, b = QuickSimplify(a), QuickSimplify(b)
	am, aok := a.(MemoryAddressConstant)
	bm, bok := b.(MemoryAddressConstant)
	if !aok || !bok || am.Symbol != bm.Symbol {
		return 0, false
	}
	return bm.Offset - am.Offset, true
}

// SameValue reports whether two constants are provably equal: either
// both known with equal values, or structurally identical after
// normalization (same symbol, same offset, same shape).
func SameValue(a, b Constant) bool {
	a, b = QuickSimplify(a), QuickSimplify(b)
	if av, aok := a.Eval(); aok {
		if bv, bok := b.Eval(); bok {
			return av == bv
		}
	}
	return a.String() == b.String()
}
