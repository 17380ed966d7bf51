package konst

import "testing"

func TestQuickSimplifyFoldsKnownArithmetic(t *testing.T) {
	c := CompoundConstant{Op: Add, Left: Byte(3), Right: Byte(4)}
	got := QuickSimplify(c)
	n, ok := got.(NumericConstant)
	if !ok {
		t.Fatalf("expected NumericConstant, got %T", got)
	}
	if n.Value != 7 {
		t.Errorf("3+4 = %d, want 7", n.Value)
	}
}

func TestQuickSimplifyFlattensSymbolOffset(t *testing.T) {
	sym := Symbol("table")
	c := CompoundConstant{Op: Add, Left: sym, Right: Byte(5)}
	got := QuickSimplify(c)
	addr, ok := got.(MemoryAddressConstant)
	if !ok {
		t.Fatalf("expected MemoryAddressConstant, got %T (%s)", got, got.String())
	}
	if addr.Symbol != "table" || addr.Offset != 5 {
		t.Errorf("got %s, want table+5", addr.String())
	}

	c2 := CompoundConstant{Op: Add, Left: addr, Right: Byte(2)}
	got2 := QuickSimplify(c2)
	addr2 := got2.(MemoryAddressConstant)
	if addr2.Offset != 7 {
		t.Errorf("got offset %d, want 7 after folding a second addition", addr2.Offset)
	}
}

func TestQuickSimplifyIsIdempotent(t *testing.T) {
	c := CompoundConstant{Op: Mul, Left: Byte(6), Right: Byte(7)}
	once := QuickSimplify(c)
	twice := QuickSimplify(once)
	if once.String() != twice.String() {
		t.Errorf("QuickSimplify not idempotent: %s != %s", once.String(), twice.String())
	}
}

func TestSubbyteOfKnownValue(t *testing.T) {
	w := Word(0x1234)
	lo := QuickSimplify(SubbyteConstant{Selector: LowByte, Inner: w})
	hi := QuickSimplify(SubbyteConstant{Selector: HighByte, Inner: w})
	if v, _ := lo.Eval(); v != 0x34 {
		t.Errorf("low byte of $1234 = %#x, want $34", v)
	}
	if v, _ := hi.Eval(); v != 0x12 {
		t.Errorf("high byte of $1234 = %#x, want $12", v)
	}
}

func TestRelatedRecognizesOffsetFromSameSymbol(t *testing.T) {
	base := Symbol("buf")
	a := CompoundConstant{Op: Add, Left: base, Right: Byte(0)}
	b := CompoundConstant{Op: Add, Left: base, Right: Byte(1)}
	offset, ok := Related(QuickSimplify(a), QuickSimplify(b))
	if !ok {
		t.Fatal("expected related constants")
	}
	if offset != 1 {
		t.Errorf("offset = %d, want 1", offset)
	}
}

func TestRelatedRejectsDifferentSymbols(t *testing.T) {
	a := Symbol("buf")
	b := Symbol("other")
	if _, ok := Related(a, b); ok {
		t.Error("expected unrelated symbols to report ok=false")
	}
}

func TestUnresolvedMemoryAddressIsUnknown(t *testing.T) {
	c := Symbol("routine")
	if _, ok := c.Eval(); ok {
		t.Error("unresolved symbol should evaluate unknown")
	}
	resolved := int64(0xc000)
	c.Resolved = &resolved
	v, ok := c.Eval()
	if !ok || v != 0xc000 {
		t.Errorf("resolved symbol: got (%d, %v), want (0xc000, true)", v, ok)
	}
}

func TestAssertByteFoldsAndNarrows(t *testing.T) {
	c := AssertByte{Inner: Word(0x1ff)}
	got := QuickSimplify(c)
	n, ok := got.(NumericConstant)
	if !ok {
		t.Fatalf("expected NumericConstant, got %T", got)
	}
	if n.Value != 0xff {
		t.Errorf("byte($1ff) = %#x, want $ff", n.Value)
	}
}

func TestDecimalAddMatchesBCDCarry(t *testing.T) {
	result, carry := DecimalAdd(0x58, 0x46, false)
	if result != 0x04 || !carry {
		t.Errorf("58+46 (BCD) = %#x carry=%v, want 04 carry=true", result, carry)
	}
}

func TestDecimalSubMatchesBCDBorrow(t *testing.T) {
	result, carry := DecimalSub(0x46, 0x12, true)
	if result != 0x34 || !carry {
		t.Errorf("46-12 (BCD) = %#x carry=%v, want 34 carry=true", result, carry)
	}
}

func TestSameValueComparesNormalForms(t *testing.T) {
	a := QuickSimplify(CompoundConstant{Op: Add, Left: Byte(1), Right: Byte(2)})
	b := Byte(3)
	if !SameValue(a, b) {
		t.Error("1+2 should compare equal to 3")
	}
}

func TestNineBitAddWidensToWord(t *testing.T) {
	got := QuickSimplify(CompoundConstant{Op: Add9, Left: Byte(0xff), Right: Byte(0x02)})
	n, ok := got.(NumericConstant)
	if !ok {
		t.Fatalf("expected NumericConstant, got %T", got)
	}
	if n.Value != 0x101 {
		t.Errorf("$ff +9 $02 = %#x, want $101", n.Value)
	}
	if n.Size() != 2 {
		t.Errorf("nine-bit result size = %d, want 2", n.Size())
	}
}

func TestDecimalOperatorFolding(t *testing.T) {
	cases := []struct {
		op   BinOp
		a, b int64
		want int64
	}{
		{AddDecimal, 0x58, 0x46, 0x04},  // 58+46 = 104, byte width keeps 04
		{SubDecimal, 0x46, 0x12, 0x34},  // 46-12 = 34
		{MulDecimal, 0x12, 0x04, 0x48},  // 12*4 = 48
		{ShlDecimal, 0x26, 1, 0x52},     // 26*2 = 52
		{ShrDecimal, 0x52, 1, 0x26},     // 52/2 = 26
		{Add9Decimal, 0x58, 0x46, 0x104}, // 58+46 keeps the hundreds digit
	}
	for _, tc := range cases {
		got := QuickSimplify(CompoundConstant{Op: tc.op, Left: Byte(tc.a), Right: Byte(tc.b)})
		v, ok := got.Eval()
		if !ok || v != tc.want {
			t.Errorf("%#x %s %#x = %#x, want %#x", tc.a, tc.op.String(), tc.b, v, tc.want)
		}
	}
}

func TestByteReassemblyCollapses(t *testing.T) {
	sym := Symbol("vector")
	rebuilt := CompoundConstant{
		Op:   Or,
		Left: CompoundConstant{Op: Shl, Left: SubbyteConstant{Selector: HighByte, Inner: sym}, Right: Byte(8)},
		Right: SubbyteConstant{Selector: LowByte, Inner: sym},
	}
	got := QuickSimplify(rebuilt)
	if got.String() != sym.String() {
		t.Errorf("reassembled word = %s, want %s", got.String(), sym.String())
	}
}

func TestSubwordOfHiLoRoundTrips(t *testing.T) {
	w := Word(0xbeef)
	rebuilt := CompoundConstant{Op: Or, Left: Asl(HiByte(w), 8), Right: LoByte(w)}
	got := Subword(QuickSimplify(rebuilt), 0)
	v, ok := got.Eval()
	if !ok || v != 0xbeef {
		t.Errorf("subword(hi:lo) = %#x ok=%v, want $beef", v, ok)
	}
}

func TestFitsInto(t *testing.T) {
	if !FitsInto(Byte(0xff), 1) {
		t.Error("$ff fits a byte")
	}
	if !FitsInto(NumericConstant{Value: -128, Bytes: 1}, 1) {
		t.Error("-128 fits a signed byte")
	}
	if FitsInto(Word(0x100), 1) {
		t.Error("$100 does not fit a byte")
	}
	if !FitsInto(Symbol("addr"), 2) {
		t.Error("an unresolved address fits a word by declared size")
	}
}

func TestIsProvablyZeroAndNonnegative(t *testing.T) {
	if !IsProvablyZero(CompoundConstant{Op: Sub, Left: Byte(5), Right: Byte(5)}) {
		t.Error("5-5 is provably zero")
	}
	if IsProvablyZero(Symbol("x")) {
		t.Error("an unresolved symbol is not provably zero")
	}
	if !IsProvablyNonnegative(SubbyteConstant{Selector: LowByte, Inner: Symbol("x")}) {
		t.Error("a byte selection is never negative")
	}
}
