package konst

// DecimalAdd and DecimalSub implement 8-bit BCD arithmetic with the
// same nibble-carry discipline as the silicon's decimal-mode ADC/SBC.
// The equiv package's interpreter runs decimal-mode ADC/SBC through
// them, so its results match the target CPU's. Keeping one
// implementation here avoids copies of decimal-mode bugs drifting
// apart.
func DecimalAdd(a, b byte, carryIn bool) (result byte, carryOut bool) {
	acc, add := uint32(a), uint32(b)
	var carry uint32
	if carryIn {
		carry = 1
	}

	lo := (acc & 0x0f) + (add & 0x0f) + carry
	var carrylo uint32
	if lo >= 0x0a {
		carrylo = 0x10
		lo -= 0xa
	}

	hi := (acc & 0xf0) + (add & 0xf0) + carrylo
	if hi >= 0xa0 {
		carryOut = true
		hi -= 0xa0
	} else {
		carryOut = false
	}

	return byte(hi | lo), carryOut
}

func DecimalSub(a, b byte, carryIn bool) (result byte, carryOut bool) {
	acc, sub := uint32(a), uint32(b)
	var carry uint32
	if carryIn {
		carry = 1
	}

	lo := 0x0f + (acc & 0x0f) - (sub & 0x0f) + carry
	var carrylo uint32
	if lo < 0x10 {
		lo -= 0x06
		carrylo = 0
	} else {
		lo -= 0x10
		carrylo = 0x10
	}

	hi := 0xf0 + (acc & 0xf0) - (sub & 0xf0) + carrylo
	if hi < 0x100 {
		carryOut = false
		hi -= 0x60
	} else {
		carryOut = true
	}

	return byte((hi | lo) & 0xff), carryOut
}

// FromBCD reads a packed-BCD value as the decimal integer it spells:
// each nibble contributes one decimal digit. Nibbles past 9 (possible
// in a value that was never valid BCD to begin with) are carried
// through arithmetically, matching how the folding operators treat
// malformed input: garbage digits stay garbage rather than panicking.
func FromBCD(v int64) int64 {
	var n, scale int64 = 0, 1
	for v != 0 {
		n += (v & 0xf) * scale
		scale *= 10
		v >>= 4
	}
	return n
}

// ToBCD packs a nonnegative decimal integer into BCD nibbles.
func ToBCD(n int64) int64 {
	var v int64
	var shift uint
	for n != 0 {
		v |= (n % 10) << shift
		shift += 4
		n /= 10
	}
	return v
}

// foldDecimal wraps a decimal-integer result into [0, mod) and
// re-packs it as BCD -- the "convert, combine, convert back, mask"
// semantics of the compile-time decimal operators.
func foldDecimal(n, mod int64) int64 {
	n %= mod
	if n < 0 {
		n += mod
	}
	return ToBCD(n)
}

// FoldDecimal applies DecimalAdd/DecimalSub to two known constants
// and wraps the result back into the constant algebra. The statement
// compiler does not call it.
func FoldDecimal(sub bool, a, b Constant, carryIn bool) (Constant, bool, bool) {
	av, aok := a.Eval()
	bv, bok := b.Eval()
	if !aok || !bok {
		return nil, false, false
	}
	var result byte
	var carryOut bool
	if sub {
		result, carryOut = DecimalSub(byte(av), byte(bv), carryIn)
	} else {
		result, carryOut = DecimalAdd(byte(av), byte(bv), carryIn)
	}
	return Byte(int64(result)), carryOut, true
}
