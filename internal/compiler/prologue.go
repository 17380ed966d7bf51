package compiler

import "sixc/internal/isa"

// Signature describes a function's calling convention inputs: whether
// it is an interrupt handler (which must save and restore every
// register it touches, not just the ones its own body clobbers) and
// how many bytes of stack-frame storage its locals need.
type Signature struct {
	Name        string
	Interrupt   bool
	LocalsBytes int
}

// pushRunThreshold is the local-frame size, in bytes, above which the
// prologue switches from a straight-line run of PHA instructions to
// adjusting the stack pointer directly via TSX/TXA/SEC/SBC/TAX/TXS.
// Five bytes of PHA (15 cycles, 5 bytes of code) versus the
// six-instruction SP-adjustment sequence (12 cycles, 7 bytes of code)
// cross over around here: up to it the PHA run is smaller, above it
// the direct adjustment wins on both size and speed. The PHA run also
// leaves A intact, while the adjustment goes through A.
const pushRunThreshold = 5

// Prologue emits the function entry sequence for sig, returning the
// extended context. Interrupt handlers save A, then X and Y -- via
// PHX/PHY where the architecture has them, via TXA/PHA and TYA/PHA on
// plain NMOS -- and clear decimal mode, since the handler may have
// interrupted BCD arithmetic. The stack frame is then reserved by
// whichever of the two strategies pushRunThreshold selects.
func Prologue(c CompilationContext, sig Signature) CompilationContext {
	if sig.Interrupt {
		c = c.Emit(isa.Line(isa.PHA, isa.Implied, isa.NoOperand{}))
		if isa.Legal(c.Opts.Arch, isa.PHX, isa.Implied) {
			c = c.EmitAll(
				isa.Line(isa.PHX, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.PHY, isa.Implied, isa.NoOperand{}),
			)
		} else {
			c = c.EmitAll(
				isa.Line(isa.TXA, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.PHA, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.TYA, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.PHA, isa.Implied, isa.NoOperand{}),
			)
		}
		c = c.Emit(isa.Line(isa.CLD, isa.Implied, isa.NoOperand{}))
	}

	switch {
	case sig.LocalsBytes <= 0:
		// No frame to reserve.
	case sig.LocalsBytes <= pushRunThreshold:
		for i := 0; i < sig.LocalsBytes; i++ {
			c = c.Emit(isa.ElidableLine(isa.PHA, isa.Implied, isa.NoOperand{}))
		}
	default:
		c = c.EmitAll(
			isa.Line(isa.TSX, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.TXA, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.SEC, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.SBC, isa.Immediate, byteConst(sig.LocalsBytes)),
			isa.Line(isa.TAX, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.TXS, isa.Implied, isa.NoOperand{}),
		)
	}
	return c
}

// Epilogue emits the matching function exit sequence, reversing
// Prologue's frame reservation and register saves before the final
// return instruction (RTI for interrupts, RTS otherwise).
func Epilogue(c CompilationContext, sig Signature) CompilationContext {
	switch {
	case sig.LocalsBytes <= 0:
	case sig.LocalsBytes <= pushRunThreshold:
		for i := 0; i < sig.LocalsBytes; i++ {
			c = c.Emit(isa.ElidableLine(isa.PLA, isa.Implied, isa.NoOperand{}))
		}
	default:
		c = c.EmitAll(
			isa.Line(isa.TSX, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.TXA, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.CLC, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.ADC, isa.Immediate, byteConst(sig.LocalsBytes)),
			isa.Line(isa.TAX, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.TXS, isa.Implied, isa.NoOperand{}),
		)
	}

	if sig.Interrupt {
		// RTI restores the interrupted status register, decimal flag
		// included, so only the registers need unwinding here.
		if isa.Legal(c.Opts.Arch, isa.PLX, isa.Implied) {
			c = c.EmitAll(
				isa.Line(isa.PLY, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.PLX, isa.Implied, isa.NoOperand{}),
			)
		} else {
			c = c.EmitAll(
				isa.Line(isa.PLA, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.TAY, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.PLA, isa.Implied, isa.NoOperand{}),
				isa.Line(isa.TAX, isa.Implied, isa.NoOperand{}),
			)
		}
		c = c.EmitAll(
			isa.Line(isa.PLA, isa.Implied, isa.NoOperand{}),
			isa.Line(isa.RTI, isa.Implied, isa.NoOperand{}),
		)
	} else {
		c = c.Emit(isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}))
	}
	return c
}
