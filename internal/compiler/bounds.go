package compiler

import (
	"sixc/internal/env"
	"sixc/internal/isa"
	"sixc/internal/konst"
)

// checkConstIndex validates a compile-time-known array index against
// the array's declared size. It always runs, independent of
// Opts.NeverCheckArrayBounds: a known-bad constant index is a compile
// error, not a runtime condition to optionally guard. Only the
// runtime guard can be suppressed.
func checkConstIndex(c CompilationContext, pos isa.Pos, arr env.ThingInMemory, index int) CompilationContext {
	if index < 0 || index >= arr.SizeBytes() {
		c.errorf(pos, "bounds", "index %d out of bounds for %q (size %d)", index, arr.Name(), arr.SizeBytes())
	}
	return c
}

// checkRuntimeIndex emits a CPX/BCC guard before an indexed load or
// store, branching to a shared out-of-bounds handler (".bounds_fail",
// provided by the runtime support library the platform descriptor
// links in) when X is past the array's end. The guard is on unless
// the context suppresses it: -fno-bounds-checking trades the safety
// net for the cycles.
func checkRuntimeIndex(c CompilationContext, pos isa.Pos, arr env.ThingInMemory) CompilationContext {
	if c.Opts.NeverCheckArrayBounds {
		return c
	}
	var label string
	c, label = c.FreshLabel("boundsok")
	c = c.EmitAll(
		isa.Line(isa.CPX, isa.Immediate, konst.Byte(int64(arr.SizeBytes()))),
		isa.Line(isa.BCC, isa.Relative, konst.Symbol(label)),
		isa.Line(isa.JSR, isa.Absolute, konst.Symbol(".bounds_fail")),
	)
	return c.Emit(isa.LabelLine(label, false))
}

// checkOverlap reports an error when two statically allocated things
// occupy addresses that overlap, gated by -fvariable-overlap the
// opposite way from runtime bounds checks: when the flag is set the
// compiler treats overlap as a hard error instead of trusting that the
// programmer wanted it (a deliberate overlay of two variables in the
// same bank to save space is common enough in this domain that the
// safe behavior must be explicitly requested, not assumed).
func checkOverlap(c CompilationContext, pos isa.Pos, a, b env.ThingInMemory) CompilationContext {
	if !c.Opts.CheckOverlap {
		return c
	}
	av, aok := a.Address().Eval()
	bv, bok := b.Address().Eval()
	if !aok || !bok {
		return c
	}
	aEnd := av + int64(a.SizeBytes())
	bEnd := bv + int64(b.SizeBytes())
	if av < bEnd && bv < aEnd {
		c.errorf(pos, "overlap", "%q and %q occupy overlapping storage", a.Name(), b.Name())
	}
	return c
}
