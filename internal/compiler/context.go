// Package compiler lowers statements and expressions into
// isa.AssemblyLine sequences. This package only ever produces
// assembly lines, never bytes; sizing, placement and emission belong
// to the asmout package.
package compiler

import (
	"fmt"

	"sixc/internal/diag"
	"sixc/internal/env"
	"sixc/internal/isa"
)

// Options controls which instruction extensions and safety checks
// lowering is allowed to use, read from the active platform
// descriptor (see platform package) and the command line.
type Options struct {
	Arch    isa.Architecture
	Decimal bool // permit compile-time folding inside `decimal` blocks

	// NeverCheckArrayBounds suppresses the runtime array-index guard;
	// the guard is emitted by default and only -fno-bounds-checking
	// (or a per-function annotation resolved by the front end) sets
	// this.
	NeverCheckArrayBounds bool

	CheckOverlap bool // -fvariable-overlap: the compiler refuses overlapping static allocations rather than trusting the programmer
}

// CompilationContext carries the accumulated output of compiling one
// function body. Every method returns a new CompilationContext rather
// than mutating the receiver -- AssemblyLine lists are never edited in
// place anywhere in this codebase (see isa.AssemblyLine's doc comment)
// -- so two branches of a statement (e.g. the two arms of an if) can
// each extend the same starting context without interfering.
type CompilationContext struct {
	Env   env.Environment
	Opts  Options
	Bag   *diag.Bag
	Lines []isa.AssemblyLine

	labelSeq     int
	scopeLabel   string
	scratchDepth int

	// breakLabels and continueLabels resolve break/continue statements
	// to the labels of the loop they leave, keyed by the loop's
	// user-visible label; the empty key always names the innermost
	// loop. Copy-on-write like everything else here, so a loop body's
	// bindings never leak out of the loop.
	breakLabels    map[string]string
	continueLabels map[string]string
}

// NewContext starts a fresh compilation context for one function,
// named fn (used as the prefix for function-local labels).
func NewContext(e env.Environment, opts Options, bag *diag.Bag, fn string) CompilationContext {
	return CompilationContext{Env: e, Opts: opts, Bag: bag, scopeLabel: fn}
}

// Emit appends one line and returns the extended context.
func (c CompilationContext) Emit(line isa.AssemblyLine) CompilationContext {
	lines := make([]isa.AssemblyLine, len(c.Lines)+1)
	copy(lines, c.Lines)
	lines[len(c.Lines)] = line
	c.Lines = lines
	return c
}

// EmitAll appends a run of lines and returns the extended context.
func (c CompilationContext) EmitAll(more ...isa.AssemblyLine) CompilationContext {
	lines := make([]isa.AssemblyLine, len(c.Lines)+len(more))
	copy(lines, c.Lines)
	copy(lines[len(c.Lines):], more)
	c.Lines = lines
	return c
}

// FreshLabel returns a context whose label counter has advanced, and
// a function-scoped local label name (e.g. ".main.if3") guaranteed
// unique within this context's scope.
func (c CompilationContext) FreshLabel(tag string) (CompilationContext, string) {
	c.labelSeq++
	return c, fmt.Sprintf(".%s.%s%d", c.scopeLabel, tag, c.labelSeq)
}

// enterLoop binds break/continue targets for a loop named loopLabel
// (may be empty for an unlabeled loop); the empty key is always
// rebound so break/continue without a label reach the innermost loop.
func (c CompilationContext) enterLoop(loopLabel, breakTo, continueTo string) CompilationContext {
	brk := make(map[string]string, len(c.breakLabels)+2)
	for k, v := range c.breakLabels {
		brk[k] = v
	}
	cont := make(map[string]string, len(c.continueLabels)+2)
	for k, v := range c.continueLabels {
		cont[k] = v
	}
	brk[""], cont[""] = breakTo, continueTo
	if loopLabel != "" {
		brk[loopLabel], cont[loopLabel] = breakTo, continueTo
	}
	c.breakLabels, c.continueLabels = brk, cont
	return c
}

// errorf records a diagnostic against the context's Bag. Diagnostics
// accumulate on the shared *diag.Bag (the one piece of this package
// that is intentionally not copy-on-write, since every branch of a
// compilation must report into the same error list for AssertNoErrors
// to see them all).
func (c CompilationContext) errorf(pos isa.Pos, kind diag.Kind, format string, args ...interface{}) {
	c.Bag.Errorf(kind, pos, format, args...)
}
