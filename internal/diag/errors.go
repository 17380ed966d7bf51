package diag

import (
	"fmt"
	"strings"

	"sixc/internal/isa"
)

// Kind sentinel-tags a Diagnostic by category, so a caller deciding
// how to react to a failure can switch on Kind instead of matching
// message text, the
// way the rest of this codebase avoids string-typed errors anywhere
// that callers need to branch on the failure.
type Kind string

const (
	KindSyntax      Kind = "syntax"
	KindUndefined   Kind = "undefined"
	KindType        Kind = "type"
	KindBounds      Kind = "bounds"
	KindOverlap     Kind = "overlap"
	KindPlacement   Kind = "placement"
	KindUnsupported Kind = "unsupported"
	KindInternal    Kind = "internal"
)

// Diagnostic is one error, warning, or note produced during
// compilation: a severity-tagged, kind-tagged record, so warnings and
// notes share the same accumulation path as hard errors.
type Diagnostic struct {
	Severity Level
	Kind     Kind
	Pos      isa.Pos
	Message  string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos.String(), d.Severity.String(), d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity.String(), d.Message)
}

// Bag accumulates diagnostics across a compilation, consulted by the
// per-phase AssertNoErrors checkpoints so a failure reports which
// phase first went wrong.
type Bag struct {
	entries []Diagnostic
}

func (b *Bag) Add(severity Level, kind Kind, pos isa.Pos, format string, args ...interface{}) {
	b.entries = append(b.entries, Diagnostic{
		Severity: severity,
		Kind:     kind,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Errorf(kind Kind, pos isa.Pos, format string, args ...interface{}) {
	b.Add(Error, kind, pos, format, args...)
}

func (b *Bag) Warnf(kind Kind, pos isa.Pos, format string, args ...interface{}) {
	b.Add(Warn, kind, pos, format, args...)
}

// HasErrors reports whether any accumulated diagnostic is Error or
// more severe.
func (b *Bag) HasErrors() bool {
	for _, d := range b.entries {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

func (b *Bag) All() []Diagnostic { return b.entries }

// phaseError is returned by AssertNoErrors; it satisfies the standard
// error interface and records which phase produced the failing
// diagnostics so the CLI can report "compilation failed during
// <phase>" rather than just dumping a diagnostic list.
type phaseError struct {
	phase   string
	entries []Diagnostic
}

func (e *phaseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d error(s)", e.phase, len(e.entries))
	for _, d := range e.entries {
		fmt.Fprintf(&b, "\n  %s", d.String())
	}
	return b.String()
}

// AssertNoErrors is the checkpoint every compiler phase calls before
// handing its output to the next one. Returns nil if nothing at Error severity or
// above was recorded, otherwise an error naming the phase and listing
// every such diagnostic.
func (b *Bag) AssertNoErrors(phase string) error {
	var failing []Diagnostic
	for _, d := range b.entries {
		if d.Severity >= Error {
			failing = append(failing, d)
		}
	}
	if len(failing) == 0 {
		return nil
	}
	return &phaseError{phase: phase, entries: failing}
}
