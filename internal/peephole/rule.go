package peephole

import (
	"sixc/internal/dataflow"
	"sixc/internal/isa"
)

// Rule is one named, data-described peephole optimization: a Pattern
// to match, an optional Precondition consulted with the dataflow state
// holding just before the match (nil means "always applies"), and a
// Transform producing the replacement lines. Rules are data, not
// methods on some growing switch statement, so sets can be composed,
// ordered deterministically, and logged by name.
type Rule struct {
	Name         string
	Pattern      Pattern
	Precondition func(before []dataflow.CPUState, matched []isa.AssemblyLine) bool
	Transform    func(matched []isa.AssemblyLine) []isa.AssemblyLine
}

func (r Rule) applies(before []dataflow.CPUState, matched []isa.AssemblyLine) bool {
	if r.Precondition == nil {
		return true
	}
	return r.Precondition(before, matched)
}

// RuleSet is a named, ordered collection of rules applied together.
// Order matters only for which rule claims an overlapping match first;
// rules within a set are expected to be mutually non-conflicting.
type RuleSet struct {
	Name  string
	Rules []Rule
}
