package compiler

import "github.com/samber/lo"

// identifierRefs walks an expression tree and collects every
// identifier it names, including array bases, duplicates allowed.
// Used by ReferencedNames to build the set of names a function body
// actually touches.
func identifierRefs(e *Expr) []string {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprIdent:
		return []string{e.Name}
	case ExprIndex:
		return append(identifierRefs(e.Left), identifierRefs(e.Right)...)
	case ExprBinary:
		return append(identifierRefs(e.Left), identifierRefs(e.Right)...)
	case ExprNegate:
		return identifierRefs(e.Left)
	default:
		return nil
	}
}

func stmtRefs(s *Stmt) []string {
	var names []string
	names = append(names, identifierRefs(s.Expr)...)
	names = append(names, identifierRefs(s.Cond)...)
	names = append(names, identifierRefs(s.Index)...)
	if s.Name != "" {
		names = append(names, s.Name)
	}
	for i := range s.Then {
		names = append(names, stmtRefs(&s.Then[i])...)
	}
	for i := range s.Else {
		names = append(names, stmtRefs(&s.Else[i])...)
	}
	return names
}

// ReferencedNames returns the de-duplicated set of identifiers a
// function body references, in order of first occurrence. cmd/sixc
// builds its call graph from it, which asmout then uses to drop
// unreachable functions. Built with samber/lo's list combinators
// rather than a hand-rolled dedup loop.
func ReferencedNames(body []Stmt) []string {
	var all []string
	for i := range body {
		all = append(all, stmtRefs(&body[i])...)
	}
	unique := lo.Uniq(all)
	return lo.Filter(unique, func(name string, _ int) bool { return name != "" })
}
