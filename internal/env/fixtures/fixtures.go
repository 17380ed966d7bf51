// Package fixtures provides a trivial, in-memory env.Mutable for
// tests in the compiler and platform packages that need an
// Environment but don't want to pull in the full module loader.
package fixtures

import (
	"sixc/internal/env"
	"sixc/internal/konst"
)

type thing struct {
	name     string
	kind     env.Kind
	size     int
	addr     konst.Constant
	zp       bool
	volatile bool
}

func (t thing) Name() string             { return t.name }
func (t thing) Kind() env.Kind           { return t.kind }
func (t thing) SizeBytes() int           { return t.size }
func (t thing) Address() konst.Constant  { return t.addr }
func (t thing) Zeropage() bool           { return t.zp }
func (t thing) Volatile() bool           { return t.volatile }

// NewThing builds a env.ThingInMemory fixture. Tests call this rather
// than constructing the unexported thing type directly.
func NewThing(name string, kind env.Kind, size int, addr konst.Constant, zp, volatile bool) env.ThingInMemory {
	return thing{name: name, kind: kind, size: size, addr: addr, zp: zp, volatile: volatile}
}

// Env is a flat, unscoped Environment backed by plain maps, enough for
// unit tests that don't exercise nested lexical scoping.
type Env struct {
	Bank      string
	things    map[string]env.ThingInMemory
	constants map[string]konst.Constant
}

func New(bank string) *Env {
	return &Env{
		Bank:      bank,
		things:    map[string]env.ThingInMemory{},
		constants: map[string]konst.Constant{},
	}
}

func (e *Env) LookupThing(name string) (env.ThingInMemory, bool) {
	t, ok := e.things[name]
	return t, ok
}

func (e *Env) LookupConstant(name string) (konst.Constant, bool) {
	c, ok := e.constants[name]
	return c, ok
}

func (e *Env) CurrentBank() string { return e.Bank }

func (e *Env) Define(t env.ThingInMemory) { e.things[t.Name()] = t }

func (e *Env) DefineConstant(name string, value konst.Constant) { e.constants[name] = value }

var _ env.Mutable = (*Env)(nil)
