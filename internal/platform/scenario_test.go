package platform_test

import (
	"fmt"
	"testing"

	"sixc/internal/compiler"
	"sixc/internal/diag"
	"sixc/internal/env"
	"sixc/internal/env/fixtures"
	"sixc/internal/equiv"
	"sixc/internal/isa"
	"sixc/internal/konst"
	"sixc/internal/platform"
)

// These tests drive whole programs through lowering, the optimizer at
// every level from -O0 to -O3, and the reference interpreter, checking
// the value left in `output` afterwards -- the end-to-end guarantee
// that raising the optimization level never changes what a program
// computes.

func scenarioEnv() env.Mutable {
	e := fixtures.New("main")
	e.Define(fixtures.NewThing("output", env.Array, 16, konst.Symbol("output"), false, false))
	e.Define(fixtures.NewThing("a", env.Variable, 1, konst.Symbol("a"), false, false))
	e.Define(fixtures.NewThing("b", env.Variable, 1, konst.Symbol("b"), false, false))
	return e
}

func ident(name string) *compiler.Expr { return &compiler.Expr{Kind: compiler.ExprIdent, Name: name} }

func num(v int64) *compiler.Expr {
	return &compiler.Expr{Kind: compiler.ExprConst, Const: konst.Byte(v)}
}

func bin(op konst.BinOp, l, r *compiler.Expr) *compiler.Expr {
	return &compiler.Expr{Kind: compiler.ExprBinary, Op: op, Left: l, Right: r}
}

func index(arr string, idx *compiler.Expr) *compiler.Expr {
	return &compiler.Expr{Kind: compiler.ExprIndex, Left: ident(arr), Right: idx}
}

func assign(name string, value *compiler.Expr) compiler.Stmt {
	return compiler.Stmt{Kind: compiler.AssignStmt, Name: name, Expr: value}
}

func assignIndexed(name string, idx, value *compiler.Expr) compiler.Stmt {
	return compiler.Stmt{Kind: compiler.AssignStmt, Name: name, Index: idx, Expr: value}
}

// runAtEveryLevel lowers body, optimizes it at -O0 through -O3, runs
// each result on a fresh machine, and hands the final machine to
// check.
func runAtEveryLevel(t *testing.T, body []compiler.Stmt, check func(t *testing.T, m equiv.Machine)) {
	t.Helper()
	for level := 0; level <= 3; level++ {
		t.Run(fmt.Sprintf("O%d", level), func(t *testing.T) {
			var bag diag.Bag
			c := compiler.NewContext(scenarioEnv(), compiler.Options{Arch: isa.NMOS}, &bag, "main")
			c = compiler.LowerFunction(c, compiler.Signature{Name: "main"}, body)
			if err := bag.AssertNoErrors("compile"); err != nil {
				t.Fatal(err)
			}

			flags := platform.DefaultFlags()
			flags.OptLevel = level
			lines := platform.Optimize(c.Lines, isa.NMOS, flags)

			m, err := equiv.Run(lines, equiv.NewMachine())
			if err != nil {
				t.Fatal(err)
			}
			check(t, m)
		})
	}
}

func expectOutput(want byte) func(*testing.T, equiv.Machine) {
	return func(t *testing.T, m equiv.Machine) {
		if got := m.Mem["output"]; got != want {
			t.Errorf("output = %d, want %d", got, want)
		}
	}
}

func TestScenarioComplexExpression(t *testing.T) {
	// output = (a+a) | (((a<<2) - 1) ^ a) with a = 1: 2 | (3^1) = 2.
	body := []compiler.Stmt{
		assign("a", num(1)),
		assign("output", bin(konst.Or,
			bin(konst.Add, ident("a"), ident("a")),
			bin(konst.Xor,
				bin(konst.Sub, bin(konst.Shl, ident("a"), num(2)), num(1)),
				ident("a")))),
	}
	runAtEveryLevel(t, body, expectOutput(2))
}

func TestScenarioSimpleAddition(t *testing.T) {
	body := []compiler.Stmt{
		assign("a", num(1)),
		assign("output", bin(konst.Add, ident("a"), ident("a"))),
	}
	runAtEveryLevel(t, body, expectOutput(2))
}

func TestScenarioImmediateAddition(t *testing.T) {
	body := []compiler.Stmt{
		assign("a", num(1)),
		assign("output", bin(konst.Add, ident("a"), num(65))),
	}
	runAtEveryLevel(t, body, expectOutput(66))
}

func TestScenarioInPlaceIndexedAddition(t *testing.T) {
	// output[1] = 5; output[a] += 1; output[a] += 36 with a = 1.
	body := []compiler.Stmt{
		assign("a", num(1)),
		assignIndexed("output", num(1), num(5)),
		assignIndexed("output", ident("a"),
			bin(konst.Add, index("output", ident("a")), num(1))),
		assignIndexed("output", ident("a"),
			bin(konst.Add, index("output", ident("a")), num(36))),
	}
	runAtEveryLevel(t, body, func(t *testing.T, m equiv.Machine) {
		if got := m.Mem["output+1"]; got != 42 {
			t.Errorf("output[1] = %d, want 42", got)
		}
	})
}

func TestScenarioByteMultiplicationByTwo(t *testing.T) {
	body := []compiler.Stmt{
		assign("a", num(7)),
		assign("output", bin(konst.Mul, ident("a"), num(2))),
	}
	runAtEveryLevel(t, body, expectOutput(14))
}

func TestScenarioByteMultiplicationTable(t *testing.T) {
	xs := []int64{0, 1, 2, 5, 7, 100}
	ys := []int64{0, 2, 4, 5, 54, 100}
	for _, x := range xs {
		for _, y := range ys {
			t.Run(fmt.Sprintf("%dx%d", x, y), func(t *testing.T) {
				body := []compiler.Stmt{
					assign("a", num(x)),
					assign("b", num(y)),
					assign("output", bin(konst.Mul, ident("a"), ident("b"))),
				}
				runAtEveryLevel(t, body, expectOutput(byte(x*y)))
			})
		}
	}
}

func TestScenarioInPlaceMultiplication(t *testing.T) {
	body := []compiler.Stmt{
		assign("output", num(54)),
		assign("output", bin(konst.Mul, ident("output"), num(4))),
	}
	runAtEveryLevel(t, body, expectOutput(216))
}

func TestScenarioForLoopAccumulation(t *testing.T) {
	// for a = 1 to 5 { output = output + a } leaves 1+2+3+4+5 = 15.
	body := []compiler.Stmt{
		assign("output", num(0)),
		{
			Kind: compiler.ForStmt,
			For: &compiler.ForClause{
				Var:   "a",
				From:  num(1),
				Dir:   compiler.To,
				Bound: num(5),
			},
			Then: []compiler.Stmt{
				assign("output", bin(konst.Add, ident("output"), ident("a"))),
			},
		},
	}
	runAtEveryLevel(t, body, expectOutput(15))
}
