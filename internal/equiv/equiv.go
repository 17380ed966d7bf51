package equiv

import (
	"fmt"

	"sixc/internal/isa"
)

// Mismatch describes one trial input for which two sequences produced
// different final machine states.
type Mismatch struct {
	Input Machine
	Want  Machine
	Got   Machine
}

func (m Mismatch) String() string {
	return fmt.Sprintf("input A=%d X=%d Y=%d: want A=%d X=%d Y=%d, got A=%d X=%d Y=%d",
		m.Input.A, m.Input.X, m.Input.Y, m.Want.A, m.Want.X, m.Want.Y, m.Got.A, m.Got.X, m.Got.Y)
}

// CheckEquivalent runs both reference and candidate against every
// trial in inputs and reports whether they agree on A, X, Y, the
// carry, zero and negative flags, and every memory cell either of them
// touched, for every trial. This is the correctness oracle the
// superoptimizer's search uses: a candidate is only accepted when
// CheckEquivalent reports ok for a representative input set.
func CheckEquivalent(reference, candidate []isa.AssemblyLine, inputs []Machine) (ok bool, mismatch *Mismatch, err error) {
	for _, in := range inputs {
		want, werr := Run(reference, in)
		if werr != nil {
			return false, nil, fmt.Errorf("reference sequence: %w", werr)
		}
		got, gerr := Run(candidate, in)
		if gerr != nil {
			return false, nil, fmt.Errorf("candidate sequence: %w", gerr)
		}
		if !statesEqual(want, got) {
			m := Mismatch{Input: in, Want: want, Got: got}
			return false, &m, nil
		}
	}
	return true, nil, nil
}

func statesEqual(a, b Machine) bool {
	if a.A != b.A || a.X != b.X || a.Y != b.Y {
		return false
	}
	if a.Carry != b.Carry || a.Zero != b.Zero || a.Negative != b.Negative {
		return false
	}
	keys := map[string]bool{}
	for k := range a.Mem {
		keys[k] = true
	}
	for k := range b.Mem {
		keys[k] = true
	}
	for k := range keys {
		if a.Mem[k] != b.Mem[k] {
			return false
		}
	}
	return true
}

// TrialsOverByte returns one Machine per possible accumulator value
// 0..255, all other registers and memory zeroed -- an exhaustive
// single-byte input sweep, the most common trial set for checking an
// accumulator-only transform (the superoptimizer's usual search
// scope; see superopt package).
func TrialsOverByte() []Machine {
	trials := make([]Machine, 256)
	for i := range trials {
		m := NewMachine()
		m.A = byte(i)
		trials[i] = m
	}
	return trials
}
