// Package equiv is a small reference interpreter for isa.AssemblyLine
// sequences, used to check that a peephole rule's Transform really
// does preserve behavior and to drive the superoptimizer's search.
// It interprets an AssemblyLine slice directly against a map-based
// memory keyed by operand text -- real addresses don't exist yet at
// the point peephole rules run, so each distinct operand string is
// its own storage cell rather than a linear address.
package equiv

import (
	"fmt"

	"sixc/internal/isa"
	"sixc/internal/konst"
)

// Machine is one point-in-time snapshot of the abstract target: the
// three registers, the flags the modeled opcodes touch, and a flat
// memory keyed by the textual form of whatever operand named the
// cell (so "counter" and "counter+1" are different cells, matching
// how the compiler's own scratch/array addressing works).
type Machine struct {
	A, X, Y                                 byte
	Carry, Zero, Negative, Overflow, Decimal bool
	Mem                                      map[string]byte
}

func NewMachine() Machine {
	return Machine{Mem: map[string]byte{}}
}

func (m Machine) clone() Machine {
	mem := make(map[string]byte, len(m.Mem))
	for k, v := range m.Mem {
		mem[k] = v
	}
	m.Mem = mem
	return m
}

func (m *Machine) load(op isa.Opcode, mode isa.Mode, operand isa.Operand) (byte, error) {
	switch mode {
	case isa.Immediate:
		c, ok := operand.(konst.Constant)
		if !ok {
			return 0, fmt.Errorf("equiv: immediate operand %v is not a constant", operand)
		}
		v, known := c.Eval()
		if !known {
			return 0, fmt.Errorf("equiv: immediate operand %s has no known value", operand.String())
		}
		return byte(v), nil
	case isa.ZeroPage, isa.Absolute:
		return m.Mem[operand.String()], nil
	case isa.ZeroPageX, isa.AbsoluteX:
		return m.Mem[indexedKey(operand, m.X)], nil
	case isa.ZeroPageY, isa.AbsoluteY:
		return m.Mem[indexedKey(operand, m.Y)], nil
	case isa.Accumulator:
		return m.A, nil
	default:
		return 0, fmt.Errorf("equiv: unsupported load mode %s", mode)
	}
}

func (m *Machine) store(mode isa.Mode, operand isa.Operand, v byte) error {
	switch mode {
	case isa.ZeroPage, isa.Absolute:
		m.Mem[operand.String()] = v
		return nil
	case isa.ZeroPageX, isa.AbsoluteX:
		m.Mem[indexedKey(operand, m.X)] = v
		return nil
	case isa.ZeroPageY, isa.AbsoluteY:
		m.Mem[indexedKey(operand, m.Y)] = v
		return nil
	case isa.Accumulator:
		m.A = v
		return nil
	default:
		return fmt.Errorf("equiv: unsupported store mode %s", mode)
	}
}

// indexedKey names the cell an indexed access lands on: the base
// operand's canonical form offset by the index register's current
// value, printed through the same QuickSimplify normalization the
// compiler applies to constant-index accesses so "base,X with X=1" and
// the folded constant "base+1" address the same cell.
func indexedKey(operand isa.Operand, index byte) string {
	c, ok := operand.(konst.Constant)
	if !ok {
		return fmt.Sprintf("%s+%d", operand.String(), index)
	}
	return konst.QuickSimplify(konst.CompoundConstant{
		Op:    konst.Add,
		Left:  c,
		Right: konst.Byte(int64(index)),
	}).String()
}

func setNZ(m *Machine, v byte) {
	m.Zero = v == 0
	m.Negative = int8(v) < 0
}

// Run interprets lines sequentially against m, resolving labels and
// branches within the same slice. JSR/RTS are treated as no-ops on
// control flow (the callee is opaque to this interpreter); a program
// under test is expected to be a single straight-line or loop body,
// not a multi-function call graph.
func Run(lines []isa.AssemblyLine, m Machine) (Machine, error) {
	labels := map[string]int{}
	for i, l := range lines {
		if l.Op == isa.LABEL {
			labels[l.Operand.String()] = i
		}
	}

	m = m.clone()
	pc := 0
	steps := 0
	const maxSteps = 100000
	for pc < len(lines) {
		steps++
		if steps > maxSteps {
			return m, fmt.Errorf("equiv: exceeded %d steps, suspected infinite loop", maxSteps)
		}
		l := lines[pc]
		next := pc + 1
		var err error

		switch l.Op {
		case isa.LABEL, isa.NOP:

		case isa.LDA:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.A = v
			setNZ(&m, v)
		case isa.LDX:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.X = v
			setNZ(&m, v)
		case isa.LDY:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Y = v
			setNZ(&m, v)
		case isa.STA:
			err = m.store(l.Mode, l.Operand, m.A)
		case isa.STX:
			err = m.store(l.Mode, l.Operand, m.X)
		case isa.STY:
			err = m.store(l.Mode, l.Operand, m.Y)
		case isa.STZ:
			err = m.store(l.Mode, l.Operand, 0)

		case isa.TAX:
			m.X = m.A
			setNZ(&m, m.X)
		case isa.TXA:
			m.A = m.X
			setNZ(&m, m.A)
		case isa.TAY:
			m.Y = m.A
			setNZ(&m, m.Y)
		case isa.TYA:
			m.A = m.Y
			setNZ(&m, m.A)
		case isa.TXY:
			m.Y = m.X
			setNZ(&m, m.Y)
		case isa.TYX:
			m.X = m.Y
			setNZ(&m, m.X)
		case isa.SAY:
			m.A, m.Y = m.Y, m.A

		case isa.INX:
			m.X++
			setNZ(&m, m.X)
		case isa.DEX:
			m.X--
			setNZ(&m, m.X)
		case isa.INY:
			m.Y++
			setNZ(&m, m.Y)
		case isa.DEY:
			m.Y--
			setNZ(&m, m.Y)

		case isa.CLC:
			m.Carry = false
		case isa.SEC:
			m.Carry = true
		case isa.CLD:
			m.Decimal = false
		case isa.SED:
			m.Decimal = true
		case isa.CLV:
			m.Overflow = false

		case isa.ADC:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			if m.Decimal {
				sum, carry := konst.DecimalAdd(m.A, v, m.Carry)
				m.A, m.Carry = sum, carry
			} else {
				carry := 0
				if m.Carry {
					carry = 1
				}
				sum := int(m.A) + int(v) + carry
				m.Carry = sum > 0xff
				m.A = byte(sum)
			}
			setNZ(&m, m.A)
		case isa.SBC:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			if m.Decimal {
				diff, carry := konst.DecimalSub(m.A, v, m.Carry)
				m.A, m.Carry = diff, carry
			} else {
				borrow := 0
				if !m.Carry {
					borrow = 1
				}
				diff := int(m.A) - int(v) - borrow
				m.Carry = diff >= 0
				m.A = byte(diff)
			}
			setNZ(&m, m.A)

		case isa.AND:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.A &= v
			setNZ(&m, m.A)
		case isa.ORA:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.A |= v
			setNZ(&m, m.A)
		case isa.EOR:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.A ^= v
			setNZ(&m, m.A)

		case isa.CMP:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Carry = m.A >= v
			setNZ(&m, m.A-v)
		case isa.CPX:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Carry = m.X >= v
			setNZ(&m, m.X-v)
		case isa.CPY:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Carry = m.Y >= v
			setNZ(&m, m.Y-v)

		case isa.INC:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			v++
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)
		case isa.DEC:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			v--
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)

		case isa.ASL:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Carry = v&0x80 != 0
			v <<= 1
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)
		case isa.LSR:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.Carry = v&0x01 != 0
			v >>= 1
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)
		case isa.ROL:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			carryIn := byte(0)
			if m.Carry {
				carryIn = 1
			}
			m.Carry = v&0x80 != 0
			v = v<<1 | carryIn
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)
		case isa.ROR:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			carryIn := byte(0)
			if m.Carry {
				carryIn = 0x80
			}
			m.Carry = v&0x01 != 0
			v = v>>1 | carryIn
			if e == nil {
				err = m.store(l.Mode, l.Operand, v)
			}
			setNZ(&m, v)

		case isa.LAX:
			v, e := m.load(l.Op, l.Mode, l.Operand)
			err = e
			m.A, m.X = v, v
			setNZ(&m, v)

		case isa.INW:
			lo := m.Mem[l.Operand.String()]
			hiKey := konst.QuickSimplify(konst.CompoundConstant{Op: konst.Add, Left: l.Operand.(konst.Constant), Right: konst.Byte(1)}).String()
			hi := m.Mem[hiKey]
			word := uint16(hi)<<8 | uint16(lo)
			word++
			m.Mem[l.Operand.String()] = byte(word)
			m.Mem[hiKey] = byte(word >> 8)
		case isa.DEW:
			lo := m.Mem[l.Operand.String()]
			hiKey := konst.QuickSimplify(konst.CompoundConstant{Op: konst.Add, Left: l.Operand.(konst.Constant), Right: konst.Byte(1)}).String()
			hi := m.Mem[hiKey]
			word := uint16(hi)<<8 | uint16(lo)
			word--
			m.Mem[l.Operand.String()] = byte(word)
			m.Mem[hiKey] = byte(word >> 8)

		case isa.TSB:
			v := m.Mem[l.Operand.String()]
			m.Zero = (v & m.A) == 0
			m.Mem[l.Operand.String()] = v | m.A
		case isa.TRB:
			v := m.Mem[l.Operand.String()]
			m.Zero = (v & m.A) == 0
			m.Mem[l.Operand.String()] = v &^ m.A

		case isa.JMP:
			idx, ok := labels[l.Operand.String()]
			if !ok {
				return m, fmt.Errorf("equiv: JMP to unknown label %s", l.Operand.String())
			}
			next = idx

		case isa.BEQ, isa.BNE, isa.BCC, isa.BCS, isa.BMI, isa.BPL, isa.BVC, isa.BVS, isa.BRA:
			if branchTaken(l.Op, m) {
				idx, ok := labels[l.Operand.String()]
				if !ok {
					return m, fmt.Errorf("equiv: branch to unknown label %s", l.Operand.String())
				}
				next = idx
			}

		case isa.JSR, isa.RTS, isa.RTI:
			// Opaque: treated as no-ops on this interpreter's model.

		default:
			return m, fmt.Errorf("equiv: unsupported opcode %s", l.Op.String())
		}

		if err != nil {
			return m, err
		}
		pc = next
	}
	return m, nil
}

func branchTaken(op isa.Opcode, m Machine) bool {
	switch op {
	case isa.BEQ:
		return m.Zero
	case isa.BNE:
		return !m.Zero
	case isa.BCC:
		return !m.Carry
	case isa.BCS:
		return m.Carry
	case isa.BMI:
		return m.Negative
	case isa.BPL:
		return !m.Negative
	case isa.BVC:
		return !m.Overflow
	case isa.BVS:
		return m.Overflow
	case isa.BRA:
		return true
	default:
		return false
	}
}
