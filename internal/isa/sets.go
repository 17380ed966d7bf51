package isa

// entry describes one legal (opcode, addressing-mode) pairing: its
// base cycle cost, any additional cycles charged for crossing a page
// boundary, and the set of architectures it is legal on (the encoded
// bytes live in encode.go) -- a flat, declarative
// table driving lookups, with an architecture set per row since the
// 6502 family's extensions do not agree on encodings (the same byte
// means different things on CE02 and HuC6280).
type entry struct {
	op       Opcode
	mode     Mode
	cycles   byte
	bpcycles byte
	arch     []Architecture
}

var core = []Architecture{NMOS, NMOSUndocumented, CMOS, CE02, HuC6280, WDC65816}
var cmosUp = []Architecture{CMOS, CE02, HuC6280, WDC65816}
var ce02Only = []Architecture{CE02}
var huOnly = []Architecture{HuC6280}
var w65816Only = []Architecture{WDC65816}
var illegalOnly = []Architecture{NMOSUndocumented}

var table = []entry{
	{LDA, Immediate, 2, 0, core}, {LDA, ZeroPage, 3, 0, core}, {LDA, ZeroPageX, 4, 0, core},
	{LDA, Absolute, 4, 0, core}, {LDA, AbsoluteX, 4, 1, core}, {LDA, AbsoluteY, 4, 1, core},
	{LDA, IndexedX, 6, 0, core}, {LDA, IndexedY, 5, 1, core}, {LDA, IndexedZ, 5, 0, cmosUp},

	{LDX, Immediate, 2, 0, core}, {LDX, ZeroPage, 3, 0, core}, {LDX, ZeroPageY, 4, 0, core},
	{LDX, Absolute, 4, 0, core}, {LDX, AbsoluteY, 4, 1, core},

	{LDY, Immediate, 2, 0, core}, {LDY, ZeroPage, 3, 0, core}, {LDY, ZeroPageX, 4, 0, core},
	{LDY, Absolute, 4, 0, core}, {LDY, AbsoluteX, 4, 1, core},

	{STA, ZeroPage, 3, 0, core}, {STA, ZeroPageX, 4, 0, core}, {STA, Absolute, 4, 0, core},
	{STA, AbsoluteX, 5, 0, core}, {STA, AbsoluteY, 5, 0, core}, {STA, IndexedX, 6, 0, core},
	{STA, IndexedY, 6, 0, core}, {STA, IndexedZ, 5, 0, cmosUp},

	{STX, ZeroPage, 3, 0, core}, {STX, ZeroPageY, 4, 0, core}, {STX, Absolute, 4, 0, core},
	{STY, ZeroPage, 3, 0, core}, {STY, ZeroPageX, 4, 0, core}, {STY, Absolute, 4, 0, core},
	{STZ, ZeroPage, 3, 0, cmosUp}, {STZ, ZeroPageX, 4, 0, cmosUp},
	{STZ, Absolute, 4, 0, cmosUp}, {STZ, AbsoluteX, 5, 0, cmosUp},

	{ADC, Immediate, 2, 0, core}, {ADC, ZeroPage, 3, 0, core}, {ADC, ZeroPageX, 4, 0, core},
	{ADC, Absolute, 4, 0, core}, {ADC, AbsoluteX, 4, 1, core}, {ADC, AbsoluteY, 4, 1, core},
	{ADC, IndexedX, 6, 0, core}, {ADC, IndexedY, 5, 1, core}, {ADC, IndexedZ, 5, 1, cmosUp},

	{SBC, Immediate, 2, 0, core}, {SBC, ZeroPage, 3, 0, core}, {SBC, ZeroPageX, 4, 0, core},
	{SBC, Absolute, 4, 0, core}, {SBC, AbsoluteX, 4, 1, core}, {SBC, AbsoluteY, 4, 1, core},
	{SBC, IndexedX, 6, 0, core}, {SBC, IndexedY, 5, 1, core}, {SBC, IndexedZ, 5, 1, cmosUp},

	{CMP, Immediate, 2, 0, core}, {CMP, ZeroPage, 3, 0, core}, {CMP, ZeroPageX, 4, 0, core},
	{CMP, Absolute, 4, 0, core}, {CMP, AbsoluteX, 4, 1, core}, {CMP, AbsoluteY, 4, 1, core},
	{CMP, IndexedX, 6, 0, core}, {CMP, IndexedY, 5, 1, core},

	{CPX, Immediate, 2, 0, core}, {CPX, ZeroPage, 3, 0, core}, {CPX, Absolute, 4, 0, core},
	{CPY, Immediate, 2, 0, core}, {CPY, ZeroPage, 3, 0, core}, {CPY, Absolute, 4, 0, core},

	{BIT, Immediate, 2, 0, cmosUp}, {BIT, ZeroPage, 3, 0, core}, {BIT, ZeroPageX, 4, 0, cmosUp},
	{BIT, Absolute, 4, 0, core}, {BIT, AbsoluteX, 4, 1, cmosUp},

	{CLC, Implied, 2, 0, core}, {SEC, Implied, 2, 0, core}, {CLI, Implied, 2, 0, core},
	{SEI, Implied, 2, 0, core}, {CLD, Implied, 2, 0, core}, {SED, Implied, 2, 0, core},
	{CLV, Implied, 2, 0, core},

	{BCC, Relative, 2, 1, core}, {BCS, Relative, 2, 1, core}, {BEQ, Relative, 2, 1, core},
	{BNE, Relative, 2, 1, core}, {BMI, Relative, 2, 1, core}, {BPL, Relative, 2, 1, core},
	{BVC, Relative, 2, 1, core}, {BVS, Relative, 2, 1, core}, {BRA, Relative, 2, 1, cmosUp},

	{BRK, Implied, 7, 0, core},

	{AND, Immediate, 2, 0, core}, {AND, ZeroPage, 3, 0, core}, {AND, ZeroPageX, 4, 0, core},
	{AND, Absolute, 4, 0, core}, {AND, AbsoluteX, 4, 1, core}, {AND, AbsoluteY, 4, 1, core},
	{AND, IndexedX, 6, 0, core}, {AND, IndexedY, 5, 1, core},

	{ORA, Immediate, 2, 0, core}, {ORA, ZeroPage, 3, 0, core}, {ORA, ZeroPageX, 4, 0, core},
	{ORA, Absolute, 4, 0, core}, {ORA, AbsoluteX, 4, 1, core}, {ORA, AbsoluteY, 4, 1, core},
	{ORA, IndexedX, 6, 0, core}, {ORA, IndexedY, 5, 1, core},

	{EOR, Immediate, 2, 0, core}, {EOR, ZeroPage, 3, 0, core}, {EOR, ZeroPageX, 4, 0, core},
	{EOR, Absolute, 4, 0, core}, {EOR, AbsoluteX, 4, 1, core}, {EOR, AbsoluteY, 4, 1, core},
	{EOR, IndexedX, 6, 0, core}, {EOR, IndexedY, 5, 1, core},

	{INC, ZeroPage, 5, 0, core}, {INC, ZeroPageX, 6, 0, core}, {INC, Absolute, 6, 0, core},
	{INC, AbsoluteX, 7, 0, core}, {INC, Accumulator, 2, 0, cmosUp},

	{DEC, ZeroPage, 5, 0, core}, {DEC, ZeroPageX, 6, 0, core}, {DEC, Absolute, 6, 0, core},
	{DEC, AbsoluteX, 7, 0, core}, {DEC, Accumulator, 2, 0, cmosUp},

	{INX, Implied, 2, 0, core}, {INY, Implied, 2, 0, core},
	{DEX, Implied, 2, 0, core}, {DEY, Implied, 2, 0, core},

	{JMP, Absolute, 3, 0, core}, {JMP, Indirect, 5, 0, core}, {JMP, AbsoluteX, 6, 0, cmosUp},
	{JSR, Absolute, 6, 0, core}, {RTS, Implied, 6, 0, core}, {RTI, Implied, 6, 0, core},

	{NOP, Implied, 2, 0, core},

	{TAX, Implied, 2, 0, core}, {TXA, Implied, 2, 0, core}, {TAY, Implied, 2, 0, core},
	{TYA, Implied, 2, 0, core}, {TXS, Implied, 2, 0, core}, {TSX, Implied, 2, 0, core},

	{TRB, ZeroPage, 5, 0, cmosUp}, {TRB, Absolute, 6, 0, cmosUp},
	{TSB, ZeroPage, 5, 0, cmosUp}, {TSB, Absolute, 6, 0, cmosUp},

	{PHA, Implied, 3, 0, core}, {PLA, Implied, 4, 0, core},
	{PHP, Implied, 3, 0, core}, {PLP, Implied, 4, 0, core},
	{PHX, Implied, 3, 0, cmosUp}, {PLX, Implied, 4, 0, cmosUp},
	{PHY, Implied, 3, 0, cmosUp}, {PLY, Implied, 4, 0, cmosUp},

	{ASL, Accumulator, 2, 0, core}, {ASL, ZeroPage, 5, 0, core}, {ASL, ZeroPageX, 6, 0, core},
	{ASL, Absolute, 6, 0, core}, {ASL, AbsoluteX, 7, 0, core},

	{LSR, Accumulator, 2, 0, core}, {LSR, ZeroPage, 5, 0, core}, {LSR, ZeroPageX, 6, 0, core},
	{LSR, Absolute, 6, 0, core}, {LSR, AbsoluteX, 7, 0, core},

	{ROL, Accumulator, 2, 0, core}, {ROL, ZeroPage, 5, 0, core}, {ROL, ZeroPageX, 6, 0, core},
	{ROL, Absolute, 6, 0, core}, {ROL, AbsoluteX, 7, 0, core},

	{ROR, Accumulator, 2, 0, core}, {ROR, ZeroPage, 5, 0, core}, {ROR, ZeroPageX, 6, 0, core},
	{ROR, Absolute, 6, 0, core}, {ROR, AbsoluteX, 7, 0, core},

	// Undocumented NMOS opcodes (SBX, SAX, SHY, LAX, ...)
	{LAX, ZeroPage, 3, 0, illegalOnly}, {LAX, ZeroPageY, 4, 0, illegalOnly},
	{LAX, Absolute, 4, 0, illegalOnly}, {LAX, AbsoluteY, 4, 1, illegalOnly},
	{LAX, IndexedX, 6, 0, illegalOnly}, {LAX, IndexedY, 5, 1, illegalOnly},
	{SAX, ZeroPage, 3, 0, illegalOnly}, {SAX, ZeroPageY, 4, 0, illegalOnly},
	{SAX, Absolute, 4, 0, illegalOnly}, {SAX, IndexedX, 6, 0, illegalOnly},
	{SBX, Immediate, 2, 0, illegalOnly},
	{SHY, AbsoluteX, 5, 0, illegalOnly}, {SHX, AbsoluteY, 5, 0, illegalOnly},
	{DCP, ZeroPage, 5, 0, illegalOnly}, {DCP, Absolute, 6, 0, illegalOnly},
	{ISC, ZeroPage, 5, 0, illegalOnly}, {ISC, Absolute, 6, 0, illegalOnly},
	{SLO, ZeroPage, 5, 0, illegalOnly}, {SLO, Absolute, 6, 0, illegalOnly},
	{RLA, ZeroPage, 5, 0, illegalOnly}, {RLA, Absolute, 6, 0, illegalOnly},
	{SRE, ZeroPage, 5, 0, illegalOnly}, {SRE, Absolute, 6, 0, illegalOnly},
	{RRA, ZeroPage, 5, 0, illegalOnly}, {RRA, Absolute, 6, 0, illegalOnly},
	{ANC, Immediate, 2, 0, illegalOnly}, {ALR, Immediate, 2, 0, illegalOnly},
	{ARR, Immediate, 2, 0, illegalOnly}, {AXS, Immediate, 2, 0, illegalOnly},

	// CMOS-only control opcodes
	{RMB, ZeroPage, 5, 0, cmosUp}, {SMB, ZeroPage, 5, 0, cmosUp},
	{BBR, Relative, 5, 0, cmosUp}, {BBS, Relative, 5, 0, cmosUp},
	{WAI, Implied, 3, 0, cmosUp}, {STP, Implied, 3, 0, cmosUp},

	// 65CE02 extensions
	{INW, ZeroPage, 5, 0, ce02Only}, {DEW, ZeroPage, 5, 0, ce02Only},
	{ASR, Accumulator, 2, 0, ce02Only}, {ASW, Absolute, 7, 0, ce02Only},
	{ROW, Absolute, 7, 0, ce02Only}, {CPZ, Immediate, 2, 0, ce02Only},
	{CPZ, ZeroPage, 3, 0, ce02Only}, {DEZ, Implied, 2, 0, ce02Only},
	{INZ, Implied, 2, 0, ce02Only}, {LDZ, Immediate, 2, 0, ce02Only},
	{LDZ, Absolute, 4, 0, ce02Only}, {PHZ, Implied, 3, 0, ce02Only},
	{PLZ, Implied, 4, 0, ce02Only}, {TAZ, Implied, 2, 0, ce02Only},
	{TZA, Implied, 2, 0, ce02Only}, {TAB, Implied, 2, 0, ce02Only},
	{TBA, Implied, 2, 0, ce02Only}, {TSY, Implied, 2, 0, ce02Only},
	{TYS, Implied, 2, 0, ce02Only}, {NEG, Accumulator, 2, 0, ce02Only},
	{RTN, Immediate, 6, 0, ce02Only}, {BSR, RelativeLong, 6, 0, ce02Only},
	{AUG, Implied, 1, 0, ce02Only}, {CLE, Implied, 2, 0, ce02Only},
	{SEE, Implied, 2, 0, ce02Only},

	// HuC6280 extensions
	{SAY, Implied, 3, 0, huOnly}, {SXY, Implied, 3, 0, huOnly},
	{ST0, Immediate, 4, 0, huOnly}, {ST1, Immediate, 4, 0, huOnly},
	{ST2, Immediate, 4, 0, huOnly}, {TAM, Immediate, 4, 0, huOnly},
	{TMA, Immediate, 4, 0, huOnly}, {TST, Immediate, 7, 0, huOnly},
	{HuSAX, Implied, 3, 0, huOnly},

	// 65816 extensions (emulation mode; see DESIGN.md open question)
	{BRL, RelativeLong, 4, 0, w65816Only}, {COP, Immediate, 7, 0, w65816Only},
	{JML, LongAbsolute, 4, 0, w65816Only}, {JSL, LongAbsolute, 8, 0, w65816Only},
	{MVN, Immediate, 7, 0, w65816Only}, {MVP, Immediate, 7, 0, w65816Only},
	{PEA, Absolute, 5, 0, w65816Only}, {PEI, ZeroPage, 6, 0, w65816Only},
	{PER, RelativeLong, 6, 0, w65816Only}, {PHB, Implied, 3, 0, w65816Only},
	{PHD, Implied, 4, 0, w65816Only}, {PHK, Implied, 3, 0, w65816Only},
	{PLB, Implied, 4, 0, w65816Only}, {PLD, Implied, 5, 0, w65816Only},
	{REP, Immediate, 3, 0, w65816Only}, {RTL, Implied, 6, 0, w65816Only},
	{SEP, Immediate, 3, 0, w65816Only}, {TCD, Implied, 2, 0, w65816Only},
	{TCS, Implied, 2, 0, w65816Only}, {TDC, Implied, 2, 0, w65816Only},
	{TSC, Implied, 2, 0, w65816Only}, {TXY, Implied, 2, 0, w65816Only},
	{TYX, Implied, 2, 0, w65816Only}, {WDM, Immediate, 2, 0, w65816Only},
	{XBA, Implied, 3, 0, w65816Only}, {XCE, Implied, 2, 0, w65816Only},
}

type legalKey struct {
	op   Opcode
	mode Mode
}

var legalByArch = map[Architecture]map[legalKey]entry{}

func init() {
	for _, e := range table {
		for _, a := range e.arch {
			m := legalByArch[a]
			if m == nil {
				m = map[legalKey]entry{}
				legalByArch[a] = m
			}
			m[legalKey{e.op, e.mode}] = e
		}
	}
}

// Legal reports whether (op, mode) is a legal pairing on arch. Pseudo
// opcodes (LABEL, BYTE, JSR_ABS) are always legal on DoesNotExist
// mode and nowhere else; the assembler backend handles them before
// this table would ever be consulted for real encoding.
func Legal(arch Architecture, op Opcode, mode Mode) bool {
	if op.IsPseudo() {
		return mode == DoesNotExist
	}
	_, ok := legalByArch[arch][legalKey{op, mode}]
	return ok
}

// Cycles returns the base cycle count and extra page-crossing cycles
// for (op, mode) on arch. It panics if the pairing is illegal, since
// callers are expected to have checked Legal first; an illegal pairing
// reaching here is an internal-invariant violation.
func Cycles(arch Architecture, op Opcode, mode Mode) (base, pageCross byte) {
	e, ok := legalByArch[arch][legalKey{op, mode}]
	if !ok {
		panic("isa: illegal (opcode, mode) pair reached Cycles: " + op.String() + " " + mode.String())
	}
	return e.cycles, e.bpcycles
}

// Variants returns every (mode) a mnemonic supports on arch, sorted by
// the order they were registered in the table.
func Variants(arch Architecture, op Opcode) []Mode {
	var modes []Mode
	for _, e := range table {
		if e.op != op {
			continue
		}
		for _, a := range e.arch {
			if a == arch {
				modes = append(modes, e.mode)
				break
			}
		}
	}
	return modes
}
