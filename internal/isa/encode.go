package isa

// encoding carries the machine byte for one legal (opcode, mode) pair,
// split out from the legality table because encodings are the one place
// the family members genuinely conflict: the same byte that means
// STZ abs on a 65C02 means SHY abs,X on an NMOS part with undocumented
// opcodes enabled, and the HuC6280 moved SAX to the slot 65CE02 uses
// for something else entirely. Rows are grouped by family exactly as
// in sets.go.
type encoding struct {
	op   Opcode
	mode Mode
	b    byte
	arch []Architecture
}

var encodings = []encoding{
	{LDA, Immediate, 0xA9, core}, {LDA, ZeroPage, 0xA5, core}, {LDA, ZeroPageX, 0xB5, core},
	{LDA, Absolute, 0xAD, core}, {LDA, AbsoluteX, 0xBD, core}, {LDA, AbsoluteY, 0xB9, core},
	{LDA, IndexedX, 0xA1, core}, {LDA, IndexedY, 0xB1, core}, {LDA, IndexedZ, 0xB2, cmosUp},

	{LDX, Immediate, 0xA2, core}, {LDX, ZeroPage, 0xA6, core}, {LDX, ZeroPageY, 0xB6, core},
	{LDX, Absolute, 0xAE, core}, {LDX, AbsoluteY, 0xBE, core},

	{LDY, Immediate, 0xA0, core}, {LDY, ZeroPage, 0xA4, core}, {LDY, ZeroPageX, 0xB4, core},
	{LDY, Absolute, 0xAC, core}, {LDY, AbsoluteX, 0xBC, core},

	{STA, ZeroPage, 0x85, core}, {STA, ZeroPageX, 0x95, core}, {STA, Absolute, 0x8D, core},
	{STA, AbsoluteX, 0x9D, core}, {STA, AbsoluteY, 0x99, core}, {STA, IndexedX, 0x81, core},
	{STA, IndexedY, 0x91, core}, {STA, IndexedZ, 0x92, cmosUp},

	{STX, ZeroPage, 0x86, core}, {STX, ZeroPageY, 0x96, core}, {STX, Absolute, 0x8E, core},
	{STY, ZeroPage, 0x84, core}, {STY, ZeroPageX, 0x94, core}, {STY, Absolute, 0x8C, core},
	{STZ, ZeroPage, 0x64, cmosUp}, {STZ, ZeroPageX, 0x74, cmosUp},
	{STZ, Absolute, 0x9C, cmosUp}, {STZ, AbsoluteX, 0x9E, cmosUp},

	{ADC, Immediate, 0x69, core}, {ADC, ZeroPage, 0x65, core}, {ADC, ZeroPageX, 0x75, core},
	{ADC, Absolute, 0x6D, core}, {ADC, AbsoluteX, 0x7D, core}, {ADC, AbsoluteY, 0x79, core},
	{ADC, IndexedX, 0x61, core}, {ADC, IndexedY, 0x71, core}, {ADC, IndexedZ, 0x72, cmosUp},

	{SBC, Immediate, 0xE9, core}, {SBC, ZeroPage, 0xE5, core}, {SBC, ZeroPageX, 0xF5, core},
	{SBC, Absolute, 0xED, core}, {SBC, AbsoluteX, 0xFD, core}, {SBC, AbsoluteY, 0xF9, core},
	{SBC, IndexedX, 0xE1, core}, {SBC, IndexedY, 0xF1, core}, {SBC, IndexedZ, 0xF2, cmosUp},

	{CMP, Immediate, 0xC9, core}, {CMP, ZeroPage, 0xC5, core}, {CMP, ZeroPageX, 0xD5, core},
	{CMP, Absolute, 0xCD, core}, {CMP, AbsoluteX, 0xDD, core}, {CMP, AbsoluteY, 0xD9, core},
	{CMP, IndexedX, 0xC1, core}, {CMP, IndexedY, 0xD1, core},

	{CPX, Immediate, 0xE0, core}, {CPX, ZeroPage, 0xE4, core}, {CPX, Absolute, 0xEC, core},
	{CPY, Immediate, 0xC0, core}, {CPY, ZeroPage, 0xC4, core}, {CPY, Absolute, 0xCC, core},

	{BIT, Immediate, 0x89, cmosUp}, {BIT, ZeroPage, 0x24, core}, {BIT, ZeroPageX, 0x34, cmosUp},
	{BIT, Absolute, 0x2C, core}, {BIT, AbsoluteX, 0x3C, cmosUp},

	{CLC, Implied, 0x18, core}, {SEC, Implied, 0x38, core}, {CLI, Implied, 0x58, core},
	{SEI, Implied, 0x78, core}, {CLD, Implied, 0xD8, core}, {SED, Implied, 0xF8, core},
	{CLV, Implied, 0xB8, core},

	{BCC, Relative, 0x90, core}, {BCS, Relative, 0xB0, core}, {BEQ, Relative, 0xF0, core},
	{BNE, Relative, 0xD0, core}, {BMI, Relative, 0x30, core}, {BPL, Relative, 0x10, core},
	{BVC, Relative, 0x50, core}, {BVS, Relative, 0x70, core}, {BRA, Relative, 0x80, cmosUp},

	{BRK, Implied, 0x00, core},

	{AND, Immediate, 0x29, core}, {AND, ZeroPage, 0x25, core}, {AND, ZeroPageX, 0x35, core},
	{AND, Absolute, 0x2D, core}, {AND, AbsoluteX, 0x3D, core}, {AND, AbsoluteY, 0x39, core},
	{AND, IndexedX, 0x21, core}, {AND, IndexedY, 0x31, core},

	{ORA, Immediate, 0x09, core}, {ORA, ZeroPage, 0x05, core}, {ORA, ZeroPageX, 0x15, core},
	{ORA, Absolute, 0x0D, core}, {ORA, AbsoluteX, 0x1D, core}, {ORA, AbsoluteY, 0x19, core},
	{ORA, IndexedX, 0x01, core}, {ORA, IndexedY, 0x11, core},

	{EOR, Immediate, 0x49, core}, {EOR, ZeroPage, 0x45, core}, {EOR, ZeroPageX, 0x55, core},
	{EOR, Absolute, 0x4D, core}, {EOR, AbsoluteX, 0x5D, core}, {EOR, AbsoluteY, 0x59, core},
	{EOR, IndexedX, 0x41, core}, {EOR, IndexedY, 0x51, core},

	{INC, ZeroPage, 0xE6, core}, {INC, ZeroPageX, 0xF6, core}, {INC, Absolute, 0xEE, core},
	{INC, AbsoluteX, 0xFE, core}, {INC, Accumulator, 0x1A, cmosUp},

	{DEC, ZeroPage, 0xC6, core}, {DEC, ZeroPageX, 0xD6, core}, {DEC, Absolute, 0xCE, core},
	{DEC, AbsoluteX, 0xDE, core}, {DEC, Accumulator, 0x3A, cmosUp},

	{INX, Implied, 0xE8, core}, {INY, Implied, 0xC8, core},
	{DEX, Implied, 0xCA, core}, {DEY, Implied, 0x88, core},

	{JMP, Absolute, 0x4C, core}, {JMP, Indirect, 0x6C, core}, {JMP, AbsoluteX, 0x7C, cmosUp},
	{JSR, Absolute, 0x20, core}, {RTS, Implied, 0x60, core}, {RTI, Implied, 0x40, core},

	{NOP, Implied, 0xEA, core},

	{TAX, Implied, 0xAA, core}, {TXA, Implied, 0x8A, core}, {TAY, Implied, 0xA8, core},
	{TYA, Implied, 0x98, core}, {TXS, Implied, 0x9A, core}, {TSX, Implied, 0xBA, core},

	{TRB, ZeroPage, 0x14, cmosUp}, {TRB, Absolute, 0x1C, cmosUp},
	{TSB, ZeroPage, 0x04, cmosUp}, {TSB, Absolute, 0x0C, cmosUp},

	{PHA, Implied, 0x48, core}, {PLA, Implied, 0x68, core},
	{PHP, Implied, 0x08, core}, {PLP, Implied, 0x28, core},
	{PHX, Implied, 0xDA, cmosUp}, {PLX, Implied, 0xFA, cmosUp},
	{PHY, Implied, 0x5A, cmosUp}, {PLY, Implied, 0x7A, cmosUp},

	{ASL, Accumulator, 0x0A, core}, {ASL, ZeroPage, 0x06, core}, {ASL, ZeroPageX, 0x16, core},
	{ASL, Absolute, 0x0E, core}, {ASL, AbsoluteX, 0x1E, core},

	{LSR, Accumulator, 0x4A, core}, {LSR, ZeroPage, 0x46, core}, {LSR, ZeroPageX, 0x56, core},
	{LSR, Absolute, 0x4E, core}, {LSR, AbsoluteX, 0x5E, core},

	{ROL, Accumulator, 0x2A, core}, {ROL, ZeroPage, 0x26, core}, {ROL, ZeroPageX, 0x36, core},
	{ROL, Absolute, 0x2E, core}, {ROL, AbsoluteX, 0x3E, core},

	{ROR, Accumulator, 0x6A, core}, {ROR, ZeroPage, 0x66, core}, {ROR, ZeroPageX, 0x76, core},
	{ROR, Absolute, 0x6E, core}, {ROR, AbsoluteX, 0x7E, core},

	{LAX, ZeroPage, 0xA7, illegalOnly}, {LAX, ZeroPageY, 0xB7, illegalOnly},
	{LAX, Absolute, 0xAF, illegalOnly}, {LAX, AbsoluteY, 0xBF, illegalOnly},
	{LAX, IndexedX, 0xA3, illegalOnly}, {LAX, IndexedY, 0xB3, illegalOnly},
	{SAX, ZeroPage, 0x87, illegalOnly}, {SAX, ZeroPageY, 0x97, illegalOnly},
	{SAX, Absolute, 0x8F, illegalOnly}, {SAX, IndexedX, 0x83, illegalOnly},
	{SBX, Immediate, 0xCB, illegalOnly},
	{SHY, AbsoluteX, 0x9C, illegalOnly}, {SHX, AbsoluteY, 0x9E, illegalOnly},
	{DCP, ZeroPage, 0xC7, illegalOnly}, {DCP, Absolute, 0xCF, illegalOnly},
	{ISC, ZeroPage, 0xE7, illegalOnly}, {ISC, Absolute, 0xEF, illegalOnly},
	{SLO, ZeroPage, 0x07, illegalOnly}, {SLO, Absolute, 0x0F, illegalOnly},
	{RLA, ZeroPage, 0x27, illegalOnly}, {RLA, Absolute, 0x2F, illegalOnly},
	{SRE, ZeroPage, 0x47, illegalOnly}, {SRE, Absolute, 0x4F, illegalOnly},
	{RRA, ZeroPage, 0x67, illegalOnly}, {RRA, Absolute, 0x6F, illegalOnly},
	{ANC, Immediate, 0x0B, illegalOnly}, {ALR, Immediate, 0x4B, illegalOnly},
	{ARR, Immediate, 0x6B, illegalOnly}, {AXS, Immediate, 0xCB, illegalOnly},

	// Bit-0 encodings; the remaining seven bit slots add 0x10 per bit
	// and are not distinguished by the enumeration.
	{RMB, ZeroPage, 0x07, cmosUp}, {SMB, ZeroPage, 0x87, cmosUp},
	{BBR, Relative, 0x0F, cmosUp}, {BBS, Relative, 0x8F, cmosUp},
	{WAI, Implied, 0xCB, cmosUp}, {STP, Implied, 0xDB, cmosUp},

	{INW, ZeroPage, 0xE3, ce02Only}, {DEW, ZeroPage, 0xC3, ce02Only},
	{ASR, Accumulator, 0x43, ce02Only}, {ASW, Absolute, 0xCB, ce02Only},
	{ROW, Absolute, 0xEB, ce02Only}, {CPZ, Immediate, 0xC2, ce02Only},
	{CPZ, ZeroPage, 0xD4, ce02Only}, {DEZ, Implied, 0x3B, ce02Only},
	{INZ, Implied, 0x1B, ce02Only}, {LDZ, Immediate, 0xA3, ce02Only},
	{LDZ, Absolute, 0xAB, ce02Only}, {PHZ, Implied, 0xDB, ce02Only},
	{PLZ, Implied, 0xFB, ce02Only}, {TAZ, Implied, 0x4B, ce02Only},
	{TZA, Implied, 0x6B, ce02Only}, {TAB, Implied, 0x5B, ce02Only},
	{TBA, Implied, 0x7B, ce02Only}, {TSY, Implied, 0x0B, ce02Only},
	{TYS, Implied, 0x2B, ce02Only}, {NEG, Accumulator, 0x42, ce02Only},
	{RTN, Immediate, 0x62, ce02Only}, {BSR, RelativeLong, 0x63, ce02Only},
	{AUG, Implied, 0x5C, ce02Only}, {CLE, Implied, 0x02, ce02Only},
	{SEE, Implied, 0x03, ce02Only},

	{SXY, Implied, 0x02, huOnly}, {HuSAX, Implied, 0x22, huOnly},
	{SAY, Implied, 0x42, huOnly}, {ST0, Immediate, 0x03, huOnly},
	{ST1, Immediate, 0x13, huOnly}, {ST2, Immediate, 0x23, huOnly},
	{TMA, Immediate, 0x43, huOnly}, {TAM, Immediate, 0x53, huOnly},
	{TST, Immediate, 0x83, huOnly},

	{BRL, RelativeLong, 0x82, w65816Only}, {COP, Immediate, 0x02, w65816Only},
	{JML, LongAbsolute, 0x5C, w65816Only}, {JSL, LongAbsolute, 0x22, w65816Only},
	{MVN, Immediate, 0x54, w65816Only}, {MVP, Immediate, 0x44, w65816Only},
	{PEA, Absolute, 0xF4, w65816Only}, {PEI, ZeroPage, 0xD4, w65816Only},
	{PER, RelativeLong, 0x62, w65816Only}, {PHB, Implied, 0x8B, w65816Only},
	{PHD, Implied, 0x0B, w65816Only}, {PHK, Implied, 0x4B, w65816Only},
	{PLB, Implied, 0xAB, w65816Only}, {PLD, Implied, 0x2B, w65816Only},
	{REP, Immediate, 0xC2, w65816Only}, {RTL, Implied, 0x6B, w65816Only},
	{SEP, Immediate, 0xE2, w65816Only}, {TCD, Implied, 0x5B, w65816Only},
	{TCS, Implied, 0x1B, w65816Only}, {TDC, Implied, 0x7B, w65816Only},
	{TSC, Implied, 0x3B, w65816Only}, {TXY, Implied, 0x9B, w65816Only},
	{TYX, Implied, 0xBB, w65816Only}, {WDM, Immediate, 0x42, w65816Only},
	{XBA, Implied, 0xEB, w65816Only}, {XCE, Implied, 0xFB, w65816Only},
}

var encodeByArch = map[Architecture]map[legalKey]byte{}

func init() {
	for _, e := range encodings {
		for _, a := range e.arch {
			m := encodeByArch[a]
			if m == nil {
				m = map[legalKey]byte{}
				encodeByArch[a] = m
			}
			m[legalKey{e.op, e.mode}] = e.b
		}
	}
}

// Encode returns the machine byte for (op, mode) on arch, reporting
// ok=false for a pairing the architecture has no encoding for. Pseudo
// opcodes never reach this table; the assembler backend expands them
// before encoding.
func Encode(arch Architecture, op Opcode, mode Mode) (byte, bool) {
	b, ok := encodeByArch[arch][legalKey{op, mode}]
	return b, ok
}
