package superopt

import "sixc/internal/isa"

// MaxBlockLength caps the basic-block size Search is attempted on.
// Anything longer is left alone: the candidate space is exponential in
// the replacement length, and a long block's shortest equivalent is
// overwhelmingly likely to be found piecewise by the pattern-based
// peephole rules anyway.
const MaxBlockLength = 6

// blockBoundary reports whether line ends (or cannot belong to) a
// straight-line basic block: labels and data break the block because
// control or layout may enter there, and any control transfer breaks
// it because execution leaves.
func blockBoundary(line isa.AssemblyLine) bool {
	if line.Op.IsPseudo() {
		return true
	}
	if line.Mode == isa.Relative || line.Mode == isa.RelativeLong {
		return true
	}
	switch line.Op {
	case isa.JMP, isa.JML, isa.JSR, isa.JSL, isa.BSR, isa.RTS, isa.RTI, isa.RTL, isa.RTN, isa.BRK:
		return true
	}
	return false
}

// OptimizeFunction splits lines into basic blocks and replaces each
// short, fully-elidable block with the shorter equivalent Search finds,
// if any. Blocks containing a pinned line are skipped whole: a
// replacement sequence has no way to preserve one line verbatim, so
// consuming the block would violate the elidability contract.
func OptimizeFunction(lines []isa.AssemblyLine) []isa.AssemblyLine {
	var out []isa.AssemblyLine
	i := 0
	for i < len(lines) {
		if blockBoundary(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		replaceable := true
		for j < len(lines) && !blockBoundary(lines[j]) {
			if !lines[j].Elidable {
				replaceable = false
			}
			j++
		}
		block := lines[i:j]
		if replaceable && len(block) >= 2 && len(block) <= MaxBlockLength {
			if found, ok := Search(block); ok {
				block = found
			}
		}
		out = append(out, block...)
		i = j
	}
	return out
}
