package peephole

import "sixc/internal/isa"

// RemoveDeadLocalLabels deletes every elidable, function-local LABEL
// line (one whose name starts with '.') that no other line in the
// list references by name. Global labels and non-elidable locals
// (compiler-synthesized entry points the platform's export table may
// still need) are left alone even when unreferenced, the conservative
// default for anything the peephole engine cannot prove dead with
// certainty.
func RemoveDeadLocalLabels(lines []isa.AssemblyLine) []isa.AssemblyLine {
	referenced := map[string]bool{}
	for _, l := range lines {
		if l.Op == isa.LABEL || l.Operand == nil {
			continue
		}
		referenced[l.Operand.String()] = true
	}

	out := make([]isa.AssemblyLine, 0, len(lines))
	for _, l := range lines {
		if l.Op == isa.LABEL && l.Elidable {
			lbl, ok := l.Operand.(isa.Label)
			if ok && lbl.IsLocal() && !referenced[lbl.Name] {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}
