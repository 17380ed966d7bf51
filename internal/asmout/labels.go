package asmout

import (
	"fmt"
	"sort"
	"strings"
)

// LabelEntry is one row of the label listing the -g flag emits: a
// symbol and the address placement assigned it. Global reports whether
// the symbol is visible outside its function (function entry points,
// exported variables) as opposed to a function-scoped '.' label.
type LabelEntry struct {
	Name    string
	Address int
	Global  bool
}

// NormalizeName rewrites a symbol into the restricted identifier
// alphabet downstream assemblers and debuggers accept: '$' and '.'
// both become '_'. Normalization is not injective ("a.b" and "a$b"
// collide), which the label format tolerates the same way the VICE
// monitor format it follows does.
func NormalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

// SortLabels orders entries for the listing: ascending by address,
// and for two symbols placed at the same address the global one comes
// first (a function entry point wins over the local label sitting on
// the same instruction).
func SortLabels(entries []LabelEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Address != entries[j].Address {
			return entries[i].Address < entries[j].Address
		}
		return entries[i].Global && !entries[j].Global
	})
}

// FormatLabelFile renders entries in the "al <hex> .<name>" monitor
// format, one line per symbol, sorted per SortLabels with names
// normalized. The leading '.' before the name is part of the format,
// not of the symbol.
func FormatLabelFile(entries []LabelEntry) string {
	sorted := make([]LabelEntry, len(entries))
	copy(sorted, entries)
	SortLabels(sorted)
	var b strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&b, "al %04X .%s\n", e.Address, NormalizeName(e.Name))
	}
	return b.String()
}

// ParseLabelFile reads a listing produced by FormatLabelFile back into
// (name, address) pairs. Globality is not recoverable from the text
// format; parsed entries report Global=false. Lines that do not match
// the format are reported, not skipped, so a corrupted listing fails
// loudly.
func ParseLabelFile(text string) ([]LabelEntry, error) {
	var entries []LabelEntry
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var addr int
		var name string
		if _, err := fmt.Sscanf(line, "al %X .%s", &addr, &name); err != nil {
			return nil, fmt.Errorf("label file line %d: %q: %w", i+1, line, err)
		}
		entries = append(entries, LabelEntry{Name: name, Address: addr})
	}
	return entries, nil
}
