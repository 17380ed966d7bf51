// Package platform describes the target machine a compilation is
// aimed at: the CPU variant within the 6502 family, the memory banks
// code and data may be placed into, and the handful of output-format
// knobs (file extension, BBC-style .inf sidecar, zero-page
// pseudoregister width, single-file vs per-bank output) a platform's
// .ini descriptor carries.
//
// The scalar fields are looked up through a reflect+prefix-tree
// table: Descriptor is read from an INI-like text format where
// `banks` are repeated `[bank NAME]` sections and everything else is
// a flat `key = value` pair matched case-insensitively and tolerant
// of unambiguous abbreviation, via github.com/beevik/prefixtree/v2.
package platform

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"

	"sixc/internal/isa"
)

// Bank names a contiguous, placeable address range within the target
// image, the unit internal/asmout's placement pass fills in
// declaration order.
type Bank struct {
	Name  string
	Start int
	End   int // inclusive
}

func (b Bank) Size() int { return b.End - b.Start + 1 }

// Descriptor is the platform .ini file's content once parsed: CPU
// family, bank layout, and the output-shape knobs. Field tags carry
// the doc string shown by Display.
type Descriptor struct {
	CPU             string `doc:"target CPU variant (mos6502, cmos, 65c02, 65ce02, huc6280, 65816, z80, i8080, sharp)"`
	OutputExtension string `doc:"file extension for the emitted image"`
	EmitInf         bool   `doc:"emit a BBC Micro .inf sidecar alongside the image"`
	ZeropageWidth   int    `doc:"default zero-page pseudoregister width in bytes"`
	PerBankOutput   bool   `doc:"emit one output file per bank instead of one combined file"`

	Banks []Bank
}

// Architecture maps the descriptor's CPU string to the isa
// enumeration the rest of the pipeline switches on. Unrecognized
// strings fall back to plain NMOS, the most conservative choice
// (fewest legal addressing modes).
func (d *Descriptor) Architecture() isa.Architecture {
	switch strings.ToLower(d.CPU) {
	case "cmos", "65c02":
		return isa.CMOS
	case "65ce02":
		return isa.CE02
	case "huc6280":
		return isa.HuC6280
	case "65816":
		return isa.WDC65816
	default:
		return isa.NMOS
	}
}

// Bank looks up a declared bank by name.
func (d *Descriptor) Bank(name string) (Bank, bool) {
	for _, b := range d.Banks {
		if b.Name == name {
			return b, true
		}
	}
	return Bank{}, false
}

// Default is the descriptor used when no -t platform is named: plain
// NMOS, Commodore-style .prg output, an 8-byte zero-page
// pseudoregister.
func Default() *Descriptor { return defaultDescriptor() }

func defaultDescriptor() *Descriptor {
	return &Descriptor{
		CPU:             "mos6502",
		OutputExtension: "prg",
		ZeropageWidth:   8,
	}
}

type descriptorField struct {
	name  string
	index int
	kind  reflect.Kind
	doc   string
}

var (
	descriptorTree   = prefixtree.New[*descriptorField]()
	descriptorFields []descriptorField
)

func init() {
	t := reflect.TypeOf(Descriptor{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "Banks" {
			continue // structured section, not a flat scalar key
		}
		doc, _ := f.Tag.Lookup("doc")
		descriptorFields = append(descriptorFields, descriptorField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			doc:   doc,
		})
		descriptorTree.Add(strings.ToLower(f.Name), &descriptorFields[len(descriptorFields)-1])
	}
}

// Display writes a human-readable listing of every scalar field and
// its documentation, used by `sixc -vv` to echo the resolved platform
// before compiling.
func (d *Descriptor) Display(w io.Writer) {
	v := reflect.ValueOf(d).Elem()
	for _, f := range descriptorFields {
		fv := v.Field(f.index)
		fmt.Fprintf(w, "    %-18s %v (%s)\n", f.name, fv.Interface(), f.doc)
	}
	for _, b := range d.Banks {
		fmt.Fprintf(w, "    [bank %s] $%04X-$%04X\n", b.Name, b.Start, b.End)
	}
}

// set assigns value (already parsed to the right Go type) to the
// scalar field key names, through the prefix-tree abbreviation
// lookup.
func (d *Descriptor) set(key, value string) error {
	f, err := descriptorTree.FindValue(strings.ToLower(key))
	if err != nil {
		return fmt.Errorf("platform: unknown setting %q", key)
	}
	rv := reflect.ValueOf(d).Elem().Field(f.index)
	switch f.kind {
	case reflect.String:
		rv.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("platform: %s: %w", key, err)
		}
		rv.SetBool(b)
	case reflect.Int:
		n, err := strconv.ParseInt(strings.TrimPrefix(value, "$"), 0, 64)
		if err != nil {
			return fmt.Errorf("platform: %s: %w", key, err)
		}
		rv.SetInt(n)
	default:
		return fmt.Errorf("platform: %s: unsupported field kind %v", key, f.kind)
	}
	return nil
}

// Load parses an INI-like platform descriptor: blank lines and lines
// starting with ';' or '#' are ignored, `[bank NAME]` opens a bank
// section whose body accepts `start` and `end` keys (hex with a `$`
// prefix or decimal), and every other `key = value` line outside a
// section sets a scalar Descriptor field. Unlike a general-purpose INI
// library, this only ever needs the two-level shape the platform
// files use, so it is hand-rolled rather than pulling in a
// dependency for forty lines of parsing.
func Load(r io.Reader) (*Descriptor, error) {
	d := defaultDescriptor()
	scanner := bufio.NewScanner(r)
	var section string
	var bank *Bank
	flushBank := func() {
		if bank != nil {
			d.Banks = append(d.Banks, *bank)
			bank = nil
		}
	}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flushBank()
			section = strings.TrimSpace(line[1 : len(line)-1])
			if name, ok := strings.CutPrefix(section, "bank "); ok {
				bank = &Bank{Name: strings.TrimSpace(name)}
			} else {
				return nil, fmt.Errorf("platform: line %d: unknown section %q", lineNo, section)
			}
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("platform: line %d: expected key=value", lineNo)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if bank != nil {
			base := 0
			if strings.HasPrefix(value, "$") {
				base = 16
			}
			n, err := strconv.ParseInt(strings.TrimPrefix(value, "$"), base, 64)
			if err != nil {
				return nil, fmt.Errorf("platform: line %d: %w", lineNo, err)
			}
			switch strings.ToLower(key) {
			case "start":
				bank.Start = int(n)
			case "end":
				bank.End = int(n)
			default:
				return nil, fmt.Errorf("platform: line %d: unknown bank key %q", lineNo, key)
			}
			continue
		}
		if err := d.set(key, value); err != nil {
			return nil, fmt.Errorf("platform: line %d: %w", lineNo, err)
		}
	}
	flushBank()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}
