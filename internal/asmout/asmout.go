// Package asmout is the assembler and linker backend: it takes the
// optimized per-function instruction lists, sizes every instruction,
// places each reachable function into its declared bank, resolves
// symbols, and emits the final byte image plus the textual listing and
// label file. The structure is an ordered slice of named steps run
// over one accumulating state value, each step bailing out if the
// previous one recorded errors; placement works over the platform
// descriptor's bank list, and a short branch whose target proves out
// of range is relaxed into a jump detour rather than rejected.
package asmout

import (
	"fmt"
	"sort"
	"strings"

	"sixc/internal/diag"
	"sixc/internal/isa"
	"sixc/internal/konst"
	"sixc/internal/platform"
)

// Function is one compiled, optimized function ready for assembly.
// Bank names the platform bank it was declared into; empty means the
// platform's first bank. UnoptimizedSize carries the pre-peephole byte
// count when the driver measured one, feeding the size diagnostic the
// -v output reports.
type Function struct {
	Name            string
	Bank            string
	Pos             isa.Pos
	Lines           []isa.AssemblyLine
	UnoptimizedSize int
}

// CallGraph answers reachability queries from the program's declared
// entry points. The graph itself is built by cmd/sixc from each
// function's referenced names before lowering (it needs the whole
// program's call expressions, which never survive lowering);
// asmout only consumes the answer, dropping unreachable functions
// before placement so they produce no bytes.
type CallGraph interface {
	Reachable(name string) bool
}

// AllReachable is the degenerate call graph used when no reachability
// information is available, as in this package's tests.
type AllReachable struct{}

func (AllReachable) Reachable(string) bool { return true }

// Output is the assembled result: the byte image per bank, the textual
// listing, the label entries, the source-map sidecar, and the
// before/after size counters the -v diagnostic reports.
type Output struct {
	Code      map[string][]byte
	Asm       []string
	Labels    []LabelEntry
	SourceMap *SourceMap

	SizeBefore int
	SizeAfter  int
}

// fallbackBank is used when the platform descriptor declares no banks
// at all.
var fallbackBank = platform.Bank{Name: "main", Start: 0x0600, End: 0xFFFF}

type placedFunction struct {
	Function
	widths  []int
	relaxed []bool
	locals  map[string]int // local label -> byte offset within the function
	addr    int
	size    int
}

type assembler struct {
	arch    isa.Architecture
	banks   []platform.Bank
	globals map[string]int64
	graph   CallGraph
	lg      *diag.Logger
	bag     *diag.Bag

	funcs []*placedFunction
	syms  map[string]int64
	out   *Output
}

// Assemble runs the sizing, placement and emission passes over fns.
// globals carries the addresses of everything the environment placed
// outside this backend's control (variables, arrays, the zero-page
// scratch cells); function entry addresses are added to it during
// placement. Diagnostics accumulate on bag; the returned error is the
// AssertNoErrors checkpoint of whichever pass first failed.
func Assemble(fns []Function, globals map[string]int64, graph CallGraph, desc *platform.Descriptor, lg *diag.Logger, bag *diag.Bag) (*Output, error) {
	banks := desc.Banks
	if len(banks) == 0 {
		banks = []platform.Bank{fallbackBank}
	}
	a := &assembler{
		arch:    desc.Architecture(),
		banks:   banks,
		globals: globals,
		graph:   graph,
		lg:      lg,
		bag:     bag,
		syms:    map[string]int64{},
		out: &Output{
			Code:      map[string][]byte{},
			SourceMap: &SourceMap{Origin: banks[0].Start},
		},
	}
	for _, f := range fns {
		if !graph.Reachable(f.Name) {
			lg.Debugf("asmout: dropping unreachable function %s", f.Name)
			continue
		}
		a.funcs = append(a.funcs, &placedFunction{Function: f})
	}

	steps := []struct {
		name string
		run  func(*assembler)
	}{
		{"sizing", (*assembler).size},
		{"placement", (*assembler).place},
		{"emission", (*assembler).emit},
	}
	for _, step := range steps {
		a.lg.Section("asmout: " + step.name)
		step.run(a)
		if err := bag.AssertNoErrors("asmout/" + step.name); err != nil {
			return nil, err
		}
	}
	return a.out, nil
}

// lineWidth reports the encoded byte width of one line given its
// current relaxation state.
func lineWidth(line isa.AssemblyLine, relaxed bool) int {
	switch line.Op {
	case isa.LABEL:
		return 0
	case isa.BYTE:
		if c, ok := line.Operand.(konst.Constant); ok {
			return c.Size()
		}
		return 1
	case isa.JSR_ABS:
		return 3
	}
	if line.Mode == isa.Relative && relaxed {
		if line.Op == isa.BRA {
			return 3 // plain JMP, no guarding branch needed
		}
		return 5 // inverted branch over a JMP detour
	}
	return 1 + line.Mode.OperandBytes()
}

// branchTarget extracts the symbol a branch operand names, if it is a
// plain symbol reference (which is the only shape the compiler emits
// for branch operands).
func branchTarget(op isa.Operand) (string, bool) {
	if m, ok := op.(konst.MemoryAddressConstant); ok && m.Offset == 0 && m.Resolved == nil {
		return m.Symbol, true
	}
	return "", false
}

// size computes every function's instruction widths and local label
// offsets, relaxing any short branch whose local target is out of
// ±127-byte range into a jump detour and re-sizing until no branch
// moves out of range.
// Branches to non-local targets are sized optimistically short and
// verified during emission.
func (a *assembler) size() {
	for _, f := range a.funcs {
		f.relaxed = make([]bool, len(f.Lines))
		for pass := 0; ; pass++ {
			f.widths = make([]int, len(f.Lines))
			f.locals = map[string]int{}
			off := 0
			for i, line := range f.Lines {
				if line.Op == isa.LABEL {
					if lbl, ok := line.Operand.(isa.Label); ok && lbl.IsLocal() {
						f.locals[lbl.Name] = off
					}
				}
				f.widths[i] = lineWidth(line, f.relaxed[i])
				off += f.widths[i]
			}
			f.size = off

			changed := false
			off = 0
			for i, line := range f.Lines {
				w := f.widths[i]
				if line.Mode == isa.Relative && !f.relaxed[i] {
					if name, ok := branchTarget(line.Operand); ok {
						if target, local := f.locals[name]; local {
							dist := target - (off + w)
							if dist < -128 || dist > 127 {
								f.relaxed[i] = true
								changed = true
								a.lg.Debugf("asmout: relaxing %s %s in %s (offset %d)", line.Op, name, f.Name, dist)
							}
						}
					}
				}
				off += w
			}
			if !changed {
				break
			}
		}
		a.lg.Debugf("asmout: sized %s: %d bytes", f.Name, f.size)
	}
}

// place assigns each function an address within its declared bank,
// first-fit in declaration order, and publishes every function's entry
// address into the symbol table.
func (a *assembler) place() {
	cursors := map[string]int{}
	for _, b := range a.banks {
		cursors[b.Name] = b.Start
	}
	for name, addr := range a.globals {
		a.syms[name] = addr
	}
	for _, f := range a.funcs {
		bankName := f.Bank
		if bankName == "" {
			bankName = a.banks[0].Name
		}
		var bank platform.Bank
		found := false
		for _, b := range a.banks {
			if b.Name == bankName {
				bank, found = b, true
				break
			}
		}
		if !found {
			a.bag.Errorf(diag.KindPlacement, f.Pos, "function %s declared in unknown bank %q", f.Name, bankName)
			continue
		}
		addr := cursors[bankName]
		if addr+f.size-1 > bank.End {
			a.bag.Errorf(diag.KindPlacement, f.Pos,
				"bank %s overflows: function %s needs %d bytes at $%04X but the bank ends at $%04X",
				bankName, f.Name, f.size, addr, bank.End)
			continue
		}
		f.addr = addr
		f.Bank = bankName
		cursors[bankName] = addr + f.size
		a.syms[f.Name] = int64(addr)
		a.lg.Debugf("asmout: placed %s at $%04X..$%04X in %s", f.Name, addr, addr+f.size-1, bankName)
	}
}

// substitute rewrites c with every symbol reference replaced by its
// resolved address, so the result can be evaluated to a concrete
// value. lookup resolves a name through the current function's local
// labels first, then the global table, so '.'-prefixed labels stay
// function-scoped.
func substitute(c konst.Constant, lookup func(string) (int64, bool)) konst.Constant {
	switch v := c.(type) {
	case konst.MemoryAddressConstant:
		if v.Resolved != nil {
			return v
		}
		if addr, ok := lookup(v.Symbol); ok {
			return konst.NumericConstant{Value: addr + v.Offset, Bytes: 2}
		}
		return v
	case konst.SubbyteConstant:
		return konst.SubbyteConstant{Selector: v.Selector, Inner: substitute(v.Inner, lookup)}
	case konst.CompoundConstant:
		return konst.CompoundConstant{Op: v.Op, Left: substitute(v.Left, lookup), Right: substitute(v.Right, lookup)}
	case konst.AssertByte:
		return konst.AssertByte{Inner: substitute(v.Inner, lookup)}
	default:
		return c
	}
}

func (a *assembler) resolveOperand(f *placedFunction, op isa.Operand) (int64, bool) {
	c, ok := op.(konst.Constant)
	if !ok {
		return 0, false
	}
	return substitute(c, func(name string) (int64, bool) {
		if off, ok := f.locals[name]; ok {
			return int64(f.addr + off), true
		}
		v, ok := a.syms[name]
		return v, ok
	}).Eval()
}

// invertBranch returns the opposite condition, used when a relaxed
// branch guards the JMP detour that replaced it.
func invertBranch(op isa.Opcode) isa.Opcode {
	switch op {
	case isa.BEQ:
		return isa.BNE
	case isa.BNE:
		return isa.BEQ
	case isa.BCC:
		return isa.BCS
	case isa.BCS:
		return isa.BCC
	case isa.BMI:
		return isa.BPL
	case isa.BPL:
		return isa.BMI
	case isa.BVC:
		return isa.BVS
	case isa.BVS:
		return isa.BVC
	case isa.BBR:
		return isa.BBS
	case isa.BBS:
		return isa.BBR
	default:
		return op
	}
}

// emit produces the byte image, the listing, the label entries and the
// source map.
func (a *assembler) emit() {
	names := make([]string, 0, len(a.globals))
	for name := range a.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.out.Labels = append(a.out.Labels, LabelEntry{
			Name:    name,
			Address: int(a.globals[name]),
			Global:  !strings.HasPrefix(name, "."),
		})
	}

	totalSize := 0
	for _, bank := range a.banks {
		for _, f := range a.funcs {
			if f.Bank != bank.Name {
				continue
			}
			a.emitFunction(bank.Name, f)
			a.out.SizeBefore += f.UnoptimizedSize
			a.out.SizeAfter += f.size
			totalSize += f.size
			if f.UnoptimizedSize > 0 {
				a.lg.Infof("asmout: %s: %d -> %d bytes", f.Name, f.UnoptimizedSize, f.size)
			}
		}
	}
	a.out.SourceMap.Size = totalSize
	SortLabels(a.out.Labels)
}

func (a *assembler) emitFunction(bankName string, f *placedFunction) {
	a.out.Asm = append(a.out.Asm, fmt.Sprintf("; %s @ $%04X", f.Name, f.addr))
	code := a.out.Code[bankName]
	off := 0
	for i, line := range f.Lines {
		addr := f.addr + off
		start := len(code)
		code = a.emitLine(code, f, addr, i, line)
		if want := f.widths[i]; len(code)-start != want {
			a.bag.Errorf(diag.KindInternal, line.Pos,
				"emitted %d bytes for %q, sizing predicted %d", len(code)-start, line.String(), want)
		}
		if line.Op == isa.LABEL {
			if lbl, ok := line.Operand.(isa.Label); ok {
				a.out.Labels = append(a.out.Labels, LabelEntry{Name: lbl.Name, Address: addr, Global: !lbl.IsLocal()})
			}
			a.out.Asm = append(a.out.Asm, line.Operand.String()+":")
		} else {
			a.out.Asm = append(a.out.Asm, "\t"+line.String())
			a.out.SourceMap.Add(addr, line.Pos)
		}
		off += f.widths[i]
	}
	a.out.Code[bankName] = code
	a.lg.Bytes(f.addr, code[len(code)-f.size:])
}

func (a *assembler) emitLine(code []byte, f *placedFunction, addr, i int, line isa.AssemblyLine) []byte {
	switch line.Op {
	case isa.LABEL:
		return code

	case isa.BYTE:
		v, ok := a.resolveOperand(f, line.Operand)
		if !ok {
			a.bag.Errorf(diag.KindUndefined, line.Pos, "unresolved data constant %q", line.Operand.String())
			v = 0
		}
		for n := 0; n < f.widths[i]; n++ {
			code = append(code, byte(v>>(8*n)))
		}
		return code

	case isa.JSR_ABS:
		return a.emitConcrete(code, f, isa.JSR, isa.Absolute, line)
	}

	switch {
	case line.Mode == isa.Relative && f.relaxed[i]:
		target, _ := branchTarget(line.Operand)
		dest, ok := a.resolveOperand(f, line.Operand)
		if !ok {
			a.bag.Errorf(diag.KindUndefined, line.Pos, "undefined branch target %q", target)
			return append(code, make([]byte, f.widths[i])...)
		}
		if line.Op != isa.BRA {
			inv, ok := isa.Encode(a.arch, invertBranch(line.Op), isa.Relative)
			if !ok {
				a.bag.Errorf(diag.KindInternal, line.Pos, "no encoding for relaxed %s on %s", line.Op, a.arch)
				return append(code, make([]byte, f.widths[i])...)
			}
			code = append(code, inv, 0x03) // skip over the 3-byte JMP
		}
		jmp, _ := isa.Encode(a.arch, isa.JMP, isa.Absolute)
		return append(code, jmp, byte(dest), byte(dest>>8))

	case line.Mode == isa.Relative:
		b, ok := isa.Encode(a.arch, line.Op, isa.Relative)
		if !ok {
			a.bag.Errorf(diag.KindInternal, line.Pos, "illegal pairing %s %s reached emission on %s", line.Op, line.Mode, a.arch)
			return append(code, 0, 0)
		}
		dest, ok := a.resolveOperand(f, line.Operand)
		if !ok {
			a.bag.Errorf(diag.KindUndefined, line.Pos, "undefined branch target %q", line.Operand.String())
			return append(code, b, 0)
		}
		dist := dest - int64(addr+2)
		if dist < -128 || dist > 127 {
			a.bag.Errorf(diag.KindPlacement, line.Pos, "branch target %q out of range (%+d bytes)", line.Operand.String(), dist)
			dist = 0
		}
		return append(code, b, byte(dist))

	case line.Mode == isa.RelativeLong:
		b, ok := isa.Encode(a.arch, line.Op, isa.RelativeLong)
		if !ok {
			a.bag.Errorf(diag.KindInternal, line.Pos, "illegal pairing %s %s reached emission on %s", line.Op, line.Mode, a.arch)
			return append(code, 0, 0, 0)
		}
		dest, ok := a.resolveOperand(f, line.Operand)
		if !ok {
			a.bag.Errorf(diag.KindUndefined, line.Pos, "undefined branch target %q", line.Operand.String())
			dest = int64(addr + 3)
		}
		dist := dest - int64(addr+3)
		return append(code, b, byte(dist), byte(dist>>8))
	}

	return a.emitConcrete(code, f, line.Op, line.Mode, line)
}

func (a *assembler) emitConcrete(code []byte, f *placedFunction, op isa.Opcode, mode isa.Mode, line isa.AssemblyLine) []byte {
	b, ok := isa.Encode(a.arch, op, mode)
	if !ok {
		a.bag.Errorf(diag.KindInternal, line.Pos, "illegal pairing %s %s reached emission on %s", op, mode, a.arch)
		return append(code, make([]byte, 1+mode.OperandBytes())...)
	}
	code = append(code, b)
	n := mode.OperandBytes()
	if n == 0 {
		return code
	}
	v, ok := a.resolveOperand(f, line.Operand)
	if !ok {
		a.bag.Errorf(diag.KindUndefined, line.Pos, "unresolved operand %q for %s", line.Operand.String(), op)
		v = 0
	}
	for i := 0; i < n; i++ {
		code = append(code, byte(v>>(8*i)))
	}
	return code
}

// Size reports the encoded byte size of lines without relaxation,
// used by the driver to measure a function before optimization runs so
// the before/after diagnostic has something to compare against.
func Size(lines []isa.AssemblyLine) int {
	total := 0
	for _, line := range lines {
		total += lineWidth(line, false)
	}
	return total
}
