package asmout

import (
	"bytes"
	"testing"

	"sixc/internal/diag"
	"sixc/internal/isa"
	"sixc/internal/konst"
	"sixc/internal/platform"
)

func quietLogger() *diag.Logger {
	lg := diag.NewLogger(diag.Fatal)
	lg.Out = &bytes.Buffer{}
	lg.Err = &bytes.Buffer{}
	return lg
}

func testDescriptor() *platform.Descriptor {
	return &platform.Descriptor{
		CPU: "mos6502",
		Banks: []platform.Bank{
			{Name: "main", Start: 0x0600, End: 0x7FFF},
		},
	}
}

func assemble(t *testing.T, fns []Function, globals map[string]int64, desc *platform.Descriptor) *Output {
	t.Helper()
	var bag diag.Bag
	out, err := Assemble(fns, globals, AllReachable{}, desc, quietLogger(), &bag)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return out
}

func TestEmitSimpleSequence(t *testing.T) {
	fns := []Function{{
		Name: "main",
		Lines: []isa.AssemblyLine{
			isa.Line(isa.LDA, isa.Immediate, konst.Byte(1)),
			isa.Line(isa.STA, isa.Absolute, konst.Symbol("output")),
			isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
		},
	}}
	out := assemble(t, fns, map[string]int64{"output": 0xC000}, testDescriptor())
	want := []byte{0xA9, 0x01, 0x8D, 0x00, 0xC0, 0x60}
	if !bytes.Equal(out.Code["main"], want) {
		t.Errorf("code = % X, want % X", out.Code["main"], want)
	}
}

func TestLocalBranchResolvesWithinFunction(t *testing.T) {
	// BNE over a single NOP: offset should be +1.
	fns := []Function{{
		Name: "main",
		Lines: []isa.AssemblyLine{
			isa.Line(isa.BNE, isa.Relative, konst.Symbol(".skip")),
			isa.Line(isa.NOP, isa.Implied, isa.NoOperand{}),
			isa.LabelLine(".skip", false),
			isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
		},
	}}
	out := assemble(t, fns, nil, testDescriptor())
	want := []byte{0xD0, 0x01, 0xEA, 0x60}
	if !bytes.Equal(out.Code["main"], want) {
		t.Errorf("code = % X, want % X", out.Code["main"], want)
	}
}

func TestBranchRelaxationAcrossLongBody(t *testing.T) {
	// A forward BEQ over 200 bytes of NOPs cannot be encoded short; it
	// must relax into BNE +3 / JMP target.
	lines := []isa.AssemblyLine{
		isa.Line(isa.BEQ, isa.Relative, konst.Symbol(".far")),
	}
	for i := 0; i < 200; i++ {
		lines = append(lines, isa.Line(isa.NOP, isa.Implied, isa.NoOperand{}))
	}
	lines = append(lines,
		isa.LabelLine(".far", false),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	)
	out := assemble(t, []Function{{Name: "main", Lines: lines}}, nil, testDescriptor())

	code := out.Code["main"]
	if len(code) != 5+200+1 {
		t.Fatalf("relaxed function should be %d bytes, got %d", 5+200+1, len(code))
	}
	// Inverted guard: BNE +3, then JMP $0600+5+200.
	if code[0] != 0xD0 || code[1] != 0x03 || code[2] != 0x4C {
		t.Errorf("expected BNE $03 / JMP prefix, got % X", code[:5])
	}
	target := int(code[3]) | int(code[4])<<8
	if target != 0x0600+205 {
		t.Errorf("JMP target = $%04X, want $%04X", target, 0x0600+205)
	}
}

func TestShortBranchStaysShort(t *testing.T) {
	// 100 bytes is comfortably within range; no relaxation.
	lines := []isa.AssemblyLine{
		isa.Line(isa.BEQ, isa.Relative, konst.Symbol(".near")),
	}
	for i := 0; i < 100; i++ {
		lines = append(lines, isa.Line(isa.NOP, isa.Implied, isa.NoOperand{}))
	}
	lines = append(lines, isa.LabelLine(".near", false), isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}))
	out := assemble(t, []Function{{Name: "main", Lines: lines}}, nil, testDescriptor())
	code := out.Code["main"]
	if code[0] != 0xF0 || code[1] != 100 {
		t.Errorf("expected BEQ +100, got % X", code[:2])
	}
}

func TestUnreachableFunctionProducesNoBytes(t *testing.T) {
	fns := []Function{
		{Name: "main", Lines: []isa.AssemblyLine{isa.Line(isa.RTS, isa.Implied, isa.NoOperand{})}},
		{Name: "dead", Lines: []isa.AssemblyLine{isa.Line(isa.RTS, isa.Implied, isa.NoOperand{})}},
	}
	graph := reachableSet{"main": true}
	var bag diag.Bag
	out, err := Assemble(fns, nil, graph, testDescriptor(), quietLogger(), &bag)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Code["main"]) != 1 {
		t.Errorf("only the reachable function's single RTS should be emitted, got % X", out.Code["main"])
	}
}

type reachableSet map[string]bool

func (r reachableSet) Reachable(name string) bool { return r[name] }

func TestCrossFunctionCallResolvesToPlacedAddress(t *testing.T) {
	fns := []Function{
		{Name: "main", Lines: []isa.AssemblyLine{
			isa.Line(isa.JSR, isa.Absolute, konst.Symbol("helper")),
			isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
		}},
		{Name: "helper", Lines: []isa.AssemblyLine{
			isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
		}},
	}
	out := assemble(t, fns, nil, testDescriptor())
	code := out.Code["main"]
	// main is 4 bytes at $0600, so helper lands at $0604.
	target := int(code[1]) | int(code[2])<<8
	if target != 0x0604 {
		t.Errorf("JSR target = $%04X, want $0604", target)
	}
}

func TestBankOverflowIsAPlacementError(t *testing.T) {
	desc := &platform.Descriptor{
		CPU:   "mos6502",
		Banks: []platform.Bank{{Name: "tiny", Start: 0x0600, End: 0x0602}},
	}
	fns := []Function{{Name: "main", Lines: []isa.AssemblyLine{
		isa.Line(isa.LDA, isa.Immediate, konst.Byte(1)),
		isa.Line(isa.STA, isa.Absolute, konst.Word(0xC000)),
	}}}
	var bag diag.Bag
	if _, err := Assemble(fns, nil, AllReachable{}, desc, quietLogger(), &bag); err == nil {
		t.Error("a 5-byte function cannot fit a 3-byte bank; expected a placement error")
	}
}

func TestIllegalPairingIsAnInternalError(t *testing.T) {
	// STA immediate does not exist on any family member.
	fns := []Function{{Name: "main", Lines: []isa.AssemblyLine{
		isa.Line(isa.STA, isa.Immediate, konst.Byte(1)),
	}}}
	var bag diag.Bag
	if _, err := Assemble(fns, nil, AllReachable{}, testDescriptor(), quietLogger(), &bag); err == nil {
		t.Error("expected an internal diagnostic for STA immediate")
	}
}

func TestUndocumentedOpcodesRequireIllegalsArch(t *testing.T) {
	fns := []Function{{Name: "main", Lines: []isa.AssemblyLine{
		isa.Line(isa.LAX, isa.ZeroPage, konst.Byte(0x10)),
	}}}

	var bag diag.Bag
	if _, err := Assemble(fns, nil, AllReachable{}, testDescriptor(), quietLogger(), &bag); err == nil {
		t.Error("LAX should not encode on plain NMOS")
	}

	b, ok := isa.Encode(isa.NMOSUndocumented, isa.LAX, isa.ZeroPage)
	if !ok || b != 0xA7 {
		t.Fatalf("LAX zp should encode as A7 with illegals enabled, got %02X ok=%v", b, ok)
	}
}

func TestLabelListingRoundTrips(t *testing.T) {
	entries := []LabelEntry{
		{Name: "main", Address: 0x0600, Global: true},
		{Name: ".main.loop1", Address: 0x0609},
		{Name: "irq$shadow", Address: 0x0700, Global: true},
	}
	text := FormatLabelFile(entries)
	parsed, err := ParseLabelFile(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != len(entries) {
		t.Fatalf("parsed %d entries, want %d", len(parsed), len(entries))
	}
	wantNames := []string{"main", "_main_loop1", "irq_shadow"}
	wantAddrs := []int{0x0600, 0x0609, 0x0700}
	for i, p := range parsed {
		if p.Name != wantNames[i] || p.Address != wantAddrs[i] {
			t.Errorf("entry %d = %q@$%04X, want %q@$%04X", i, p.Name, p.Address, wantNames[i], wantAddrs[i])
		}
	}
}

func TestLabelSortPrefersGlobalOnTies(t *testing.T) {
	entries := []LabelEntry{
		{Name: ".main.entry", Address: 0x0600},
		{Name: "main", Address: 0x0600, Global: true},
	}
	SortLabels(entries)
	if !entries[0].Global {
		t.Errorf("global label should sort before local at the same address, got %q first", entries[0].Name)
	}
}

func TestSizeCountsOperandWidths(t *testing.T) {
	lines := []isa.AssemblyLine{
		isa.LabelLine("main", false),
		isa.Line(isa.LDA, isa.Immediate, konst.Byte(1)),
		isa.Line(isa.STA, isa.Absolute, konst.Word(0xC000)),
		isa.Line(isa.RTS, isa.Implied, isa.NoOperand{}),
	}
	if got := Size(lines); got != 6 {
		t.Errorf("Size = %d, want 6", got)
	}
}

func TestSourceMapRoundTrips(t *testing.T) {
	sm := &SourceMap{Origin: 0x0600}
	sm.Add(0x0600, isa.Pos{File: "main.mfk", Line: 3})
	sm.Add(0x0602, isa.Pos{File: "main.mfk", Line: 4})
	sm.Add(0x0605, isa.Pos{File: "lib.mfk", Line: 12})
	sm.Size = 8

	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	var back SourceMap
	if _, err := back.ReadFrom(&buf); err != nil {
		t.Fatal(err)
	}
	if back.Origin != sm.Origin || back.Size != sm.Size {
		t.Errorf("header mismatch: got origin=$%04X size=%d", back.Origin, back.Size)
	}
	file, line, ok := back.Find(0x0605)
	if !ok || file != "lib.mfk" || line != 12 {
		t.Errorf("Find($0605) = %q:%d ok=%v, want lib.mfk:12", file, line, ok)
	}
	if _, _, ok := back.Find(0x0601); ok {
		t.Error("Find should miss an address between mapped instructions")
	}
}

func TestEmissionRecordsLabelAddresses(t *testing.T) {
	fns := []Function{{
		Name: "main",
		Lines: []isa.AssemblyLine{
			isa.LabelLine("main", false),
			isa.Line(isa.LDA, isa.Immediate, konst.Byte(1)),
			isa.LabelLine(".main.loop1", false),
			isa.Line(isa.JMP, isa.Absolute, konst.Symbol(".main.loop1")),
		},
	}}
	out := assemble(t, fns, nil, testDescriptor())
	var mainAddr, loopAddr int
	for _, l := range out.Labels {
		switch l.Name {
		case "main":
			mainAddr = l.Address
		case ".main.loop1":
			loopAddr = l.Address
		}
	}
	if mainAddr != 0x0600 || loopAddr != 0x0602 {
		t.Errorf("labels at main=$%04X loop=$%04X, want $0600/$0602", mainAddr, loopAddr)
	}
	// The JMP operand must point at the local label's address.
	code := out.Code["main"]
	target := int(code[3]) | int(code[4])<<8
	if target != 0x0602 {
		t.Errorf("JMP target = $%04X, want $0602", target)
	}
}
