package platform

import (
	"sixc/internal/isa"
	"sixc/internal/peephole"
)

// SizeSpeed selects one of the three optimization metrics (code size,
// execution speed, or speed regardless of size) per -Os/-Of/-Ob. Its
// only effect on the peephole pipeline is that PreferExtremeSpeed
// enables DangerousOptimizations (see ruleSets); the engine does not
// compare a transform's cycle or byte cost with the matched window's.
type SizeSpeed byte

const (
	Balanced SizeSpeed = iota
	PreferSize          // -Os
	PreferSpeed         // -Of
	PreferExtremeSpeed  // -Ob
)

// Flags is the resolved set of every compiler flag, independent of
// the cobra/pflag machinery cmd/sixc uses to
// populate it. Keeping Flags a plain struct (rather than threading
// *cobra.Command through the pipeline) is what lets internal/compiler,
// internal/peephole and internal/asmout stay free of any CLI-parsing
// dependency.
type Flags struct {
	OptLevel  int // -O0..-O9; 9 enables the superoptimizer
	SizeSpeed SizeSpeed

	Inline         bool // -finline (default on; -fno-inline clears it)
	IPO            bool // -fipo
	OptimizeStdlib bool // -foptimize-stdlib

	CmosOps             bool // -fcmos-ops
	CE02Ops             bool // -f65ce02-ops
	HuC6280Ops          bool // -fhuc6280-ops
	EmulationW65816Ops  bool // -femulation-65816-ops
	NativeW65816Ops     bool // -fnative-65816-ops -- see DESIGN.md, unverified
	Illegals            bool // -fillegals, requires OptLevel >= 2

	ZPRegisterSize int // -fzp-register=N, 0..15; -1 means unset

	JmpFix          bool // -fjmp-fix
	DecimalMode     bool // -fdecimal-mode
	VariableOverlap bool // -fvariable-overlap -- split from BoundsChecking, see DESIGN.md
	BoundsChecking  bool // on by default; -fno-bounds-checking clears it
	LenientEncoding bool // -flenient-encoding
	ShadowIRQ       bool // -fshadow-irq
	UseIXForStack   bool // -fuse-ix-for-stack
	UseIYForStack   bool // -fuse-iy-for-stack
	SoftwareStack   bool // -fsoftware-stack

	WarnAll   bool // -Wall
	WarnFatal bool // -Wfatal

	SingleThreaded bool // --single-threaded
	Verbosity      int  // count of -v
	Quiet          bool // -q
}

// DefaultFlags: no flags set means base NMOS, -O0, single combined
// output, chatty-off, with inlining and array bounds checking on.
func DefaultFlags() Flags {
	return Flags{
		Inline:         true,
		BoundsChecking: true,
		ZPRegisterSize: -1,
	}
}

// SuperoptimizerEnabled reports whether -O9 was requested.
func (f Flags) SuperoptimizerEnabled() bool { return f.OptLevel >= 9 }

// IllegalsAllowed reports whether -fillegals actually takes effect;
// it requires -O2 or higher.
func (f Flags) IllegalsAllowed() bool { return f.Illegals && f.OptLevel >= 2 }

// ruleSets assembles the ordered list of peephole.RuleSet this
// configuration enables, gating each architecture-conditional set on
// the flag that names it.
func (f Flags) ruleSets(arch isa.Architecture) []peephole.RuleSet {
	cmosUp := arch == isa.CMOS || arch == isa.CE02 || arch == isa.HuC6280 || arch == isa.WDC65816
	var sets []peephole.RuleSet
	if f.CmosOps || cmosUp {
		sets = append(sets, peephole.CmosOptimizations)
	}
	if f.CE02Ops {
		sets = append(sets, peephole.CE02Optimizations)
	}
	if f.HuC6280Ops {
		sets = append(sets, peephole.HudsonOptimizations)
	}
	if f.EmulationW65816Ops || f.NativeW65816Ops {
		sets = append(sets, peephole.SixteenOptimizations)
	}
	if f.IllegalsAllowed() {
		sets = append(sets, peephole.UndocumentedOptimizations)
	}
	if f.SizeSpeed == PreferExtremeSpeed {
		sets = append(sets, peephole.DangerousOptimizations)
	}
	if f.ZPRegisterSize >= 0 {
		sets = append(sets, peephole.ZeropageRegisterOptimizations)
	}
	return sets
}
