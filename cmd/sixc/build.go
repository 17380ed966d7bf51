package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/asmfmt"

	"sixc/internal/asmout"
	"sixc/internal/compiler"
	"sixc/internal/diag"
	"sixc/internal/env"
	"sixc/internal/platform"
	"sixc/internal/superopt"
)

// program is the checked form the front end delivers: a resolved
// environment, every function's signature and body, the addresses of
// everything placed outside the back end's control, and the declared
// entry points reachability starts from. The lexer, parser and
// name/type resolution that produce it ship separately; this module is
// the back end they link against (see loadProgram).
type program struct {
	Env     env.Environment
	Globals map[string]int64
	Entries []string
	Funcs   []programFunc
}

type programFunc struct {
	Sig  compiler.Signature
	Body []compiler.Stmt
	Bank string
}

// loadProgram is the front-end seam: installed by the front end's
// package at link time, consumed here. When no front end is linked in,
// the driver reports it instead of pretending the input paths were
// understood.
var loadProgram func(paths []string, defines map[string]int64, lg *diag.Logger) (*program, error)

// scratchBase is the first zero-page address handed to the compiler's
// scratch cells; 0 and 1 are left alone since several target machines
// use them as the processor port.
const scratchBase = 0x02

func compile(opts *cliOptions, inputs []string) error {
	flags, err := resolveFlags(opts)
	if err != nil {
		return err
	}
	defines, err := parseDefines(opts.defines)
	if err != nil {
		return err
	}
	desc, err := loadDescriptor(opts)
	if err != nil {
		return &buildError{err}
	}

	lg := diag.NewLogger(logLevel(flags))
	if flags.Verbosity >= 2 {
		lg.Infof("platform:")
		desc.Display(lg.Out)
	}

	if loadProgram == nil {
		return &buildError{fmt.Errorf("no front end linked into this build; cannot read %s", strings.Join(inputs, ", "))}
	}
	prog, err := loadProgram(inputs, defines, lg)
	if err != nil {
		return &buildError{err}
	}

	job := platform.NewJobContext(flags, desc)
	out, err := build(job, prog, lg)
	if err != nil {
		return &buildError{err}
	}
	if err := writeOutputs(opts, desc, out, lg); err != nil {
		return &buildError{err}
	}

	if opts.runAfter != "" {
		image := imagePath(opts, desc)
		lg.Infof("spawning %s %s", opts.runAfter, image)
		run := exec.Command(opts.runAfter, image)
		run.Stdout, run.Stderr = os.Stdout, os.Stderr
		if err := run.Run(); err != nil {
			return &buildError{fmt.Errorf("-r %s: %w", opts.runAfter, err)}
		}
	}
	return nil
}

// build drives the back-end pipeline: lower every function, optimize
// the per-function line lists (in parallel unless --single-threaded),
// then assemble. Diagnostics checkpoint between phases via
// AssertNoErrors.
func build(job *platform.JobContext, prog *program, lg *diag.Logger) (*asmout.Output, error) {
	arch := job.Descriptor.Architecture()
	copts := compiler.Options{
		Arch:                  arch,
		Decimal:               job.Flags.DecimalMode,
		NeverCheckArrayBounds: !job.Flags.BoundsChecking,
		CheckOverlap:          job.Flags.VariableOverlap,
	}

	var bag diag.Bag
	lg.Section("compiling")
	fns := make([]asmout.Function, len(prog.Funcs))
	for i, pf := range prog.Funcs {
		c := compiler.NewContext(prog.Env, copts, &bag, pf.Sig.Name)
		c = compiler.LowerFunction(c, pf.Sig, pf.Body)
		fns[i] = asmout.Function{
			Name:            pf.Sig.Name,
			Bank:            pf.Bank,
			Lines:           c.Lines,
			UnoptimizedSize: asmout.Size(c.Lines),
		}
		lg.Debugf("compiled %s: %d lines", pf.Sig.Name, len(c.Lines))
	}
	if err := bag.AssertNoErrors("compile"); err != nil {
		return nil, err
	}
	if job.Flags.WarnFatal {
		for _, d := range bag.All() {
			if d.Severity == diag.Warn {
				return nil, fmt.Errorf("warnings treated as errors (-Wfatal): %s", d.String())
			}
		}
	}

	lg.Section("optimizing")
	fns = platform.OptimizeAll(job, fns, func(f asmout.Function) asmout.Function {
		f.Lines = platform.Optimize(f.Lines, arch, job.Flags)
		if job.Flags.SuperoptimizerEnabled() {
			f.Lines = superopt.OptimizeFunction(f.Lines)
		}
		return f
	})

	globals := map[string]int64{}
	for name, addr := range prog.Globals {
		globals[name] = addr
	}
	width := job.Descriptor.ZeropageWidth
	if job.Flags.ZPRegisterSize >= 0 {
		width = job.Flags.ZPRegisterSize
	}
	for i := 0; i < width; i++ {
		name := fmt.Sprintf(".scratch%d", i)
		if _, taken := globals[name]; !taken {
			globals[name] = int64(scratchBase + i)
		}
	}

	return asmout.Assemble(fns, globals, newCallGraph(prog), job.Descriptor, lg, &bag)
}

// callGraph walks referenced names from the declared entry points,
// treating every identifier a reachable function's body mentions as an
// edge. Interrupt handlers are roots too: hardware reaches them
// through vectors no call expression mentions.
type callGraph struct {
	reachable map[string]bool
}

func newCallGraph(prog *program) *callGraph {
	refs := map[string][]string{}
	isFunc := map[string]bool{}
	for _, f := range prog.Funcs {
		refs[f.Sig.Name] = compiler.ReferencedNames(f.Body)
		isFunc[f.Sig.Name] = true
	}

	roots := append([]string(nil), prog.Entries...)
	for _, f := range prog.Funcs {
		if f.Sig.Interrupt {
			roots = append(roots, f.Sig.Name)
		}
	}
	if len(roots) == 0 && isFunc["main"] {
		roots = []string{"main"}
	}

	g := &callGraph{reachable: map[string]bool{}}
	for len(roots) > 0 {
		name := roots[0]
		roots = roots[1:]
		if g.reachable[name] || !isFunc[name] {
			continue
		}
		g.reachable[name] = true
		roots = append(roots, refs[name]...)
	}
	return g
}

func (g *callGraph) Reachable(name string) bool { return g.reachable[name] }

func imagePath(opts *cliOptions, desc *platform.Descriptor) string {
	return opts.output + "." + desc.OutputExtension
}

func writeOutputs(opts *cliOptions, desc *platform.Descriptor, out *asmout.Output, lg *diag.Logger) error {
	banks := desc.Banks
	if len(banks) == 0 {
		for name := range out.Code {
			banks = append(banks, platform.Bank{Name: name})
		}
	}

	if desc.PerBankOutput {
		for _, b := range banks {
			path := opts.output + "." + b.Name + "." + desc.OutputExtension
			if err := os.WriteFile(path, out.Code[b.Name], 0o644); err != nil {
				return err
			}
			lg.Infof("wrote %s (%d bytes)", path, len(out.Code[b.Name]))
		}
	} else {
		var image []byte
		for _, b := range banks {
			image = append(image, out.Code[b.Name]...)
		}
		path := imagePath(opts, desc)
		if err := os.WriteFile(path, image, 0o644); err != nil {
			return err
		}
		lg.Infof("wrote %s (%d bytes)", path, len(image))
	}

	if desc.EmitInf {
		start := 0
		if len(banks) > 0 {
			start = banks[0].Start
		}
		inf := fmt.Sprintf("$.%s %06X %06X\n", strings.ToUpper(filepath.Base(opts.output)), start, start)
		if err := os.WriteFile(imagePath(opts, desc)+".inf", []byte(inf), 0o644); err != nil {
			return err
		}
	}

	if opts.emitAsm {
		listing := strings.Join(out.Asm, "\n") + "\n"
		if formatted, err := asmfmt.Format(strings.NewReader(listing)); err == nil {
			listing = string(formatted)
		} else {
			lg.Warnf("asm listing left unformatted: %v", err)
		}
		if err := os.WriteFile(opts.output+".asm", []byte(listing), 0o644); err != nil {
			return err
		}
	}

	if opts.debug >= 1 {
		if err := os.WriteFile(opts.output+".lbl", []byte(asmout.FormatLabelFile(out.Labels)), 0o644); err != nil {
			return err
		}
	}
	if opts.debug >= 2 {
		f, err := os.Create(opts.output + ".map")
		if err != nil {
			return err
		}
		if _, err := out.SourceMap.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	lg.Infof("code size: %d bytes unoptimized, %d bytes optimized", out.SizeBefore, out.SizeAfter)
	return nil
}
