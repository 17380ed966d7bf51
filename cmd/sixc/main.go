// Command sixc is the compiler driver: it resolves the command line
// into a platform.Flags value and a platform descriptor, hands the
// checked program to the back-end pipeline, and writes whichever
// output artifacts were requested.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sixc/internal/diag"
	"sixc/internal/platform"
)

const version = "0.3.1"

// buildError wraps failures of the compilation itself, as opposed to
// command-line misuse; main maps the two onto the documented exit
// codes (1 for a failed build, 2 for a bad invocation).
type buildError struct{ err error }

func (e *buildError) Error() string { return e.err.Error() }
func (e *buildError) Unwrap() error { return e.err }

// longFlags lists every long option the command accepts with a single
// leading dash, the compiler-driver convention (-finline, -Wall)
// rather than pflag's default GNU style. normalizeArgs rewrites them
// to the double-dash spelling before cobra parses; both spellings
// work.
var longFlags = map[string]bool{
	"finline": true, "fno-inline": true, "fipo": true, "foptimize-stdlib": true,
	"fcmos-ops": true, "f65ce02-ops": true, "fhuc6280-ops": true,
	"femulation-65816-ops": true, "fnative-65816-ops": true, "fillegals": true,
	"fzp-register": true, "fjmp-fix": true, "fdecimal-mode": true,
	"fvariable-overlap": true, "fbounds-checking": true,
	"fno-bounds-checking": true, "flenient-encoding": true,
	"fshadow-irq": true, "fuse-ix-for-stack": true, "fuse-iy-for-stack": true,
	"fsoftware-stack": true, "Wall": true, "Wfatal": true,
	"single-threaded": true, "help": true, "version": true,
}

func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") {
			name, _, _ := strings.Cut(a[1:], "=")
			if longFlags[name] {
				a = "-" + a
			}
		}
		out = append(out, a)
	}
	return out
}

type cliOptions struct {
	output    string
	emitAsm   bool
	debug     int
	platform  string
	includes  []string
	runAfter  string
	defines   []string
	optimize  []string
	zpReg     int
	noInline  bool
	noBounds  bool
	features  map[string]*bool
	wall      bool
	wfatal    bool
	single    bool
	quiet     bool
	verbosity int
}

func newCommand() (*cobra.Command, *cliOptions) {
	opts := &cliOptions{features: map[string]*bool{}}

	cmd := &cobra.Command{
		Use:           "sixc [flags] input...",
		Short:         "6502-family cross-compiler",
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == "" {
				return errors.New("an output stem is required (-o <file>)")
			}
			return compile(opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file stem (required)")
	f.BoolVarP(&opts.emitAsm, "asm", "s", false, "emit an assembly listing next to the image")
	f.CountVarP(&opts.debug, "debug-output", "g", "emit a label file; twice for a source-map sidecar too")
	f.StringVarP(&opts.platform, "target", "t", "", "platform descriptor name (resolved to <name>.ini)")
	f.StringArrayVarP(&opts.includes, "include", "I", nil, "include directory (repeatable, ';'-separable)")
	f.StringVarP(&opts.runAfter, "run", "r", "", "program to spawn on the output after a successful build")
	f.StringArrayVarP(&opts.defines, "define", "D", nil, "preprocessor feature as <name>=<int>")
	f.StringArrayVarP(&opts.optimize, "optimize", "O", nil, "optimization level 0-9, or s/f/b for size/speed/extreme speed")
	f.IntVar(&opts.zpReg, "fzp-register", -1, "zero-page pseudoregister size in bytes (0-15)")
	f.BoolVar(&opts.noInline, "fno-inline", false, "disable inlining")
	f.BoolVar(&opts.noBounds, "fno-bounds-checking", false, "disable runtime array bounds checks")
	for _, name := range []string{
		"finline", "fipo", "foptimize-stdlib", "fcmos-ops", "f65ce02-ops",
		"fhuc6280-ops", "femulation-65816-ops", "fnative-65816-ops",
		"fillegals", "fjmp-fix", "fdecimal-mode", "fvariable-overlap",
		"fbounds-checking", "flenient-encoding", "fshadow-irq",
		"fuse-ix-for-stack", "fuse-iy-for-stack", "fsoftware-stack",
	} {
		opts.features[name] = f.Bool(name, false, "feature flag")
	}
	f.BoolVar(&opts.wall, "Wall", false, "enable all warnings")
	f.BoolVar(&opts.wfatal, "Wfatal", false, "treat warnings as errors")
	f.BoolVar(&opts.single, "single-threaded", false, "disable parallel function optimization")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress everything below errors")
	f.CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity (repeatable)")

	return cmd, opts
}

// resolveFlags folds the raw CLI options into the pipeline's Flags
// value, rejecting invalid combinations.
func resolveFlags(opts *cliOptions) (platform.Flags, error) {
	flags := platform.DefaultFlags()
	for _, o := range opts.optimize {
		switch o {
		case "s":
			flags.SizeSpeed = platform.PreferSize
		case "f":
			flags.SizeSpeed = platform.PreferSpeed
		case "b":
			flags.SizeSpeed = platform.PreferExtremeSpeed
		default:
			n, err := strconv.Atoi(o)
			if err != nil || n < 0 || n > 9 {
				return flags, fmt.Errorf("invalid optimization level -O%s", o)
			}
			flags.OptLevel = n
		}
	}

	feat := func(name string) bool { return *opts.features[name] }
	if opts.noInline {
		flags.Inline = false
	}
	if feat("finline") {
		flags.Inline = true
	}
	flags.IPO = feat("fipo")
	flags.OptimizeStdlib = feat("foptimize-stdlib")
	flags.CmosOps = feat("fcmos-ops")
	flags.CE02Ops = feat("f65ce02-ops")
	flags.HuC6280Ops = feat("fhuc6280-ops")
	flags.EmulationW65816Ops = feat("femulation-65816-ops")
	flags.NativeW65816Ops = feat("fnative-65816-ops")
	flags.Illegals = feat("fillegals")
	flags.JmpFix = feat("fjmp-fix")
	flags.DecimalMode = feat("fdecimal-mode")
	flags.VariableOverlap = feat("fvariable-overlap")
	if opts.noBounds {
		flags.BoundsChecking = false
	}
	if feat("fbounds-checking") {
		flags.BoundsChecking = true
	}
	flags.LenientEncoding = feat("flenient-encoding")
	flags.ShadowIRQ = feat("fshadow-irq")
	flags.UseIXForStack = feat("fuse-ix-for-stack")
	flags.UseIYForStack = feat("fuse-iy-for-stack")
	flags.SoftwareStack = feat("fsoftware-stack")
	flags.ZPRegisterSize = opts.zpReg
	flags.WarnAll = opts.wall
	flags.WarnFatal = opts.wfatal
	flags.SingleThreaded = opts.single
	flags.Quiet = opts.quiet
	flags.Verbosity = opts.verbosity

	if flags.Illegals && flags.OptLevel < 2 {
		return flags, errors.New("-fillegals requires -O2 or higher")
	}
	if flags.ZPRegisterSize > 15 {
		return flags, errors.New("-fzp-register accepts at most 15 bytes")
	}
	return flags, nil
}

func logLevel(flags platform.Flags) diag.Level {
	if flags.Quiet {
		return diag.Error
	}
	switch flags.Verbosity {
	case 0:
		return diag.Warn
	case 1:
		return diag.Info
	case 2:
		return diag.Debug
	default:
		return diag.Trace
	}
}

// includeDirs flattens the repeatable -I flag, honoring ';' as an
// in-argument separator, and always ends with the working directory.
func includeDirs(opts *cliOptions) []string {
	var dirs []string
	for _, arg := range opts.includes {
		for _, d := range strings.Split(arg, ";") {
			if d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return append(dirs, ".")
}

func loadDescriptor(opts *cliOptions) (*platform.Descriptor, error) {
	if opts.platform == "" {
		return platform.Default(), nil
	}
	for _, dir := range includeDirs(opts) {
		path := filepath.Join(dir, opts.platform+".ini")
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return platform.Load(f)
	}
	return nil, fmt.Errorf("platform %q: no %s.ini found on the include path", opts.platform, opts.platform)
}

func parseDefines(raw []string) (map[string]int64, error) {
	defines := map[string]int64{}
	for _, d := range raw {
		name, value, ok := strings.Cut(d, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("-D expects <name>=<int>, got %q", d)
		}
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("-D %s: %w", name, err)
		}
		defines[name] = n
	}
	return defines, nil
}

func main() {
	cmd, _ := newCommand()
	cmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sixc:", err)
		var berr *buildError
		if errors.As(err, &berr) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
