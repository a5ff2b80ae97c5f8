package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"rp2a03/emu"
	"rp2a03/emu/log"
)

type mode byte

const (
	runMode     mode = iota // Run program images
	opcodesMode             // Show the opcode table
	versionMode             // Show version
)

type (
	CLI struct {
		Run     Run     `cmd:"" help:"Run program images headless."`
		Opcodes Opcodes `cmd:"" help:"Show the 2A03 opcode table."`
		Version Version `cmd:"" help:"Show rp2a03 version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		Paths []string `arg:"" name:"/path/to/prg" help:"${prgpath_help}" type:"existingfile"`

		Config     string   `name:"config" help:"TOML configuration file (default: ${config_path})." type:"existingfile"`
		Region     string   `name:"region" help:"Console region: ntsc, pal or dendy." enum:",ntsc,pal,dendy" default:""`
		Frames     int64    `name:"frames" help:"Stop after N frames (0: use config value)." placeholder:"N"`
		Limit      bool     `name:"limit" help:"Run at the region frame rate."`
		NMI        bool     `name:"nmi" help:"Pulse NMI once per frame, as the PPU would."`
		TestStatus bool     `name:"test-status" help:"${test_status_help}"`
		NoAudio    bool     `name:"no-audio" help:"Disable audio emulation."`
		WAV        string   `name:"wav" help:"Record audio to a WAV file." type:"path" placeholder:"FILE"`
		Trace      *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		JSON       bool     `name:"json" help:"Print reports as JSON."`
	}

	Opcodes struct {
		Illegal bool `name:"illegal" help:"Only show illegal opcodes."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"prgpath_help":     "Program images: raw PRG dumps or iNES files using mapper 0. Several images run in parallel.",
	"test_status_help": "Stop when the program writes its test result at $6000.",
	"log_help":         "Enable logging for specified modules.",
	"config_path":      emu.UserConfigPath(),
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("rp2a03"),
		kong.Description("Headless NES 2A03 (CPU+APU) emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "opcodes":
		cfg.mode = opcodesMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	mask, nolog, err := parseLogModules(ctx.Scan.Pop().Value.(string))
	if err != nil {
		return err
	}
	if nolog {
		log.Disable()
		return nil
	}

	log.EnableDebugModules(mask)
	return nil
}

// parseLogModules parses a comma-separated list of module names. nolog is
// true for "no".
func parseLogModules(s string) (mask log.ModuleMask, nolog bool, err error) {
	allLogs := false
	for v := range strings.SplitSeq(s, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return 0, false, fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return 0, false, fmt.Errorf("cannot combine 'no' with other log modules")
		}
		return 0, true, nil
	}

	if allLogs {
		mask = log.ModuleMaskAll
	}
	return mask, false, nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	return f.open(tok.Value.(string))
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
