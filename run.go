package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"rp2a03/emu"
	"rp2a03/emu/log"
	"rp2a03/hw/apu"
	"rp2a03/hw/hwdefs"
	"rp2a03/ines"
	"rp2a03/wavwriter"
)

type result struct {
	path   string
	report emu.Report
}

// buildConfig loads the configuration file, if any, and applies the command
// line overrides.
func buildConfig(args Run) (emu.Config, error) {
	var (
		cfg emu.Config
		err error
	)
	if args.Config != "" {
		cfg, err = emu.LoadConfig(args.Config)
	} else {
		cfg, err = emu.LoadUserConfig()
	}
	if err != nil {
		return cfg, err
	}

	if args.Region != "" {
		cfg.Emulation.Region, err = hwdefs.ParseRegion(args.Region)
		if err != nil {
			return cfg, err
		}
	}
	if args.Frames != 0 {
		cfg.Emulation.MaxFrames = args.Frames
	}
	cfg.Emulation.FrameLimit = cfg.Emulation.FrameLimit || args.Limit
	cfg.Emulation.VBlankNMI = cfg.Emulation.VBlankNMI || args.NMI
	cfg.Emulation.TestStatus = cfg.Emulation.TestStatus || args.TestStatus
	cfg.Audio.DisableAudio = cfg.Audio.DisableAudio || args.NoAudio
	if args.WAV != "" {
		cfg.Audio.WAVOutput = args.WAV
	}
	if args.Trace != nil {
		cfg.Trace.Output = args.Trace.String()
	}

	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	if len(args.Paths) > 1 && (cfg.Trace.Output != "" || cfg.Audio.WAVOutput != "") {
		return cfg, errors.New("trace and wav output require a single program image")
	}
	if cfg.Audio.DisableAudio && cfg.Audio.WAVOutput != "" {
		return cfg, errors.New("wav output requires audio")
	}
	return cfg, nil
}

func run(args Run) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}

	if cfg.Trace.Output != "" {
		trace := args.Trace
		if trace == nil {
			trace = &outfile{}
			if err := trace.open(cfg.Trace.Output); err != nil {
				return fmt.Errorf("trace: %w", err)
			}
		}
		defer trace.Close()
		cfg.TraceOut = trace
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := make([]result, len(args.Paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args.Paths {
		g.Go(func() error {
			r, err := runOne(ctx, cfg, path, args.Region != "")
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = result{path: path, report: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if args.JSON {
		return writeJSON(os.Stdout, results)
	}
	for _, res := range results {
		fmt.Printf("%s\n%s\n", res.path, res.report)
	}
	return nil
}

// runOne runs the program image at path. Unless forced, the region is taken
// from the iNES header, if any.
func runOne(ctx context.Context, cfg emu.Config, path string, forceRegion bool) (emu.Report, error) {
	prog, err := ines.Open(path)
	if err != nil {
		return emu.Report{}, err
	}
	if prog.INES && !forceRegion {
		cfg.Emulation.Region = prog.Region()
	}

	var sink apu.AudioSink
	if !cfg.Audio.DisableAudio && cfg.Audio.WAVOutput != "" {
		ww, err := wavwriter.Create(cfg.Audio.WAVOutput, cfg.Audio.SampleRate)
		if err != nil {
			return emu.Report{}, fmt.Errorf("wav output: %w", err)
		}
		defer func() {
			if err := ww.Close(); err != nil {
				log.ModSound.WarnZ("failed to close wav file").Error("err", err).End()
			}
		}()
		sink = ww
	}

	e, err := emu.NewEmulator(cfg, prog.PRG, sink)
	if err != nil {
		return emu.Report{}, err
	}

	log.ModEmu.InfoZ("Starting emulation").
		String("path", path).
		Stringer("region", cfg.Emulation.Region).
		Int("prg", len(prog.PRG)).
		End()

	r := e.Run(ctx)
	select {
	case err := <-e.Err():
		return r, err
	default:
	}
	return r, nil
}

func writeJSON(w io.Writer, results []result) error {
	var e jx.Encoder
	e.SetIdent(2)
	e.Arr(func(e *jx.Encoder) {
		for _, res := range results {
			e.Obj(func(e *jx.Encoder) {
				e.Field("path", func(e *jx.Encoder) { e.Str(res.path) })
				e.Field("report", func(e *jx.Encoder) { res.report.Encode(e) })
			})
		}
	})
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
