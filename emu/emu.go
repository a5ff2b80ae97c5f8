package emu

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"rp2a03/emu/log"
	"rp2a03/hw"
	"rp2a03/hw/apu"
	"rp2a03/hw/hwdefs"
)

// Frames to wait before pressing reset when a test program asks for it.
const testResetDelay = 6

const pausePoll = 50 * time.Millisecond

type Emulator struct {
	M   *Machine
	cfg EmulationConfig

	// These are accessed concurrently by the emulator loop and the caller.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	restart atomic.Bool

	errc chan error

	frames  int64
	resetAt int64 // frame at which a test requested reset is performed, or -1
}

// NewEmulator powers up a machine running prg. It doesn't start the
// emulation loop, call Run for that.
func NewEmulator(cfg Config, prg []byte, sink apu.AudioSink) (*Emulator, error) {
	m, err := NewMachine(cfg, prg, sink)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	return &Emulator{
		M:       m,
		cfg:     cfg.Emulation,
		errc:    make(chan error, 1),
		resetAt: -1,
	}, nil
}

// Err returns a channel receiving the error that stopped the emulation loop,
// if any.
func (e *Emulator) Err() <-chan error { return e.errc }

// Run runs the emulation loop until the context is done, Stop is called, the
// CPU jams, the frame limit is reached or an error occurs. Commands (pause,
// reset, restart, stop) are honored between frames.
func (e *Emulator) Run(ctx context.Context) Report {
	start := time.Now()
	frameDur := time.Duration(float64(time.Second) / e.M.Region.FrameRate())
	next := start

	for !e.shouldStop(ctx) {
		e.handleReset()
		if e.paused.Load() {
			// Don't burn cpu while paused.
			time.Sleep(pausePoll)
			next = time.Now()
			continue
		}

		e.M.RunFrame(e.frames)
		e.frames++

		if err := e.M.CPU.APU.Err(); err != nil {
			e.fail(fmt.Errorf("audio sink: %w", err))
			break
		}
		if e.M.CPU.IsJammed() {
			log.ModEmu.WarnZ("CPU jammed, stopping").
				Hex16("PC", e.M.CPU.PC).
				Int64("frame", e.frames).
				End()
			break
		}
		if e.cfg.TestStatus && e.checkTestStatus() {
			break
		}
		if e.cfg.MaxFrames > 0 && e.frames >= e.cfg.MaxFrames {
			break
		}

		if e.cfg.FrameLimit {
			next = next.Add(frameDur)
			if d := time.Until(next); d > 0 {
				time.Sleep(d)
			} else if d < -4*frameDur {
				// Too late, don't try to catch up.
				next = time.Now()
			}
		}
	}

	e.M.CPU.APU.Flush()
	if err := e.M.CPU.APU.Err(); err != nil {
		e.fail(fmt.Errorf("audio sink: %w", err))
	}

	log.ModEmu.InfoZ("Emulation loop exited").
		Int64("frames", e.frames).
		Duration("elapsed", time.Since(start)).
		End()
	return e.report(time.Since(start))
}

// checkTestStatus reports whether the test program is done. A program
// asking for a reset gets it after a short delay.
func (e *Emulator) checkTestStatus() bool {
	status, text, ok := e.M.Board.TestStatus()
	if !ok {
		return false
	}

	switch status {
	case hw.TestRunning:
		return false
	case hw.TestNeedsReset:
		if e.resetAt < 0 {
			e.resetAt = e.frames + testResetDelay
		} else if e.frames >= e.resetAt {
			e.resetAt = -1
			log.ModEmu.InfoZ("Test program requested reset").End()
			e.M.Reset(hwdefs.SoftReset)
		}
		return false
	}

	log.ModEmu.InfoZ("Test program done").
		Hex8("status", status).
		String("text", text).
		End()
	return true
}

func (e *Emulator) fail(err error) {
	select {
	case e.errc <- err:
	default:
	}
}

// SetPause, Stop, Reset and Restart allows to control
// the emulator loop in a concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Restart()            { e.restart.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) IsPaused() bool { return e.paused.Load() }

func (e *Emulator) shouldStop(ctx context.Context) bool {
	return e.quit.Load() || ctx.Err() != nil
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing soft reset").End()
		e.M.Reset(hwdefs.SoftReset)
	} else if e.restart.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing hard reset").End()
		e.M.Reset(hwdefs.HardReset)
		e.frames = 0
		e.resetAt = -1
	}
}
