package emu

import (
	"fmt"
	"time"

	"github.com/go-faster/jx"

	"rp2a03/hw/hwdefs"
)

// Report summarizes an emulation run.
type Report struct {
	Region  hwdefs.Region
	Frames  int64
	Cycles  int64
	Steps   int64
	Elapsed time.Duration
	Jammed  bool

	// CPU registers at the end of the run.
	A, X, Y, SP, P uint8
	PC             uint16

	// Result written by a test program, if any.
	HasTestStatus bool
	TestStatus    uint8
	TestText      string
}

func (e *Emulator) report(elapsed time.Duration) Report {
	cpu := e.M.CPU
	r := Report{
		Region:  e.M.Region,
		Frames:  e.frames,
		Cycles:  cpu.Cycles,
		Steps:   cpu.Steps,
		Elapsed: elapsed,
		Jammed:  cpu.IsJammed(),
		A:       cpu.A,
		X:       cpu.X,
		Y:       cpu.Y,
		SP:      cpu.SP,
		P:       uint8(cpu.P),
		PC:      cpu.PC,
	}
	r.TestStatus, r.TestText, r.HasTestStatus = e.M.Board.TestStatus()
	return r
}

func (r Report) String() string {
	s := fmt.Sprintf("%s: %d frames, %d cycles, %d instructions in %s\nA:%02X X:%02X Y:%02X P:%02X S:%02X PC:%04X",
		r.Region, r.Frames, r.Cycles, r.Steps, r.Elapsed.Round(time.Millisecond),
		r.A, r.X, r.Y, r.P, r.SP, r.PC)
	if r.Jammed {
		s += " (jammed)"
	}
	if r.HasTestStatus {
		s += fmt.Sprintf("\ntest status $%02X: %s", r.TestStatus, r.TestText)
	}
	return s
}

// Encode writes the report as a JSON object.
func (r Report) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("region", func(e *jx.Encoder) { e.Str(r.Region.String()) })
		e.Field("frames", func(e *jx.Encoder) { e.Int64(r.Frames) })
		e.Field("cycles", func(e *jx.Encoder) { e.Int64(r.Cycles) })
		e.Field("steps", func(e *jx.Encoder) { e.Int64(r.Steps) })
		e.Field("elapsed_ns", func(e *jx.Encoder) { e.Int64(int64(r.Elapsed)) })
		e.Field("jammed", func(e *jx.Encoder) { e.Bool(r.Jammed) })
		e.Field("cpu", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("a", func(e *jx.Encoder) { e.UInt8(r.A) })
				e.Field("x", func(e *jx.Encoder) { e.UInt8(r.X) })
				e.Field("y", func(e *jx.Encoder) { e.UInt8(r.Y) })
				e.Field("sp", func(e *jx.Encoder) { e.UInt8(r.SP) })
				e.Field("p", func(e *jx.Encoder) { e.UInt8(r.P) })
				e.Field("pc", func(e *jx.Encoder) { e.UInt16(r.PC) })
			})
		})
		if r.HasTestStatus {
			e.Field("test", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("status", func(e *jx.Encoder) { e.UInt8(r.TestStatus) })
					e.Field("text", func(e *jx.Encoder) { e.Str(r.TestText) })
				})
			})
		}
	})
}

// MarshalJSON implements json.Marshaler.
func (r Report) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	r.Encode(&e)
	return e.Bytes(), nil
}

// DecodeReport decodes a report encoded with Report.Encode. Unknown fields are
// skipped.
func DecodeReport(d *jx.Decoder) (Report, error) {
	var r Report
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "region":
			var s string
			if s, err = d.Str(); err == nil {
				r.Region, err = hwdefs.ParseRegion(s)
			}
		case "frames":
			r.Frames, err = d.Int64()
		case "cycles":
			r.Cycles, err = d.Int64()
		case "steps":
			r.Steps, err = d.Int64()
		case "elapsed_ns":
			var ns int64
			ns, err = d.Int64()
			r.Elapsed = time.Duration(ns)
		case "jammed":
			r.Jammed, err = d.Bool()
		case "cpu":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "a":
					r.A, err = d.UInt8()
				case "x":
					r.X, err = d.UInt8()
				case "y":
					r.Y, err = d.UInt8()
				case "sp":
					r.SP, err = d.UInt8()
				case "p":
					r.P, err = d.UInt8()
				case "pc":
					r.PC, err = d.UInt16()
				default:
					err = d.Skip()
				}
				return err
			})
		case "test":
			r.HasTestStatus = true
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "status":
					r.TestStatus, err = d.UInt8()
				case "text":
					r.TestText, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	return r, err
}
