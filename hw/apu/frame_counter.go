package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwdefs"
)

type frameType uint8

const (
	noFrame frameType = iota
	quarterFrame
	halfFrame // includes a quarter frame
)

// Frame clock and IRQ emitted at each step, per sequencer mode.
var (
	mode0Frames = [6]frameType{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame}
	mode0IRQ    = [6]bool{false, false, false, true, true, true}
	mode1Frames = [4]frameType{halfFrame, quarterFrame, halfFrame, quarterFrame}
)

// frameCounter is the APU frame sequencer. It counts down CPU cycles to the
// next step, then clocks the channels' envelopes, linear counter, length
// counters and sweep units, and raises the frame IRQ in 4-step mode.
type frameCounter struct {
	apu *APU
	cpu cpu

	mode0 [6]int32
	mode1 [4]int32

	mode       uint8 // 0: 4-step mode, 1: 5-step mode
	inhibitIRQ bool
	step       int
	countdown  int32
}

func (fc *frameCounter) init(a *APU) {
	fc.apu = a
	fc.cpu = a.cpu
	fc.mode0 = a.region.SequenceMode0()
	fc.mode1 = a.region.SequenceMode1()
}

func (fc *frameCounter) reset(soft bool) {
	// Mode is kept on soft reset, as if $4017 were written with its last
	// value minus the IRQ inhibit flag.
	if !soft {
		fc.mode = 0
	}
	fc.inhibitIRQ = false
	fc.restart()
}

// write handles a $4017 write.
func (fc *frameCounter) write(val uint8) {
	fc.mode = val >> 7
	fc.inhibitIRQ = val&0x40 != 0
	if fc.inhibitIRQ {
		fc.cpu.Interrupt(hwdefs.FrameCounter, false)
	}
	fc.restart()

	log.ModSound.DebugZ("write frame counter").
		Uint8("reg", val).
		Uint8("mode", fc.mode).
		Bool("inhibit", fc.inhibitIRQ).
		Int64("cycle", fc.cpu.CurrentCycle()).
		End()
}

// restart resets the sequencer to its first step. The effect of a write is
// delayed by 3 or 4 CPU cycles depending on the write cycle parity, which is
// folded into the first countdown.
func (fc *frameCounter) restart() {
	adj := int32(1)
	if fc.cpu.CurrentCycle()&0x01 != 0 {
		adj = 2
	}

	fc.step = 0
	if fc.mode == 0 {
		fc.countdown = fc.mode0[0] + adj
	} else {
		// In 5-step mode the first step (half frame) is immediate.
		fc.countdown = adj
	}
}

func (fc *frameCounter) tick() {
	fc.countdown--
	if fc.countdown > 0 {
		return
	}

	if fc.mode == 0 {
		if mode0IRQ[fc.step] && !fc.inhibitIRQ {
			fc.cpu.Interrupt(hwdefs.FrameCounter, true)
		}
		fc.apu.clockFrame(mode0Frames[fc.step])
		fc.step++
		if fc.step == len(fc.mode0) {
			fc.step = 0
		}
		fc.countdown = fc.mode0[fc.step]
		return
	}

	fc.apu.clockFrame(mode1Frames[fc.step])
	fc.step++
	if fc.step == len(fc.mode1) {
		fc.step = 0
	}
	fc.countdown = fc.mode1[fc.step]
}
