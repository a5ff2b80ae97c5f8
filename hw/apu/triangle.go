package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwio"
)

// The triangleChannel contains the following: Timer, 32-step sequencer, Length
// Counter, Linear Counter, 4-bit DAC.
//
//	+---------+    +---------+
//	|LinearCtr|    | Length  |
//	+---------+    +---------+
//	     |              |
//	     v              v
//	+---------+        |\             |\         +---------+    +---------+
//	|  Timer  |------->| >----------->| >------->|Sequencer|--->|   DAC   |
//	+---------+        |/             |/         +---------+    +---------+
type triangleChannel struct {
	lenCounter lengthCounter
	linear     linearCounter
	timer      timer

	step uint8 // sequencer position, 0-31

	Linear hwio.Reg8 `hwio:"offset=0x08,writeonly,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x09,writeonly"`
	Timer  hwio.Reg8 `hwio:"offset=0x0A,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x0B,writeonly,wcb"`
}

// linearCounter gates the triangle sequencer, with a finer resolution than
// the length counter.
type linearCounter struct {
	counter uint8
	period  uint8 // reload value
	reload  bool
	control bool // also the length counter halt flag
}

// clock runs at each quarter frame.
func (lc *linearCounter) clock() {
	switch {
	case lc.reload:
		lc.counter = lc.period
	case lc.counter > 0:
		lc.counter--
	}
	if !lc.control {
		lc.reload = false
	}
}

func newTriangleChannel(a *APU) triangleChannel {
	return triangleChannel{
		lenCounter: lengthCounter{channel: Triangle},
		timer: timer{
			channel: Triangle,
			mixer:   a.mixer,
			clock:   &a.cycle,
		},
	}
}

// triangleLevel returns the output level at step of the 32-step sequence:
// 15 down to 0, then 0 up to 15.
func triangleLevel(step uint8) int8 {
	if step < 16 {
		return int8(15 - step)
	}
	return int8(step - 16)
}

func (tc *triangleChannel) tick() {
	if !tc.timer.tick() {
		return
	}

	// Both counters must be nonzero for the sequencer to advance.
	if tc.lenCounter.status() && tc.linear.counter > 0 {
		tc.step = (tc.step + 1) % 32
	}

	// Ultrasonic periods are muted.
	if tc.timer.period < 4 {
		tc.timer.addOutput(0)
		return
	}
	tc.timer.addOutput(triangleLevel(tc.step))
}

func (tc *triangleChannel) reset(soft bool) {
	tc.timer.reset(soft)
	tc.lenCounter.reset(soft)
	tc.linear = linearCounter{}
	tc.step = 0
}

// $4008: CRRR RRRR
func (tc *triangleChannel) WriteLINEAR(_, val uint8) {
	tc.linear.control = val&0x80 != 0
	tc.linear.period = val & 0x7F
	tc.lenCounter.init(tc.linear.control)

	log.ModSound.DebugZ("write triangle linear").
		Hex8("val", val).
		Bool("control", tc.linear.control).
		Uint8("period", tc.linear.period).
		End()
}

// $400A: LLLL LLLL
func (tc *triangleChannel) WriteTIMER(_, val uint8) {
	tc.timer.period = tc.timer.period&0x0700 | uint16(val)

	log.ModSound.DebugZ("write triangle timer").
		Hex8("val", val).
		Uint16("period", tc.timer.period).
		End()
}

// $400B: llll lHHH
func (tc *triangleChannel) WriteLENGTH(_, val uint8) {
	tc.lenCounter.load(val >> 3)
	tc.timer.period = tc.timer.period&0x00FF | uint16(val&0x07)<<8
	tc.linear.reload = true

	log.ModSound.DebugZ("write triangle length").
		Hex8("val", val).
		Uint16("period", tc.timer.period).
		End()
}

func (tc *triangleChannel) quarterFrame()           { tc.linear.clock() }
func (tc *triangleChannel) halfFrame()              { tc.lenCounter.tick() }
func (tc *triangleChannel) reloadLengthCounter()    { tc.lenCounter.reload() }
func (tc *triangleChannel) setEnabled(enabled bool) { tc.lenCounter.setEnabled(enabled) }
func (tc *triangleChannel) status() bool            { return tc.lenCounter.status() }

// Output returns the current channel output, in the 0-15 range.
func (tc *triangleChannel) Output() uint8 { return uint8(tc.timer.lastOutput) }
