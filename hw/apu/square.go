package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwio"
)

// There are two square channels beginning at registers $4000 and $4004. Each
// contains the following: Envelope Generator, Sweep Unit, Timer with
// divide-by-two on the output, 8-step sequencer, Length Counter.
//
//	               +---------+    +---------+
//	               |  Sweep  |--->|Timer / 2|
//	               +---------+    +---------+
//	                    |              |
//	                    |              v
//	                    |         +---------+    +---------+
//	                    |         |Sequencer|    | Length  |
//	                    |         +---------+    +---------+
//	                    |              |              |
//	                    v              v              v
//	+---------+        |\             |\             |\          +---------+
//	|Envelope |------->| >----------->| >----------->| >-------->|   DAC   |
//	+---------+        |/             |/             |/          +---------+
type squareChannel struct {
	envelope envelope
	timer    timer
	sweep    sweepUnit

	duty   uint8 // duty cycle sequence index
	step   uint8 // position in the duty sequence
	period uint16

	Duty   hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Sweep  hwio.Reg8 `hwio:"offset=0x01,writeonly,wcb"`
	Timer  hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

// sweepUnit periodically adjusts the period of a square channel.
type sweepUnit struct {
	enabled bool
	negate  bool
	reload  bool
	shift   uint8
	period  uint8 // divider period, P+1
	divider uint8
	target  uint32

	// Pulse 1 negates with one's complement: the target is one less than
	// on pulse 2.
	onesComplement bool
}

func (sw *sweepUnit) write(val uint8) {
	sw.enabled = val&0x80 != 0
	sw.period = (val>>4)&0x07 + 1
	sw.negate = val&0x08 != 0
	sw.shift = val & 0x07
	sw.reload = true
}

// update computes the target period from the current channel period.
func (sw *sweepUnit) update(period uint16) {
	delta := uint32(period >> sw.shift)
	switch {
	case !sw.negate:
		sw.target = uint32(period) + delta
	case sw.onesComplement:
		sw.target = uint32(period) - delta - 1
	default:
		sw.target = uint32(period) - delta
	}
}

// overflows reports whether the target period mutes the channel.
func (sw *sweepUnit) overflows() bool {
	return !sw.negate && sw.target > 0x7FF
}

// clock runs the sweep divider at each half frame. It returns true if the
// channel period must be set to the target period.
func (sw *sweepUnit) clock(period uint16) bool {
	adjust := false
	sw.divider--
	if sw.divider == 0 {
		adjust = sw.shift > 0 && sw.enabled && period >= 8 && sw.target <= 0x7FF
		sw.divider = sw.period
	}
	if sw.reload {
		sw.divider = sw.period
		sw.reload = false
	}
	return adjust
}

func newSquareChannel(a *APU, channel Channel) squareChannel {
	return squareChannel{
		sweep: sweepUnit{onesComplement: channel == Square1},
		envelope: envelope{
			lenCounter: lengthCounter{channel: channel},
		},
		timer: timer{
			channel: channel,
			mixer:   a.mixer,
			clock:   &a.cycle,
		},
	}
}

// $4000/$4004: DDLC VVVV
func (sc *squareChannel) WriteDUTY(_, val uint8) {
	sc.envelope.init(val)
	sc.duty = val >> 6

	log.ModSound.DebugZ("write pulse duty").
		Stringer("ch", sc.timer.channel).
		Hex8("val", val).
		Uint8("duty", sc.duty).
		End()
}

// $4001/$4005: EPPP NSSS
func (sc *squareChannel) WriteSWEEP(_, val uint8) {
	sc.sweep.write(val)
	sc.sweep.update(sc.period)

	log.ModSound.DebugZ("write pulse sweep").
		Stringer("ch", sc.timer.channel).
		Hex8("val", val).
		Bool("enabled", sc.sweep.enabled).
		End()
}

// $4002/$4006: LLLL LLLL
func (sc *squareChannel) WriteTIMER(_, val uint8) {
	sc.setPeriod(sc.period&0x0700 | uint16(val))

	log.ModSound.DebugZ("write pulse timer").
		Stringer("ch", sc.timer.channel).
		Hex8("val", val).
		Uint16("period", sc.period).
		End()
}

// $4003/$4007: llll lHHH
func (sc *squareChannel) WriteLENGTH(_, val uint8) {
	sc.envelope.lenCounter.load(val >> 3)
	sc.setPeriod(sc.period&0x00FF | uint16(val&0x07)<<8)

	// Restart the duty sequence and the envelope.
	sc.step = 0
	sc.envelope.restart()

	log.ModSound.DebugZ("write pulse length").
		Stringer("ch", sc.timer.channel).
		Hex8("val", val).
		Uint16("period", sc.period).
		End()
}

// isMuted reports whether the channel output is forced to 0: a period lower
// than 8, or a sweep target period overflowing 11 bits.
func (sc *squareChannel) isMuted() bool {
	return sc.period < 8 || sc.sweep.overflows()
}

func (sc *squareChannel) setPeriod(period uint16) {
	sc.period = period
	sc.timer.period = period*2 + 1
	sc.sweep.update(period)
}

// Duty cycle sequences, read backwards as the sequencer counts down.
var squareDuty = [4]uint8{
	0b0000_0001, // 12.5%
	0b0000_0011, // 25%
	0b0000_1111, // 50%
	0b1111_1100, // 25% negated
}

func (sc *squareChannel) updateOutput() {
	if sc.isMuted() {
		sc.timer.addOutput(0)
		return
	}
	bit := squareDuty[sc.duty] >> (7 - sc.step) & 1
	sc.timer.addOutput(int8(bit * sc.envelope.volume()))
}

func (sc *squareChannel) tick() {
	if sc.timer.tick() {
		sc.step = (sc.step - 1) & 0x07
		sc.updateOutput()
	}
}

func (sc *squareChannel) reset(soft bool) {
	sc.envelope.reset(soft)
	sc.timer.reset(soft)

	sc.duty = 0
	sc.step = 0
	sc.period = 0
	sc.sweep = sweepUnit{onesComplement: sc.sweep.onesComplement}
	sc.sweep.update(0)
}

func (sc *squareChannel) quarterFrame() {
	sc.envelope.tick()
}

func (sc *squareChannel) halfFrame() {
	sc.envelope.lenCounter.tick()
	if sc.sweep.clock(sc.period) {
		sc.setPeriod(uint16(sc.sweep.target))
	}
}

func (sc *squareChannel) reloadLengthCounter()    { sc.envelope.lenCounter.reload() }
func (sc *squareChannel) setEnabled(enabled bool) { sc.envelope.lenCounter.setEnabled(enabled) }
func (sc *squareChannel) status() bool            { return sc.envelope.lenCounter.status() }

// Output returns the current channel output, in the 0-15 range.
func (sc *squareChannel) Output() uint8 { return uint8(sc.timer.lastOutput) }
