package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwio"
)

// noiseChannel generates pseudo-random 1-bit noise at 16 different frequencies.
//
//	      Timer --> Shift Register   Length Counter
//	                    |                |
//	                    v                v
//	Envelope -------> Gate ----------> Gate --> (to mixer)
type noiseChannel struct {
	envelope envelope
	timer    timer
	periods  *[16]uint16

	shiftReg uint16
	mode     bool // short mode

	Volume hwio.Reg8 `hwio:"offset=0x0C,writeonly,wcb"`
	Unused hwio.Reg8 `hwio:"offset=0x0D,writeonly"`
	Period hwio.Reg8 `hwio:"offset=0x0E,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x0F,writeonly,wcb"`
}

func newNoiseChannel(a *APU) noiseChannel {
	return noiseChannel{
		periods:  a.region.NoisePeriods(),
		shiftReg: 1,
		envelope: envelope{
			lenCounter: lengthCounter{channel: Noise},
		},
		timer: timer{
			channel: Noise,
			mixer:   a.mixer,
			clock:   &a.cycle,
		},
	}
}

func (nc *noiseChannel) WriteVOLUME(_, val uint8) {
	nc.envelope.init(val)
	log.ModSound.DebugZ("write noise volume").Uint8("reg", val).End()
}

func (nc *noiseChannel) WritePERIOD(_, val uint8) {
	nc.timer.period = nc.periods[val&0x0F] - 1
	nc.mode = val&0x80 != 0

	log.ModSound.DebugZ("write noise period").
		Uint8("reg", val).
		Uint16("period", nc.timer.period).
		Bool("short", nc.mode).
		End()
}

func (nc *noiseChannel) WriteLENGTH(_, val uint8) {
	nc.envelope.lenCounter.load(val >> 3)
	nc.envelope.restart()
	log.ModSound.DebugZ("write noise length").Uint8("reg", val).End()
}

// clockShiftRegister advances the 15-bit LFSR by one step. The feedback is
// bit 14 xor bit 13 (long mode) or bit 14 xor bit 8 (short mode), shifted in
// at bit 0.
func (nc *noiseChannel) clockShiftRegister() {
	tap := 13
	if nc.mode {
		tap = 8
	}
	feedback := ((nc.shiftReg >> 14) ^ (nc.shiftReg >> tap)) & 0x01
	nc.shiftReg = ((nc.shiftReg << 1) | feedback) & 0x7FFF
}

// isMuted reports whether bit 14 of the shift register is set.
func (nc *noiseChannel) isMuted() bool {
	return nc.shiftReg&0x4000 != 0
}

func (nc *noiseChannel) tick() {
	if !nc.timer.tick() {
		return
	}

	nc.clockShiftRegister()
	if nc.isMuted() {
		nc.timer.addOutput(0)
	} else {
		nc.timer.addOutput(int8(nc.envelope.volume()))
	}
}

func (nc *noiseChannel) reset(soft bool) {
	nc.envelope.reset(soft)
	nc.timer.reset(soft)

	nc.timer.period = nc.periods[0] - 1
	nc.shiftReg = 1
	nc.mode = false
}

func (nc *noiseChannel) quarterFrame()           { nc.envelope.tick() }
func (nc *noiseChannel) halfFrame()              { nc.envelope.lenCounter.tick() }
func (nc *noiseChannel) reloadLengthCounter()    { nc.envelope.lenCounter.reload() }
func (nc *noiseChannel) setEnabled(enabled bool) { nc.envelope.lenCounter.setEnabled(enabled) }
func (nc *noiseChannel) status() bool            { return nc.envelope.lenCounter.status() }
func (nc *noiseChannel) Output() uint8           { return uint8(nc.timer.lastOutput) }
