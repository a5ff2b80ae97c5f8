package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/hwio"
)

// The dmcChannel (Delta Modulation Channel) outputs samples composed of 1-bit
// deltas and its DAC can be directly changed. It contains the following: DMA
// reader, interrupt flag, sample buffer, Timer, output unit, 7-bit counter tied
// to 7-bit DAC.
//
//	+----------+    +---------+
//	|DMA Reader|    |  Timer  |
//	+----------+    +---------+
//	     |               |
//	     |               v
//	+----------+    +---------+     +---------+     +---------+
//	|  Buffer  |----| Output  |---->| Counter |---->|   DAC   |
//	+----------+    +---------+     +---------+     +---------+
type dmcChannel struct {
	cpu     cpu
	timer   timer
	periods *[16]uint16

	sampleAddr uint16
	sampleLen  uint16
	outlvl     uint8
	irqEnabled bool
	loop       bool

	curaddr   uint16
	remaining uint16
	readbuf   uint8
	bufEmpty  bool

	shiftReg     uint8
	bitsLeft     uint8
	silence      bool
	disableDelay uint8
	startDelay   uint8

	Flags      hwio.Reg8 `hwio:"offset=0x10,writeonly,wcb"`
	Load       hwio.Reg8 `hwio:"offset=0x11,writeonly,wcb"`
	SampleAddr hwio.Reg8 `hwio:"offset=0x12,writeonly,wcb"`
	SampleLen  hwio.Reg8 `hwio:"offset=0x13,writeonly,wcb"`
}

func newDMC(a *APU) dmcChannel {
	return dmcChannel{
		cpu:      a.cpu,
		periods:  a.region.DMCPeriods(),
		silence:  true,
		bufEmpty: true,
		bitsLeft: 8,
		timer: timer{
			channel: DPCM,
			mixer:   a.mixer,
			clock:   &a.cycle,
		},
	}
}

func (dc *dmcChannel) initSample() {
	dc.curaddr = dc.sampleAddr
	dc.remaining = dc.sampleLen
}

func (dc *dmcChannel) reset(soft bool) {
	dc.timer.reset(soft)

	if !soft {
		dc.sampleAddr = 0xC000
		dc.sampleLen = 1
	}

	dc.outlvl = 0
	dc.irqEnabled = false
	dc.loop = false

	dc.curaddr = 0
	dc.remaining = 0
	dc.readbuf = 0
	dc.bufEmpty = true

	dc.shiftReg = 0
	dc.bitsLeft = 8
	dc.silence = true
	dc.startDelay = 0
	dc.disableDelay = 0

	dc.timer.period = dc.periods[0] - 1

	// The first timer clock happens after a full period.
	dc.timer.timer = dc.timer.period
}

// WriteFLAGS handles $4010: IRQ enable, loop, frequency index.
func (dc *dmcChannel) WriteFLAGS(_, val uint8) {
	dc.irqEnabled = (val & 0x80) == 0x80
	dc.loop = (val & 0x40) == 0x40
	dc.timer.period = dc.periods[val&0x0F] - 1

	if !dc.irqEnabled {
		dc.cpu.Interrupt(hwdefs.DMC, false)
	}

	log.ModSound.DebugZ("write dmc flags").
		Uint8("reg", val).
		Bool("irq", dc.irqEnabled).
		Bool("loop", dc.loop).
		Uint16("period", dc.timer.period).
		End()
}

// WriteLOAD handles $4011, direct load of the output level.
func (dc *dmcChannel) WriteLOAD(_, val uint8) {
	dc.outlvl = val & 0x7F

	// The new level is output right away, not on the next timer clock.
	dc.timer.addOutput(int8(dc.outlvl))

	log.ModSound.DebugZ("write dmc load").
		Uint8("reg", val).
		Uint8("level", dc.outlvl).
		End()
}

// WriteSAMPLEADDR handles $4012: sample address is $C000 + $40*val.
func (dc *dmcChannel) WriteSAMPLEADDR(_, val uint8) {
	dc.sampleAddr = 0xC000 | uint16(val)<<6

	log.ModSound.DebugZ("write dmc sample address").
		Uint8("reg", val).
		Hex16("addr", dc.sampleAddr).
		End()
}

// WriteSAMPLELEN handles $4013: sample length is $10*val + 1 bytes.
func (dc *dmcChannel) WriteSAMPLELEN(_, val uint8) {
	dc.sampleLen = uint16(val)<<4 | 0x1

	log.ModSound.DebugZ("write dmc sample length").
		Uint8("reg", val).
		Uint16("len", dc.sampleLen).
		End()
}

func (dc *dmcChannel) startTransfer() {
	if dc.bufEmpty && dc.remaining > 0 {
		dc.cpu.RequestHold(hwdefs.HoldDMC)
	}
}

// CurrentAddress returns the address of the next sample byte.
func (dc *dmcChannel) CurrentAddress() uint16 {
	return dc.curaddr
}

// Fetch reads the next sample byte with read and fills the sample buffer.
// It's called by the CPU DMA unit once the CPU has been halted.
func (dc *dmcChannel) Fetch(read func(addr uint16) uint8) {
	if dc.remaining == 0 {
		return
	}

	dc.readbuf = read(dc.curaddr)
	dc.bufEmpty = false

	log.ModSound.DebugZ("dmc fetch").
		Hex16("addr", dc.curaddr).
		Hex8("val", dc.readbuf).
		End()

	// Address wraps around to $8000, not $0000.
	dc.curaddr++
	if dc.curaddr == 0 {
		dc.curaddr = 0x8000
	}

	dc.remaining--
	if dc.remaining == 0 {
		switch {
		case dc.loop:
			// Looping never raises the IRQ.
			dc.initSample()
		case dc.irqEnabled:
			dc.cpu.Interrupt(hwdefs.DMC, true)
		}
	}
}

func (dc *dmcChannel) tick() {
	dc.processClock()

	if !dc.timer.tick() {
		return
	}

	if !dc.silence {
		if dc.shiftReg&0x01 != 0 {
			if dc.outlvl <= 125 {
				dc.outlvl += 2
			}
		} else if dc.outlvl >= 2 {
			dc.outlvl -= 2
		}
		dc.shiftReg >>= 1
	}

	dc.bitsLeft--
	if dc.bitsLeft == 0 {
		dc.bitsLeft = 8
		if dc.bufEmpty {
			dc.silence = true
		} else {
			dc.silence = false
			dc.shiftReg = dc.readbuf
			dc.bufEmpty = true
			dc.startTransfer()
		}
	}

	dc.timer.addOutput(int8(dc.outlvl))
}

func (dc *dmcChannel) processClock() {
	if dc.disableDelay != 0 {
		dc.disableDelay--
		if dc.disableDelay == 0 {
			dc.remaining = 0
			// Abort any transfer that hasn't started yet.
			dc.cpu.CancelHold(hwdefs.HoldDMC)
		}
	}

	if dc.startDelay != 0 {
		dc.startDelay--
		if dc.startDelay == 0 {
			dc.startTransfer()
		}
	}
}

func (dc *dmcChannel) setEnabled(enabled bool) {
	if !enabled {
		if dc.disableDelay == 0 {
			// Disabling takes effect after 1 APU cycle. A DMA starting
			// during this window is cancelled, though it still halts the
			// CPU for a cycle.
			if dc.cpu.CurrentCycle()&0x01 == 0 {
				dc.disableDelay = 2
			} else {
				dc.disableDelay = 3
			}
		}
	} else if dc.remaining == 0 {
		dc.initSample()

		// Transfer start delay depends on cycle parity.
		if dc.cpu.CurrentCycle()&0x01 == 0 {
			dc.startDelay = 2
		} else {
			dc.startDelay = 3
		}
	}
}

func (dc *dmcChannel) status() bool  { return dc.remaining > 0 }
func (dc *dmcChannel) Output() uint8 { return uint8(dc.timer.lastOutput) }
