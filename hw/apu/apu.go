// Package apu implements the 2A03 audio processing unit: two pulse channels,
// a triangle channel, a noise channel, the delta modulation channel, the frame
// sequencer and the mixer.
package apu

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/hwio"
)

// APU is clocked once per CPU cycle.
type APU struct {
	cpu    cpu
	mixer  *Mixer
	region hwdefs.Region

	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel
	DMC      dmcChannel

	frameCounter frameCounter

	cycle uint32 // cycle in the current audio frame

	STATUS hwio.Reg8 `hwio:"offset=0x15,pcb,rcb,wcb"`
}

// New creates an APU attached to the given cpu. If mixer is nil, a mixer
// dropping all samples is used.
func New(cpu cpu, mixer *Mixer, region hwdefs.Region) *APU {
	if mixer == nil {
		mixer = NewMixer(uint32(region.CPUClock()), 44100, nil)
	}
	a := &APU{
		cpu:    cpu,
		mixer:  mixer,
		region: region,
	}
	a.Square1 = newSquareChannel(a, Square1)
	a.Square2 = newSquareChannel(a, Square2)
	a.Triangle = newTriangleChannel(a)
	a.Noise = newNoiseChannel(a)
	a.DMC = newDMC(a)
	a.frameCounter.init(a)

	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.Square1)
	hwio.MustInitRegs(&a.Square2)
	hwio.MustInitRegs(&a.Triangle)
	hwio.MustInitRegs(&a.Noise)
	hwio.MustInitRegs(&a.DMC)
	return a
}

// MapBus maps the APU registers at $4000-$4015. $4017 is shared with the
// second input port, see WriteFrameCounter.
func (a *APU) MapBus(bus *hwio.Table) {
	bus.MapBank(0x4000, &a.Square1, 0)
	bus.MapBank(0x4004, &a.Square2, 0)
	bus.MapBank(0x4000, &a.Triangle, 0)
	bus.MapBank(0x4000, &a.Noise, 0)
	bus.MapBank(0x4000, &a.DMC, 0)
	bus.MapBank(0x4000, a, 0)
}

// Status returns the $4015 status bits without side effects.
func (a *APU) Status() uint8 {
	var status uint8

	if a.Square1.status() {
		status |= 0x01
	}
	if a.Square2.status() {
		status |= 0x02
	}
	if a.Triangle.status() {
		status |= 0x04
	}
	if a.Noise.status() {
		status |= 0x08
	}
	if a.DMC.status() {
		status |= 0x10
	}
	if a.cpu.HasIRQSource(hwdefs.FrameCounter) {
		status |= 0x40
	}
	if a.cpu.HasIRQSource(hwdefs.DMC) {
		status |= 0x80
	}
	return status
}

// STATUS: $4015
func (a *APU) PeekSTATUS(_ uint8) uint8 {
	return a.Status()
}

func (a *APU) ReadSTATUS(_ uint8) uint8 {
	status := a.Status()

	// Reading $4015 clears the frame interrupt flag.
	a.cpu.Interrupt(hwdefs.FrameCounter, false)

	log.ModSound.DebugZ("read status").Hex8("status", status).End()
	return status
}

func (a *APU) WriteSTATUS(_, val uint8) {
	log.ModSound.DebugZ("write status").Hex8("reg", val).End()

	// The DMC interrupt flag is cleared before enabling the DMC, which may
	// raise it again.
	a.cpu.Interrupt(hwdefs.DMC, false)

	a.Square1.setEnabled(val&0x01 != 0)
	a.Square2.setEnabled(val&0x02 != 0)
	a.Triangle.setEnabled(val&0x04 != 0)
	a.Noise.setEnabled(val&0x08 != 0)
	a.DMC.setEnabled(val&0x10 != 0)
}

// WriteFrameCounter handles writes to $4017.
func (a *APU) WriteFrameCounter(_, val uint8) {
	a.frameCounter.write(val)
}

func (a *APU) clockFrame(ftyp frameType) {
	if ftyp == noFrame {
		return
	}

	a.Square1.quarterFrame()
	a.Square2.quarterFrame()
	a.Triangle.quarterFrame()
	a.Noise.quarterFrame()

	if ftyp == halfFrame {
		a.Square1.halfFrame()
		a.Square2.halfFrame()
		a.Triangle.halfFrame()
		a.Noise.halfFrame()
	}
}

func (a *APU) Reset(soft bool) {
	a.cycle = 0
	a.mixer.Reset()

	a.Square1.reset(soft)
	a.Square2.reset(soft)
	a.Triangle.reset(soft)
	a.Noise.reset(soft)
	a.DMC.reset(soft)
	a.frameCounter.reset(soft)
}

// Tick runs the APU for one CPU cycle.
func (a *APU) Tick() {
	a.cycle++

	a.frameCounter.tick()

	// Length counters loaded by a register write are reloaded after the
	// frame counter ran, so that a length clock in the same cycle wins.
	a.Square1.reloadLengthCounter()
	a.Square2.reloadLengthCounter()
	a.Triangle.reloadLengthCounter()
	a.Noise.reloadLengthCounter()

	a.Square1.tick()
	a.Square2.tick()
	a.Triangle.tick()
	a.Noise.tick()
	a.DMC.tick()

	if a.cycle == cycleLength {
		a.endFrame()
	}
}

func (a *APU) endFrame() {
	a.mixer.endFrame(a.cycle)
	a.cycle = 0
}

// Flush ends the current audio frame early, sending pending samples to the
// sink.
func (a *APU) Flush() {
	if a.cycle > 0 {
		a.endFrame()
	}
}

// Err returns the first audio sink error, if any.
func (a *APU) Err() error { return a.mixer.Err() }

// Outputs returns the current output of each channel.
func (a *APU) Outputs() [hwdefs.NumAudioChannels]uint8 {
	return [hwdefs.NumAudioChannels]uint8{
		a.Square1.Output(),
		a.Square2.Output(),
		a.Triangle.Output(),
		a.Noise.Output(),
		a.DMC.Output(),
	}
}
