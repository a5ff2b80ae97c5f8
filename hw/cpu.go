package hw

import (
	"io"

	"rp2a03/emu/log"
	"rp2a03/hw/apu"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// CPU is the 2A03 CPU core. It drives the whole machine: every bus access
// runs one CPU cycle, which ticks the APU and the board.
type CPU struct {
	Bus *hwio.Table

	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	APU   *apu.APU
	DMA   DMA
	board Board
	input InputPorts

	// Non-nil when execution tracing is enabled.
	tracer *tracer

	Cycles int64 // CPU cycles
	Steps  int64 // executed instructions

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// interrupt handling
	nmiFlag, prevNmiFlag bool
	needNmi, prevNeedNmi bool
	runIRQ, prevRunIRQ   bool
	irqFlag              hwdefs.IRQSource

	jammed bool
}

// NewCPU creates a CPU at power-up state, along with its APU, and maps the
// whole bus. mixer and board can be nil.
func NewCPU(region hwdefs.Region, mixer *apu.Mixer, board Board) *CPU {
	cpu := &CPU{
		Bus:   hwio.NewTable("cpu"),
		SP:    0xFD,
		P:     Unused | Interrupt,
		board: board,
	}
	cpu.APU = apu.New(cpu, mixer, region)
	cpu.initBus()
	return cpu
}

func (c *CPU) initBus() {
	hwio.MustInitRegs(c)
	// CPU internal RAM, mirrored.
	c.Bus.MapBank(0x0000, c, 0)

	c.DMA.initBus(c)
	c.Bus.MapBank(0x4014, &c.DMA, 0)

	c.APU.MapBus(c.Bus)

	c.input.initBus()
	c.Bus.MapBank(0x4000, &c.input, 0)

	reg4017 := &reg4017{
		Read:  c.input.ReadOUT,
		Peek:  c.input.PeekOUT,
		Write: c.APU.WriteFrameCounter,
	}
	hwio.MustInitRegs(reg4017)
	c.Bus.MapBank(0x4017, reg4017, 0)

	if c.board != nil {
		c.board.MapBus(c.Bus, c)
	}
}

// Used to disambiguate between:
// - read 0x4017 -> reads controller state (OUT register)
// - write 0x4017 -> writes to APU frame counter.
type reg4017 struct {
	Reg   hwio.Reg8 `hwio:"offset=0,pcb,rcb,wcb"`
	Write func(old, val uint8)
	Read  func(old uint8) uint8
	Peek  func(old uint8) uint8
}

func (r *reg4017) WriteREG(old, val uint8) { r.Write(old, val) }
func (r *reg4017) ReadREG(old uint8) uint8 { return r.Read(old) }
func (r *reg4017) PeekREG(old uint8) uint8 { return r.Peek(old) }

// PlugInputDevice connects dev to the input ports. dev may be nil.
func (c *CPU) PlugInputDevice(dev InputDevice) {
	c.input.dev = dev
}

// Reset performs a soft (reset button) or hard (power cycle) reset. The
// program counter is loaded from the reset vector, then the CPU burns the 8
// cycles of the reset sequence.
func (c *CPU) Reset(soft bool) {
	if soft {
		c.SP -= 0x03
		c.P.setFlags(Interrupt)
		c.irqFlag &^= hwdefs.FrameCounter | hwdefs.DMC
	} else {
		c.A = 0x00
		c.X = 0x00
		c.Y = 0x00
		c.SP = 0xFD
		c.P = Unused | Interrupt
		c.irqFlag = 0
	}

	c.runIRQ, c.prevRunIRQ = false, false
	c.needNmi, c.prevNeedNmi = false, false
	c.nmiFlag, c.prevNmiFlag = false, false
	c.jammed = false

	c.Cycles = -1
	c.Steps = 0
	c.DMA.reset()
	c.input.reset()
	c.APU.Reset(soft)

	// Directly read from the bus to avoid side effects.
	c.PC = hwio.Read16(c.Bus, ResetVector)

	log.ModCPU.InfoZ("reset").
		Bool("soft", soft).
		Hex16("PC", c.PC).
		End()

	for range 8 {
		c.cycleBegin()
		c.cycleEnd()
	}
}

// Step executes exactly one instruction, then services a pending interrupt
// if any. A jammed CPU keeps executing the same JAM opcode.
func (c *CPU) Step() {
	if c.tracer != nil {
		c.traceOp()
	}

	opcode := c.Read8(c.PC)
	c.PC++
	op := &opcodes[opcode]
	op.exec(c, op.mode)
	c.Steps++

	if c.jammed {
		return
	}
	if c.prevRunIRQ || c.prevNeedNmi {
		c.IRQ()
	}
}

// Run executes instructions for at least ncycles CPU cycles. It returns early
// if the CPU gets jammed.
func (c *CPU) Run(ncycles int64) {
	until := c.Cycles + ncycles
	for c.Cycles < until {
		c.Step()
		if c.jammed {
			break
		}
	}
}

// IsJammed reports whether the CPU executed a JAM opcode. Only a reset
// brings it back.
func (c *CPU) IsJammed() bool {
	return c.jammed
}

// CurrentCycle returns the number of cycles elapsed since last reset.
func (c *CPU) CurrentCycle() int64 {
	return c.Cycles
}

func (c *CPU) cycleBegin() {
	c.Cycles++
	c.APU.Tick()
	if c.board != nil {
		c.board.Tick()
	}
}

func (c *CPU) cycleEnd() {
	c.handleInterrupts()
}

// Read8 performs a CPU read cycle. Pending DMA transfers halt the CPU
// before the read takes place.
func (c *CPU) Read8(addr uint16) uint8 {
	c.DMA.processPending(addr)
	c.cycleBegin()
	val := c.Bus.Read8(addr, false)
	c.cycleEnd()
	return val
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.cycleBegin()
	c.Bus.Write8(addr, val)
	c.cycleEnd()
}

func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	top := uint16(c.SP) + 0x0100
	c.Write8(top, val)
	c.SP -= 1
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val & 0xff))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	top := uint16(c.SP) + 0x0100
	return c.Read8(top)
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

// dummy read of the top of the stack.
func (c *CPU) stackRead() {
	_ = c.Read8(uint16(c.SP) + 0x0100)
}

/* interrupt handling */

// Interrupt asserts or clears the interrupt line driven by src. NMI is
// latched on its rising edge, other sources are level-triggered.
func (c *CPU) Interrupt(src hwdefs.IRQSource, asserted bool) {
	if src&hwdefs.NMI != 0 {
		c.nmiFlag = asserted
	}
	if lines := src & hwdefs.IRQLines; asserted {
		c.irqFlag |= lines
	} else {
		c.irqFlag &^= lines
	}
}

// HasIRQSource reports whether src currently asserts the IRQ line.
func (c *CPU) HasIRQSource(src hwdefs.IRQSource) bool {
	return c.irqFlag&src != 0
}

// RequestHold asks the CPU to halt for a DMA transfer.
func (c *CPU) RequestHold(kind hwdefs.HoldKind) {
	switch kind {
	case hwdefs.HoldDMC:
		c.DMA.startDMCTransfer()
	case hwdefs.HoldOAM:
		c.DMA.startOAMTransfer(c.DMA.oamPage)
	}
}

// CancelHold cancels a pending DMA transfer, if possible.
func (c *CPU) CancelHold(kind hwdefs.HoldKind) {
	if kind == hwdefs.HoldDMC {
		c.DMA.stopDMCTransfer()
	}
}

func (c *CPU) handleInterrupts() {
	// The internal signal goes high during φ1 of the cycle that follows the one
	// where the edge is detected and stays high until the NMI has been handled.
	c.prevNeedNmi = c.needNmi

	// This edge detector polls the status of the NMI line during φ2 of each CPU
	// cycle (i.e. during the second half of each cycle) and raises an internal
	// signal if the input goes from being high during one cycle to being low
	// during the next.
	if !c.prevNmiFlag && c.nmiFlag {
		c.needNmi = true
	}
	c.prevNmiFlag = c.nmiFlag

	// It's really the status of the interrupt lines at the end of the
	// second-to-last cycle that matters. Keep the IRQ lines values from the
	// previous cycle. The before-to-last cycle's values will be used.
	c.prevRunIRQ = c.runIRQ
	c.runIRQ = c.irqFlag != 0 && !c.P.intDisable()
}

// IRQ runs the 7 cycles interrupt sequence. An NMI detected while the
// program counter is being pushed hijacks the sequence.
func (c *CPU) IRQ() {
	c.dummyRead()
	c.dummyRead()

	prevpc := c.PC
	c.push16(c.PC)

	p := (c.P | Unused) &^ Break
	nmi := c.needNmi
	c.push8(uint8(p))
	c.P.setFlags(Interrupt)
	if nmi {
		c.needNmi = false
		c.PC = c.Read16(NMIVector)
	} else {
		c.PC = c.Read16(IRQVector)
	}

	log.ModCPU.DebugZ("interrupt").
		Bool("nmi", nmi).
		Hex16("from", prevpc).
		Hex16("to", c.PC).
		End()
}

/* tracing / debugging */

// SetTraceOutput enables the execution trace, one line per instruction
// written to w. A nil w disables it.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) traceOp() {
	c.tracer.write(cpuState{
		A:     c.A,
		X:     c.X,
		Y:     c.Y,
		P:     c.P,
		SP:    c.SP,
		Clock: c.Cycles,
		PC:    c.PC,
	})
}
