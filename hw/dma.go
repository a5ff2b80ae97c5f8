package hw

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwio"
)

// DMA is the 2A03 DMA unit. It halts the CPU (RDY low) on its next read
// cycle to either copy a page of memory to $2004 (OAM DMA) or fetch the
// next DMC sample byte.
type DMA struct {
	cpu *CPU

	needHalt bool
	// Transfers only read on even (get) cycles. A dummy cycle is used, when
	// necessary, to align the transfer.
	dummy bool

	dmcRunning bool
	abortDMC   bool

	OAMDMA     hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	oamPage    uint8
	oamRunning bool
}

// Ports which read side effects are hidden during DMA halt cycles.
func isInputPort(addr uint16) bool { return addr == 0x4016 || addr == 0x4017 }

// Internal registers of the 2A03, see dmaRead.
func isInternalReg(addr uint16) bool { return addr&0xFFE0 == 0x4000 }

func (dma *DMA) initBus(cpu *CPU) {
	hwio.MustInitRegs(dma)
	dma.cpu = cpu
	dma.reset()
}

func (dma *DMA) reset() {
	dma.oamPage = 0x00
	dma.dummy = true
	dma.needHalt = false
	dma.oamRunning = false
	dma.dmcRunning = false
	dma.abortDMC = false
}

// WriteOAMDMA handles $4014: copy page val to OAM.
func (dma *DMA) WriteOAMDMA(_, val uint8) {
	dma.startOAMTransfer(val)
}

func (dma *DMA) startOAMTransfer(page uint8) {
	log.ModDMA.DebugZ("start OAM DMA transfer").Hex8("page", page).End()
	dma.oamPage = page
	dma.oamRunning = true
	dma.needHalt = true
}

func (dma *DMA) startDMCTransfer() {
	log.ModDMA.DebugZ("start DMC DMA transfer").End()
	dma.dmcRunning = true
	dma.dummy = true
	dma.needHalt = true
}

func (dma *DMA) stopDMCTransfer() {
	if !dma.dmcRunning {
		return
	}
	log.ModDMA.DebugZ("stop DMC DMA transfer").Bool("halted", !dma.needHalt).End()
	if dma.needHalt {
		// Not halted yet (i.e a write cycle delayed the halt): cancel the
		// transfer altogether.
		dma.dmcRunning = false
		dma.dummy = false
		dma.needHalt = false
	} else {
		// Only possible on the first cycle of the transfer.
		dma.abortDMC = true
	}
}

// transfer holds the state of a DMA transfer, from the halted CPU read to the
// moment it's released.
type transfer struct {
	dma  *DMA
	addr uint16 // address of the halted CPU read

	internal   bool // halted read is on an internal register
	skipDummy  bool // halt and dummy cycles don't touch the bus
	prevAddr   uint16
	oamCounter int
	oamAddr    uint8
	val        uint8
}

// processPending runs pending DMA transfers, if any. addr is the address the
// CPU is about to read from: the CPU keeps putting it on the bus while halted
// so halt, dummy and alignment cycles are reads from that address. On the
// input ports, only the first of these reads has visible side effects.
func (dma *DMA) processPending(addr uint16) {
	if !dma.needHalt {
		return
	}
	dma.needHalt = false

	cpu := dma.cpu
	t := transfer{
		dma:       dma,
		addr:      addr,
		internal:  isInternalReg(addr),
		skipDummy: isInputPort(addr),
		prevAddr:  addr,
	}

	// DMC reading the same input port as the CPU: the controller only sees
	// one read as /OE stays active the whole time.
	hideFirst := dma.dmcRunning && isInputPort(addr) &&
		cpu.APU.DMC.CurrentAddress()&0x1F == addr&0x1F

	// Halt cycle.
	cpu.cycleBegin()
	if !(dma.abortDMC && isInputPort(addr)) && !hideFirst {
		cpu.Bus.Read8(addr, false)
	}
	cpu.cycleEnd()

	if dma.abortDMC {
		dma.dmcRunning = false
		dma.abortDMC = false
		if !dma.oamRunning {
			dma.dummy = false
			return
		}
	}

	for dma.dmcRunning || dma.oamRunning {
		if cpu.Cycles&0x01 == 0 {
			t.getCycle()
		} else {
			t.putCycle()
		}
	}
}

// begins a DMA cycle. Sprite DMA cycles count as halt/dummy cycles for the
// DMC DMA when both run at the same time.
func (t *transfer) begin() {
	dma := t.dma
	switch {
	case dma.abortDMC:
		dma.dmcRunning = false
		dma.abortDMC = false
		dma.dummy = false
		dma.needHalt = false
	case dma.needHalt:
		dma.needHalt = false
	case dma.dummy:
		dma.dummy = false
	}
	dma.cpu.cycleBegin()
}

func (t *transfer) idleRead() {
	if !t.skipDummy {
		t.dma.cpu.Bus.Read8(t.addr, false)
	}
}

func (t *transfer) getCycle() {
	dma := t.dma
	cpu := dma.cpu
	switch {
	case dma.dmcRunning && !dma.needHalt && !dma.dummy:
		// DMC has performed both halt and dummy cycles, read the sample.
		t.begin()
		cpu.APU.DMC.Fetch(func(addr uint16) uint8 {
			var val uint8
			val, t.prevAddr = dma.read(addr, t.prevAddr, t.internal)
			return val
		})
		cpu.cycleEnd()
		dma.dmcRunning = false
		dma.abortDMC = false

	case dma.oamRunning:
		t.begin()
		addr := uint16(dma.oamPage)<<8 | uint16(t.oamAddr)
		t.val, t.prevAddr = dma.read(addr, t.prevAddr, t.internal)
		cpu.cycleEnd()
		t.oamAddr++
		t.oamCounter++

	default:
		// DMC not ready yet and no sprite DMA.
		t.begin()
		t.idleRead()
		cpu.cycleEnd()
	}
}

func (t *transfer) putCycle() {
	dma := t.dma
	cpu := dma.cpu
	if dma.oamRunning && t.oamCounter&0x01 != 0 {
		// Write the byte read on the previous cycle.
		t.begin()
		cpu.Bus.Write8(0x2004, t.val)
		cpu.cycleEnd()
		t.oamCounter++
		if t.oamCounter == 0x200 {
			dma.oamRunning = false
		}
		return
	}

	// Alignment cycle.
	t.begin()
	t.idleRead()
	cpu.cycleEnd()
}

// read performs a DMA read of addr. When the CPU was halted while reading an
// internal register ($4000-$401F), the 2A03 also reads that register, which
// may clear the frame IRQ ($4015), delete controller bits ($4016/$4017) or
// corrupt the byte being transferred.
func (dma *DMA) read(addr, prevAddr uint16, internal bool) (uint8, uint16) {
	bus := dma.cpu.Bus
	if !internal {
		if isInternalReg(addr) {
			// Nothing responds on $4000-$401F on the external bus.
			return uint8(addr >> 8), addr
		}
		return bus.Read8(addr, false), addr
	}

	reg := 0x4000 | addr&0x1F
	external := reg != addr

	var val uint8
	switch reg {
	case 0x4015:
		val = bus.Read8(reg, false)
		if external {
			bus.Read8(addr, false)
		}

	case 0x4016, 0x4017:
		if prevAddr == reg {
			// Same port twice in a row: the controller doesn't see a
			// second read.
			val = uint8(reg >> 8)
		} else {
			val = bus.Read8(reg, false)
		}

		if external {
			// Bus conflict: keep the external value for open bus pins, AND
			// all other bits together.
			const openbusMask = uint8(0xE0)
			ext := bus.Read8(addr, false)
			val = ext&openbusMask | val&ext&^openbusMask
		}

	default:
		val = bus.Read8(addr, false)
	}

	return val, reg
}
