package hw

import (
	"bytes"
	"fmt"

	"rp2a03/emu/log"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/hwio"
)

// Interrupter drives CPU interrupt lines.
type Interrupter interface {
	Interrupt(src hwdefs.IRQSource, asserted bool)
}

// A Board is the hardware on the other side of the cartridge connector: PPU,
// mapper, memory chips.
type Board interface {
	// MapBus maps the board devices on the CPU bus. irq drives the NMI and
	// board IRQ lines.
	MapBus(bus *hwio.Table, irq Interrupter)

	// Tick is called once per CPU cycle, before the CPU bus access.
	Tick()
}

// ProgramBoard is a flat board without PPU: 8K of PRG-RAM at $6000-$7FFF and
// a program image mirrored over $8000-$FFFF.
type ProgramBoard struct {
	PRGRAM hwio.Mem    `hwio:"offset=0x6000,size=0x2000"`
	ROM    hwio.Device `hwio:"offset=0x8000,size=0x8000,rcb,pcb,readonly"`

	// NMIEvery, if positive, pulses the NMI line every NMIEvery CPU cycles,
	// standing in for the PPU vblank NMI.
	NMIEvery int64

	prg    []byte
	prgmsk uint16
	irq    Interrupter
	cycles int64
	nmi    bool
}

// Program image sizes accepted by NewProgramBoard.
const (
	MinProgramSize = 0x100
	MaxProgramSize = 0x8000
)

// NewProgramBoard creates a board with prg mapped at $8000. The image size
// must be a power of 2 between MinProgramSize and MaxProgramSize.
func NewProgramBoard(prg []byte) (*ProgramBoard, error) {
	n := len(prg)
	if n < MinProgramSize || n > MaxProgramSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("invalid program size %d: must be a power of 2 in [%d, %d]", n, MinProgramSize, MaxProgramSize)
	}

	b := &ProgramBoard{prg: prg, prgmsk: uint16(n - 1)}
	hwio.MustInitRegs(b)
	return b, nil
}

func (b *ProgramBoard) MapBus(bus *hwio.Table, irq Interrupter) {
	b.irq = irq
	bus.MapBank(0x0000, b, 0)
}

// ROM reads, the image is mirrored over the whole $8000-$FFFF range.
func (b *ProgramBoard) ReadROM(addr uint16) uint8 { return b.prg[addr&b.prgmsk] }
func (b *ProgramBoard) PeekROM(addr uint16) uint8 { return b.prg[addr&b.prgmsk] }

func (b *ProgramBoard) Tick() {
	if b.NMIEvery <= 0 {
		return
	}
	if b.nmi {
		b.irq.Interrupt(hwdefs.NMI, false)
		b.nmi = false
	}
	b.cycles++
	if b.cycles >= b.NMIEvery {
		b.cycles = 0
		b.irq.Interrupt(hwdefs.NMI, true)
		b.nmi = true
	}
}

// Test status values at $6000.
const (
	TestRunning    = 0x80
	TestNeedsReset = 0x81
)

var testSignature = []byte{0xDE, 0xB0, 0x61}

// TestStatus returns the status of a test program writing its results in
// PRG-RAM: status byte at $6000, signature DE B0 61 at $6001 and a NUL
// terminated text at $6004. ok is false until the signature is written.
func (b *ProgramBoard) TestStatus() (status uint8, text string, ok bool) {
	ram := b.PRGRAM.Data
	if !bytes.Equal(ram[1:4], testSignature) {
		return 0, "", false
	}

	msg := ram[4:]
	if i := bytes.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}
	log.ModEmu.DebugZ("test status").Hex8("status", ram[0]).End()
	return ram[0], string(msg), true
}
