package hwio

import (
	"fmt"

	"rp2a03/emu/log"
)

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

// Peek16 is Read16 without side effects.
func Peek16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, true)
	hi := b.Read8(addr+1, true)
	return uint16(hi)<<8 | uint16(lo)
}

// OpenBus is the default handler of unmapped addresses: reads return the high
// byte of the address, the last value driven on the data bus by the operand
// fetch of an absolute access. Writes are ignored.
type OpenBus struct{}

func (OpenBus) Read8(addr uint16, _ bool) uint8 { return uint8(addr >> 8) }
func (OpenBus) Write8(uint16, uint8)            {}

// Table dispatches 8-bit accesses over the whole 64K address space.
type Table struct {
	Name string

	// Unmapped handles accesses to addresses with no device. Defaults to
	// OpenBus.
	Unmapped BankIO8

	table8 [0x10000]BankIO8
	mapped Bitset
}

func NewTable(name string) *Table {
	t := &Table{Name: name}
	t.Reset()
	return t
}

func (t *Table) Reset() {
	clear(t.table8[:])
	t.mapped.Reset()
	t.Unmapped = OpenBus{}
}

// Map a register bank (that is, a structure containing multiple Reg8, Mem or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
//
// Mapping over an already mapped address replaces the previous device.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.VSize-1))
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint16(r.Size-1))
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > len(t.table8) {
		panic(fmt.Errorf("%s: invalid mapping at %04X (size %d)", t.Name, addr, size))
	}
	for i := range size {
		t.table8[int(addr)+i] = io
	}
	t.mapped.SetRange(uint(addr), uint(addr)+uint(size))
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, io *Device) {
	t.mapBus8(addr, io.Size, io)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.VSize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}
	t.mapBus8(addr, vsize, mem.BankIO8())
}

func (t *Table) MapMemorySlice(addr, end uint16, mem []uint8, readonly bool) {
	log.ModHwIo.DebugZ("mapping slice").
		Hex16("addr", addr).
		Hex16("end", end).
		String("bus", t.Name).
		Bool("ro", readonly).
		End()

	var flags RWFlags
	if readonly {
		flags = ReadOnlyFlag
	}
	t.MapMem(addr, &Mem{
		Data:  mem,
		Flags: flags,
		VSize: int(end-addr) + 1,
	})
}

func (t *Table) Unmap(begin, end uint16) {
	for i := int(begin); i <= int(end); i++ {
		t.table8[i] = nil
	}
	t.mapped.ClearRange(uint(begin), uint(end)+1)
}

// IsMapped reports whether a device is mapped at addr.
func (t *Table) IsMapped(addr uint16) bool {
	return t.mapped.Test(uint(addr))
}

// Read8 searches in the table for the device mapped at the given address and
// forward the read to it. If peek is true, the read has no side effects.
func (t *Table) Read8(addr uint16, peek bool) uint8 {
	io := t.table8[addr]
	if io == nil {
		return t.Unmapped.Read8(addr, peek)
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint16) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8[addr]
	if io == nil {
		t.Unmapped.Write8(addr, val)
		return
	}
	io.Write8(addr, val)
}
