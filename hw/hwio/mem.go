package hwio

import "rp2a03/emu/log"

// Mem is a linear memory area, mirrored over VSize bytes when VSize is
// larger than the buffer. Data length must be a power of 2.
//
// Mem is mapped through the BankIO8 returned by BankIO8().
type Mem struct {
	Name  string
	Data  []byte
	VSize int
	Flags RWFlags // only ReadOnlyFlag is supported
}

func (m *Mem) BankIO8() BankIO8 {
	n := len(m.Data)
	if n == 0 || n&(n-1) != 0 {
		panic("hwio: memory size " + m.Name + " is not a power of 2")
	}
	return &memIO{Mem: m, mask: uint16(n - 1)}
}

// memIO serves accesses to a Mem mapped at an address aligned on its size.
type memIO struct {
	*Mem
	mask uint16
}

func (m *memIO) Read8(addr uint16, _ bool) uint8 {
	return m.Data[addr&m.mask]
}

func (m *memIO) Write8(addr uint16, val uint8) {
	if m.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("write to readonly memory").
			String("mem", m.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	m.Data[addr&m.mask] = val
}
