package hw

type addrMode uint8

const (
	imp addrMode = iota // implied
	acc                 // accumulator
	imm                 // immediate
	zpg                 // zero page
	zpx                 // zero page indexed X
	zpy                 // zero page indexed Y
	abs                 // absolute
	abx                 // absolute indexed X
	aby                 // absolute indexed Y
	ind                 // indirect (JMP)
	izx                 // indexed indirect (zp,X)
	izy                 // indirect indexed (zp),Y
	rel                 // relative (branches)
)

var addrModeNames = [...]string{"imp", "acc", "imm", "zpg", "zpx", "zpy", "abs", "abx", "aby", "ind", "izx", "izy", "rel"}

func (m addrMode) String() string { return addrModeNames[m] }

// size returns the number of bytes of an instruction using this mode.
func (m addrMode) size() int {
	switch m {
	case imp, acc:
		return 1
	case abs, abx, aby, ind:
		return 3
	}
	return 2
}

func (c *CPU) fetch8() uint8 {
	val := c.Read8(c.PC)
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

// dummyRead reads at PC without incrementing it.
func (c *CPU) dummyRead() {
	_ = c.Read8(c.PC)
}

func pageCrossed(a, b uint16) bool {
	return (a^b)&0xFF00 != 0
}

// zpRead16 reads a 16-bit pointer from the zero page, wrapping at 8 bits.
func (c *CPU) zpRead16(ptr uint8) uint16 {
	lo := c.Read8(uint16(ptr))
	hi := c.Read8(uint16(ptr + 1))
	return uint16(hi)<<8 | uint16(lo)
}

// operand computes the effective address of the current instruction. Indexed
// modes read at the address before the high byte correction when a page is
// crossed, or always when dummy is true (stores and read-modify-write).
func (c *CPU) operand(m addrMode, dummy bool) uint16 {
	switch m {
	case zpg:
		return uint16(c.fetch8())
	case zpx:
		return c.zpIndexed(c.X)
	case zpy:
		return c.zpIndexed(c.Y)
	case abs:
		return c.fetch16()
	case abx:
		return c.indexed(c.fetch16(), c.X, dummy)
	case aby:
		return c.indexed(c.fetch16(), c.Y, dummy)
	case izx:
		ptr := c.fetch8()
		_ = c.Read8(uint16(ptr)) // dummy read
		return c.zpRead16(ptr + c.X)
	case izy:
		return c.indexed(c.zpRead16(c.fetch8()), c.Y, dummy)
	case ind:
		ptr := c.fetch16()
		lo := c.Read8(ptr)
		// The high byte is read from the same page.
		hi := c.Read8(ptr&0xFF00 | uint16(uint8(ptr)+1))
		return uint16(hi)<<8 | uint16(lo)
	}
	panic("no effective address for mode " + m.String())
}

func (c *CPU) zpIndexed(idx uint8) uint16 {
	base := c.fetch8()
	_ = c.Read8(uint16(base)) // dummy read
	return uint16(base + idx)
}

func (c *CPU) indexed(base uint16, idx uint8, dummy bool) uint16 {
	addr := base + uint16(idx)
	if dummy || pageCrossed(base, addr) {
		_ = c.Read8(base&0xFF00 | addr&0x00FF)
	}
	return addr
}

// load returns the operand value of a read instruction.
func (c *CPU) load(m addrMode) uint8 {
	if m == imm {
		return c.fetch8()
	}
	return c.Read8(c.operand(m, false))
}
