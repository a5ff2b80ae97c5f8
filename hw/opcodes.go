package hw

import "rp2a03/emu/log"

// opdef describes one of the 256 opcodes. exec runs all the cycles of the
// instruction, past the opcode fetch.
type opdef struct {
	name    string
	mode    addrMode
	illegal bool
	exec    func(c *CPU, m addrMode)
}

func legal(name string, m addrMode, exec func(*CPU, addrMode)) opdef {
	return opdef{name: name, mode: m, exec: exec}
}

func undoc(name string, m addrMode, exec func(*CPU, addrMode)) opdef {
	return opdef{name: name, mode: m, illegal: true, exec: exec}
}

// Base number of cycles per opcode. Reads with indexed addressing (abx, aby,
// izy) take one more cycle when crossing a page, taken branches take one more
// cycle, plus one if crossing a page.
var baseCycles = [256]uint8{
	//0 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	7, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 4, 4, 6, 6, // 0
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 1
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 4, 4, 6, 6, // 2
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 3
	6, 6, 2, 8, 3, 3, 5, 5, 3, 2, 2, 2, 3, 4, 6, 6, // 4
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 5
	6, 6, 2, 8, 3, 3, 5, 5, 4, 2, 2, 2, 5, 4, 6, 6, // 6
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 7
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4, // 8
	2, 6, 2, 6, 4, 4, 4, 4, 2, 5, 2, 5, 5, 5, 5, 5, // 9
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4, // A
	2, 5, 2, 5, 4, 4, 4, 4, 2, 4, 2, 4, 4, 4, 4, 4, // B
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6, // C
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // D
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6, // E
	2, 5, 2, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // F
}

var opcodes = [256]opdef{
	0x00: legal("BRK", imp, brk),
	0x01: legal("ORA", izx, rd(ora)),
	0x02: undoc("JAM", imp, jam),
	0x03: undoc("SLO", izx, rmw(slo)),
	0x04: undoc("NOP", zpg, rd(nopr)),
	0x05: legal("ORA", zpg, rd(ora)),
	0x06: legal("ASL", zpg, rmw(asl)),
	0x07: undoc("SLO", zpg, rmw(slo)),
	0x08: legal("PHP", imp, php),
	0x09: legal("ORA", imm, rd(ora)),
	0x0A: legal("ASL", acc, rmw(asl)),
	0x0B: undoc("ANC", imm, rd(anc)),
	0x0C: undoc("NOP", abs, rd(nopr)),
	0x0D: legal("ORA", abs, rd(ora)),
	0x0E: legal("ASL", abs, rmw(asl)),
	0x0F: undoc("SLO", abs, rmw(slo)),
	0x10: legal("BPL", rel, branch(Negative, false)),
	0x11: legal("ORA", izy, rd(ora)),
	0x12: undoc("JAM", imp, jam),
	0x13: undoc("SLO", izy, rmw(slo)),
	0x14: undoc("NOP", zpx, rd(nopr)),
	0x15: legal("ORA", zpx, rd(ora)),
	0x16: legal("ASL", zpx, rmw(asl)),
	0x17: undoc("SLO", zpx, rmw(slo)),
	0x18: legal("CLC", imp, impl(clc)),
	0x19: legal("ORA", aby, rd(ora)),
	0x1A: undoc("NOP", imp, impl(nop)),
	0x1B: undoc("SLO", aby, rmw(slo)),
	0x1C: undoc("NOP", abx, rd(nopr)),
	0x1D: legal("ORA", abx, rd(ora)),
	0x1E: legal("ASL", abx, rmw(asl)),
	0x1F: undoc("SLO", abx, rmw(slo)),
	0x20: legal("JSR", abs, jsr),
	0x21: legal("AND", izx, rd(and)),
	0x22: undoc("JAM", imp, jam),
	0x23: undoc("RLA", izx, rmw(rla)),
	0x24: legal("BIT", zpg, rd(bit)),
	0x25: legal("AND", zpg, rd(and)),
	0x26: legal("ROL", zpg, rmw(rol)),
	0x27: undoc("RLA", zpg, rmw(rla)),
	0x28: legal("PLP", imp, plp),
	0x29: legal("AND", imm, rd(and)),
	0x2A: legal("ROL", acc, rmw(rol)),
	0x2B: undoc("ANC", imm, rd(anc)),
	0x2C: legal("BIT", abs, rd(bit)),
	0x2D: legal("AND", abs, rd(and)),
	0x2E: legal("ROL", abs, rmw(rol)),
	0x2F: undoc("RLA", abs, rmw(rla)),
	0x30: legal("BMI", rel, branch(Negative, true)),
	0x31: legal("AND", izy, rd(and)),
	0x32: undoc("JAM", imp, jam),
	0x33: undoc("RLA", izy, rmw(rla)),
	0x34: undoc("NOP", zpx, rd(nopr)),
	0x35: legal("AND", zpx, rd(and)),
	0x36: legal("ROL", zpx, rmw(rol)),
	0x37: undoc("RLA", zpx, rmw(rla)),
	0x38: legal("SEC", imp, impl(sec)),
	0x39: legal("AND", aby, rd(and)),
	0x3A: undoc("NOP", imp, impl(nop)),
	0x3B: undoc("RLA", aby, rmw(rla)),
	0x3C: undoc("NOP", abx, rd(nopr)),
	0x3D: legal("AND", abx, rd(and)),
	0x3E: legal("ROL", abx, rmw(rol)),
	0x3F: undoc("RLA", abx, rmw(rla)),
	0x40: legal("RTI", imp, rti),
	0x41: legal("EOR", izx, rd(eor)),
	0x42: undoc("JAM", imp, jam),
	0x43: undoc("SRE", izx, rmw(sre)),
	0x44: undoc("NOP", zpg, rd(nopr)),
	0x45: legal("EOR", zpg, rd(eor)),
	0x46: legal("LSR", zpg, rmw(lsr)),
	0x47: undoc("SRE", zpg, rmw(sre)),
	0x48: legal("PHA", imp, pha),
	0x49: legal("EOR", imm, rd(eor)),
	0x4A: legal("LSR", acc, rmw(lsr)),
	0x4B: undoc("ALR", imm, rd(alr)),
	0x4C: legal("JMP", abs, jmp),
	0x4D: legal("EOR", abs, rd(eor)),
	0x4E: legal("LSR", abs, rmw(lsr)),
	0x4F: undoc("SRE", abs, rmw(sre)),
	0x50: legal("BVC", rel, branch(Overflow, false)),
	0x51: legal("EOR", izy, rd(eor)),
	0x52: undoc("JAM", imp, jam),
	0x53: undoc("SRE", izy, rmw(sre)),
	0x54: undoc("NOP", zpx, rd(nopr)),
	0x55: legal("EOR", zpx, rd(eor)),
	0x56: legal("LSR", zpx, rmw(lsr)),
	0x57: undoc("SRE", zpx, rmw(sre)),
	0x58: legal("CLI", imp, impl(cli)),
	0x59: legal("EOR", aby, rd(eor)),
	0x5A: undoc("NOP", imp, impl(nop)),
	0x5B: undoc("SRE", aby, rmw(sre)),
	0x5C: undoc("NOP", abx, rd(nopr)),
	0x5D: legal("EOR", abx, rd(eor)),
	0x5E: legal("LSR", abx, rmw(lsr)),
	0x5F: undoc("SRE", abx, rmw(sre)),
	0x60: legal("RTS", imp, rts),
	0x61: legal("ADC", izx, rd(adc)),
	0x62: undoc("JAM", imp, jam),
	0x63: undoc("RRA", izx, rmw(rra)),
	0x64: undoc("NOP", zpg, rd(nopr)),
	0x65: legal("ADC", zpg, rd(adc)),
	0x66: legal("ROR", zpg, rmw(ror)),
	0x67: undoc("RRA", zpg, rmw(rra)),
	0x68: legal("PLA", imp, pla),
	0x69: legal("ADC", imm, rd(adc)),
	0x6A: legal("ROR", acc, rmw(ror)),
	0x6B: undoc("ARR", imm, rd(arr)),
	0x6C: legal("JMP", ind, jmp),
	0x6D: legal("ADC", abs, rd(adc)),
	0x6E: legal("ROR", abs, rmw(ror)),
	0x6F: undoc("RRA", abs, rmw(rra)),
	0x70: legal("BVS", rel, branch(Overflow, true)),
	0x71: legal("ADC", izy, rd(adc)),
	0x72: undoc("JAM", imp, jam),
	0x73: undoc("RRA", izy, rmw(rra)),
	0x74: undoc("NOP", zpx, rd(nopr)),
	0x75: legal("ADC", zpx, rd(adc)),
	0x76: legal("ROR", zpx, rmw(ror)),
	0x77: undoc("RRA", zpx, rmw(rra)),
	0x78: legal("SEI", imp, impl(sei)),
	0x79: legal("ADC", aby, rd(adc)),
	0x7A: undoc("NOP", imp, impl(nop)),
	0x7B: undoc("RRA", aby, rmw(rra)),
	0x7C: undoc("NOP", abx, rd(nopr)),
	0x7D: legal("ADC", abx, rd(adc)),
	0x7E: legal("ROR", abx, rmw(ror)),
	0x7F: undoc("RRA", abx, rmw(rra)),
	0x80: undoc("NOP", imm, rd(nopr)),
	0x81: legal("STA", izx, st(sta)),
	0x82: undoc("NOP", imm, rd(nopr)),
	0x83: undoc("SAX", izx, st(sax)),
	0x84: legal("STY", zpg, st(sty)),
	0x85: legal("STA", zpg, st(sta)),
	0x86: legal("STX", zpg, st(stx)),
	0x87: undoc("SAX", zpg, st(sax)),
	0x88: legal("DEY", imp, impl(dey)),
	0x89: undoc("NOP", imm, rd(nopr)),
	0x8A: legal("TXA", imp, impl(txa)),
	0x8B: undoc("ANE", imm, rd(ane)),
	0x8C: legal("STY", abs, st(sty)),
	0x8D: legal("STA", abs, st(sta)),
	0x8E: legal("STX", abs, st(stx)),
	0x8F: undoc("SAX", abs, st(sax)),
	0x90: legal("BCC", rel, branch(Carry, false)),
	0x91: legal("STA", izy, st(sta)),
	0x92: undoc("JAM", imp, jam),
	0x93: undoc("SHA", izy, shaIzy),
	0x94: legal("STY", zpx, st(sty)),
	0x95: legal("STA", zpx, st(sta)),
	0x96: legal("STX", zpy, st(stx)),
	0x97: undoc("SAX", zpy, st(sax)),
	0x98: legal("TYA", imp, impl(tya)),
	0x99: legal("STA", aby, st(sta)),
	0x9A: legal("TXS", imp, impl(txs)),
	0x9B: undoc("TAS", aby, tas),
	0x9C: undoc("SHY", abx, shy),
	0x9D: legal("STA", abx, st(sta)),
	0x9E: undoc("SHX", aby, shx),
	0x9F: undoc("SHA", aby, shaAby),
	0xA0: legal("LDY", imm, rd(ldy)),
	0xA1: legal("LDA", izx, rd(lda)),
	0xA2: legal("LDX", imm, rd(ldx)),
	0xA3: undoc("LAX", izx, rd(lax)),
	0xA4: legal("LDY", zpg, rd(ldy)),
	0xA5: legal("LDA", zpg, rd(lda)),
	0xA6: legal("LDX", zpg, rd(ldx)),
	0xA7: undoc("LAX", zpg, rd(lax)),
	0xA8: legal("TAY", imp, impl(tay)),
	0xA9: legal("LDA", imm, rd(lda)),
	0xAA: legal("TAX", imp, impl(tax)),
	0xAB: undoc("LXA", imm, rd(lxa)),
	0xAC: legal("LDY", abs, rd(ldy)),
	0xAD: legal("LDA", abs, rd(lda)),
	0xAE: legal("LDX", abs, rd(ldx)),
	0xAF: undoc("LAX", abs, rd(lax)),
	0xB0: legal("BCS", rel, branch(Carry, true)),
	0xB1: legal("LDA", izy, rd(lda)),
	0xB2: undoc("JAM", imp, jam),
	0xB3: undoc("LAX", izy, rd(lax)),
	0xB4: legal("LDY", zpx, rd(ldy)),
	0xB5: legal("LDA", zpx, rd(lda)),
	0xB6: legal("LDX", zpy, rd(ldx)),
	0xB7: undoc("LAX", zpy, rd(lax)),
	0xB8: legal("CLV", imp, impl(clv)),
	0xB9: legal("LDA", aby, rd(lda)),
	0xBA: legal("TSX", imp, impl(tsx)),
	0xBB: undoc("LAS", aby, rd(las)),
	0xBC: legal("LDY", abx, rd(ldy)),
	0xBD: legal("LDA", abx, rd(lda)),
	0xBE: legal("LDX", aby, rd(ldx)),
	0xBF: undoc("LAX", aby, rd(lax)),
	0xC0: legal("CPY", imm, rd(cpy)),
	0xC1: legal("CMP", izx, rd(cpa)),
	0xC2: undoc("NOP", imm, rd(nopr)),
	0xC3: undoc("DCP", izx, rmw(dcp)),
	0xC4: legal("CPY", zpg, rd(cpy)),
	0xC5: legal("CMP", zpg, rd(cpa)),
	0xC6: legal("DEC", zpg, rmw(dec)),
	0xC7: undoc("DCP", zpg, rmw(dcp)),
	0xC8: legal("INY", imp, impl(iny)),
	0xC9: legal("CMP", imm, rd(cpa)),
	0xCA: legal("DEX", imp, impl(dex)),
	0xCB: undoc("SBX", imm, rd(sbx)),
	0xCC: legal("CPY", abs, rd(cpy)),
	0xCD: legal("CMP", abs, rd(cpa)),
	0xCE: legal("DEC", abs, rmw(dec)),
	0xCF: undoc("DCP", abs, rmw(dcp)),
	0xD0: legal("BNE", rel, branch(Zero, false)),
	0xD1: legal("CMP", izy, rd(cpa)),
	0xD2: undoc("JAM", imp, jam),
	0xD3: undoc("DCP", izy, rmw(dcp)),
	0xD4: undoc("NOP", zpx, rd(nopr)),
	0xD5: legal("CMP", zpx, rd(cpa)),
	0xD6: legal("DEC", zpx, rmw(dec)),
	0xD7: undoc("DCP", zpx, rmw(dcp)),
	0xD8: legal("CLD", imp, impl(cld)),
	0xD9: legal("CMP", aby, rd(cpa)),
	0xDA: undoc("NOP", imp, impl(nop)),
	0xDB: undoc("DCP", aby, rmw(dcp)),
	0xDC: undoc("NOP", abx, rd(nopr)),
	0xDD: legal("CMP", abx, rd(cpa)),
	0xDE: legal("DEC", abx, rmw(dec)),
	0xDF: undoc("DCP", abx, rmw(dcp)),
	0xE0: legal("CPX", imm, rd(cpx)),
	0xE1: legal("SBC", izx, rd(sbc)),
	0xE2: undoc("NOP", imm, rd(nopr)),
	0xE3: undoc("ISC", izx, rmw(isc)),
	0xE4: legal("CPX", zpg, rd(cpx)),
	0xE5: legal("SBC", zpg, rd(sbc)),
	0xE6: legal("INC", zpg, rmw(inc)),
	0xE7: undoc("ISC", zpg, rmw(isc)),
	0xE8: legal("INX", imp, impl(inx)),
	0xE9: legal("SBC", imm, rd(sbc)),
	0xEA: legal("NOP", imp, impl(nop)),
	0xEB: undoc("SBC", imm, rd(sbc)),
	0xEC: legal("CPX", abs, rd(cpx)),
	0xED: legal("SBC", abs, rd(sbc)),
	0xEE: legal("INC", abs, rmw(inc)),
	0xEF: undoc("ISC", abs, rmw(isc)),
	0xF0: legal("BEQ", rel, branch(Zero, true)),
	0xF1: legal("SBC", izy, rd(sbc)),
	0xF2: undoc("JAM", imp, jam),
	0xF3: undoc("ISC", izy, rmw(isc)),
	0xF4: undoc("NOP", zpx, rd(nopr)),
	0xF5: legal("SBC", zpx, rd(sbc)),
	0xF6: legal("INC", zpx, rmw(inc)),
	0xF7: undoc("ISC", zpx, rmw(isc)),
	0xF8: legal("SED", imp, impl(sed)),
	0xF9: legal("SBC", aby, rd(sbc)),
	0xFA: undoc("NOP", imp, impl(nop)),
	0xFB: undoc("ISC", aby, rmw(isc)),
	0xFC: undoc("NOP", abx, rd(nopr)),
	0xFD: legal("SBC", abx, rd(sbc)),
	0xFE: legal("INC", abx, rmw(inc)),
	0xFF: undoc("ISC", abx, rmw(isc)),
}

// Opcode describes an opcode of the 2A03.
type Opcode struct {
	Code    uint8
	Name    string
	Mode    string
	Size    int
	Cycles  int // base cycles
	Illegal bool
}

// Opcodes returns the description of all 256 opcodes, in opcode order.
func Opcodes() []Opcode {
	ops := make([]Opcode, len(opcodes))
	for i, op := range opcodes {
		ops[i] = Opcode{
			Code:    uint8(i),
			Name:    op.name,
			Mode:    op.mode.String(),
			Size:    op.mode.size(),
			Cycles:  int(baseCycles[i]),
			Illegal: op.illegal,
		}
	}
	return ops
}

/* instruction shapes */

// rd wraps an instruction reading its operand.
func rd(f func(*CPU, uint8)) func(*CPU, addrMode) {
	return func(c *CPU, m addrMode) { f(c, c.load(m)) }
}

// st wraps an instruction storing a value into memory.
func st(f func(*CPU) uint8) func(*CPU, addrMode) {
	return func(c *CPU, m addrMode) {
		addr := c.operand(m, true)
		c.Write8(addr, f(c))
	}
}

// rmw wraps a read-modify-write instruction. On memory, the unmodified value
// is written back before the result.
func rmw(f func(*CPU, uint8) uint8) func(*CPU, addrMode) {
	return func(c *CPU, m addrMode) {
		if m == acc {
			c.dummyRead()
			c.A = f(c, c.A)
			return
		}
		addr := c.operand(m, true)
		val := c.Read8(addr)
		c.Write8(addr, val) // dummy write
		c.Write8(addr, f(c, val))
	}
}

// impl wraps an implied-mode instruction.
func impl(f func(*CPU)) func(*CPU, addrMode) {
	return func(c *CPU, _ addrMode) {
		c.dummyRead()
		f(c)
	}
}

/* loads, logic and arithmetic */

func lda(c *CPU, val uint8) { c.A = val; c.P.checkNZ(c.A) }
func ldx(c *CPU, val uint8) { c.X = val; c.P.checkNZ(c.X) }
func ldy(c *CPU, val uint8) { c.Y = val; c.P.checkNZ(c.Y) }
func lax(c *CPU, val uint8) { c.A = val; c.X = val; c.P.checkNZ(val) }
func ora(c *CPU, val uint8) { c.A |= val; c.P.checkNZ(c.A) }
func and(c *CPU, val uint8) { c.A &= val; c.P.checkNZ(c.A) }
func eor(c *CPU, val uint8) { c.A ^= val; c.P.checkNZ(c.A) }
func adc(c *CPU, val uint8) { c.add(val) }
func sbc(c *CPU, val uint8) { c.add(^val) }
func cpa(c *CPU, val uint8) { c.compare(c.A, val) }
func cpx(c *CPU, val uint8) { c.compare(c.X, val) }
func cpy(c *CPU, val uint8) { c.compare(c.Y, val) }
func nopr(*CPU, uint8)      {}

func bit(c *CPU, val uint8) {
	c.P.setFlag(Zero, c.A&val == 0)
	c.P.setFlag(Overflow, val&0x40 != 0)
	c.P.setFlag(Negative, val&0x80 != 0)
}

// add adds val and the carry to the accumulator. Overflow is set when the
// carry into bit 7 differs from the carry out of bit 7.
func (c *CPU) add(val uint8) {
	carry := uint16(c.P.carry())
	sum := uint16(c.A) + uint16(val) + carry
	c6 := (uint16(c.A&0x7F) + uint16(val&0x7F) + carry) >> 7
	c7 := sum >> 8
	c.P.setFlag(Carry, c7 != 0)
	c.P.setFlag(Overflow, c6 != c7)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func (c *CPU) compare(reg, val uint8) {
	c.P.setFlag(Carry, reg >= val)
	c.P.checkNZ(reg - val)
}

func anc(c *CPU, val uint8) {
	and(c, val)
	c.P.setFlag(Carry, c.A&0x80 != 0)
}

func alr(c *CPU, val uint8) {
	c.A &= val
	c.P.setFlag(Carry, c.A&0x01 != 0)
	c.A >>= 1
	c.P.checkNZ(c.A)
}

func arr(c *CPU, val uint8) {
	c.A = (c.A&val)>>1 | c.P.carry()<<7
	c.P.checkNZ(c.A)
	c.P.setFlag(Carry, c.A&0x40 != 0)
	c.P.setFlag(Overflow, (c.A>>6^c.A>>5)&0x01 != 0)
}

// ANE and LXA are unstable, the magic constants match most 2A03s.
func ane(c *CPU, val uint8) {
	c.A = (c.A | 0xEE) & c.X & val
	c.P.checkNZ(c.A)
}

func lxa(c *CPU, val uint8) {
	c.A = (c.A | 0xFF) & val
	c.X = c.A
	c.P.checkNZ(c.A)
}

func sbx(c *CPU, val uint8) {
	ax := c.A & c.X
	c.P.setFlag(Carry, ax >= val)
	c.X = ax - val
	c.P.checkNZ(c.X)
}

func las(c *CPU, val uint8) {
	c.A = c.SP & val
	c.X = c.A
	c.SP = c.A
	c.P.checkNZ(c.A)
}

/* stores */

func sta(c *CPU) uint8 { return c.A }
func stx(c *CPU) uint8 { return c.X }
func sty(c *CPU) uint8 { return c.Y }
func sax(c *CPU) uint8 { return c.A & c.X }

// sh performs the unstable store of SHA, SHX, SHY and TAS: val is and-ed with
// the high byte of base plus one, and on page crossing, the high byte of the
// target address is and-ed with val.
func (c *CPU) sh(base uint16, idx, val uint8) {
	addr := base + uint16(idx)
	_ = c.Read8(base&0xFF00 | addr&0x00FF) // dummy read
	hi := uint8(addr >> 8)
	if pageCrossed(base, addr) {
		hi &= val
	}
	c.Write8(uint16(hi)<<8|addr&0x00FF, val&(uint8(base>>8)+1))
}

func shaIzy(c *CPU, _ addrMode) { c.sh(c.zpRead16(c.fetch8()), c.Y, c.A&c.X) }
func shaAby(c *CPU, _ addrMode) { c.sh(c.fetch16(), c.Y, c.A&c.X) }
func shx(c *CPU, _ addrMode)    { c.sh(c.fetch16(), c.Y, c.X) }
func shy(c *CPU, _ addrMode)    { c.sh(c.fetch16(), c.X, c.Y) }

func tas(c *CPU, _ addrMode) {
	base := c.fetch16()
	c.SP = c.A & c.X
	c.sh(base, c.Y, c.SP)
}

/* read-modify-write */

func asl(c *CPU, val uint8) uint8 {
	c.P.setFlag(Carry, val&0x80 != 0)
	val <<= 1
	c.P.checkNZ(val)
	return val
}

func lsr(c *CPU, val uint8) uint8 {
	c.P.setFlag(Carry, val&0x01 != 0)
	val >>= 1
	c.P.checkNZ(val)
	return val
}

func rol(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.setFlag(Carry, val&0x80 != 0)
	val = val<<1 | carry
	c.P.checkNZ(val)
	return val
}

func ror(c *CPU, val uint8) uint8 {
	carry := c.P.carry()
	c.P.setFlag(Carry, val&0x01 != 0)
	val = val>>1 | carry<<7
	c.P.checkNZ(val)
	return val
}

func inc(c *CPU, val uint8) uint8 { val++; c.P.checkNZ(val); return val }
func dec(c *CPU, val uint8) uint8 { val--; c.P.checkNZ(val); return val }
func slo(c *CPU, val uint8) uint8 { val = asl(c, val); ora(c, val); return val }
func rla(c *CPU, val uint8) uint8 { val = rol(c, val); and(c, val); return val }
func sre(c *CPU, val uint8) uint8 { val = lsr(c, val); eor(c, val); return val }
func rra(c *CPU, val uint8) uint8 { val = ror(c, val); adc(c, val); return val }
func dcp(c *CPU, val uint8) uint8 { val = dec(c, val); cpa(c, val); return val }
func isc(c *CPU, val uint8) uint8 { val = inc(c, val); sbc(c, val); return val }

/* implied */

func nop(*CPU)   {}
func clc(c *CPU) { c.P.clearFlags(Carry) }
func sec(c *CPU) { c.P.setFlags(Carry) }
func cli(c *CPU) { c.P.clearFlags(Interrupt) }
func sei(c *CPU) { c.P.setFlags(Interrupt) }
func clv(c *CPU) { c.P.clearFlags(Overflow) }
func cld(c *CPU) { c.P.clearFlags(Decimal) }
func sed(c *CPU) { c.P.setFlags(Decimal) }
func tax(c *CPU) { c.X = c.A; c.P.checkNZ(c.X) }
func tay(c *CPU) { c.Y = c.A; c.P.checkNZ(c.Y) }
func txa(c *CPU) { c.A = c.X; c.P.checkNZ(c.A) }
func tya(c *CPU) { c.A = c.Y; c.P.checkNZ(c.A) }
func tsx(c *CPU) { c.X = c.SP; c.P.checkNZ(c.X) }
func txs(c *CPU) { c.SP = c.X }
func inx(c *CPU) { c.X++; c.P.checkNZ(c.X) }
func iny(c *CPU) { c.Y++; c.P.checkNZ(c.Y) }
func dex(c *CPU) { c.X--; c.P.checkNZ(c.X) }
func dey(c *CPU) { c.Y--; c.P.checkNZ(c.Y) }

/* stack */

func pha(c *CPU, _ addrMode) {
	c.dummyRead()
	c.push8(c.A)
}

func php(c *CPU, _ addrMode) {
	c.dummyRead()
	c.push8(uint8(c.P | Break | Unused))
}

func pla(c *CPU, _ addrMode) {
	c.dummyRead()
	c.stackRead()
	c.A = c.pull8()
	c.P.checkNZ(c.A)
}

// Bits 4 and 5 don't exist in the status register, pulling it keeps them.
const plpMask = 0b11001111

func plp(c *CPU, _ addrMode) {
	c.dummyRead()
	c.stackRead()
	c.P = c.P&^plpMask | P(c.pull8()&plpMask)
}

/* control flow */

func jmp(c *CPU, m addrMode) {
	c.PC = c.operand(m, false)
}

func jsr(c *CPU, _ addrMode) {
	lo := c.fetch8()
	c.stackRead()
	// PC points to the high byte of the target.
	c.push16(c.PC)
	hi := c.Read8(c.PC)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

func rts(c *CPU, _ addrMode) {
	c.dummyRead()
	c.stackRead()
	c.PC = c.pull16()
	c.fetch8()
}

func rti(c *CPU, _ addrMode) {
	c.dummyRead()
	c.stackRead()
	c.P = c.P&^plpMask | P(c.pull8()&plpMask)
	c.PC = c.pull16()
}

func brk(c *CPU, _ addrMode) {
	c.fetch8() // padding byte

	c.push16(c.PC)

	p := c.P | Break | Unused
	nmi := c.needNmi
	c.push8(uint8(p))
	c.P.setFlags(Interrupt)
	if nmi {
		// NMI hijacks BRK.
		c.needNmi = false
		c.PC = c.Read16(NMIVector)
	} else {
		c.PC = c.Read16(IRQVector)
	}

	// The first instruction of the handler always runs before an NMI.
	c.prevNeedNmi = false
}

// branch returns a conditional branch instruction, taken when flag is set (or
// clear when set is false).
func branch(flag uint8, set bool) func(*CPU, addrMode) {
	return func(c *CPU, _ addrMode) {
		off := int8(c.fetch8())
		if c.P.hasFlag(flag) != set {
			return
		}

		// A taken branch not crossing a page delays IRQ by one instruction,
		// NMI isn't affected.
		if c.runIRQ && !c.prevRunIRQ {
			c.runIRQ = false
		}
		c.dummyRead()

		target := c.PC + uint16(int16(off))
		if pageCrossed(c.PC, target) {
			_ = c.Read8(c.PC&0xFF00 | target&0x00FF)
		}
		c.PC = target
	}
}

// jam locks the CPU up: the opcode keeps being fetched again.
func jam(c *CPU, _ addrMode) {
	c.dummyRead()
	c.PC--
	if !c.jammed {
		c.jammed = true
		log.ModCPU.WarnZ("CPU jammed").
			Hex16("PC", c.PC).
			Hex8("opcode", c.Bus.Peek8(c.PC)).
			End()
	}
}
