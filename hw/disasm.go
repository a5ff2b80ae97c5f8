package hw

import (
	"fmt"

	"rp2a03/hw/hwio"
)

// Disasm disassembles the instruction at pc, without side effects. Memory
// operands are shown with their current value, nestest style.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	bus := c.Bus
	opcode := bus.Peek8(pc)
	op := &opcodes[opcode]

	dis := DisasmOp{PC: pc, Opcode: op.name}
	if op.illegal {
		dis.Opcode = "*" + op.name
	}
	for i := range op.mode.size() {
		dis.Buf = append(dis.Buf, bus.Peek8(pc+uint16(i)))
	}

	oper8 := bus.Peek8(pc + 1)
	oper16 := hwio.Peek16(bus, pc+1)
	zpr16 := func(ptr uint8) uint16 {
		return uint16(bus.Peek8(uint16(ptr+1)))<<8 | uint16(bus.Peek8(uint16(ptr)))
	}

	switch op.mode {
	case imp:
	case acc:
		dis.Oper = "A"
	case imm:
		dis.Oper = fmt.Sprintf("#$%02X", oper8)
	case zpg:
		dis.Oper = fmt.Sprintf("$%02X = %02X", oper8, bus.Peek8(uint16(oper8)))
	case zpx, zpy:
		idx, reg := c.X, 'X'
		if op.mode == zpy {
			idx, reg = c.Y, 'Y'
		}
		addr := oper8 + idx
		dis.Oper = fmt.Sprintf("$%02X,%c @ %02X = %02X", oper8, reg, addr, bus.Peek8(uint16(addr)))
	case abs:
		if op.name == "JMP" || op.name == "JSR" {
			dis.Oper = fmt.Sprintf("$%04X", oper16)
		} else {
			dis.Oper = fmt.Sprintf("$%04X = %02X", oper16, bus.Peek8(oper16))
		}
	case abx, aby:
		idx, reg := c.X, 'X'
		if op.mode == aby {
			idx, reg = c.Y, 'Y'
		}
		addr := oper16 + uint16(idx)
		dis.Oper = fmt.Sprintf("$%04X,%c @ %04X = %02X", oper16, reg, addr, bus.Peek8(addr))
	case ind:
		lo := bus.Peek8(oper16)
		hi := bus.Peek8(oper16&0xFF00 | uint16(uint8(oper16)+1))
		dis.Oper = fmt.Sprintf("($%04X) = %04X", oper16, uint16(hi)<<8|uint16(lo))
	case izx:
		ptr := oper8 + c.X
		addr := zpr16(ptr)
		dis.Oper = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", oper8, ptr, addr, bus.Peek8(addr))
	case izy:
		base := zpr16(oper8)
		addr := base + uint16(c.Y)
		dis.Oper = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", oper8, base, addr, bus.Peek8(addr))
	case rel:
		target := pc + 2 + uint16(int16(int8(oper8)))
		dis.Oper = fmt.Sprintf("$%04X", target)
	}
	return dis
}
