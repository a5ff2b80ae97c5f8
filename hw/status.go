package hw

// P is the processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Unused
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p *P) setFlags(flags uint8) {
	*p |= P(flags)
}

func (p *P) clearFlags(flags uint8) {
	*p &^= P(flags)
}

func (p P) hasFlag(flag uint8) bool {
	return uint8(p)&flag == flag
}

// setFlag sets or clears flag according to cond.
func (p *P) setFlag(flag uint8, cond bool) {
	if cond {
		p.setFlags(flag)
	} else {
		p.clearFlags(flag)
	}
}

// checkNZ updates the zero and negative flags from val.
func (p *P) checkNZ(val uint8) {
	p.setFlag(Zero, val == 0)
	p.setFlag(Negative, val&0x80 != 0)
}

func (p P) intDisable() bool {
	return p.hasFlag(Interrupt)
}

func (p P) carry() uint8 {
	return uint8(p) & Carry
}
