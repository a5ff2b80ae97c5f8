package hwio

import (
	"fmt"
	"strings"

	"rp2a03/emu/log"
)

// RWFlags restricts the accesses to a register, memory area or device.
type RWFlags uint8

const (
	ReadOnlyFlag RWFlags = 1 << iota
	WriteOnlyFlag
)

// Reg8 is an 8-bit memory-mapped register.
//
// A register without read callback reads as its value. Writes store the value,
// except the bits set in RoMask, then call WriteCb with the previous and new
// values.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8
	Flags  RWFlags

	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old, val uint8)
}

func (reg Reg8) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s{%02x", reg.Name, reg.Value)
	for _, cb := range []struct {
		set  bool
		name string
	}{
		{reg.ReadCb != nil, ",r!"},
		{reg.PeekCb != nil, ",p!"},
		{reg.WriteCb != nil, ",w!"},
	} {
		if cb.set {
			sb.WriteString(cb.name)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("write to readonly reg").
			String("reg", reg.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}

	old := reg.Value
	reg.Value = old&reg.RoMask | val&^reg.RoMask
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

// Read8 reads the register. A peek never calls ReadCb, it calls PeekCb if set.
// Writeonly registers read as 0.
func (reg *Reg8) Read8(addr uint16, peek bool) uint8 {
	switch {
	case peek && reg.PeekCb != nil:
		return reg.PeekCb(reg.Value)
	case reg.Flags&WriteOnlyFlag != 0:
		if !peek {
			log.ModHwIo.DebugZ("read from writeonly reg").
				String("reg", reg.Name).
				Hex16("addr", addr).
				End()
		}
		return 0
	case !peek && reg.ReadCb != nil:
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}
