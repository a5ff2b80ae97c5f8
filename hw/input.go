package hw

import (
	"rp2a03/emu/log"
	"rp2a03/hw/hwio"
)

// An InputDevice is a generic interface for NES input devices.
type InputDevice interface {
	// LoadState captures the current state of both input devices.
	LoadState() (uint8, uint8)
}

// InputPorts handles I/O with an InputDevice. $4017 writes belong to the APU
// frame counter, so Out is mapped through reg4017.
type InputPorts struct {
	In hwio.Reg8 `hwio:"offset=0x16,pcb,rcb,wcb"`

	dev InputDevice

	prevStrobe, strobe bool     // to observe strobe falling edge.
	state              [2]uint8 // state shift registers.
}

func (ip *InputPorts) initBus() {
	hwio.MustInitRegs(ip)
	ip.reset()
}

func (ip *InputPorts) reset() {
	ip.prevStrobe = false
	ip.strobe = false
	ip.state = [2]uint8{}
}

func (ip *InputPorts) regval(port uint8, peek bool) uint8 {
	ret := ip.state[port] & 1
	if !peek {
		ip.state[port] >>= 1

		// After 8 bits are read, all subsequent bits report 1 on a standard
		// controller.
		ip.state[port] |= 0x80
	}

	// Bits 5-7 are open bus.
	return 0x40 | ret
}

// capture state of all connected input devices.
func (ip *InputPorts) loadstate() {
	if ip.dev == nil {
		ip.state = [2]uint8{}
		return
	}
	ip.state[0], ip.state[1] = ip.dev.LoadState()
	log.ModInput.DebugZ("load input state").
		Hex8("port1", ip.state[0]).
		Hex8("port2", ip.state[1]).
		End()
}

// In: $4016
func (ip *InputPorts) WriteIN(old, val uint8) {
	ip.prevStrobe = ip.strobe
	ip.strobe = val&1 == 1
	if ip.prevStrobe && !ip.strobe {
		ip.loadstate()
	}
}

func (ip *InputPorts) PeekIN(_ uint8) uint8 { return ip.regval(0, true) }

func (ip *InputPorts) ReadIN(_ uint8) uint8 {
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(0, false)
}

// Out: $4017
func (ip *InputPorts) PeekOUT(_ uint8) uint8 { return ip.regval(1, true) }

func (ip *InputPorts) ReadOUT(_ uint8) uint8 {
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(1, false)
}
