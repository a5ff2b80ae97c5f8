package hwio

import "rp2a03/emu/log"

// A Device is a range of addresses served by callbacks, for memory areas that
// don't fit in a plain buffer (mirrored or banked images for example). The
// callbacks receive the absolute bus address.
type Device struct {
	Name  string
	Size  int
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	PeekCb  func(addr uint16) uint8
	WriteCb func(addr uint16, val uint8)
}

// Read8 implements BankIO8. Reading a device without the matching callback
// returns 0.
func (d *Device) Read8(addr uint16, peek bool) uint8 {
	cb := d.ReadCb
	if peek {
		cb = d.PeekCb
	} else if d.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.DebugZ("read from writeonly device").
			String("dev", d.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	if cb == nil {
		return 0
	}
	return cb(addr)
}

// Write8 implements BankIO8. Writes to a readonly device are dropped.
func (d *Device) Write8(addr uint16, val uint8) {
	if d.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("write to readonly device").
			String("dev", d.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	if d.WriteCb != nil {
		d.WriteCb(addr, val)
	}
}
