package hwio

import "testing"

func TestReg8(t *testing.T) {
	r := Reg8{Value: 0x11, RoMask: 0xF0}

	if got := r.Read8(0, false); got != 0x11 {
		t.Errorf("invalid read: %x", got)
	}
	if got := r.Read8(9999, false); got != 0x11 {
		t.Errorf("invalid read with offset: %x", got)
	}

	r.Write8(0, 0x77)
	if r.Value != 0x17 {
		t.Errorf("writemask not respected: %x", r.Value)
	}
	r.Write8(9999, 0x88)
	if r.Value != 0x18 {
		t.Errorf("writemask with offset not respected: %x", r.Value)
	}
}

func TestReg8Callbacks(t *testing.T) {
	var reads, writes int
	r := Reg8{
		Value:   0x20,
		ReadCb:  func(val uint8) uint8 { reads++; return val | 1 },
		WriteCb: func(old, val uint8) { writes++ },
	}

	if got := r.Read8(0, true); got != 0x20 {
		t.Errorf("peek = %02x, want 0x20", got)
	}
	if reads != 0 {
		t.Errorf("peek invoked the read callback")
	}
	if got := r.Read8(0, false); got != 0x21 {
		t.Errorf("read = %02x, want 0x21", got)
	}
	r.Write8(0, 0x33)
	if reads != 1 || writes != 1 {
		t.Errorf("reads=%d writes=%d, want 1 and 1", reads, writes)
	}

	wo := Reg8{Value: 0x44, Flags: WriteOnlyFlag}
	if got := wo.Read8(0, false); got != 0 {
		t.Errorf("writeonly read = %02x, want 0", got)
	}
}
