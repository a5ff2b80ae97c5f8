package hwio

import "testing"

func TestBitsetRanges(t *testing.T) {
	tests := []struct {
		start, end uint
	}{
		{0, 1},
		{0, 64},
		{3, 9},
		{60, 70},
		{63, 65},
		{0x6000, 0x8000},
		{0x7FF0, NumBits},
		{0, NumBits},
	}
	for _, tt := range tests {
		var b Bitset
		b.SetRange(tt.start, tt.end)
		for i := uint(0); i < NumBits; i++ {
			want := i >= tt.start && i < tt.end
			if b.Test(i) != want {
				t.Fatalf("SetRange(%d, %d): Test(%d) = %t, want %t", tt.start, tt.end, i, !want, want)
			}
		}

		b.ClearRange(tt.start, tt.end)
		for i := uint(0); i < NumBits; i++ {
			if b.Test(i) {
				t.Fatalf("ClearRange(%d, %d): bit %d still set", tt.start, tt.end, i)
			}
		}
	}
}

func TestBitsetClearInside(t *testing.T) {
	var b Bitset
	b.SetRange(0, 0x200)
	b.ClearRange(0x40, 0x141)

	for _, i := range []uint{0, 0x3F, 0x141, 0x1FF} {
		if !b.Test(i) {
			t.Errorf("bit %#x cleared", i)
		}
	}
	for _, i := range []uint{0x40, 0x100, 0x140} {
		if b.Test(i) {
			t.Errorf("bit %#x set", i)
		}
	}

	b.Reset()
	if b.Test(0) {
		t.Errorf("bit 0 set after Reset")
	}
}

func TestBitsetInvalidRange(t *testing.T) {
	for _, r := range [][2]uint{{5, 5}, {6, 5}, {0, NumBits + 1}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("SetRange(%d, %d) didn't panic", r[0], r[1])
				}
			}()
			var b Bitset
			b.SetRange(r[0], r[1])
		}()
	}
}
