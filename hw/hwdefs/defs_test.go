package hwdefs

import "testing"

func TestIRQSourceString(t *testing.T) {
	tests := []struct {
		src  IRQSource
		want string
	}{
		{0, ""},
		{NMI, "nmi"},
		{FrameCounter | DMC, "fcnt|dmc"},
		{IRQLines, "fcnt|dmc|board"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("IRQSource(%d).String() = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRegionTables(t *testing.T) {
	for _, r := range []Region{NTSC, PAL, Dendy} {
		t.Run(r.String(), func(t *testing.T) {
			if got := r.MasterClock() / r.CPUDivider(); got-r.CPUClock() > 1 || r.CPUClock()-got > 1 {
				t.Errorf("master clock / divider = %d, want %d", got, r.CPUClock())
			}

			// 4-step and 5-step sequences run for whole periods.
			var sum0, sum1 int32
			for _, d := range r.SequenceMode0() {
				sum0 += d
			}
			for _, d := range r.SequenceMode1() {
				sum1 += d
			}
			if sum0 <= 0 || sum1 <= sum0 {
				t.Errorf("invalid sequences: mode0=%d mode1=%d", sum0, sum1)
			}

			for i := 1; i < 16; i++ {
				if r.NoisePeriods()[i] <= r.NoisePeriods()[i-1] {
					t.Errorf("noise periods not increasing at %d", i)
				}
				if r.DMCPeriods()[i] >= r.DMCPeriods()[i-1] {
					t.Errorf("dmc periods not decreasing at %d", i)
				}
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	for _, r := range []Region{NTSC, PAL, Dendy} {
		txt, _ := r.MarshalText()
		var got Region
		if err := got.UnmarshalText(txt); err != nil {
			t.Fatal(err)
		}
		if got != r {
			t.Errorf("round trip %v = %v", r, got)
		}
	}
	if _, err := ParseRegion("secam"); err == nil {
		t.Errorf("ParseRegion(secam) succeeded")
	}
}
