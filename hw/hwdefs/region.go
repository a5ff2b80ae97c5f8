package hwdefs

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Region -trimprefix=Region

// Region selects the console timings.
type Region uint8

const (
	NTSC Region = iota
	PAL
	Dendy
)

// ParseRegion parses a case-insensitive region name.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(s) {
	case "ntsc", "":
		return NTSC, nil
	case "pal":
		return PAL, nil
	case "dendy":
		return Dendy, nil
	}
	return NTSC, fmt.Errorf("unknown region %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler, for config files.
func (r *Region) UnmarshalText(text []byte) error {
	reg, err := ParseRegion(string(text))
	if err != nil {
		return err
	}
	*r = reg
	return nil
}

func (r Region) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(r.String())), nil
}

type timings struct {
	masterClock  int64
	cpuDivider   int64
	cpuClock     int64
	frameCycles  int64
	framesPerSec float64

	// Frame sequencer step lengths, in CPU cycles. Each entry is the number
	// of cycles between the previous step and this one.
	seqMode0 [6]int32
	seqMode1 [4]int32

	noisePeriods [16]uint16
	dmcPeriods   [16]uint16
}

var ntscNoisePeriods = [16]uint16{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}
var palNoisePeriods = [16]uint16{4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778}

var ntscDMCPeriods = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}
var palDMCPeriods = [16]uint16{398, 354, 316, 298, 276, 236, 210, 198, 176, 148, 132, 118, 98, 78, 66, 50}

var regions = [...]timings{
	NTSC: {
		masterClock:  21477272,
		cpuDivider:   12,
		cpuClock:     1789773,
		frameCycles:  29781,
		framesPerSec: 60.0988,
		seqMode0:     [6]int32{7457, 7456, 7458, 7457, 1, 1},
		seqMode1:     [4]int32{14910, 7457, 7456, 7458},
		noisePeriods: ntscNoisePeriods,
		dmcPeriods:   ntscDMCPeriods,
	},
	PAL: {
		masterClock:  26601712,
		cpuDivider:   16,
		cpuClock:     1662607,
		frameCycles:  33248,
		framesPerSec: 50.0070,
		seqMode0:     [6]int32{8313, 8314, 8312, 8313, 1, 1},
		seqMode1:     [4]int32{16626, 8313, 8314, 8312},
		noisePeriods: palNoisePeriods,
		dmcPeriods:   palDMCPeriods,
	},
	Dendy: {
		masterClock:  26601712,
		cpuDivider:   15,
		cpuClock:     1773448,
		frameCycles:  35464,
		framesPerSec: 50.0070,
		seqMode0:     [6]int32{7457, 7456, 7458, 7457, 1, 1},
		seqMode1:     [4]int32{14910, 7457, 7456, 7458},
		noisePeriods: ntscNoisePeriods,
		dmcPeriods:   ntscDMCPeriods,
	},
}

func (r Region) t() *timings {
	if int(r) >= len(regions) {
		return &regions[NTSC]
	}
	return &regions[r]
}

func (r Region) MasterClock() int64 { return r.t().masterClock }

// CPUDivider is the number of master clock cycles per CPU cycle.
func (r Region) CPUDivider() int64 { return r.t().cpuDivider }

// CPUClock is the CPU clock rate in Hz.
func (r Region) CPUClock() int64 { return r.t().cpuClock }

// FrameCycles is the approximate number of CPU cycles per video frame.
func (r Region) FrameCycles() int64 { return r.t().frameCycles }

func (r Region) FrameRate() float64 { return r.t().framesPerSec }

// SequenceMode0 returns the 4-step frame sequencer step lengths.
func (r Region) SequenceMode0() [6]int32 { return r.t().seqMode0 }

// SequenceMode1 returns the 5-step frame sequencer step lengths.
func (r Region) SequenceMode1() [4]int32 { return r.t().seqMode1 }

func (r Region) NoisePeriods() *[16]uint16 { return &r.t().noisePeriods }
func (r Region) DMCPeriods() *[16]uint16   { return &r.t().dmcPeriods }
