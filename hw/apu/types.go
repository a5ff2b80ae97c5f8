package apu

import "rp2a03/hw/hwdefs"

type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DPCM
)

var channelNames = [hwdefs.NumAudioChannels]string{"square1", "square2", "triangle", "noise", "dmc"}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return "unknown"
}

type mixer interface {
	AddDelta(ch Channel, time uint32, delta int16)
}

// cpu is the set of CPU services used by the APU: interrupt lines, DMA holds
// and the cycle counter (for odd/even cycle dependent timings).
type cpu interface {
	Interrupt(src hwdefs.IRQSource, asserted bool)
	HasIRQSource(src hwdefs.IRQSource) bool
	CurrentCycle() int64
	RequestHold(kind hwdefs.HoldKind)
	CancelHold(kind hwdefs.HoldKind)
}

// lengthTable maps the top 5 bits of a length register write to a length
// counter value.
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}
