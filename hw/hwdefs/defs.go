package hwdefs

import "strings"

// IRQSource identifies a device driving one of the CPU interrupt lines. NMI
// is edge-triggered, all other sources are level-triggered and or-ed together
// on the IRQ line.
type IRQSource uint8

const (
	NMI IRQSource = 1 << iota
	FrameCounter
	DMC
	Board

	numSources = 4
)

// IRQLines is the mask of the level-triggered sources.
const IRQLines = FrameCounter | DMC | Board

var irqSrcNames = [numSources]string{
	"nmi",
	"fcnt",
	"dmc",
	"board",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

// HoldKind identifies a DMA unit able to halt the CPU (pull RDY low).
type HoldKind uint8

const (
	HoldDMC HoldKind = iota // DMC sample fetch
	HoldOAM                 // sprite (OAM) transfer
)

func (k HoldKind) String() string {
	switch k {
	case HoldDMC:
		return "dmc"
	case HoldOAM:
		return "oam"
	}
	return "unknown"
}

const (
	SoftReset = true
	HardReset = false
)

const NumAudioChannels = 5 // Square1, Square2, Triangle, Noise, DMC
