package apu

// lengthCounter silences a channel once it counts down to 0. Register writes
// to the halt flag and to the counter are applied by reload, at the end of the
// APU cycle, so that they don't race with a half frame clock of that cycle.
type lengthCounter struct {
	channel Channel
	enabled bool
	counter uint8
	halt    bool

	// Pending register writes.
	nextHalt    bool
	nextValue   uint8 // 0: no reload pending
	prevCounter uint8 // counter value when the reload was requested
}

// init sets the halt flag, applied at the next reload.
func (lc *lengthCounter) init(halt bool) {
	lc.nextHalt = halt
}

// load requests a counter reload with entry idx of the length table. Loads
// are ignored while the channel is disabled.
func (lc *lengthCounter) load(idx uint8) {
	if !lc.enabled {
		return
	}
	lc.nextValue = lengthTable[idx&0x1F]
	lc.prevCounter = lc.counter
}

// reload applies the pending register writes. A counter reload is dropped if
// the counter was clocked since the write.
func (lc *lengthCounter) reload() {
	if lc.nextValue != 0 && lc.counter == lc.prevCounter {
		lc.counter = lc.nextValue
	}
	lc.nextValue = 0
	lc.halt = lc.nextHalt
}

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	if soft && lc.channel == Triangle {
		// A soft reset leaves the triangle length counter alone.
		return
	}
	*lc = lengthCounter{channel: lc.channel}
}

// tick is the half frame clock.
func (lc *lengthCounter) tick() {
	if lc.counter > 0 && !lc.halt {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	lc.enabled = enabled
	if !enabled {
		lc.counter = 0
	}
}

func (lc *lengthCounter) status() bool   { return lc.counter > 0 }
func (lc *lengthCounter) isHalted() bool { return lc.halt }
