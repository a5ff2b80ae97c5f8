package apu

// timer is the period divider of a channel. It is clocked once per CPU cycle
// and reports when it reloads, which clocks the channel sequencer.
type timer struct {
	timer      uint16
	period     uint16
	lastOutput int8

	channel Channel
	mixer   mixer
	clock   *uint32 // current cycle in the audio frame
}

func (t *timer) reset(_ bool) {
	t.timer = 0
	t.period = 0
	t.lastOutput = 0
}

// addOutput sends the output change, if any, to the mixer.
func (t *timer) addOutput(output int8) {
	if output != t.lastOutput {
		t.mixer.AddDelta(t.channel, *t.clock, int16(output)-int16(t.lastOutput))
		t.lastOutput = output
	}
}

func (t *timer) tick() bool {
	if t.timer == 0 {
		t.timer = t.period
		return true
	}
	t.timer--
	return false
}
