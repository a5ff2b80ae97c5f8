package apu

type envelope struct {
	constantVolume bool
	volume_        uint8

	start   bool
	divider int8
	counter uint8

	lenCounter lengthCounter
}

func (env *envelope) init(regValue uint8) {
	env.lenCounter.init((regValue & 0x20) == 0x20)
	env.constantVolume = (regValue & 0x10) == 0x10
	env.volume_ = regValue & 0x0F
}

func (env *envelope) restart() {
	env.start = true
}

// volume returns the envelope output, 0 when the length counter is exhausted.
func (env *envelope) volume() uint8 {
	if !env.lenCounter.status() {
		return 0
	}
	if env.constantVolume {
		return env.volume_
	}
	return env.counter
}

func (env *envelope) reset(soft bool) {
	env.lenCounter.reset(soft)
	env.constantVolume = false
	env.volume_ = 0
	env.start = false
	env.divider = 0
	env.counter = 0
}

func (env *envelope) tick() {
	if env.start {
		env.start = false
		env.counter = 15
		env.divider = int8(env.volume_)
		return
	}

	env.divider--
	if env.divider < 0 {
		env.divider = int8(env.volume_)
		if env.counter > 0 {
			env.counter--
		} else if env.lenCounter.isHalted() {
			env.counter = 15
		}
	}
}
