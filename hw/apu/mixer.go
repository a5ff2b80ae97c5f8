package apu

import (
	"slices"

	"github.com/arl/blip"

	"rp2a03/emu/log"
	"rp2a03/hw/hwdefs"
)

const (
	MaxSampleRate = 96000
	AudioChannels = 2
)

// cycleLength is the number of CPU cycles per audio frame. The APU ends an
// audio frame, thus producing samples, every cycleLength cycles.
const cycleLength = 10000

const maxSamplesPerFrame = MaxSampleRate / 60 * 4

// An AudioSink receives interleaved stereo 16-bit samples.
type AudioSink interface {
	WriteSamples(samples []int16) error
}

// Mixer combines channel outputs with the non-linear NES mixing formula and
// resamples the result to the output sample rate.
type Mixer struct {
	outbuf  [maxSamplesPerFrame * AudioChannels]int16
	buf     *blip.Buffer
	prevOut int16

	timestamps []uint32
	chanoutput [hwdefs.NumAudioChannels][cycleLength + 1]int16
	curOutput  [hwdefs.NumAudioChannels]int16

	clockRate  uint32
	sampleRate uint32

	sink AudioSink
	err  error
}

// NewMixer creates a mixer producing samples at sampleRate, for a CPU running
// at clockRate. sink may be nil, in which case samples are dropped.
func NewMixer(clockRate, sampleRate uint32, sink AudioSink) *Mixer {
	sampleRate = min(sampleRate, MaxSampleRate)
	am := &Mixer{
		buf:        blip.NewBuffer(maxSamplesPerFrame),
		clockRate:  clockRate,
		sampleRate: sampleRate,
		sink:       sink,
	}
	am.Reset()
	return am
}

func (am *Mixer) Reset() {
	am.prevOut = 0
	am.buf.Clear()
	am.timestamps = am.timestamps[:0]

	for i := range am.chanoutput {
		clear(am.chanoutput[i][:])
	}
	clear(am.curOutput[:])

	am.buf.SetRates(float64(am.clockRate), float64(am.sampleRate))
}

// Err returns the first error returned by the audio sink, if any.
func (am *Mixer) Err() error { return am.err }

// SampleRate returns the output sample rate.
func (am *Mixer) SampleRate() uint32 { return am.sampleRate }

func (am *Mixer) outputVolume() int16 {
	squareOutput := float64(am.curOutput[Square1] + am.curOutput[Square2])
	tndOutput := float64(am.curOutput[DPCM]) +
		2.7516713261*float64(am.curOutput[Triangle]) +
		1.8493587125*float64(am.curOutput[Noise])

	squareVolume := uint16((95.88 * 5000.0) / (8128.0/squareOutput + 100.0))
	tndVolume := uint16((159.79 * 5000.0) / (22638.0/tndOutput + 100.0))

	return int16(squareVolume + tndVolume)
}

func (am *Mixer) AddDelta(ch Channel, time uint32, delta int16) {
	if delta != 0 {
		am.timestamps = append(am.timestamps, time)
		am.chanoutput[ch][time] += delta
	}
}

// endFrame mixes the deltas accumulated during the last time cycles and sends
// the resulting samples to the sink.
func (am *Mixer) endFrame(time uint32) {
	slices.Sort(am.timestamps)
	am.timestamps = slices.Compact(am.timestamps)

	for _, stamp := range am.timestamps {
		for j := range hwdefs.NumAudioChannels {
			am.curOutput[j] += am.chanoutput[j][stamp]
		}

		out := am.outputVolume() * 4
		am.buf.AddDelta(uint64(stamp), int32(out-am.prevOut))
		am.prevOut = out
	}

	am.buf.EndFrame(int(time))

	am.timestamps = am.timestamps[:0]
	for i := range am.chanoutput {
		clear(am.chanoutput[i][:])
	}

	// Left channel is copied to the right one.
	out := am.outbuf[:]
	n := am.buf.ReadSamples(out, maxSamplesPerFrame, blip.Stereo)
	for i := 0; i < n*2; i += 2 {
		out[i+1] = out[i]
	}

	if am.sink == nil || am.err != nil || n == 0 {
		return
	}
	if err := am.sink.WriteSamples(out[:n*2]); err != nil {
		log.ModSound.WarnZ("audio sink failed").Error("err", err).End()
		am.err = err
	}
}
