// Package wavwriter records the emulated audio into a 16-bit stereo PCM WAV
// file. It's mostly useful for testing purposes.
package wavwriter

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"rp2a03/emu/log"
)

const (
	numChannels = 2
	bitDepth    = 16
	pcmFormat   = 1
)

// WavWriter encodes interleaved stereo samples, it implements apu.AudioSink.
type WavWriter struct {
	enc      *wav.Encoder
	buf      audio.IntBuffer
	closer   io.Closer
	nsamples int
}

// New returns a WavWriter encoding to w. The WAV header is finalized by
// Close, which doesn't close w.
func New(w io.WriteSeeker, sampleRate uint32) *WavWriter {
	return &WavWriter{
		enc: wav.NewEncoder(w, int(sampleRate), bitDepth, numChannels, pcmFormat),
		buf: audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  int(sampleRate),
			},
			SourceBitDepth: bitDepth,
		},
	}
}

// Create creates the named file and returns a WavWriter encoding to it.
func Create(filename string, sampleRate uint32) (*WavWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: %w", err)
	}
	ww := New(f, sampleRate)
	ww.closer = f
	log.ModSound.InfoZ("writing audio").String("file", filename).End()
	return ww, nil
}

// WriteSamples encodes interleaved left/right samples.
func (ww *WavWriter) WriteSamples(samples []int16) error {
	if len(samples)%numChannels != 0 {
		return fmt.Errorf("wavwriter: odd number of samples (%d)", len(samples))
	}

	data := ww.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	ww.buf.Data = data

	if err := ww.enc.Write(&ww.buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	ww.nsamples += len(samples) / numChannels
	return nil
}

// Close finalizes the WAV file, and closes the file if it was created by
// Create.
func (ww *WavWriter) Close() error {
	err := ww.enc.Close()
	if ww.closer != nil {
		err = errors.Join(err, ww.closer.Close())
	}
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	log.ModSound.DebugZ("audio written").Int("samples", ww.nsamples).End()
	return nil
}
