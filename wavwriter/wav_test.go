package wavwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	ww, err := Create(path, 44100)
	if err != nil {
		t.Fatal(err)
	}

	want := []int16{0, 0, 100, 100, -100, -100, 32767, 32767, -32768, -32768}
	if err := ww.WriteSamples(want[:4]); err != nil {
		t.Fatal(err)
	}
	if err := ww.WriteSamples(want[4:]); err != nil {
		t.Fatal(err)
	}
	if err := ww.WriteSamples([]int16{1}); err == nil {
		t.Errorf("odd number of samples should be rejected")
	}
	if err := ww.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}

	if dec.NumChans != 2 || dec.SampleRate != 44100 || dec.BitDepth != 16 {
		t.Errorf("got %d channels, %dHz, %d bits", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}

	got := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		got[i] = int16(s)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}
