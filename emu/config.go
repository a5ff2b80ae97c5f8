package emu

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"rp2a03/hw/apu"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/input"
)

type Config struct {
	Input     input.Config    `toml:"input"`
	Audio     AudioConfig     `toml:"audio"`
	Emulation EmulationConfig `toml:"emulation"`
	Trace     TraceConfig     `toml:"trace"`

	TraceOut io.Writer `toml:"-"`
}

type EmulationConfig struct {
	Region hwdefs.Region `toml:"region"`

	// Sleep between frames to run at the region frame rate.
	FrameLimit bool `toml:"frame_limit"`

	// Stop after that many frames, 0 means no limit.
	MaxFrames int64 `toml:"max_frames"`

	// Pulse the NMI line once per frame, as the PPU does at vblank.
	VBlankNMI bool `toml:"vblank_nmi"`

	// Stop when the program reports a test result in PRG-RAM.
	TestStatus bool `toml:"test_status"`
}

type AudioConfig struct {
	DisableAudio bool   `toml:"disable_audio"`
	SampleRate   uint32 `toml:"sample_rate"`
	WAVOutput    string `toml:"wav_output"`
}

type TraceConfig struct {
	// FILE, stdout or stderr.
	Output string `toml:"output"`
}

const DefaultSampleRate = 44100

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: DefaultSampleRate,
		},
		Emulation: EmulationConfig{
			Region: hwdefs.NTSC,
		},
	}
}

// LoadConfig decodes the toml file at path over the default configuration.
// An empty path returns the default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

const cfgFilename = "config.toml"

// UserConfigPath returns the path of the configuration file in the user
// config directory.
func UserConfigPath() string {
	return filepath.Join(configdir.LocalConfig("rp2a03"), cfgFilename)
}

// LoadUserConfig loads the configuration file from the user config directory,
// if there's one, or returns the default configuration.
func LoadUserConfig() (Config, error) {
	path := UserConfigPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

var ErrSampleRate = errors.New("invalid sample rate")

// Check validates the configuration.
func (cfg *Config) Check() error {
	if sr := cfg.Audio.SampleRate; sr < 8000 || sr > apu.MaxSampleRate {
		return fmt.Errorf("%w %d: must be in [8000, %d]", ErrSampleRate, sr, apu.MaxSampleRate)
	}
	if cfg.Emulation.MaxFrames < 0 {
		return fmt.Errorf("negative max_frames %d", cfg.Emulation.MaxFrames)
	}
	if err := cfg.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	return nil
}
