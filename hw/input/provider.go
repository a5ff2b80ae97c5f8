package input

import (
	"fmt"
	"slices"

	"rp2a03/emu/log"
)

// An Event sets the buttons held on a paddle, from Frame onwards.
type Event struct {
	Frame   int64   `toml:"frame"`
	Buttons Buttons `toml:"buttons"`
}

type PaddleConfig struct {
	Plugged bool    `toml:"plugged"`
	Script  []Event `toml:"script"`
}

// Config describes the scripted inputs of the paddles. The first entry is
// plugged in port 1, the second in port 2.
type Config struct {
	Paddles []PaddleConfig `toml:"paddles"`
}

// Validate checks there are at most 2 paddles and that scripts are sorted by
// frame.
func (cfg *Config) Validate() error {
	if len(cfg.Paddles) > 2 {
		return fmt.Errorf("%d paddles configured, at most 2 are supported", len(cfg.Paddles))
	}
	for i, pad := range cfg.Paddles {
		for j, ev := range pad.Script {
			if ev.Frame < 0 {
				return fmt.Errorf("paddle %d: event %d: negative frame %d", i+1, j, ev.Frame)
			}
			if j > 0 && ev.Frame <= pad.Script[j-1].Frame {
				return fmt.Errorf("paddle %d: event %d: frame %d not after frame %d", i+1, j, ev.Frame, pad.Script[j-1].Frame)
			}
		}
	}
	return nil
}

// Provider replays scripted paddle inputs. It's an InputDevice for the CPU
// input ports, driven by the frame counter of the emulator loop.
type Provider struct {
	cfg   Config
	frame int64
}

// NewProvider returns a provider replaying the inputs described by cfg, which
// must be valid.
func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// SetFrame sets the current frame number.
func (p *Provider) SetFrame(frame int64) {
	p.frame = frame
}

func (p *Provider) paddleState(idx int) uint8 {
	if idx >= len(p.cfg.Paddles) {
		return 0
	}
	padcfg := p.cfg.Paddles[idx]
	if !padcfg.Plugged {
		return 0
	}

	// Last event at or before the current frame.
	i, found := slices.BinarySearchFunc(padcfg.Script, p.frame, func(ev Event, frame int64) int {
		switch {
		case ev.Frame < frame:
			return -1
		case ev.Frame > frame:
			return 1
		}
		return 0
	})
	if !found {
		if i == 0 {
			return 0
		}
		i--
	}
	return uint8(padcfg.Script[i].Buttons)
}

func (p *Provider) LoadState() (uint8, uint8) {
	p1, p2 := p.paddleState(0), p.paddleState(1)
	log.ModInput.DebugZ("paddles state").
		Int64("frame", p.frame).
		Stringer("pad1", Buttons(p1)).
		Stringer("pad2", Buttons(p2)).
		End()
	return p1, p2
}
