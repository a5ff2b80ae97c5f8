package emu

import (
	"rp2a03/hw"
	"rp2a03/hw/apu"
	"rp2a03/hw/hwdefs"
	"rp2a03/hw/input"
)

// Machine is a 2A03 plugged on a program board, with scripted paddles.
type Machine struct {
	CPU    *hw.CPU
	Board  *hw.ProgramBoard
	Input  *input.Provider
	Region hwdefs.Region
}

// NewMachine powers up a machine running prg. Audio samples are sent to sink,
// which can be nil.
func NewMachine(cfg Config, prg []byte, sink apu.AudioSink) (*Machine, error) {
	board, err := hw.NewProgramBoard(prg)
	if err != nil {
		return nil, err
	}

	region := cfg.Emulation.Region
	if cfg.Emulation.VBlankNMI {
		board.NMIEvery = region.FrameCycles()
	}

	var mixer *apu.Mixer
	if !cfg.Audio.DisableAudio {
		mixer = apu.NewMixer(uint32(region.CPUClock()), cfg.Audio.SampleRate, sink)
	}

	m := &Machine{
		CPU:    hw.NewCPU(region, mixer, board),
		Board:  board,
		Input:  input.NewProvider(cfg.Input),
		Region: region,
	}
	m.CPU.PlugInputDevice(m.Input)
	if cfg.TraceOut != nil {
		m.CPU.SetTraceOutput(cfg.TraceOut)
	}

	m.Reset(hwdefs.HardReset)
	return m, nil
}

func (m *Machine) Reset(soft bool) {
	m.CPU.Reset(soft)
}

// RunFrame runs the CPU for one video frame worth of cycles, or less if it
// gets jammed.
func (m *Machine) RunFrame(frame int64) {
	m.Input.SetFrame(frame)
	m.CPU.Run(m.Region.FrameCycles())
}
