// Package ines loads program images for the program board: either raw PRG
// dumps, or files in the iNES format using mapper 0.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"

	"rp2a03/hw/hwdefs"
)

const Magic = "NES\x1a"

// ErrUnsupportedMapper is returned for iNES images which mapper isn't 0.
var ErrUnsupportedMapper = errors.New("unsupported mapper")

// A Program is a loaded program image.
type Program struct {
	header
	PRG     []byte // PRG is the program image.
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	INES    bool   // INES is true if the image had an iNES header.
}

// Open loads a program from file.
func Open(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog := new(Program)
	if _, err := prog.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// ReadFrom implements io.ReaderFrom interface. Data not starting with the
// iNES magic number is read as a raw PRG image.
func (prog *Program) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if len(buf) < len(Magic) || string(buf[:len(Magic)]) != Magic {
		prog.PRG = buf
		return int64(len(buf)), nil
	}
	if err := prog.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	prog.INES = true
	if prog.Mapper() != 0 {
		return 0, fmt.Errorf("%w %d", ErrUnsupportedMapper, prog.Mapper())
	}

	off := 16
	if prog.HasTrainer() {
		if len(buf) < off+512 {
			return 0, fmt.Errorf("incomplete TRAINER section")
		}
		prog.Trainer = buf[off : off+512]
		off += 512
	}

	// CHR data follows, the program board doesn't use it.
	if len(buf) < off+prog.prgsz {
		return 0, fmt.Errorf("incomplete PRG section")
	}
	prog.PRG = buf[off : off+prog.prgsz]
	return int64(len(buf)), nil
}

func (hdr *header) decode(p []byte) error {
	if len(p) < 16 {
		return fmt.Errorf("too small, needs 16 bytes")
	}
	copy(hdr.raw[:], p[:16])

	hdr.prgsz = int(hdr.raw[4]) * 16384
	if hdr.prgsz == 0 {
		return fmt.Errorf("empty PRG section")
	}
	return nil
}

type header struct {
	raw   [16]byte
	prgsz int
}

// HasTrainer indicates the presence of a trainer section.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// Mapper returns the mapper number.
func (hdr *header) Mapper() uint8 {
	return hdr.raw[7]&0xF0 | hdr.raw[6]>>4
}

// Region returns the region hinted by the header (iNES 1.0, byte 9), NTSC
// for raw images.
func (hdr *header) Region() hwdefs.Region {
	if hdr.raw[9]&0x01 != 0 {
		return hwdefs.PAL
	}
	return hwdefs.NTSC
}
