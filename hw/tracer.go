package hw

import (
	"io"
	"strconv"
	"strings"
)

// cpuState is the CPU state printed for each traced instruction.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock int64
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

// Trace line layout: disassembly, then registers from column traceRegsCol.
const (
	disasmWidth  = 48
	traceRegsCol = 49
)

// tracer writes one line per executed instruction, in a format close to the
// nestest golden log (without PPU columns):
//
//	C000  4C F5 C5  JMP $C5F5                        A:00 X:00 Y:00 P:24 S:FD CYC:7
type tracer struct {
	d   disasmer
	w   io.Writer
	buf []byte
}

func (t *tracer) write(state cpuState) {
	buf := t.d.Disasm(state.PC).AppendTo(t.buf[:0])
	buf = pad(buf, traceRegsCol)

	for _, reg := range [...]struct {
		name byte
		val  uint8
	}{
		{'A', state.A},
		{'X', state.X},
		{'Y', state.Y},
		{'P', uint8(state.P)},
		{'S', state.SP},
	} {
		buf = append(buf, reg.name, ':')
		buf = appendHex8(buf, reg.val)
		buf = append(buf, ' ')
	}
	buf = append(buf, "CYC:"...)
	buf = strconv.AppendInt(buf, state.Clock, 10)
	buf = append(buf, '\n')

	t.buf = buf
	t.w.Write(buf)
}

// DisasmOp is the disassembly of one instruction.
type DisasmOp struct {
	Opcode string // mnemonic, prefixed with '*' for illegal opcodes
	Oper   string
	Buf    []byte
	PC     uint16
}

func (d DisasmOp) String() string {
	return string(d.AppendTo(nil))
}

// Bytes returns the disassembly text.
func (d DisasmOp) Bytes() []byte {
	return d.AppendTo(make([]byte, 0, disasmWidth+1))
}

// AppendTo appends the disassembly to dst, padded to 48 columns. The
// illegal opcode marker takes the last column of the instruction bytes.
func (d DisasmOp) AppendTo(dst []byte) []byte {
	start := len(dst)
	dst = appendHex8(dst, uint8(d.PC>>8))
	dst = appendHex8(dst, uint8(d.PC))
	dst = append(dst, ' ', ' ')
	for _, b := range d.Buf {
		dst = appendHex8(dst, b)
		dst = append(dst, ' ')
	}

	col := 16
	if strings.HasPrefix(d.Opcode, "*") {
		col--
	}
	dst = pad(dst, start+col)
	dst = append(dst, d.Opcode...)
	dst = append(dst, ' ')
	dst = append(dst, d.Oper...)

	if len(dst)-start > disasmWidth {
		return append(dst, ' ')
	}
	return pad(dst, start+disasmWidth)
}

func appendHex8(dst []byte, v uint8) []byte {
	const digits = "0123456789ABCDEF"
	return append(dst, digits[v>>4], digits[v&0x0F])
}

// pad appends spaces to buf up to length n.
func pad(buf []byte, n int) []byte {
	for len(buf) < n {
		buf = append(buf, ' ')
	}
	return buf
}
