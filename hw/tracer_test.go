package hw

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func BenchmarkDisasmOpString(b *testing.B) {
	want := fmt.Sprintf("%-48s", "C000  4C F5 C5  JMP $C5F5")

	op := DisasmOp{
		Opcode: "JMP",
		Oper:   "$C5F5",
		Buf:    []byte{0x4c, 0xf5, 0xc5},
		PC:     0xC000,
	}

	var opbytes []byte
	for range b.N {
		opbytes = op.Bytes()
	}

	if string(opbytes) != want {
		b.Fatalf("\ngot:  \"%s\"\nwant: \"%s\"\n", string(opbytes), want)
	}
}

type dummyDisasm map[uint16]DisasmOp

func (dd dummyDisasm) Disasm(pc uint16) DisasmOp {
	return dd[pc]
}

var traceDisasm = dummyDisasm{
	0xE052: DisasmOp{
		PC:     0xE052,
		Buf:    []byte{0xA9, 0x32},
		Opcode: "LDA",
		Oper:   "#$32",
	},
	0xE054: DisasmOp{
		PC:     0xE054,
		Buf:    []byte{0x20, 0xEE, 0xE0},
		Opcode: "JSR",
		Oper:   "$E0EE",
	},
}

func TestTraceFormat(t *testing.T) {
	want := []string{
		fmt.Sprintf("%-49s%s", "E052  A9 32     LDA #$32", "A:00 X:01 Y:00 P:07 S:F4 CYC:8"),
		fmt.Sprintf("%-49s%s", "E054  20 EE E0  JSR $E0EE", "A:32 X:01 Y:00 P:05 S:F4 CYC:10"),
	}

	var out bytes.Buffer

	tr := tracer{d: traceDisasm, w: &out}
	tr.write(cpuState{
		PC: 0xE052,
		A:  0x00, X: 0x01, Y: 0x00, P: P(0x07), SP: 0xF4,
		Clock: 8,
	})
	tr.write(cpuState{
		PC: 0xE054,
		A:  0x32, X: 0x01, Y: 0x00, P: P(0x05), SP: 0xF4,
		Clock: 10,
	})

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func TestCPUTrace(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: A9 32 EA
FFFC: 00 80`)

	var out bytes.Buffer
	cpu.SetTraceOutput(&out)
	cpu.Step()
	cpu.Step()
	cpu.SetTraceOutput(nil)
	cpu.Step()

	want := fmt.Sprintf("%-49s%s\n%-49s%s\n",
		"8000  A9 32     LDA #$32", "A:00 X:00 Y:00 P:24 S:FD CYC:7",
		"8002  EA        NOP", "A:32 X:00 Y:00 P:24 S:FD CYC:9",
	)
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestDisasm(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0010: 55 66
0040: 00 03
0081: 00 03
0200: 12
02F2: 99
02FF: 34
0300: 5A 00 77
8000: A9 32
8002: A5 10
8004: B5 10
8006: 4C F5 C5
8009: 8D 00 03
800C: B9 F0 02
800F: 6C FF 02
8012: A1 80
8014: B1 40
8016: D0 FE
8018: A7 10
801A: 0A
FFFC: 00 80`)
	cpu.X, cpu.Y = 1, 2

	tests := []struct {
		pc     uint16
		opcode string
		oper   string
		buf    []byte
	}{
		{0x8000, "LDA", "#$32", []byte{0xA9, 0x32}},
		{0x8002, "LDA", "$10 = 55", []byte{0xA5, 0x10}},
		{0x8004, "LDA", "$10,X @ 11 = 66", []byte{0xB5, 0x10}},
		{0x8006, "JMP", "$C5F5", []byte{0x4C, 0xF5, 0xC5}},
		{0x8009, "STA", "$0300 = 5A", []byte{0x8D, 0x00, 0x03}},
		{0x800C, "LDA", "$02F0,Y @ 02F2 = 99", []byte{0xB9, 0xF0, 0x02}},
		{0x800F, "JMP", "($02FF) = 1234", []byte{0x6C, 0xFF, 0x02}},
		{0x8012, "LDA", "($80,X) @ 81 = 0300 = 5A", []byte{0xA1, 0x80}},
		{0x8014, "LDA", "($40),Y = 0300 @ 0302 = 77", []byte{0xB1, 0x40}},
		{0x8016, "BNE", "$8016", []byte{0xD0, 0xFE}},
		{0x8018, "*LAX", "$10 = 55", []byte{0xA7, 0x10}},
		{0x801A, "ASL", "A", []byte{0x0A}},
	}
	for _, tt := range tests {
		want := DisasmOp{PC: tt.pc, Opcode: tt.opcode, Oper: tt.oper, Buf: tt.buf}
		if diff := cmp.Diff(want, cpu.Disasm(tt.pc)); diff != "" {
			t.Errorf("disasm $%04X mismatch (-want +got):\n%s", tt.pc, diff)
		}
	}

	// Illegal opcodes marker sits in the separator column.
	want := fmt.Sprintf("%-48s", "8018  A7 10    *LAX $10 = 55")
	if got := cpu.Disasm(0x8018).String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Disassembling doesn't tick the CPU.
	if cpu.Cycles != 7 {
		t.Errorf("disasm ran %d cycles", cpu.Cycles-7)
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	tr := tracer{d: traceDisasm, w: io.Discard}
	s1 := cpuState{
		PC: 0xE052,
		A:  0x00, X: 0x01, Y: 0x00, P: P(0x07), SP: 0xF4,
		Clock: 8,
	}
	s2 := cpuState{
		PC: 0xE054,
		A:  0x32, X: 0x01, Y: 0x00, P: P(0x05), SP: 0xF4,
		Clock: 10,
	}

	for range b.N {
		tr.write(s1)
		tr.write(s2)
	}
}
