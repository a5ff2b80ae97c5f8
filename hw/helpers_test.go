package hw

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"rp2a03/hw/hwdefs"
	"rp2a03/hw/hwio"
)

// testBoard maps plain RAM over $2000-$3FFF and $6000-$FFFF.
type testBoard struct {
	mem [0x10000]byte

	// called at the start of every CPU cycle, if set.
	onTick func()
}

func (b *testBoard) MapBus(bus *hwio.Table, _ Interrupter) {
	bus.MapMemorySlice(0x2000, 0x3FFF, b.mem[0x2000:0x4000], false)
	bus.MapMemorySlice(0x6000, 0x7FFF, b.mem[0x6000:0x8000], false)
	bus.MapMemorySlice(0x8000, 0xFFFF, b.mem[0x8000:], false)
}

func (b *testBoard) Tick() {
	if b.onTick != nil {
		b.onTick()
	}
}

type dumpline struct {
	off   uint16
	bytes []byte
}

// loadDump parses a memory dump made of lines such as:
//
//	# comment
//	0600: a9 01 8d 00 02
func loadDump(tb testing.TB, dump string) []dumpline {
	tb.Helper()

	var lines []dumpline
	scan := bufio.NewScanner(strings.NewReader(dump))
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		off, octets, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed line: %s", line)
		}

		ioff, err := strconv.ParseUint(strings.TrimSpace(off), 16, 16)
		if err != nil {
			tb.Fatalf("malformed offset %s: %s", off, err)
		}
		buf, err := hex.DecodeString(strings.ReplaceAll(octets, " ", ""))
		if err != nil {
			tb.Fatalf("hex decode: %s", err)
		}
		lines = append(lines, dumpline{off: uint16(ioff), bytes: buf})
	}
	if scan.Err() != nil {
		tb.Fatalf("scan error: %s", scan.Err())
	}

	return lines
}

// loadCPUWith creates a CPU on a testBoard, loads the memory dump and
// performs a hard reset.
func loadCPUWith(tb testing.TB, dump string) (*CPU, *testBoard) {
	tb.Helper()

	board := &testBoard{}
	cpu := NewCPU(hwdefs.NTSC, nil, board)
	for _, line := range loadDump(tb, dump) {
		for i, b := range line.bytes {
			cpu.Bus.Write8(line.off+uint16(i), b)
		}
	}
	cpu.Reset(hwdefs.HardReset)
	return cpu, board
}

func wantMem8(t *testing.T, cpu *CPU, addr uint16, want uint8) {
	t.Helper()

	if got := cpu.Bus.Peek8(addr); got != want {
		t.Errorf("$%04X = %02X want %02X", addr, got, want)
	}
}

func wantMem(t *testing.T, cpu *CPU, dl dumpline) {
	t.Helper()

	mem := make([]byte, len(dl.bytes))
	for i := range dl.bytes {
		mem[i] = cpu.Bus.Peek8(dl.off + uint16(i))
	}
	if !bytes.Equal(mem, dl.bytes) {
		t.Errorf("mem mismatch at $%04X\ngot:  % X\nwant: % X", dl.off, mem, dl.bytes)
	}
}

// runAndCheckState runs the CPU for ncycles and checks its state. states is
// a list of name/value pairs, names are registers (A, X, Y, SP, PC, P),
// single flags (Pn, Pv, Pd, Pi, Pz, Pc) or "mem" followed by a dump.
func runAndCheckState(t *testing.T, cpu *CPU, ncycles int64, states ...any) {
	t.Helper()

	if len(states)%2 != 0 {
		panic("odd number of states")
	}

	if testing.Verbose() {
		cpu.SetTraceOutput(tbwriter{t})
		defer cpu.SetTraceOutput(nil)
	}
	cpu.Run(ncycles)

	check := func(name string, got, want int) {
		t.Helper()
		if got != want {
			t.Errorf("got %s=$%02X, want $%02X", name, got, want)
		}
	}

	for i := 0; i < len(states); i += 2 {
		s := states[i].(string)
		switch s {
		case "A":
			check("A", int(cpu.A), states[i+1].(int))
		case "X":
			check("X", int(cpu.X), states[i+1].(int))
		case "Y":
			check("Y", int(cpu.Y), states[i+1].(int))
		case "SP":
			check("SP", int(cpu.SP), states[i+1].(int))
		case "PC":
			check("PC", int(cpu.PC), states[i+1].(int))
		case "P":
			if got, want := cpu.P, P(states[i+1].(int)); got != want {
				t.Errorf("got P=$%02X(%s), want $%02X(%s)", uint8(got), got, uint8(want), want)
			}
		case "Pn", "Pv", "Pd", "Pi", "Pz", "Pc":
			flag := map[byte]uint8{'n': Negative, 'v': Overflow, 'd': Decimal, 'i': Interrupt, 'z': Zero, 'c': Carry}[s[1]]
			got := 0
			if cpu.P.hasFlag(flag) {
				got = 1
			}
			check(s, got, states[i+1].(int))
		case "mem":
			for _, line := range loadDump(t, states[i+1].(string)) {
				wantMem(t, cpu, line)
			}
		default:
			panic("unknown state: " + s)
		}
	}

	if t.Failed() {
		t.FailNow()
	}
}

type tbwriter struct {
	testing.TB
}

func (t tbwriter) Write(p []byte) (int, error) {
	t.TB.Helper()
	t.TB.Log(string(bytes.TrimSpace(p)))
	return len(p), nil
}

// countReg is a register counting its reads and recording written values.
func countReg(reads *int, writes *[]uint8) *hwio.Reg8 {
	return &hwio.Reg8{
		Name: "count",
		ReadCb: func(val uint8) uint8 {
			*reads++
			return val
		},
		WriteCb: func(_, val uint8) {
			*writes = append(*writes, val)
		},
	}
}
