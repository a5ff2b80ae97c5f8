package hw

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rp2a03/hw/hwdefs"
)

func TestPflag(t *testing.T) {
	var p P
	p.setFlags(Carry | Negative)
	if !p.hasFlag(Carry) || !p.hasFlag(Negative) {
		t.Fatalf("flags not set: %s", p)
	}
	p.clearFlags(Carry)
	if p.hasFlag(Carry) {
		t.Errorf("carry not cleared: %s", p)
	}

	p.checkNZ(0)
	if !p.hasFlag(Zero) || p.hasFlag(Negative) {
		t.Errorf("checkNZ(0) = %s", p)
	}
	p.checkNZ(0x80)
	if p.hasFlag(Zero) || !p.hasFlag(Negative) {
		t.Errorf("checkNZ(0x80) = %s", p)
	}
}

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestOpcodes(t *testing.T) {
	ops := Opcodes()
	if len(ops) != 256 {
		t.Fatalf("got %d opcodes, want 256", len(ops))
	}

	nlegal := 0
	for i, op := range ops {
		if int(op.Code) != i {
			t.Errorf("opcode %d has code %02X", i, op.Code)
		}
		if op.Name == "" {
			t.Errorf("opcode %02X has no name", op.Code)
		}
		if !op.Illegal {
			nlegal++
		}
	}
	if nlegal != 151 {
		t.Errorf("got %d legal opcodes, want 151", nlegal)
	}

	for _, tt := range []Opcode{
		{Code: 0x00, Name: "BRK", Mode: "imp", Size: 1, Cycles: 7},
		{Code: 0x6C, Name: "JMP", Mode: "ind", Size: 3, Cycles: 5},
		{Code: 0xB1, Name: "LDA", Mode: "izy", Size: 2, Cycles: 5},
		{Code: 0xA7, Name: "LAX", Mode: "zpg", Size: 2, Cycles: 3, Illegal: true},
		{Code: 0xEB, Name: "SBC", Mode: "imm", Size: 2, Cycles: 2, Illegal: true},
	} {
		if diff := cmp.Diff(tt, ops[tt.Code]); diff != "" {
			t.Errorf("opcode %02X mismatch (-want +got):\n%s", tt.Code, diff)
		}
	}
}

// Check that each instruction advances the program counter by its size and
// takes its base number of cycles, when not crossing any page.
func TestOpcodeSizeAndCycles(t *testing.T) {
	for code, op := range opcodes {
		switch {
		case op.name == "JAM", op.mode == rel:
			continue
		case op.name == "BRK", op.name == "JSR", op.name == "RTS", op.name == "RTI", op.name == "JMP":
			continue
		}

		t.Run(fmt.Sprintf("%02X_%s_%s", code, op.name, op.mode), func(t *testing.T) {
			cpu, _ := loadCPUWith(t, fmt.Sprintf(`
8000: %02X 10 03
FFFC: 00 80`, code))

			c0 := cpu.Cycles
			cpu.Step()

			if got, want := cpu.PC, 0x8000+uint16(op.mode.size()); got != want {
				t.Errorf("PC = $%04X, want $%04X", got, want)
			}
			if got, want := cpu.Cycles-c0, int64(baseCycles[code]); got != want {
				t.Errorf("took %d cycles, want %d", got, want)
			}
		})
	}
}

func TestPageCrossing(t *testing.T) {
	tests := []struct {
		name   string
		dump   string
		x, y   uint8
		cycles int64
	}{
		{"LDA abs,X", "8000: BD F0 02", 0x0F, 0, 4},
		{"LDA abs,X cross", "8000: BD F0 02", 0x10, 0, 5},
		{"STA abs,X", "8000: 9D F0 02", 0x0F, 0, 5},
		{"STA abs,X cross", "8000: 9D F0 02", 0x10, 0, 5},
		{"LDA (zp),Y", "0010: F0 02\n8000: B1 10", 0, 0x0F, 5},
		{"LDA (zp),Y cross", "0010: F0 02\n8000: B1 10", 0, 0x10, 6},
		{"INC abs,X", "8000: FE F0 02", 0x0F, 0, 7},
		{"INC abs,X cross", "8000: FE F0 02", 0x10, 0, 7},
		{"LAX abs,Y cross", "8000: BF F0 02", 0, 0x10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, _ := loadCPUWith(t, tt.dump+"\nFFFC: 00 80")
			cpu.X, cpu.Y = tt.x, tt.y

			c0 := cpu.Cycles
			cpu.Step()
			if got := cpu.Cycles - c0; got != tt.cycles {
				t.Errorf("took %d cycles, want %d", got, tt.cycles)
			}
		})
	}
}

func TestZeroPageWrap(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0001: 99
0100: 11
8000: B5 FF
FFFC: 00 80`)
	cpu.X = 2

	runAndCheckState(t, cpu, 4, "A", 0x99)

	// The indirect pointer wraps around the zero page too.
	cpu, _ = loadCPUWith(t, `
0000: 02
00FF: 00
0200: 77
8000: A1 FF
FFFC: 00 80`)
	runAndCheckState(t, cpu, 6, "A", 0x77)
}

func TestBranchTiming(t *testing.T) {
	tests := []struct {
		name   string
		dump   string
		cycles int64
		pc     uint16
	}{
		{"not taken", "8000: F0 10\nFFFC: 00 80", 2, 0x8002},
		{"taken", "8000: D0 10\nFFFC: 00 80", 3, 0x8012},
		{"taken cross", "80F0: D0 20\nFFFC: F0 80", 4, 0x8112},
		{"taken backward cross", "8000: D0 80\nFFFC: 00 80", 4, 0x7F82},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, _ := loadCPUWith(t, tt.dump)

			c0 := cpu.Cycles
			cpu.Step()
			if got := cpu.Cycles - c0; got != tt.cycles {
				t.Errorf("took %d cycles, want %d", got, tt.cycles)
			}
			if cpu.PC != tt.pc {
				t.Errorf("PC = $%04X, want $%04X", cpu.PC, tt.pc)
			}
		})
	}
}

func TestPHPPLP(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: 08 28
FFFC: 00 80`)

	for v := range 256 {
		cpu.Reset(hwdefs.HardReset)

		cpu.P = P(v)
		cpu.Step()
		if got, want := cpu.Bus.Peek8(0x01FD), uint8(v)|0x30; got != want {
			t.Fatalf("PHP with P=$%02X pushed $%02X, want $%02X", v, got, want)
		}

		prev := P(^uint8(v))
		cpu.P = prev
		cpu.Step()
		if got, want := uint8(cpu.P)&0xCF, uint8(v)&0xCF; got != want {
			t.Fatalf("PLP of $%02X: P&$CF = $%02X, want $%02X", v, got, want)
		}
		if got, want := cpu.P&0x30, prev&0x30; got != want {
			t.Fatalf("PLP of $%02X modified bits 4-5: got $%02X, want $%02X", v, uint8(got), uint8(want))
		}
	}
}

func TestADCSBC(t *testing.T) {
	cpu, _ := loadCPUWith(t, "FFFC: 00 80")

	t.Run("vectors", func(t *testing.T) {
		tests := []struct {
			sbc          bool
			a, val       uint8
			carry        bool
			want         uint8
			wantC, wantV bool
		}{
			{false, 0x50, 0x10, false, 0x60, false, false},
			{false, 0x50, 0x50, false, 0xA0, false, true},
			{false, 0xD0, 0x90, false, 0x60, true, true},
			{false, 0xFF, 0x00, true, 0x00, true, false},
			{true, 0x50, 0xF0, true, 0x60, false, false},
			{true, 0x50, 0xB0, true, 0xA0, false, true},
			{true, 0xD0, 0x70, true, 0x60, true, true},
			{true, 0x00, 0x00, false, 0xFF, false, false},
		}
		for _, tt := range tests {
			cpu.A = tt.a
			cpu.P.setFlag(Carry, tt.carry)
			if tt.sbc {
				sbc(cpu, tt.val)
			} else {
				adc(cpu, tt.val)
			}
			if cpu.A != tt.want || cpu.P.hasFlag(Carry) != tt.wantC || cpu.P.hasFlag(Overflow) != tt.wantV {
				t.Errorf("sbc=%t $%02X,$%02X,c=%t: got A=$%02X C=%t V=%t, want A=$%02X C=%t V=%t",
					tt.sbc, tt.a, tt.val, tt.carry,
					cpu.A, cpu.P.hasFlag(Carry), cpu.P.hasFlag(Overflow),
					tt.want, tt.wantC, tt.wantV)
			}
		}
	})

	t.Run("exhaustive", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipped in short mode")
		}

		check := func(op string, a, val uint8, c int, res uint8, wantC, wantV bool) {
			t.Helper()
			if cpu.A != res {
				t.Fatalf("%s $%02X,$%02X,c=%d: A=$%02X want $%02X", op, a, val, c, cpu.A, res)
			}
			if got := cpu.P.hasFlag(Carry); got != wantC {
				t.Fatalf("%s $%02X,$%02X,c=%d: C=%t want %t", op, a, val, c, got, wantC)
			}
			if got := cpu.P.hasFlag(Overflow); got != wantV {
				t.Fatalf("%s $%02X,$%02X,c=%d: V=%t want %t", op, a, val, c, got, wantV)
			}
			if got := cpu.P.hasFlag(Zero); got != (res == 0) {
				t.Fatalf("%s $%02X,$%02X,c=%d: Z=%t", op, a, val, c, got)
			}
			if got := cpu.P.hasFlag(Negative); got != (res&0x80 != 0) {
				t.Fatalf("%s $%02X,$%02X,c=%d: N=%t", op, a, val, c, got)
			}
		}

		for a := range 256 {
			for val := range 256 {
				for c := range 2 {
					a8, val8 := uint8(a), uint8(val)

					cpu.A = a8
					cpu.P.setFlag(Carry, c == 1)
					adc(cpu, val8)
					sum := a + val + c
					res := uint8(sum)
					check("ADC", a8, val8, c, res, sum > 0xFF, (a8^res)&(val8^res)&0x80 != 0)

					cpu.A = a8
					cpu.P.setFlag(Carry, c == 1)
					sbc(cpu, val8)
					diff := a - val - (1 - c)
					res = uint8(diff)
					check("SBC", a8, val8, c, res, diff >= 0, (a8^val8)&(a8^res)&0x80 != 0)
				}
			}
		}
	})
}

func TestReset(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: A9 42 58
FFFC: 00 80`)

	if cpu.PC != 0x8000 || cpu.SP != 0xFD || cpu.P != 0x24 || cpu.Cycles != 7 {
		t.Fatalf("after hard reset: PC=$%04X SP=$%02X P=$%02X cycles=%d, want PC=$8000 SP=$FD P=$24 cycles=7",
			cpu.PC, cpu.SP, uint8(cpu.P), cpu.Cycles)
	}

	cpu.Step() // LDA #$42
	cpu.Step() // CLI
	cpu.Reset(hwdefs.SoftReset)

	if cpu.SP != 0xFA {
		t.Errorf("after soft reset: SP=$%02X, want $FA", cpu.SP)
	}
	if !cpu.P.intDisable() {
		t.Errorf("after soft reset: interrupt disable not set")
	}
	if cpu.A != 0x42 {
		t.Errorf("after soft reset: A=$%02X, want $42", cpu.A)
	}
	if cpu.PC != 0x8000 || cpu.Cycles != 7 {
		t.Errorf("after soft reset: PC=$%04X cycles=%d", cpu.PC, cpu.Cycles)
	}
}

func TestJam(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: 02
FFFA: 00 90 00 80 00 A0`)

	cpu.Step()
	if !cpu.IsJammed() {
		t.Fatalf("CPU should be jammed")
	}
	if cpu.PC != 0x8000 {
		t.Fatalf("PC = $%04X, want $8000", cpu.PC)
	}

	cpu.Interrupt(hwdefs.NMI, true)
	cpu.Interrupt(hwdefs.Board, true)
	c0 := cpu.Cycles
	cpu.Run(1000)
	if cpu.PC != 0x8000 {
		t.Errorf("jammed CPU serviced an interrupt, PC = $%04X", cpu.PC)
	}
	if cpu.Cycles-c0 >= 1000 {
		t.Errorf("Run didn't return early on a jammed CPU")
	}

	cpu.Interrupt(hwdefs.NMI|hwdefs.Board, false)
	cpu.Reset(hwdefs.HardReset)
	if cpu.IsJammed() {
		t.Errorf("CPU still jammed after reset")
	}
}

func TestJMPIndirectBug(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
0200: 12
02FF: 34
0300: 56
8000: 6C FF 02
FFFC: 00 80`)

	runAndCheckState(t, cpu, 5, "PC", 0x1234)
}

func TestDummyAccesses(t *testing.T) {
	tests := []struct {
		name       string
		dump       string
		x          uint8
		wantReads  int
		wantWrites []uint8
	}{
		{"INC abs", "8000: EE 00 50", 0, 1, []uint8{0x41, 0x42}},
		{"ASL abs", "8000: 0E 00 50", 0, 1, []uint8{0x41, 0x82}},
		{"STA abs,X", "8000: 9D 00 50", 0, 1, []uint8{0x00}},
		{"LDA abs,X", "8000: BD 00 50", 0, 1, nil},
		{"LDA abs,X cross", "8000: BD FF 4F", 1, 1, nil},
		{"DCP abs,X", "8000: DF 00 50", 0, 2, []uint8{0x41, 0x40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, _ := loadCPUWith(t, tt.dump+"\nFFFC: 00 80")
			var (
				reads  int
				writes []uint8
			)
			reg := countReg(&reads, &writes)
			reg.Value = 0x41
			cpu.Bus.MapReg8(0x5000, reg)
			cpu.X = tt.x

			cpu.Step()
			if reads != tt.wantReads {
				t.Errorf("got %d reads, want %d", reads, tt.wantReads)
			}
			if diff := cmp.Diff(tt.wantWrites, writes); diff != "" {
				t.Errorf("writes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBRKHijack(t *testing.T) {
	const dump = `
8000: 00 EA
FFFA: 00 90 00 80 00 A0`

	tests := []struct {
		nmiCycle int64 // 0 means no NMI
		want     uint16
	}{
		{2, 0x9000},
		{4, 0x9000},
		{6, 0xA000},
		{0, 0xA000},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("nmi@%d", tt.nmiCycle), func(t *testing.T) {
			cpu, board := loadCPUWith(t, dump)
			c0 := cpu.Cycles
			board.onTick = func() {
				if tt.nmiCycle != 0 && cpu.Cycles == c0+tt.nmiCycle {
					cpu.Interrupt(hwdefs.NMI, true)
				}
			}

			cpu.Step()
			runAndCheckState(t, cpu, 0,
				"PC", int(tt.want),
				"SP", 0xFA,
				"Pi", 1,
				"mem", "01FB: 34 02 80",
			)
		})
	}
}

func TestIRQAfterCLI(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: 58 EA EA
FFFA: 00 90 00 80 00 A0`)

	cpu.Interrupt(hwdefs.Board, true)

	// The interrupt is polled before CLI clears the flag.
	cpu.Step()
	if cpu.PC != 0x8001 {
		t.Fatalf("IRQ taken right after CLI, PC = $%04X", cpu.PC)
	}

	cpu.Step()
	runAndCheckState(t, cpu, 0,
		"PC", 0xA000,
		"Pi", 1,
		"mem", "01FB: 20 02 80",
	)

	// IRQ is level triggered: the handler runs with I set, no reentry.
	cpu.Interrupt(hwdefs.Board, false)
	if cpu.HasIRQSource(hwdefs.Board) {
		t.Errorf("IRQ line still asserted")
	}
}

func TestBranchDelaysIRQ(t *testing.T) {
	cpu, board := loadCPUWith(t, `
8000: D0 00 EA
FFFA: 00 90 00 80 00 A0`)
	cpu.P = Unused

	c0 := cpu.Cycles
	board.onTick = func() {
		if cpu.Cycles == c0+2 {
			cpu.Interrupt(hwdefs.Board, true)
		}
	}

	cpu.Step()
	if cpu.PC != 0x8002 {
		t.Fatalf("IRQ not delayed by taken branch, PC = $%04X", cpu.PC)
	}
	cpu.Step()
	if cpu.PC != 0xA000 {
		t.Fatalf("IRQ not taken after the following instruction, PC = $%04X", cpu.PC)
	}
}

func TestOAMDMA(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: A9 02 8D 14 40 EA
FFFC: 00 80`)

	var (
		reads  int
		writes []uint8
	)
	cpu.Bus.MapReg8(0x2004, countReg(&reads, &writes))

	want := make([]uint8, 256)
	for i := range want {
		want[i] = uint8(i * 3)
		cpu.Bus.Write8(0x0200+uint16(i), want[i])
	}

	cpu.Step() // LDA #$02
	cpu.Step() // STA $4014

	c0 := cpu.Cycles
	cpu.Step() // NOP, halted by the transfer
	if got := cpu.Cycles - c0; got != 2+513 && got != 2+514 {
		t.Errorf("NOP+DMA took %d cycles, want 515 or 516", got)
	}
	if diff := cmp.Diff(want, writes); diff != "" {
		t.Errorf("OAM writes mismatch (-want +got):\n%s", diff)
	}
	if reads != 0 {
		t.Errorf("$2004 read %d times", reads)
	}
}

type fakePads [2]uint8

func (p fakePads) LoadState() (uint8, uint8) { return p[0], p[1] }

// startDMCDMA enables the DMC channel and runs the CPU until a DMC transfer
// is pending.
func startDMCDMA(t *testing.T, cpu *CPU) {
	t.Helper()

	cpu.Write8(0x4012, 0x00) // sample at $C000
	cpu.Write8(0x4013, 0x00) // 1 byte long
	cpu.Write8(0x4015, 0x10)
	for range 10 {
		if cpu.DMA.needHalt {
			return
		}
		cpu.cycleBegin()
		cpu.cycleEnd()
	}
	t.Fatalf("DMC DMA not started")
}

func TestDMCDMAOnInputPort(t *testing.T) {
	cpu, _ := loadCPUWith(t, "FFFC: 00 80")
	cpu.PlugInputDevice(fakePads{0b0110, 0})

	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)

	startDMCDMA(t, cpu)

	// Only the halt cycle read is seen by the controller, which loses a bit.
	got := []uint8{cpu.Read8(0x4016), cpu.Read8(0x4016), cpu.Read8(0x4016)}
	want := []uint8{0x41, 0x41, 0x40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("$4016 reads mismatch (-want +got):\n%s", diff)
	}
}

func TestDMCDMAHaltReads(t *testing.T) {
	cpu, _ := loadCPUWith(t, "FFFC: 00 80")

	var (
		reads  int
		writes []uint8
	)
	cpu.Bus.MapReg8(0x5000, countReg(&reads, &writes))

	startDMCDMA(t, cpu)

	c0 := cpu.Cycles
	cpu.Read8(0x5000)

	// Halt and dummy cycles, plus an optional alignment cycle, all repeat
	// the CPU read.
	if reads != 3 && reads != 4 {
		t.Errorf("got %d reads, want 3 or 4", reads)
	}
	if got := cpu.Cycles - c0; got != int64(reads)+1 {
		t.Errorf("read took %d cycles, want %d", got, reads+1)
	}
}

func TestInputPorts(t *testing.T) {
	cpu, _ := loadCPUWith(t, "FFFC: 00 80")
	cpu.PlugInputDevice(fakePads{0b1010_0101, 0b0000_0011})

	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)

	if got := cpu.Bus.Peek8(0x4016); got != 0x41 {
		t.Errorf("peek $4016 = $%02X, want $41", got)
	}

	var p1, p2 []uint8
	for range 10 {
		p1 = append(p1, cpu.Read8(0x4016)&1)
		p2 = append(p2, cpu.Read8(0x4017)&1)
	}
	if diff := cmp.Diff([]uint8{1, 0, 1, 0, 0, 1, 0, 1, 1, 1}, p1); diff != "" {
		t.Errorf("port 1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint8{1, 1, 0, 0, 0, 0, 0, 0, 1, 1}, p2); diff != "" {
		t.Errorf("port 2 mismatch (-want +got):\n%s", diff)
	}

	// While strobe is high, the first button is reported continuously.
	cpu.Write8(0x4016, 1)
	for range 3 {
		if got := cpu.Read8(0x4016); got != 0x41 {
			t.Fatalf("strobed $4016 = $%02X, want $41", got)
		}
	}

	// No device: reads return 0 with open bus bits.
	cpu.PlugInputDevice(nil)
	cpu.Write8(0x4016, 0)
	if got := cpu.Read8(0x4016); got != 0x40 {
		t.Errorf("$4016 without device = $%02X, want $40", got)
	}
}

func TestOpenBus(t *testing.T) {
	cpu, _ := loadCPUWith(t, `
8000: AD 00 50
FFFC: 00 80`)

	runAndCheckState(t, cpu, 4, "A", 0x50)

	// Write only registers read as zero.
	if got := cpu.Read8(0x4000); got != 0 {
		t.Errorf("$4000 = $%02X, want 0", got)
	}
}

func TestARR(t *testing.T) {
	cpu, _ := loadCPUWith(t, "FFFC: 00 80")

	tests := []struct {
		a, val     uint8
		carry      bool
		want       uint8
		c, v, n, z bool
	}{
		{a: 0xFF, val: 0xFF, want: 0x7F, c: true},
		{a: 0xFF, val: 0xC0, carry: true, want: 0xE0, c: true, n: true},
		{a: 0x80, val: 0x80, want: 0x40, c: true, v: true},
		{a: 0x40, val: 0xFF, want: 0x20, v: true},
		{a: 0x01, val: 0x01, want: 0x00, z: true},
	}
	for _, tt := range tests {
		cpu.A = tt.a
		cpu.P.setFlag(Carry, tt.carry)
		arr(cpu, tt.val)

		got := []bool{cpu.P.hasFlag(Carry), cpu.P.hasFlag(Overflow), cpu.P.hasFlag(Negative), cpu.P.hasFlag(Zero)}
		want := []bool{tt.c, tt.v, tt.n, tt.z}
		if cpu.A != tt.want {
			t.Errorf("ARR $%02X&$%02X: A = $%02X, want $%02X", tt.a, tt.val, cpu.A, tt.want)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ARR $%02X&$%02X: C,V,N,Z (-want +got):\n%s", tt.a, tt.val, diff)
		}
	}
}
