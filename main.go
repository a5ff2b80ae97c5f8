package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"rp2a03/hw"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case versionMode:
		fmt.Println("rp2a03", version())
	case opcodesMode:
		checkf(printOpcodes(cfg.Opcodes.Illegal), "failed to print opcodes")
	case runMode:
		if err := run(cfg.Run); err != nil {
			fatalf("%s", err)
		}
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}

func printOpcodes(illegalOnly bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tMODE\tSIZE\tCYCLES\tILLEGAL")
	for _, op := range hw.Opcodes() {
		if illegalOnly && !op.Illegal {
			continue
		}
		ill := ""
		if op.Illegal {
			ill = "*"
		}
		fmt.Fprintf(w, "%02X\t%s\t%s\t%d\t%d\t%s\n", op.Code, op.Name, op.Mode, op.Size, op.Cycles, ill)
	}
	return w.Flush()
}
