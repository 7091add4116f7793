package terminal

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-delve/deet/service/api"
)

func disasmPrint(dv []api.AsmInstruction, out io.Writer, fmtLine api.LineFormatter) {
	bw := bufio.NewWriter(out)
	defer bw.Flush()
	if len(dv) > 0 && dv[0].Function != "" {
		fmt.Fprintf(bw, "TEXT %s\n", dv[0].Function)
	}
	tw := tabwriter.NewWriter(bw, 1, 8, 1, '\t', 0)
	defer tw.Flush()
	for _, inst := range dv {
		atbp := ""
		if inst.Breakpoint {
			atbp = "*"
		}
		atpc := ""
		if inst.AtPC {
			atpc = "=>"
		}
		line := "?"
		if inst.Line > 0 {
			line = fmtLine(inst.Line)
		}
		fmt.Fprintf(tw, "%s\t%s\t%#x%s\t%s\t%s\n", atpc, line, inst.PC, atbp, inst.BytesString(), inst.Text)
	}
}
