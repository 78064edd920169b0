package vcode

import (
	"fmt"
	"strings"

	"kanso/internal/ir"
)

// String renders vc in the textual assembly-ish format spec §6 describes:
// one label per function, `.prologue:`/`.epilogue:` pseudo-sections when
// non-empty, and `.L<index>:` per block. External-linkage functions emit
// only an extern directive.
func (vc VCode[I]) String() string {
	var b strings.Builder
	for _, fn := range vc.Functions {
		if fn.Linkage == ir.External {
			fmt.Fprintf(&b, "extern %s\n", fn.Name)
			continue
		}

		fmt.Fprintf(&b, "%s:\n", fn.Name)
		if len(fn.Prologue.Instrs) > 0 {
			b.WriteString(".prologue:\n")
			for _, instr := range fn.Prologue.Instrs {
				fmt.Fprintf(&b, "    %s\n", instr)
			}
		}
		for i, blk := range fn.Blocks {
			fmt.Fprintf(&b, ".L%d:\n", i)
			for _, instr := range blk.Instrs {
				fmt.Fprintf(&b, "    %s\n", instr)
			}
		}
		if len(fn.Epilogue.Instrs) > 0 {
			b.WriteString(".epilogue:\n")
			for _, instr := range fn.Epilogue.Instrs {
				fmt.Fprintf(&b, "    %s\n", instr)
			}
		}
	}
	return b.String()
}
