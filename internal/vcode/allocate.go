package vcode

import "kanso/internal/regalloc"

// Allocate runs linear-scan register allocation over one VCode function's
// body (prologue/epilogue already use fixed physical registers and are
// left untouched) and rewrites every virtual operand in place.
func Allocate[I VCodeInstr](fn *VCodeFunction[I], usable []regalloc.VReg) {
	walk := func(visit func(I)) {
		for _, blk := range fn.Blocks {
			for _, instr := range blk.Instrs {
				visit(instr)
			}
		}
	}

	allocs := regalloc.LinearScan(usable, func(collect regalloc.Regalloc) {
		walk(func(instr I) {
			instr.CollectRegisters(collect)
			collect.NextInstr()
		})
	})

	for bi := range fn.Blocks {
		for ii := range fn.Blocks[bi].Instrs {
			fn.Blocks[bi].Instrs[ii].ApplyAllocs(allocs)
		}
	}
}
